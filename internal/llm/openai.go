package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
// It is safe for concurrent use.
type OpenAIProvider struct {
	client     *openai.Client
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIProvider creates a provider for the given key and base URL. An empty
// base URL keeps the client default.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(clientConfig(apiKey, baseURL)),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
}

// WithRetry overrides the retry policy used when opening a stream.
func (p *OpenAIProvider) WithRetry(maxRetries int, delay time.Duration) *OpenAIProvider {
	if maxRetries < 1 {
		maxRetries = 1
	}
	p.maxRetries = maxRetries
	p.retryDelay = delay
	return p
}

func clientConfig(apiKey, baseURL string) openai.ClientConfig {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return cfg
}

func (p *OpenAIProvider) StreamCompletion(ctx context.Context, req *CompletionRequest, ch chan<- StreamEvent) (err error) {
	defer close(ch)
	defer func() {
		finish := StreamEvent{Kind: EventStreamFinished, Err: err}
		if err == nil {
			return
		}
		select {
		case ch <- finish:
		case <-ctx.Done():
		}
	}()

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toOpenAIMessages(req.Messages),
		Stream:   true,
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toOpenAITools(req.Tools)
	}

	stream, err := p.openStream(ctx, chatReq)
	if err != nil {
		return err
	}
	defer stream.Close()

	return p.processStream(ctx, stream, ch)
}

// openStream retries transient failures with linear backoff. Nothing has been
// forwarded to the caller yet, so a retry can never duplicate output.
func (p *OpenAIProvider) openStream(ctx context.Context, chatReq openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error) {
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("Retrying model stream", "model", chatReq.Model, "attempt", attempt+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.retryDelay * time.Duration(attempt)):
			}
		}

		stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
		if err == nil {
			return stream, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, fmt.Errorf("could not open model stream: %w", err)
		}
	}
	return nil, fmt.Errorf("model stream failed after %d attempts: %w", p.maxRetries, lastErr)
}

func (p *OpenAIProvider) processStream(ctx context.Context, stream *openai.ChatCompletionStream, ch chan<- StreamEvent) error {
	send := func(ev StreamEvent) error {
		select {
		case ch <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// Indices of tool calls seen in this stream, and whether each was closed.
	seen := map[int]bool{}
	finishReason := ""

	closePending := func() error {
		indices := make([]int, 0, len(seen))
		for idx, done := range seen {
			if !done {
				indices = append(indices, idx)
			}
		}
		sort.Ints(indices)
		for _, idx := range indices {
			seen[idx] = true
			if err := send(StreamEvent{Kind: EventToolCallDone, ToolCall: ToolCallDelta{Index: idx}}); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("model stream interrupted: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]

		if choice.Delta.Content != "" {
			if err := send(StreamEvent{Kind: EventTextDelta, Text: choice.Delta.Content}); err != nil {
				return err
			}
		}

		for _, tc := range choice.Delta.ToolCalls {
			index := 0
			if tc.Index != nil {
				index = *tc.Index
			}
			if _, ok := seen[index]; !ok {
				seen[index] = false
			}
			delta := ToolCallDelta{
				Index:     index,
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}
			if err := send(StreamEvent{Kind: EventToolCallDelta, ToolCall: delta}); err != nil {
				return err
			}
		}

		if choice.FinishReason != "" {
			finishReason = string(choice.FinishReason)
			if choice.FinishReason == openai.FinishReasonToolCalls {
				if err := closePending(); err != nil {
					return err
				}
			}
		}
	}

	// Some compatible backends end a tool-calling turn with "stop" or no reason at all.
	if len(seen) > 0 {
		if err := closePending(); err != nil {
			return err
		}
		finishReason = FinishReasonToolCalls
	}
	if finishReason == "" {
		finishReason = FinishReasonStop
	}
	return send(StreamEvent{Kind: EventStreamFinished, FinishReason: finishReason})
}

func (p *OpenAIProvider) Generate(ctx context.Context, req *CompletionRequest) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toOpenAIMessages(req.Messages),
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list models: %w", err)
	}
	models := make([]ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, ModelInfo{ID: m.ID, OwnedBy: m.OwnedBy, Created: m.CreatedAt})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:       msg.Role,
			ToolCallID: msg.ToolCallID,
		}

		if msg.ImageURL != "" {
			parts := []openai.ChatMessagePart{}
			if msg.Content != "" {
				parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: msg.Content})
			}
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: msg.ImageURL, Detail: openai.ImageURLDetailAuto},
			})
			oaiMsg.MultiContent = parts
		} else {
			oaiMsg.Content = msg.Content
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, oaiMsg)
	}
	return out
}

func toOpenAITools(tools []Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}
