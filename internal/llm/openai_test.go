package llm_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "askflow/backend/internal/errors"
	"askflow/backend/internal/llm"
)

func sseChunk(delta map[string]any, finishReason string) string {
	choice := map[string]any{"index": 0, "delta": delta}
	if finishReason != "" {
		choice["finish_reason"] = finishReason
	}
	payload, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "test-model",
		"choices": []any{choice},
	})
	return "data: " + string(payload) + "\n\n"
}

func streamServer(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			_, _ = fmt.Fprint(w, c)
			w.(http.Flusher).Flush()
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func collect(t *testing.T, p llm.Provider, req *llm.CompletionRequest) ([]llm.StreamEvent, error) {
	t.Helper()
	ch := make(chan llm.StreamEvent)
	errCh := make(chan error, 1)
	go func() { errCh <- p.StreamCompletion(context.Background(), req, ch) }()

	var events []llm.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events, <-errCh
}

func TestOpenAIProvider_StreamCompletion(t *testing.T) {
	t.Run("Success - Text only", func(t *testing.T) {
		srv := streamServer(t, []string{
			sseChunk(map[string]any{"role": "assistant", "content": "Hel"}, ""),
			sseChunk(map[string]any{"content": "lo"}, ""),
			sseChunk(map[string]any{}, "stop"),
		})
		p := llm.NewOpenAIProvider("test-key", srv.URL)

		events, err := collect(t, p, &llm.CompletionRequest{Model: "m", Messages: []llm.Message{{Role: "user", Content: "hi"}}})
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, llm.EventTextDelta, events[0].Kind)
		assert.Equal(t, "Hel", events[0].Text)
		assert.Equal(t, "lo", events[1].Text)
		assert.Equal(t, llm.EventStreamFinished, events[2].Kind)
		assert.Equal(t, llm.FinishReasonStop, events[2].FinishReason)
		assert.NoError(t, events[2].Err)
	})

	t.Run("Success - Tool call fragments are forwarded then closed in index order", func(t *testing.T) {
		srv := streamServer(t, []string{
			sseChunk(map[string]any{"tool_calls": []any{
				map[string]any{"index": 1, "id": "call_b", "type": "function", "function": map[string]any{"name": "generate_image", "arguments": ""}},
			}}, ""),
			sseChunk(map[string]any{"tool_calls": []any{
				map[string]any{"index": 0, "id": "call_a", "type": "function", "function": map[string]any{"name": "web_search", "arguments": `{"que`}},
			}}, ""),
			sseChunk(map[string]any{"tool_calls": []any{
				map[string]any{"index": 0, "function": map[string]any{"arguments": `ry":"go"}`}},
			}}, ""),
			sseChunk(map[string]any{}, "tool_calls"),
		})
		p := llm.NewOpenAIProvider("test-key", srv.URL)

		events, err := collect(t, p, &llm.CompletionRequest{Model: "m", Tools: []llm.Tool{{Name: "web_search", Parameters: json.RawMessage(`{"type":"object"}`)}}})
		require.NoError(t, err)

		var args strings.Builder
		var done []int
		for _, ev := range events {
			switch ev.Kind {
			case llm.EventToolCallDelta:
				if ev.ToolCall.Index == 0 {
					args.WriteString(ev.ToolCall.Arguments)
				}
			case llm.EventToolCallDone:
				done = append(done, ev.ToolCall.Index)
			}
		}
		assert.Equal(t, `{"query":"go"}`, args.String())
		assert.Equal(t, []int{0, 1}, done)

		last := events[len(events)-1]
		assert.Equal(t, llm.EventStreamFinished, last.Kind)
		assert.Equal(t, llm.FinishReasonToolCalls, last.FinishReason)
	})

	t.Run("Failure - Quota errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = fmt.Fprint(w, `{"error":{"message":"You exceeded your quota","type":"insufficient_quota","code":"insufficient_quota"}}`)
		}))
		defer srv.Close()
		p := llm.NewOpenAIProvider("test-key", srv.URL).WithRetry(3, time.Millisecond)

		events, err := collect(t, p, &llm.CompletionRequest{Model: "m"})
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
		require.Len(t, events, 1)
		assert.Equal(t, llm.EventStreamFinished, events[0].Kind)
		assert.Error(t, events[0].Err)

		classified := llm.Classify(err)
		assert.Equal(t, http.StatusPaymentRequired, classified.Status)
		assert.Equal(t, "quota_exceeded", classified.Code)
		assert.ErrorIs(t, classified, app_errors.ErrQuotaExceeded)
	})

	t.Run("Success - Transient errors are retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = fmt.Fprint(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
				return
			}
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = fmt.Fprint(w, sseChunk(map[string]any{"content": "ok"}, "stop"))
			_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
		}))
		defer srv.Close()
		p := llm.NewOpenAIProvider("test-key", srv.URL).WithRetry(3, time.Millisecond)

		events, err := collect(t, p, &llm.CompletionRequest{Model: "m"})
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, "ok", events[0].Text)
	})
}

func TestClassify(t *testing.T) {
	t.Run("Rate limited", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"})
		c := llm.Classify(err)
		assert.Equal(t, http.StatusTooManyRequests, c.Status)
		assert.ErrorIs(t, c, app_errors.ErrRateLimited)
	})

	t.Run("Unknown errors map to bad gateway", func(t *testing.T) {
		c := llm.Classify(fmt.Errorf("boom"))
		assert.Equal(t, http.StatusBadGateway, c.Status)
		assert.Equal(t, "upstream_error", c.Code)
		assert.ErrorIs(t, c, app_errors.ErrUpstream)
	})

	t.Run("Already classified errors pass through", func(t *testing.T) {
		first := llm.Classify(fmt.Errorf("boom"))
		assert.Same(t, first, llm.Classify(fmt.Errorf("again: %w", first)))
	})
}

func TestOpenAIProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"A title"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	out, err := llm.NewOpenAIProvider("k", srv.URL).Generate(context.Background(), &llm.CompletionRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "A title", out)
}

func TestOpenAIProvider_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"object":"list","data":[{"id":"z-model","object":"model","owned_by":"me"},{"id":"a-model","object":"model","owned_by":"me"}]}`)
	}))
	defer srv.Close()

	models, err := llm.NewOpenAIProvider("k", srv.URL).ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "a-model", models[0].ID)
}

func TestOpenAIImageGenerator(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	t.Run("Success - Base64 payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/images/generations", r.URL.Path)
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.NotContains(t, body, "response_format")
			assert.NotContains(t, body, "quality")
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"created": 1,
				"data":    []any{map[string]any{"b64_json": base64.StdEncoding.EncodeToString(png), "revised_prompt": "a red fox, watercolor"}},
			})
		}))
		defer srv.Close()

		gen := llm.NewOpenAIImageGenerator("k", srv.URL, "gpt-image-1")
		res, err := gen.GenerateImage(context.Background(), &llm.ImageRequest{Prompt: "fox", Size: "1024x1024", Quality: "auto"})
		require.NoError(t, err)
		assert.Equal(t, png, res.Data)
		assert.Equal(t, "image/png", res.MimeType)
		assert.Equal(t, "a red fox, watercolor", res.RevisedPrompt)
	})

	t.Run("Failure - Backend error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprint(w, `{"error":{"message":"content policy","type":"invalid_request_error"}}`)
		}))
		defer srv.Close()

		_, err := llm.NewOpenAIImageGenerator("k", srv.URL, "gpt-image-1").GenerateImage(context.Background(), &llm.ImageRequest{Prompt: "x"})
		assert.Error(t, err)
	})
}
