package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIImageGenerator wraps the images endpoint of an OpenAI-compatible backend.
type OpenAIImageGenerator struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
}

func NewOpenAIImageGenerator(apiKey, baseURL, model string) *OpenAIImageGenerator {
	return &OpenAIImageGenerator{
		client:     openai.NewClientWithConfig(clientConfig(apiKey, baseURL)),
		httpClient: &http.Client{},
		model:      model,
	}
}

func (g *OpenAIImageGenerator) GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	imgReq := openai.ImageRequest{
		Prompt: req.Prompt,
		Model:  g.model,
		N:      1,
		Size:   req.Size,
	}
	if req.Quality != "" && req.Quality != "auto" {
		imgReq.Quality = req.Quality
	}
	// gpt-image models always answer with base64 and reject response_format.
	if strings.HasPrefix(g.model, "dall-e") {
		imgReq.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	resp, err := g.client.CreateImage(ctx, imgReq)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("image backend returned no data")
	}
	item := resp.Data[0]

	var data []byte
	switch {
	case item.B64JSON != "":
		data, err = base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("could not decode image payload: %w", err)
		}
	case item.URL != "":
		data, err = g.download(ctx, item.URL)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("image backend returned neither data nor url")
	}

	revised := item.RevisedPrompt
	if revised == "" {
		revised = req.Prompt
	}
	return &ImageResult{
		Data:          data,
		MimeType:      mimetype.Detect(data).String(),
		RevisedPrompt: revised,
	}, nil
}

func (g *OpenAIImageGenerator) download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create image download request: %w", err)
	}
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
