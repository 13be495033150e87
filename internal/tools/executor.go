package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"askflow/backend/internal/llm"
	"askflow/backend/internal/model"
	"askflow/backend/internal/observability"
	"askflow/backend/internal/search"
	"askflow/backend/internal/storage"
)

// SearchResultCount bounds the number of hits fed back to the model.
const SearchResultCount = 5

// Emitter receives client-visible side-channel events produced by a tool.
type Emitter interface {
	Emit(ev model.Event) error
}

// Call is a completed tool call issued by the model.
type Call struct {
	ID        string
	Name      string
	Arguments string
}

// Result is what goes back into the model context as a tool message.
type Result struct {
	CallID  string
	Content string
	OK      bool
	// Media is set for image calls that produced an image, even when the
	// upload failed (URL is then nil).
	Media *model.GeneratedMedia
}

// Executor invokes tools. Failures are folded into the Result and never
// returned as errors.
type Executor struct {
	searcher search.Searcher
	images   llm.ImageGenerator
	store    storage.BlobStore
	metrics  *observability.Metrics
	tracer   *observability.Tracer
}

func NewExecutor(searcher search.Searcher, images llm.ImageGenerator, store storage.BlobStore, metrics *observability.Metrics, tracer *observability.Tracer) *Executor {
	return &Executor{searcher: searcher, images: images, store: store, metrics: metrics, tracer: tracer}
}

// Execute runs one call. originalPrompt is used as the search query when the
// model did not supply a usable one.
func (e *Executor) Execute(ctx context.Context, call Call, originalPrompt string, emitter Emitter) Result {
	ctx, span := e.tracer.Start(ctx, "tool."+call.Name, attribute.String("tool.name", call.Name), attribute.String("tool.call_id", call.ID))
	start := time.Now()

	var res Result
	switch call.Name {
	case WebSearch:
		res = e.webSearch(ctx, call, originalPrompt)
	case GenerateImage:
		res = e.generateImage(ctx, call, emitter)
	default:
		res = Result{Content: encode(map[string]any{
			"error":   "unknown_tool",
			"message": fmt.Sprintf("Tool %q is not available.", call.Name),
		})}
	}
	res.CallID = call.ID

	e.metrics.RecordTool(call.Name, res.OK, time.Since(start))
	span.SetAttributes(attribute.Bool("tool.ok", res.OK))
	observability.EndSpan(span, nil)
	return res
}

func (e *Executor) webSearch(ctx context.Context, call Call, originalPrompt string) Result {
	var args struct {
		Query string `json:"query"`
	}
	query := ""
	if err := json.Unmarshal([]byte(call.Arguments), &args); err == nil {
		query = strings.TrimSpace(args.Query)
	}
	if query == "" {
		query = originalPrompt
	}

	resp, err := e.searcher.Search(ctx, query, SearchResultCount)
	if err != nil {
		slog.Warn("Web search failed", "query", query, "error", err)
		message := "Web search is temporarily unavailable."
		if errors.Is(err, search.ErrNotConfigured) {
			message = "Web search is not configured on this server."
		}
		return Result{Content: encode(map[string]any{
			"error":   "search_unavailable",
			"message": message,
			"query":   query,
		})}
	}
	return Result{Content: encode(resp), OK: true}
}

type imageArgs struct {
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

func (e *Executor) generateImage(ctx context.Context, call Call, emitter Emitter) Result {
	var args imageArgs
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || strings.TrimSpace(args.Prompt) == "" {
		return imageFailure("invalid_arguments", "A non-empty prompt is required to generate an image.")
	}
	if !slices.Contains(ImageSizes, args.Size) {
		args.Size = DefaultImageSize
	}
	if !slices.Contains(ImageQualities, args.Quality) {
		args.Quality = DefaultImageQuality
	}

	if err := emitter.Emit(model.Event{Type: model.EventProgress, Data: model.ProgressData{Message: "Generating image...", Tool: GenerateImage}}); err != nil {
		slog.Debug("Could not emit progress event", "error", err)
	}

	img, err := e.images.GenerateImage(ctx, &llm.ImageRequest{Prompt: args.Prompt, Size: args.Size, Quality: args.Quality})
	if err != nil {
		slog.Warn("Image generation failed", "error", err)
		return imageFailure("generation_failed", llm.Classify(err).Message)
	}

	media := &model.GeneratedMedia{RevisedPrompt: img.RevisedPrompt, ToolCallID: call.ID}
	obj, err := e.store.Upload(ctx, img.Data, storage.NamespaceGenerated, img.MimeType)
	if err != nil {
		slog.Error("Could not store generated image", "tool_call_id", call.ID, "error", err)
		media.ID = uuid.NewString()
		res := imageFailure("storage_failed", "The image was generated but could not be saved, so it cannot be shown.")
		res.Media = media
		return res
	}
	media.ID = obj.Key
	media.URL = &obj.URL

	if err := emitter.Emit(model.Event{Type: model.EventImage, Data: model.ImageData{URL: obj.URL, RevisedPrompt: img.RevisedPrompt}}); err != nil {
		slog.Debug("Could not emit image event", "error", err)
	}

	return Result{
		Content: encode(map[string]any{
			"success":        true,
			"message":        "delivered",
			"revised_prompt": img.RevisedPrompt,
		}),
		OK:    true,
		Media: media,
	}
}

func imageFailure(code, message string) Result {
	return Result{Content: encode(map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	})}
}

func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"encoding_failed"}`
	}
	return string(b)
}
