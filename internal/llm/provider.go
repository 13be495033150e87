package llm

import (
	"context"
	"encoding/json"
)

// EventKind tags a StreamEvent. The set is closed: adapters translate whatever
// shape the backend produces into exactly these four kinds.
type EventKind int

const (
	EventTextDelta EventKind = iota
	EventToolCallDelta
	EventToolCallDone
	EventStreamFinished
)

func (k EventKind) String() string {
	switch k {
	case EventTextDelta:
		return "text_delta"
	case EventToolCallDelta:
		return "tool_call_delta"
	case EventToolCallDone:
		return "tool_call_done"
	case EventStreamFinished:
		return "stream_finished"
	}
	return "unknown"
}

// Finish reasons reported by StreamFinished.
const (
	FinishReasonStop      = "stop"
	FinishReasonToolCalls = "tool_calls"
	FinishReasonLength    = "length"
)

// ToolCallDelta is one fragment of a tool call. Only Index is guaranteed;
// ID and Name usually arrive on the first fragment and Arguments is a piece of
// a JSON document that must be concatenated with the previous pieces.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// StreamEvent is what a Provider pushes on its stream channel.
type StreamEvent struct {
	Kind EventKind

	// EventTextDelta
	Text string

	// EventToolCallDelta and EventToolCallDone (only Index is set for done).
	ToolCall ToolCallDelta

	// EventStreamFinished
	FinishReason string
	Err          error
}

// ToolCall is a completed tool call as replayed to the backend on the next pass.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is a role-tagged content unit sent to the backend.
type Message struct {
	Role    string
	Content string
	// ImageURL is an http(s) or data: URL attached to a user turn.
	ImageURL   string
	ToolCalls  []ToolCall
	ToolCallID string
}

// Tool describes a callable function to the backend.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// CompletionRequest is the input of both streaming and non-streaming calls.
// A nil or empty Tools slice disables tool calling entirely.
type CompletionRequest struct {
	Model    string
	Messages []Message
	Tools    []Tool
}

// ModelInfo is a model advertised by the backend.
type ModelInfo struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
	Created int64  `json:"created,omitempty"`
}

// Provider defines the interface for interacting with a language model backend.
type Provider interface {
	// StreamCompletion pushes events to ch and closes it when done. The last
	// event sent is always an EventStreamFinished, unless ctx was cancelled
	// while the consumer was not receiving. The returned error mirrors the
	// Err of that last event.
	StreamCompletion(ctx context.Context, req *CompletionRequest, ch chan<- StreamEvent) error
	Generate(ctx context.Context, req *CompletionRequest) (string, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// ImageRequest asks the image backend for one image.
type ImageRequest struct {
	Prompt  string
	Size    string
	Quality string
}

// ImageResult carries the raster bytes of a generated image.
type ImageResult struct {
	Data          []byte
	MimeType      string
	RevisedPrompt string
}

// ImageGenerator produces images from a text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResult, error)
}
