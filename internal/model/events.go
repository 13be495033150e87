package model

// EventType names one kind of client-facing stream event.
type EventType string

const (
	EventConnecting EventType = "connecting"
	EventConnected  EventType = "connected"
	EventChunk      EventType = "chunk"
	EventProgress   EventType = "progress"
	EventImage      EventType = "image"
	EventDone       EventType = "done"
	EventError      EventType = "error"
	EventClose      EventType = "close"
)

// Finish reasons reported in the done event besides the ones the model returns.
const (
	FinishStop    = "stop"
	FinishStopped = "stopped"
	FinishError   = "error"
)

// Event is a single server-to-client message of an exchange. Data is one of
// the *Data payload types below.
type Event struct {
	Type EventType
	Data any
}

type ConnectingData struct {
	SessionID string `json:"sessionId"`
}

type ConnectedData struct {
	ConversationID string `json:"conversationId"`
	SessionID      string `json:"sessionId"`
}

type ChunkData struct {
	Content string `json:"content"`
}

type ProgressData struct {
	Message string `json:"message"`
	Tool    string `json:"tool"`
}

type ImageData struct {
	URL           string `json:"url"`
	RevisedPrompt string `json:"revisedPrompt"`
}

type DoneData struct {
	FinishReason    string           `json:"finishReason"`
	FullResponse    string           `json:"fullResponse"`
	GeneratedImages []GeneratedMedia `json:"generatedImages,omitempty"`
}

type ErrorData struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Code    string `json:"code,omitempty"`
}

type CloseData struct{}

// StopResult is the synchronous acknowledgment of a stop request.
type StopResult struct {
	Status                string `json:"status"`
	SessionID             string `json:"sessionId"`
	PartialResponseLength int    `json:"partialResponseLength"`
}
