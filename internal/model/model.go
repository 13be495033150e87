package model

import (
	"encoding/json"
	"time"
)

// Mode selects the latency/depth trade-off of an exchange.
type Mode string

const (
	ModeQuick    Mode = "quick"
	ModeThink    Mode = "think"
	ModeResearch Mode = "research"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeQuick, ModeThink, ModeResearch:
		return true
	}
	return false
}

// ParseMode returns the mode named by s, falling back to quick for empty input.
func ParseMode(s string) Mode {
	if s == "" {
		return ModeQuick
	}
	return Mode(s)
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Conversation stores metadata about a conversation.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	SpaceID   *string   `json:"space_id,omitempty"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message stores a single persisted turn of a conversation.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Model          *string         `json:"model,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// FullConversation includes the conversation metadata and all its messages.
type FullConversation struct {
	Conversation
	Messages []Message `json:"messages"`
}

// Space groups conversations under a shared default instruction.
type Space struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Instruction string    `json:"instruction"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchHistoryEntry is one raw prompt a user sent.
type SearchHistoryEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Query     string    `json:"query"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment is a user-supplied file carried by an exchange request.
type Attachment struct {
	Name     string
	MimeType string
	Data     []byte
}

// Document is the extracted text of a document attachment.
type Document struct {
	Name      string
	MimeType  string
	Text      string
	Truncated bool
}

// ExchangeRequest holds the inputs of one orchestration run.
type ExchangeRequest struct {
	UserID         string
	Prompt         string
	ConversationID string
	Mode           Mode
	SpaceID        string
	Image          *Attachment
	Document       *Document
}

// GeneratedMedia describes an image produced by a tool call. URL is nil when
// the upload to durable storage failed.
type GeneratedMedia struct {
	ID            string  `json:"id"`
	URL           *string `json:"url"`
	RevisedPrompt string  `json:"revisedPrompt"`
	ToolCallID    string  `json:"toolCallId"`
}

// AttachmentRecord is the persisted outcome of an attachment upload.
type AttachmentRecord struct {
	Name        string  `json:"name,omitempty"`
	MimeType    string  `json:"mime_type"`
	SizeBytes   int     `json:"size_bytes"`
	URL         *string `json:"url"`
	StorageID   string  `json:"storage_id,omitempty"`
	UploadError string  `json:"upload_error,omitempty"`
}

// DocumentRecord is the persisted summary of a document attachment.
type DocumentRecord struct {
	Name      string `json:"name,omitempty"`
	MimeType  string `json:"mime_type"`
	Chars     int    `json:"chars"`
	Truncated bool   `json:"truncated,omitempty"`
}

// UserMessageMetadata is stored alongside a persisted user turn.
type UserMessageMetadata struct {
	Mode     Mode              `json:"mode"`
	SpaceID  string            `json:"space_id,omitempty"`
	Image    *AttachmentRecord `json:"image,omitempty"`
	Document *DocumentRecord   `json:"document,omitempty"`
}

// AssistantMessageMetadata is stored alongside a persisted assistant turn.
type AssistantMessageMetadata struct {
	Mode            Mode             `json:"mode"`
	SessionID       string           `json:"session_id"`
	FinishReason    string           `json:"finish_reason"`
	GeneratedImages []GeneratedMedia `json:"generated_images,omitempty"`
	Error           string           `json:"error,omitempty"`
}
