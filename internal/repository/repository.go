package repository

import (
	"context"

	"askflow/backend/internal/model"
)

// Repository defines the interface for data storage operations.
// This interface makes it easy to switch database implementations.
type Repository interface {
	CreateConversation(ctx context.Context, conv *model.Conversation) error
	GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error)
	UpdateConversationTitle(ctx context.Context, conversationID, newTitle string) error
	DeleteConversation(ctx context.Context, conversationID string) error

	AddMessage(ctx context.Context, message *model.Message) error
	GetMessages(ctx context.Context, conversationID string) ([]model.Message, error)
	// GetRecentMessages returns at most limit of the latest messages, oldest first.
	GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error)

	CreateSpace(ctx context.Context, space *model.Space) error
	GetSpace(ctx context.Context, spaceID string) (*model.Space, error)
	ListSpaces(ctx context.Context, userID string) ([]*model.Space, error)

	AddSearchHistory(ctx context.Context, entry *model.SearchHistoryEntry) error
	ListSearchHistory(ctx context.Context, userID string, limit int) ([]*model.SearchHistoryEntry, error)
}
