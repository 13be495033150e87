package interfaces

import (
	"context"

	"askflow/backend/internal/llm"
	"askflow/backend/internal/model"
	"askflow/backend/internal/service"
)

// This file defines the interfaces for our core services.
// The API layer depends on these instead of the concrete implementations so
// handlers can be tested against mocks.

// ChatService defines the contract for conversation management.
type ChatService interface {
	ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error)
	GetConversation(ctx context.Context, userID, conversationID string) (*model.FullConversation, error)
	UpdateTitle(ctx context.Context, userID, conversationID, title string) error
	DeleteConversation(ctx context.Context, userID, conversationID string) error
	ListHistory(ctx context.Context, userID string) ([]*model.SearchHistoryEntry, error)
}

// SpaceService defines the contract for managing spaces.
type SpaceService interface {
	Create(ctx context.Context, userID, name, instruction string) (*model.Space, error)
	List(ctx context.Context, userID string) ([]*model.Space, error)
	Get(ctx context.Context, userID, spaceID string) (*model.Space, error)
}

// ModelService defines the contract for model discovery.
type ModelService interface {
	List(ctx context.Context) ([]llm.ModelInfo, error)
}

// SettingsService defines the contract for managing application settings.
type SettingsService interface {
	Get(ctx context.Context) (*service.Settings, error)
	Save(ctx context.Context, settings *service.Settings) error
}

// Orchestrator runs streamed exchanges.
type Orchestrator interface {
	Prepare(ctx context.Context, req *model.ExchangeRequest) (*service.PreparedExchange, error)
	Stream(ctx context.Context, prep *service.PreparedExchange, sink service.Sink)
	Stop(ctx context.Context, userID, sessionID string) (*model.StopResult, error)
}
