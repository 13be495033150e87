package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	app_errors "askflow/backend/internal/errors"
	"askflow/backend/internal/llm"
	"askflow/backend/internal/model"
	"askflow/backend/internal/repository"
)

const (
	maxTitleRunes   = 100
	historyPageSize = 50
)

// TitleModelSource provides the model used to name conversations.
type TitleModelSource interface {
	Get(ctx context.Context) (*Settings, error)
}

// ChatService handles conversation management and title generation.
type ChatService struct {
	repo     repository.Repository
	llm      llm.Provider
	settings TitleModelSource
}

func NewChatService(repo repository.Repository, provider llm.Provider, settings TitleModelSource) *ChatService {
	return &ChatService{repo: repo, llm: provider, settings: settings}
}

// ListConversations retrieves all conversations of a user, most recent first.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	convs, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list conversations: %w", err)
	}
	if convs == nil {
		convs = []*model.Conversation{}
	}
	return convs, nil
}

// GetConversation retrieves a conversation and all its messages.
func (s *ChatService) GetConversation(ctx context.Context, userID, conversationID string) (*model.FullConversation, error) {
	conv, err := s.ownedConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("could not get messages: %w", err)
	}
	return &model.FullConversation{Conversation: *conv, Messages: messages}, nil
}

// UpdateTitle handles a manual rename.
func (s *ChatService) UpdateTitle(ctx context.Context, userID, conversationID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title cannot be empty", app_errors.ErrValidation)
	}
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return err
	}
	slog.Info("Renaming conversation", "conversation_id", conversationID)
	return s.repo.UpdateConversationTitle(ctx, conversationID, truncate(title, maxTitleRunes))
}

// DeleteConversation deletes a conversation and all its messages.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return err
	}
	slog.Info("Deleting conversation", "conversation_id", conversationID)
	return s.repo.DeleteConversation(ctx, conversationID)
}

// ListHistory returns the latest prompts the user sent.
func (s *ChatService) ListHistory(ctx context.Context, userID string) ([]*model.SearchHistoryEntry, error) {
	entries, err := s.repo.ListSearchHistory(ctx, userID, historyPageSize)
	if err != nil {
		return nil, fmt.Errorf("could not list search history: %w", err)
	}
	if entries == nil {
		entries = []*model.SearchHistoryEntry{}
	}
	return entries, nil
}

// GenerateTitle names a conversation from its first user message.
func (s *ChatService) GenerateTitle(ctx context.Context, conversationID, firstMessage string) error {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("could not load title model: %w", err)
	}

	resp, err := s.llm.Generate(ctx, &llm.CompletionRequest{
		Model: settings.TitleModel,
		Messages: []llm.Message{
			{
				Role:    model.RoleSystem,
				Content: "You are an expert at creating short, concise titles for conversations. Respond with only the title (at most six words), and nothing else.",
			},
			{
				Role:    model.RoleUser,
				Content: fmt.Sprintf("What would be a good title for a conversation that starts with this message?\n\n---\n%s\n---", truncate(firstMessage, 500)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("title generation failed: %w", err)
	}

	title := cleanTitle(resp)
	if title == "" {
		slog.Info("Generated title was empty after cleaning, keeping the current one", "conversation_id", conversationID)
		return nil
	}
	if err := s.repo.UpdateConversationTitle(ctx, conversationID, title); err != nil {
		return fmt.Errorf("could not store generated title: %w", err)
	}
	slog.Info("Updated conversation title", "conversation_id", conversationID, "title", title)
	return nil
}

func (s *ChatService) ownedConversation(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, app_errors.ErrNotFound
		}
		return nil, fmt.Errorf("could not get conversation: %w", err)
	}
	if conv.UserID != userID {
		return nil, app_errors.ErrPermission
	}
	return conv, nil
}

func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.TrimPrefix(title, "Title:")
	title = strings.TrimSpace(title)
	title = strings.Trim(title, "\"'`*")
	title = strings.TrimSpace(title)
	return truncate(title, maxTitleRunes)
}

// truncate shortens a string to a specified number of runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
