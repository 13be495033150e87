package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	app_errors "askflow/backend/internal/errors"
	"askflow/backend/internal/llm"
	mock_llm "askflow/backend/internal/llm/mocks"
	"askflow/backend/internal/model"
	"askflow/backend/internal/repository"
	mock_repo "askflow/backend/internal/repository/mocks"
	"askflow/backend/internal/service"
)

type staticSettings struct {
	settings *service.Settings
	err      error
}

func (s staticSettings) Get(context.Context) (*service.Settings, error) {
	return s.settings, s.err
}

type chatMocks struct {
	repo *mock_repo.MockRepository
	llm  *mock_llm.MockProvider
}

func setupChatService(t *testing.T) (*service.ChatService, chatMocks) {
	m := chatMocks{
		repo: mock_repo.NewMockRepository(t),
		llm:  mock_llm.NewMockProvider(t),
	}
	settings := defaultSettings
	chatService := service.NewChatService(m.repo, m.llm, staticSettings{settings: &settings})
	return chatService, m
}

func TestChatService_UpdateTitle(t *testing.T) {
	ctx := context.Background()
	conv := &model.Conversation{ID: "conv1", UserID: "alice"}

	t.Run("Success", func(t *testing.T) {
		chatService, m := setupChatService(t)
		m.repo.On("GetConversation", ctx, "conv1").Return(conv, nil).Once()
		m.repo.On("UpdateConversationTitle", ctx, "conv1", "New Title").Return(nil).Once()

		err := chatService.UpdateTitle(ctx, "alice", "conv1", "  New Title ")
		assert.NoError(t, err)
	})

	t.Run("Failure - Empty title", func(t *testing.T) {
		chatService, _ := setupChatService(t)

		err := chatService.UpdateTitle(ctx, "alice", "conv1", "   ")
		assert.ErrorIs(t, err, app_errors.ErrValidation)
	})

	t.Run("Failure - Conversation not found", func(t *testing.T) {
		chatService, m := setupChatService(t)
		m.repo.On("GetConversation", ctx, "conv1").Return(nil, repository.ErrNotFound).Once()

		err := chatService.UpdateTitle(ctx, "alice", "conv1", "Title")
		assert.ErrorIs(t, err, app_errors.ErrNotFound)
	})

	t.Run("Failure - Owned by someone else", func(t *testing.T) {
		chatService, m := setupChatService(t)
		m.repo.On("GetConversation", ctx, "conv1").Return(conv, nil).Once()

		err := chatService.UpdateTitle(ctx, "bob", "conv1", "Title")
		assert.ErrorIs(t, err, app_errors.ErrPermission)
	})
}

func TestChatService_ListConversations(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		chatService, m := setupChatService(t)
		expected := []*model.Conversation{{ID: "conv1"}}
		m.repo.On("ListConversations", ctx, "alice").Return(expected, nil).Once()

		convs, err := chatService.ListConversations(ctx, "alice")
		assert.NoError(t, err)
		assert.Equal(t, expected, convs)
	})

	t.Run("Success - Empty list is not nil", func(t *testing.T) {
		chatService, m := setupChatService(t)
		m.repo.On("ListConversations", ctx, "alice").Return(nil, nil).Once()

		convs, err := chatService.ListConversations(ctx, "alice")
		assert.NoError(t, err)
		assert.NotNil(t, convs)
		assert.Empty(t, convs)
	})
}

func TestChatService_GetConversation(t *testing.T) {
	ctx := context.Background()
	conv := &model.Conversation{ID: "conv1", UserID: "alice"}

	t.Run("Success", func(t *testing.T) {
		chatService, m := setupChatService(t)
		messages := []model.Message{{ID: "msg1"}}
		m.repo.On("GetConversation", ctx, "conv1").Return(conv, nil).Once()
		m.repo.On("GetMessages", ctx, "conv1").Return(messages, nil).Once()

		full, err := chatService.GetConversation(ctx, "alice", "conv1")
		require.NoError(t, err)
		assert.Equal(t, *conv, full.Conversation)
		assert.Equal(t, messages, full.Messages)
	})

	t.Run("Failure - GetMessages returns error", func(t *testing.T) {
		chatService, m := setupChatService(t)
		m.repo.On("GetConversation", ctx, "conv1").Return(conv, nil).Once()
		m.repo.On("GetMessages", ctx, "conv1").Return(nil, errors.New("db error")).Once()

		_, err := chatService.GetConversation(ctx, "alice", "conv1")
		assert.Error(t, err)
	})

	t.Run("Failure - Owned by someone else", func(t *testing.T) {
		chatService, m := setupChatService(t)
		m.repo.On("GetConversation", ctx, "conv1").Return(conv, nil).Once()

		_, err := chatService.GetConversation(ctx, "bob", "conv1")
		assert.ErrorIs(t, err, app_errors.ErrPermission)
	})
}

func TestChatService_DeleteConversation(t *testing.T) {
	ctx := context.Background()
	chatService, m := setupChatService(t)
	m.repo.On("GetConversation", ctx, "conv1").Return(&model.Conversation{ID: "conv1", UserID: "alice"}, nil).Once()
	m.repo.On("DeleteConversation", ctx, "conv1").Return(nil).Once()

	assert.NoError(t, chatService.DeleteConversation(ctx, "alice", "conv1"))
}

func TestChatService_ListHistory(t *testing.T) {
	ctx := context.Background()
	chatService, m := setupChatService(t)
	entries := []*model.SearchHistoryEntry{{ID: "h1", Query: "hello"}}
	m.repo.On("ListSearchHistory", ctx, "alice", 50).Return(entries, nil).Once()

	got, err := chatService.ListHistory(ctx, "alice")
	assert.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestChatService_GenerateTitle(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Title is cleaned", func(t *testing.T) {
		chatService, m := setupChatService(t)
		m.llm.On("Generate", ctx, mock.MatchedBy(func(req *llm.CompletionRequest) bool {
			return req.Model == defaultSettings.TitleModel && len(req.Messages) == 2
		})).Return(`Title: "Go Concurrency Basics"`, nil).Once()
		m.repo.On("UpdateConversationTitle", ctx, "conv1", "Go Concurrency Basics").Return(nil).Once()

		err := chatService.GenerateTitle(ctx, "conv1", "How do goroutines work?")
		assert.NoError(t, err)
	})

	t.Run("Success - Empty title keeps the current one", func(t *testing.T) {
		chatService, m := setupChatService(t)
		m.llm.On("Generate", ctx, mock.Anything).Return(`  ""  `, nil).Once()

		err := chatService.GenerateTitle(ctx, "conv1", "hi")
		assert.NoError(t, err)
	})

	t.Run("Failure - Model error", func(t *testing.T) {
		chatService, m := setupChatService(t)
		m.llm.On("Generate", ctx, mock.Anything).Return("", errors.New("boom")).Once()

		err := chatService.GenerateTitle(ctx, "conv1", "hi")
		assert.ErrorContains(t, err, "title generation failed")
	})
}
