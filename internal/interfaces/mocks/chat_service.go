package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"askflow/backend/internal/model"
)

// MockChatService is a mock type for the ChatService type
type MockChatService struct {
	mock.Mock
}

// ListConversations provides a mock function with given fields: ctx, userID
func (_m *MockChatService) ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	ret := _m.Called(ctx, userID)

	var r0 []*model.Conversation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.Conversation)
	}
	return r0, ret.Error(1)
}

// GetConversation provides a mock function with given fields: ctx, userID, conversationID
func (_m *MockChatService) GetConversation(ctx context.Context, userID string, conversationID string) (*model.FullConversation, error) {
	ret := _m.Called(ctx, userID, conversationID)

	var r0 *model.FullConversation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.FullConversation)
	}
	return r0, ret.Error(1)
}

// UpdateTitle provides a mock function with given fields: ctx, userID, conversationID, title
func (_m *MockChatService) UpdateTitle(ctx context.Context, userID string, conversationID string, title string) error {
	ret := _m.Called(ctx, userID, conversationID, title)
	return ret.Error(0)
}

// DeleteConversation provides a mock function with given fields: ctx, userID, conversationID
func (_m *MockChatService) DeleteConversation(ctx context.Context, userID string, conversationID string) error {
	ret := _m.Called(ctx, userID, conversationID)
	return ret.Error(0)
}

// ListHistory provides a mock function with given fields: ctx, userID
func (_m *MockChatService) ListHistory(ctx context.Context, userID string) ([]*model.SearchHistoryEntry, error) {
	ret := _m.Called(ctx, userID)

	var r0 []*model.SearchHistoryEntry
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.SearchHistoryEntry)
	}
	return r0, ret.Error(1)
}

// NewMockChatService creates a new instance of MockChatService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockChatService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockChatService {
	m := &MockChatService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
