package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"askflow/backend/internal/model"
)

// MockRepository is a mock type for the Repository type
type MockRepository struct {
	mock.Mock
}

// CreateConversation provides a mock function with given fields: ctx, conv
func (_m *MockRepository) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	ret := _m.Called(ctx, conv)
	return ret.Error(0)
}

// GetConversation provides a mock function with given fields: ctx, conversationID
func (_m *MockRepository) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	ret := _m.Called(ctx, conversationID)

	var r0 *model.Conversation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Conversation)
	}
	return r0, ret.Error(1)
}

// ListConversations provides a mock function with given fields: ctx, userID
func (_m *MockRepository) ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	ret := _m.Called(ctx, userID)

	var r0 []*model.Conversation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.Conversation)
	}
	return r0, ret.Error(1)
}

// UpdateConversationTitle provides a mock function with given fields: ctx, conversationID, newTitle
func (_m *MockRepository) UpdateConversationTitle(ctx context.Context, conversationID string, newTitle string) error {
	ret := _m.Called(ctx, conversationID, newTitle)
	return ret.Error(0)
}

// DeleteConversation provides a mock function with given fields: ctx, conversationID
func (_m *MockRepository) DeleteConversation(ctx context.Context, conversationID string) error {
	ret := _m.Called(ctx, conversationID)
	return ret.Error(0)
}

// AddMessage provides a mock function with given fields: ctx, message
func (_m *MockRepository) AddMessage(ctx context.Context, message *model.Message) error {
	ret := _m.Called(ctx, message)
	return ret.Error(0)
}

// GetMessages provides a mock function with given fields: ctx, conversationID
func (_m *MockRepository) GetMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	ret := _m.Called(ctx, conversationID)

	var r0 []model.Message
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Message)
	}
	return r0, ret.Error(1)
}

// GetRecentMessages provides a mock function with given fields: ctx, conversationID, limit
func (_m *MockRepository) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	ret := _m.Called(ctx, conversationID, limit)

	var r0 []model.Message
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Message)
	}
	return r0, ret.Error(1)
}

// CreateSpace provides a mock function with given fields: ctx, space
func (_m *MockRepository) CreateSpace(ctx context.Context, space *model.Space) error {
	ret := _m.Called(ctx, space)
	return ret.Error(0)
}

// GetSpace provides a mock function with given fields: ctx, spaceID
func (_m *MockRepository) GetSpace(ctx context.Context, spaceID string) (*model.Space, error) {
	ret := _m.Called(ctx, spaceID)

	var r0 *model.Space
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Space)
	}
	return r0, ret.Error(1)
}

// ListSpaces provides a mock function with given fields: ctx, userID
func (_m *MockRepository) ListSpaces(ctx context.Context, userID string) ([]*model.Space, error) {
	ret := _m.Called(ctx, userID)

	var r0 []*model.Space
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.Space)
	}
	return r0, ret.Error(1)
}

// AddSearchHistory provides a mock function with given fields: ctx, entry
func (_m *MockRepository) AddSearchHistory(ctx context.Context, entry *model.SearchHistoryEntry) error {
	ret := _m.Called(ctx, entry)
	return ret.Error(0)
}

// ListSearchHistory provides a mock function with given fields: ctx, userID, limit
func (_m *MockRepository) ListSearchHistory(ctx context.Context, userID string, limit int) ([]*model.SearchHistoryEntry, error) {
	ret := _m.Called(ctx, userID, limit)

	var r0 []*model.SearchHistoryEntry
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.SearchHistoryEntry)
	}
	return r0, ret.Error(1)
}

// NewMockRepository creates a new instance of MockRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
