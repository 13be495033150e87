package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"askflow/backend/internal/model"
)

// MockSpaceService is a mock type for the SpaceService type
type MockSpaceService struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, userID, name, instruction
func (_m *MockSpaceService) Create(ctx context.Context, userID string, name string, instruction string) (*model.Space, error) {
	ret := _m.Called(ctx, userID, name, instruction)

	var r0 *model.Space
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Space)
	}
	return r0, ret.Error(1)
}

// List provides a mock function with given fields: ctx, userID
func (_m *MockSpaceService) List(ctx context.Context, userID string) ([]*model.Space, error) {
	ret := _m.Called(ctx, userID)

	var r0 []*model.Space
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.Space)
	}
	return r0, ret.Error(1)
}

// Get provides a mock function with given fields: ctx, userID, spaceID
func (_m *MockSpaceService) Get(ctx context.Context, userID string, spaceID string) (*model.Space, error) {
	ret := _m.Called(ctx, userID, spaceID)

	var r0 *model.Space
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Space)
	}
	return r0, ret.Error(1)
}

// NewMockSpaceService creates a new instance of MockSpaceService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockSpaceService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSpaceService {
	m := &MockSpaceService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
