package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"askflow/backend/internal/llm"
)

// MockProvider is a mock type for the Provider type. StreamCompletion closes
// the channel after running any function passed as the first return value.
type MockProvider struct {
	mock.Mock
}

// StreamCompletion provides a mock function with given fields: ctx, req, ch
func (_m *MockProvider) StreamCompletion(ctx context.Context, req *llm.CompletionRequest, ch chan<- llm.StreamEvent) error {
	defer close(ch)
	ret := _m.Called(ctx, req, ch)

	if rf, ok := ret.Get(0).(func(context.Context, *llm.CompletionRequest, chan<- llm.StreamEvent) error); ok {
		return rf(ctx, req, ch)
	}
	return ret.Error(0)
}

// Generate provides a mock function with given fields: ctx, req
func (_m *MockProvider) Generate(ctx context.Context, req *llm.CompletionRequest) (string, error) {
	ret := _m.Called(ctx, req)
	return ret.String(0), ret.Error(1)
}

// ListModels provides a mock function with given fields: ctx
func (_m *MockProvider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	ret := _m.Called(ctx)

	var r0 []llm.ModelInfo
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]llm.ModelInfo)
	}
	return r0, ret.Error(1)
}

// NewMockProvider creates a new instance of MockProvider. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProvider {
	m := &MockProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
