package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"askflow/backend/internal/llm"
)

// MockImageGenerator is a mock type for the ImageGenerator type
type MockImageGenerator struct {
	mock.Mock
}

// GenerateImage provides a mock function with given fields: ctx, req
func (_m *MockImageGenerator) GenerateImage(ctx context.Context, req *llm.ImageRequest) (*llm.ImageResult, error) {
	ret := _m.Called(ctx, req)

	var r0 *llm.ImageResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*llm.ImageResult)
	}
	return r0, ret.Error(1)
}

// NewMockImageGenerator creates a new instance of MockImageGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockImageGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockImageGenerator {
	m := &MockImageGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
