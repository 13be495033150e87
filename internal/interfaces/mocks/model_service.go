package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"askflow/backend/internal/llm"
)

// MockModelService is a mock type for the ModelService type
type MockModelService struct {
	mock.Mock
}

// List provides a mock function with given fields: ctx
func (_m *MockModelService) List(ctx context.Context) ([]llm.ModelInfo, error) {
	ret := _m.Called(ctx)

	var r0 []llm.ModelInfo
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]llm.ModelInfo)
	}
	return r0, ret.Error(1)
}

// NewMockModelService creates a new instance of MockModelService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockModelService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockModelService {
	m := &MockModelService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
