package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"askflow/backend/internal/model"
	"askflow/backend/internal/service"
)

// MockOrchestrator is a mock type for the Orchestrator type
type MockOrchestrator struct {
	mock.Mock
}

// Prepare provides a mock function with given fields: ctx, req
func (_m *MockOrchestrator) Prepare(ctx context.Context, req *model.ExchangeRequest) (*service.PreparedExchange, error) {
	ret := _m.Called(ctx, req)

	var r0 *service.PreparedExchange
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.PreparedExchange)
	}
	return r0, ret.Error(1)
}

// Stream provides a mock function with given fields: ctx, prep, sink
func (_m *MockOrchestrator) Stream(ctx context.Context, prep *service.PreparedExchange, sink service.Sink) {
	_m.Called(ctx, prep, sink)
}

// Stop provides a mock function with given fields: ctx, userID, sessionID
func (_m *MockOrchestrator) Stop(ctx context.Context, userID string, sessionID string) (*model.StopResult, error) {
	ret := _m.Called(ctx, userID, sessionID)

	var r0 *model.StopResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.StopResult)
	}
	return r0, ret.Error(1)
}

// NewMockOrchestrator creates a new instance of MockOrchestrator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockOrchestrator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockOrchestrator {
	m := &MockOrchestrator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
