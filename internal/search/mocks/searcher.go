package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"askflow/backend/internal/search"
)

// MockSearcher is a mock type for the Searcher type
type MockSearcher struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, query, maxResults
func (_m *MockSearcher) Search(ctx context.Context, query string, maxResults int) (*search.Response, error) {
	ret := _m.Called(ctx, query, maxResults)

	var r0 *search.Response
	if rf, ok := ret.Get(0).(func(context.Context, string, int) *search.Response); ok {
		r0 = rf(ctx, query, maxResults)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*search.Response)
	}
	return r0, ret.Error(1)
}

// NewMockSearcher creates a new instance of MockSearcher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockSearcher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSearcher {
	m := &MockSearcher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
