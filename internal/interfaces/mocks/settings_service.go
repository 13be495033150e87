package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"askflow/backend/internal/service"
)

// MockSettingsService is a mock type for the SettingsService type
type MockSettingsService struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx
func (_m *MockSettingsService) Get(ctx context.Context) (*service.Settings, error) {
	ret := _m.Called(ctx)

	var r0 *service.Settings
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.Settings)
	}
	return r0, ret.Error(1)
}

// Save provides a mock function with given fields: ctx, settings
func (_m *MockSettingsService) Save(ctx context.Context, settings *service.Settings) error {
	ret := _m.Called(ctx, settings)
	return ret.Error(0)
}

// NewMockSettingsService creates a new instance of MockSettingsService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockSettingsService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSettingsService {
	m := &MockSettingsService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
