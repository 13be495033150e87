package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"askflow/backend/internal/storage"
)

// MockBlobStore is a mock type for the BlobStore type
type MockBlobStore struct {
	mock.Mock
}

// Upload provides a mock function with given fields: ctx, data, namespace, contentType
func (_m *MockBlobStore) Upload(ctx context.Context, data []byte, namespace string, contentType string) (*storage.Object, error) {
	ret := _m.Called(ctx, data, namespace, contentType)

	var r0 *storage.Object
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*storage.Object)
	}
	return r0, ret.Error(1)
}

// Open provides a mock function with given fields: ctx, key
func (_m *MockBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	ret := _m.Called(ctx, key)

	var r0 io.ReadCloser
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(io.ReadCloser)
	}
	var r1 *storage.ObjectInfo
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(*storage.ObjectInfo)
	}
	return r0, r1, ret.Error(2)
}

// NewMockBlobStore creates a new instance of MockBlobStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockBlobStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBlobStore {
	m := &MockBlobStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
