package mocks

import (
	"context"
	"io"
	"time"

	"channelapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

// PutBody drains the reader passed to Put. Use it inside a Run callback of a "Put" expectation.
func PutBody(args mock.Arguments) []byte {
	r, ok := args.Get(2).(io.Reader)
	if !ok || r == nil {
		return nil
	}
	b, _ := io.ReadAll(r)
	return b
}

func (m *MockStorage) Put(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key, r, opt)
	if f, ok := args.Get(0).(func(context.Context, string, io.Reader, storage.PutObjectOptions) storage.ObjectInfo); ok {
		return f(ctx, key, r, opt), args.Error(1)
	}
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}
