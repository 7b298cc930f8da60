package mocks

import (
	"context"
	"io"

	"channelapi/internal/model"
	"channelapi/internal/service"
	"channelapi/internal/storage"
	"github.com/stretchr/testify/mock"
)

type MockTransformationService struct {
	mock.Mock
}

func (m *MockTransformationService) List(ctx context.Context, callerID, channelID string, limit, offset int) (*service.TransformationListResult, error) {
	args := m.Called(ctx, callerID, channelID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransformationListResult), args.Error(1)
}

func (m *MockTransformationService) Get(ctx context.Context, callerID, id string) (*model.Transformation, error) {
	args := m.Called(ctx, callerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transformation), args.Error(1)
}

func (m *MockTransformationService) Stats(ctx context.Context, callerID string) (*model.TransformationStats, error) {
	args := m.Called(ctx, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransformationStats), args.Error(1)
}

func (m *MockTransformationService) DownloadURL(ctx context.Context, callerID, id string) (*service.DownloadLink, error) {
	args := m.Called(ctx, callerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadLink), args.Error(1)
}

func (m *MockTransformationService) OpenArtifact(ctx context.Context, callerID, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, callerID, id)
	if args.Get(0) == nil {
		return nil, storage.ObjectInfo{}, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}
