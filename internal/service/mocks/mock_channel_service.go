package mocks

import (
	"context"
	"io"

	"channelapi/internal/model"
	"channelapi/internal/service"
	"channelapi/internal/tree"
	"github.com/stretchr/testify/mock"
)

type MockChannelService struct {
	mock.Mock
}

func (m *MockChannelService) Create(ctx context.Context, ownerID string, in service.CreateChannelInput) (*model.Channel, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Channel), args.Error(1)
}

func (m *MockChannelService) List(ctx context.Context, ownerID string) ([]model.Channel, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Channel), args.Error(1)
}

func (m *MockChannelService) Get(ctx context.Context, callerID, id string) (*model.Channel, error) {
	args := m.Called(ctx, callerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Channel), args.Error(1)
}

func (m *MockChannelService) Delete(ctx context.Context, callerID, id string) error {
	args := m.Called(ctx, callerID, id)
	return args.Error(0)
}

func (m *MockChannelService) Transform(ctx context.Context, callerID, channelID string, r io.Reader) (*model.Transformation, error) {
	args := m.Called(ctx, callerID, channelID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transformation), args.Error(1)
}

func (m *MockChannelService) Preview(ctx context.Context, format string, r io.Reader) (*tree.Value, error) {
	args := m.Called(ctx, format, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tree.Value), args.Error(1)
}
