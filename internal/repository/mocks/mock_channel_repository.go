package mocks

import (
	"context"

	"channelapi/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockChannelRepository struct {
	mock.Mock
}

func (m *MockChannelRepository) Create(ctx context.Context, ch *model.Channel) (*model.Channel, error) {
	args := m.Called(ctx, ch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Channel), args.Error(1)
}

func (m *MockChannelRepository) FindByID(ctx context.Context, id string) (*model.Channel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Channel), args.Error(1)
}

func (m *MockChannelRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Channel, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Channel), args.Error(1)
}

func (m *MockChannelRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
