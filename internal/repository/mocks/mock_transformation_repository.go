package mocks

import (
	"context"
	"time"

	"channelapi/internal/model"
	"channelapi/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockTransformationRepository struct {
	mock.Mock
}

func (m *MockTransformationRepository) Create(ctx context.Context, tr *model.Transformation) (*model.Transformation, error) {
	args := m.Called(ctx, tr)
	if f, ok := args.Get(0).(func(context.Context, *model.Transformation) *model.Transformation); ok {
		return f(ctx, tr), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transformation), args.Error(1)
}

func (m *MockTransformationRepository) FindByID(ctx context.Context, id string) (*model.Transformation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transformation), args.Error(1)
}

func (m *MockTransformationRepository) ListByChannel(ctx context.Context, channelID string, pq repository.PageQuery) (*repository.PageResult[model.Transformation], error) {
	args := m.Called(ctx, channelID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Transformation]), args.Error(1)
}

func (m *MockTransformationRepository) Stats(ctx context.Context, ownerID string, monthStart time.Time) (*model.TransformationStats, error) {
	args := m.Called(ctx, ownerID, monthStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransformationStats), args.Error(1)
}
