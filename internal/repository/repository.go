package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.
// No business logic here, strictly persistence operations.

import (
	"context"
	"time"

	"channelapi/internal/model"
)

// ChannelRepository defines data access for channel definitions.
type ChannelRepository interface {
	// Create inserts a new channel and returns the stored row.
	Create(ctx context.Context, ch *model.Channel) (*model.Channel, error)

	// FindByID returns a channel by its ID. It returns sql.ErrNoRows when missing.
	FindByID(ctx context.Context, id string) (*model.Channel, error)

	// ListByOwner returns all channels of one owner, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Channel, error)

	// Delete removes a channel by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// TransformationRepository defines append-only access to transformation records.
type TransformationRepository interface {
	// Create inserts a record. Records are never updated afterwards.
	Create(ctx context.Context, tr *model.Transformation) (*model.Transformation, error)

	// FindByID returns a record by its ID. It returns sql.ErrNoRows when missing.
	FindByID(ctx context.Context, id string) (*model.Transformation, error)

	// ListByChannel returns a page of a channel's records, newest first, with the total count.
	ListByChannel(ctx context.Context, channelID string, pq PageQuery) (*PageResult[model.Transformation], error)

	// Stats aggregates an owner's records; monthStart bounds the "this month" figure.
	Stats(ctx context.Context, ownerID string, monthStart time.Time) (*model.TransformationStats, error)
}

// UserRepository defines data access for accounts.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
