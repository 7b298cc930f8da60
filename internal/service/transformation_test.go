package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"channelapi/internal/model"
	"channelapi/internal/repository"
	repoMocks "channelapi/internal/repository/mocks"
	"channelapi/internal/storage"
	storeMocks "channelapi/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTransformationService(t *testing.T, loc *time.Location, now time.Time) (*transformationService, *repoMocks.MockChannelRepository, *repoMocks.MockTransformationRepository, *storeMocks.MockStorage) {
	t.Helper()
	channels := new(repoMocks.MockChannelRepository)
	transforms := new(repoMocks.MockTransformationRepository)
	store := new(storeMocks.MockStorage)
	svc := NewTransformationService(channels, transforms, store, TransformationServiceConfig{
		Location:      loc,
		PresignExpiry: 10 * time.Minute,
	}).(*transformationService)
	svc.now = func() time.Time { return now }
	return svc, channels, transforms, store
}

func TestTransformationService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults pagination", func(t *testing.T) {
		svc, channels, transforms, _ := newTransformationService(t, time.UTC, time.Now())
		channels.On("FindByID", ctx, "ch-1").Return(testChannel(), nil)
		transforms.On("ListByChannel", ctx, "ch-1", repository.PageQuery{Limit: 10, Offset: 0}).
			Return(&repository.PageResult[model.Transformation]{
				Items: []model.Transformation{{ID: "tr-1", Status: model.StatusCompleted}},
				Total: 3,
			}, nil)

		res, err := svc.List(ctx, "owner-1", "ch-1", 0, -5)
		require.NoError(t, err)
		assert.Len(t, res.Items, 1)
		assert.Equal(t, 3, res.Total)
		assert.Equal(t, 10, res.Limit)
		assert.Equal(t, 0, res.Offset)
		transforms.AssertExpectations(t)
	})

	t.Run("foreign channel", func(t *testing.T) {
		svc, channels, transforms, _ := newTransformationService(t, time.UTC, time.Now())
		channels.On("FindByID", ctx, "ch-1").Return(testChannel(), nil)

		_, err := svc.List(ctx, "someone", "ch-1", 10, 0)
		assert.ErrorIs(t, err, ErrUnauthorized)
		transforms.AssertNotCalled(t, "ListByChannel", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing channel", func(t *testing.T) {
		svc, channels, _, _ := newTransformationService(t, time.UTC, time.Now())
		channels.On("FindByID", ctx, "ch-1").Return(nil, sql.ErrNoRows)

		_, err := svc.List(ctx, "owner-1", "ch-1", 10, 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("repository error", func(t *testing.T) {
		svc, channels, transforms, _ := newTransformationService(t, time.UTC, time.Now())
		channels.On("FindByID", ctx, "ch-1").Return(testChannel(), nil)
		transforms.On("ListByChannel", ctx, "ch-1", mock.Anything).Return(nil, errors.New("db fail"))

		_, err := svc.List(ctx, "owner-1", "ch-1", 10, 0)
		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}

func TestTransformationService_Get(t *testing.T) {
	ctx := context.Background()
	svc, _, transforms, _ := newTransformationService(t, time.UTC, time.Now())
	transforms.On("FindByID", ctx, "tr-1").Return(&model.Transformation{ID: "tr-1", OwnerID: "owner-1"}, nil)
	transforms.On("FindByID", ctx, "tr-404").Return(nil, sql.ErrNoRows)

	tr, err := svc.Get(ctx, "owner-1", "tr-1")
	require.NoError(t, err)
	assert.Equal(t, "tr-1", tr.ID)

	_, err = svc.Get(ctx, "someone", "tr-1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Get(ctx, "owner-1", "tr-404")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, "owner-1", "")
	assert.ErrorIs(t, err, ErrIDRequired)
}

func TestTransformationService_Stats(t *testing.T) {
	ctx := context.Background()
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// 2026-03-31 20:00 UTC is already April 1st in Jakarta (UTC+7).
	now := time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC)
	svc, _, transforms, _ := newTransformationService(t, jakarta, now)

	want := &model.TransformationStats{TotalTransformations: 4, TransformationsThisMonth: 1, SuccessRate: 75}
	transforms.On("Stats", ctx, "owner-1", mock.MatchedBy(func(ts time.Time) bool {
		return ts.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, jakarta))
	})).Return(want, nil)

	stats, err := svc.Stats(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, want, stats)
	transforms.AssertExpectations(t)
}

func TestTransformationService_DownloadURL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("completed record", func(t *testing.T) {
		svc, _, transforms, store := newTransformationService(t, time.UTC, now)
		transforms.On("FindByID", ctx, "tr-1").Return(&model.Transformation{
			ID: "tr-1", OwnerID: "owner-1", ArtifactPath: "transformations/ch-1/tr-1.json",
		}, nil)
		store.On("PresignGet", ctx, "transformations/ch-1/tr-1.json", 10*time.Minute).
			Return("https://minio.local/signed", nil)

		link, err := svc.DownloadURL(ctx, "owner-1", "tr-1")
		require.NoError(t, err)
		assert.Equal(t, "https://minio.local/signed", link.URL)
		assert.Equal(t, now.Add(10*time.Minute), link.ExpiresAt)
	})

	t.Run("failed record has no artifact", func(t *testing.T) {
		svc, _, transforms, store := newTransformationService(t, time.UTC, now)
		transforms.On("FindByID", ctx, "tr-2").Return(&model.Transformation{
			ID: "tr-2", OwnerID: "owner-1", Status: model.StatusFailed,
		}, nil)

		_, err := svc.DownloadURL(ctx, "owner-1", "tr-2")
		assert.ErrorIs(t, err, ErrNotFound)
		store.AssertNotCalled(t, "PresignGet", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("presign error", func(t *testing.T) {
		svc, _, transforms, store := newTransformationService(t, time.UTC, now)
		transforms.On("FindByID", ctx, "tr-1").Return(&model.Transformation{
			ID: "tr-1", OwnerID: "owner-1", ArtifactPath: "k",
		}, nil)
		store.On("PresignGet", ctx, "k", mock.Anything).Return("", errors.New("no creds"))

		_, err := svc.DownloadURL(ctx, "owner-1", "tr-1")
		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}

func TestTransformationService_OpenArtifact(t *testing.T) {
	ctx := context.Background()
	key := "transformations/ch-1/tr-1.xml"
	record := &model.Transformation{ID: "tr-1", OwnerID: "owner-1", ArtifactPath: key}

	t.Run("streams artifact", func(t *testing.T) {
		svc, _, transforms, store := newTransformationService(t, time.UTC, time.Now())
		transforms.On("FindByID", ctx, "tr-1").Return(record, nil)
		store.On("Get", ctx, key).Return(io.NopCloser(strings.NewReader("<a/>")),
			storage.ObjectInfo{Key: key, Size: 4, ContentType: "application/xml"}, nil)

		rc, info, err := svc.OpenArtifact(ctx, "owner-1", "tr-1")
		require.NoError(t, err)
		defer rc.Close()
		body, _ := io.ReadAll(rc)
		assert.Equal(t, "<a/>", string(body))
		assert.Equal(t, "application/xml", info.ContentType)
	})

	t.Run("foreign record", func(t *testing.T) {
		svc, _, transforms, store := newTransformationService(t, time.UTC, time.Now())
		transforms.On("FindByID", ctx, "tr-1").Return(record, nil)

		_, _, err := svc.OpenArtifact(ctx, "someone", "tr-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("object missing", func(t *testing.T) {
		svc, _, transforms, store := newTransformationService(t, time.UTC, time.Now())
		transforms.On("FindByID", ctx, "tr-1").Return(record, nil)
		store.On("Get", ctx, key).Return(nil, storage.ObjectInfo{}, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key))

		_, _, err := svc.OpenArtifact(ctx, "owner-1", "tr-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("backend error", func(t *testing.T) {
		svc, _, transforms, store := newTransformationService(t, time.UTC, time.Now())
		transforms.On("FindByID", ctx, "tr-1").Return(record, nil)
		store.On("Get", ctx, key).Return(nil, storage.ObjectInfo{}, errors.New("timeout"))

		_, _, err := svc.OpenArtifact(ctx, "owner-1", "tr-1")
		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}
