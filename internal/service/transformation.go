package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"channelapi/internal/model"
	"channelapi/internal/repository"
	"channelapi/internal/storage"
)

// TransformationListResult is the service-level DTO for a page of transformation records.
type TransformationListResult struct {
	Items  []model.Transformation `json:"data"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// DownloadLink is a time-limited URL to a stored artifact.
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TransformationService exposes the transformation history of a caller.
type TransformationService interface {
	// List returns records of one channel owned by the caller, newest first.
	List(ctx context.Context, callerID, channelID string, limit, offset int) (*TransformationListResult, error)

	// Get returns one record owned by the caller.
	Get(ctx context.Context, callerID, id string) (*model.Transformation, error)

	// Stats summarises the caller's history; "this month" is computed in the service timezone.
	Stats(ctx context.Context, callerID string) (*model.TransformationStats, error)

	// DownloadURL pre-signs a download of the rendered artifact of a completed record.
	DownloadURL(ctx context.Context, callerID, id string) (*DownloadLink, error)

	// OpenArtifact streams the rendered artifact of a completed record. The caller closes the reader.
	OpenArtifact(ctx context.Context, callerID, id string) (io.ReadCloser, storage.ObjectInfo, error)
}

// TransformationServiceConfig carries settings of the transformation service.
type TransformationServiceConfig struct {
	Location      *time.Location
	PresignExpiry time.Duration
}

type transformationService struct {
	channels   repository.ChannelRepository
	transforms repository.TransformationRepository
	store      storage.Storage
	loc        *time.Location
	expiry     time.Duration
	now        func() time.Time
}

// NewTransformationService constructs a new TransformationService.
func NewTransformationService(
	channels repository.ChannelRepository,
	transforms repository.TransformationRepository,
	store storage.Storage,
	cfg TransformationServiceConfig,
) TransformationService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 15 * time.Minute
	}
	return &transformationService{
		channels:   channels,
		transforms: transforms,
		store:      store,
		loc:        cfg.Location,
		expiry:     cfg.PresignExpiry,
		now:        time.Now,
	}
}

func (s *transformationService) List(ctx context.Context, callerID, channelID string, limit, offset int) (*TransformationListResult, error) {
	if channelID == "" {
		return nil, ErrIDRequired
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	ch, err := s.channels.FindByID(ctx, channelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: channel %s", ErrNotFound, channelID)
		}
		return nil, fmt.Errorf("%w: load channel: %v", ErrStorageFailure, err)
	}
	if ch.OwnerID != callerID {
		return nil, ErrUnauthorized
	}

	res, err := s.transforms.ListByChannel(ctx, channelID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("%w: list transformations: %v", ErrStorageFailure, err)
	}
	items := res.Items
	if items == nil {
		items = []model.Transformation{}
	}
	return &TransformationListResult{Items: items, Total: res.Total, Limit: limit, Offset: offset}, nil
}

func (s *transformationService) Get(ctx context.Context, callerID, id string) (*model.Transformation, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	tr, err := s.transforms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: transformation %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: load transformation: %v", ErrStorageFailure, err)
	}
	if tr.OwnerID != callerID {
		return nil, ErrUnauthorized
	}
	return tr, nil
}

func (s *transformationService) Stats(ctx context.Context, callerID string) (*model.TransformationStats, error) {
	if callerID == "" {
		return nil, ErrIDRequired
	}
	stats, err := s.transforms.Stats(ctx, callerID, monthStart(s.now(), s.loc))
	if err != nil {
		return nil, fmt.Errorf("%w: stats: %v", ErrStorageFailure, err)
	}
	return stats, nil
}

func (s *transformationService) DownloadURL(ctx context.Context, callerID, id string) (*DownloadLink, error) {
	tr, err := s.Get(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if tr.ArtifactPath == "" {
		return nil, fmt.Errorf("%w: transformation %s has no artifact", ErrNotFound, id)
	}
	url, err := s.store.PresignGet(ctx, tr.ArtifactPath, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("%w: presign artifact: %v", ErrStorageFailure, err)
	}
	return &DownloadLink{URL: url, ExpiresAt: s.now().Add(s.expiry).UTC()}, nil
}

func (s *transformationService) OpenArtifact(ctx context.Context, callerID, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	tr, err := s.Get(ctx, callerID, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	if tr.ArtifactPath == "" {
		return nil, storage.ObjectInfo{}, fmt.Errorf("%w: transformation %s has no artifact", ErrNotFound, id)
	}
	rc, info, err := s.store.Get(ctx, tr.ArtifactPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, fmt.Errorf("%w: artifact of transformation %s", ErrNotFound, id)
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("%w: open artifact: %v", ErrStorageFailure, err)
	}
	return rc, info, nil
}

func monthStart(now time.Time, loc *time.Location) time.Time {
	t := now.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}
