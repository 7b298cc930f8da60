package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"channelapi/internal/engine"
	"channelapi/internal/metrics"
	"channelapi/internal/model"
	"channelapi/internal/parser"
	"channelapi/internal/repository"
	"channelapi/internal/storage"
	"channelapi/internal/tree"
)

var tracer = otel.Tracer("channelapi/internal/service")

// DefaultMaxDocumentBytes bounds uploads when no explicit limit is configured.
const DefaultMaxDocumentBytes = 10 << 20

// CreateChannelInput is the payload accepted when defining a channel.
type CreateChannelInput struct {
	Name           string               `json:"name"`
	Description    *string              `json:"description,omitempty"`
	SourceFormat   string               `json:"sourceFormat"`
	TargetFormat   string               `json:"targetFormat"`
	SourceTemplate *tree.Value          `json:"sourceTemplate,omitempty"`
	TargetTemplate *tree.Value          `json:"targetTemplate"`
	Mappings       []model.FieldMapping `json:"mappings"`
}

// ChannelService defines the use cases around channel definitions and running them.
type ChannelService interface {
	// Create validates and stores a new channel owned by ownerID.
	Create(ctx context.Context, ownerID string, in CreateChannelInput) (*model.Channel, error)

	// List returns the caller's channels, newest first.
	List(ctx context.Context, ownerID string) ([]model.Channel, error)

	// Get returns one channel if the caller owns it.
	Get(ctx context.Context, callerID, id string) (*model.Channel, error)

	// Delete removes a channel and, through the schema, its transformation records.
	Delete(ctx context.Context, callerID, id string) error

	// Transform converts one uploaded document through the channel and records the attempt.
	// Ownership is checked before r is read.
	Transform(ctx context.Context, callerID, channelID string, r io.Reader) (*model.Transformation, error)

	// Preview parses a document without running any channel.
	Preview(ctx context.Context, format string, r io.Reader) (*tree.Value, error)
}

// ChannelServiceConfig carries the optional collaborators of the channel service.
type ChannelServiceConfig struct {
	MaxDocumentBytes int64
	Metrics          metrics.Recorder
	Logger           *slog.Logger
}

type channelService struct {
	channels   repository.ChannelRepository
	transforms repository.TransformationRepository
	store      storage.Storage
	engine     *engine.Engine
	maxBytes   int64
	metrics    metrics.Recorder
	log        *slog.Logger
	now        func() time.Time
}

// NewChannelService constructs a new ChannelService.
func NewChannelService(
	channels repository.ChannelRepository,
	transforms repository.TransformationRepository,
	store storage.Storage,
	eng *engine.Engine,
	cfg ChannelServiceConfig,
) ChannelService {
	if eng == nil {
		eng = engine.New(engine.AbsentSkip)
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &channelService{
		channels:   channels,
		transforms: transforms,
		store:      store,
		engine:     eng,
		maxBytes:   cfg.MaxDocumentBytes,
		metrics:    cfg.Metrics,
		log:        cfg.Logger.With("component", "channel_service"),
		now:        time.Now,
	}
}

func (s *channelService) Create(ctx context.Context, ownerID string, in CreateChannelInput) (*model.Channel, error) {
	ctx, span := tracer.Start(ctx, "ChannelService.Create")
	defer span.End()

	if ownerID == "" {
		return nil, ErrIDRequired
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	src, err := model.ParseFormat(in.SourceFormat)
	if err != nil {
		return nil, err
	}
	dst, err := model.ParseFormat(in.TargetFormat)
	if err != nil {
		return nil, err
	}
	if in.TargetTemplate == nil || !in.TargetTemplate.IsMapping() {
		return nil, fmt.Errorf("%w: targetTemplate must be an object", ErrInvalidTemplate)
	}
	if in.SourceTemplate != nil && !in.SourceTemplate.IsMapping() && !in.SourceTemplate.IsNull() {
		return nil, fmt.Errorf("%w: sourceTemplate must be an object", ErrInvalidTemplate)
	}
	if in.SourceTemplate != nil && in.SourceTemplate.IsNull() {
		in.SourceTemplate = nil
	}
	for i, m := range in.Mappings {
		if m.SourcePath.IsZero() || m.TargetPath.IsZero() {
			return nil, fmt.Errorf("%w: mapping %d needs both sourcePath and targetPath", tree.ErrInvalidPath, i)
		}
	}
	mappings := in.Mappings
	if mappings == nil {
		mappings = []model.FieldMapping{}
	}

	ch := &model.Channel{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Name:           name,
		Description:    in.Description,
		SourceFormat:   src,
		TargetFormat:   dst,
		SourceTemplate: in.SourceTemplate,
		TargetTemplate: in.TargetTemplate,
		Mappings:       mappings,
		CreatedAt:      s.now().UTC(),
	}
	stored, err := s.channels.Create(ctx, ch)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: save channel: %v", ErrStorageFailure, err)
	}
	return stored, nil
}

func (s *channelService) List(ctx context.Context, ownerID string) ([]model.Channel, error) {
	if ownerID == "" {
		return nil, ErrIDRequired
	}
	items, err := s.channels.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list channels: %v", ErrStorageFailure, err)
	}
	if items == nil {
		items = []model.Channel{}
	}
	return items, nil
}

func (s *channelService) Get(ctx context.Context, callerID, id string) (*model.Channel, error) {
	return s.owned(ctx, callerID, id)
}

func (s *channelService) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.channels.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: delete channel: %v", ErrStorageFailure, err)
	}
	return nil
}

func (s *channelService) Transform(ctx context.Context, callerID, channelID string, r io.Reader) (*model.Transformation, error) {
	ctx, span := tracer.Start(ctx, "ChannelService.Transform")
	defer span.End()
	span.SetAttributes(attribute.String("channel.id", channelID))

	if r == nil {
		return nil, ErrReaderNil
	}
	ch, err := s.owned(ctx, callerID, channelID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("channel.source_format", string(ch.SourceFormat)),
		attribute.String("channel.target_format", string(ch.TargetFormat)),
	)

	raw, err := readBounded(r, s.maxBytes)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	source, err := parser.Parse(ch.SourceFormat, raw)
	if err != nil {
		return nil, s.fail(ctx, ch, nil, start, err)
	}
	target, err := s.engine.Transform(source, ch.TargetTemplate, ch.Mappings)
	if err != nil {
		return nil, s.fail(ctx, ch, source, start, err)
	}
	out, err := parser.Render(ch.TargetFormat, target)
	if err != nil {
		return nil, s.fail(ctx, ch, source, start, fmt.Errorf("%w: render %s: %v", tree.ErrInvalidTarget, ch.TargetFormat, err))
	}

	id := uuid.NewString()
	key := storage.ArtifactKey(ch.ID, id, ch.TargetFormat.Extension())
	if _, err := s.store.Put(ctx, key, bytes.NewReader(out), storage.PutObjectOptions{
		Size:        int64(len(out)),
		ContentType: ch.TargetFormat.ContentType(),
		Metadata: map[string]string{
			"channel-id": ch.ID,
			"owner-id":   ch.OwnerID,
		},
	}); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: upload artifact: %v", ErrStorageFailure, err)
	}

	rec := &model.Transformation{
		ID:             id,
		ChannelID:      ch.ID,
		OwnerID:        ch.OwnerID,
		SourceDocument: source,
		TargetDocument: target,
		Status:         model.StatusCompleted,
		ArtifactPath:   key,
		CreatedAt:      s.now().UTC(),
	}
	stored, err := s.transforms.Create(ctx, rec)
	if err != nil {
		span.RecordError(err)
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("%w: save record: %v; rollback delete failed: %v", ErrStorageFailure, err, delErr)
		}
		return nil, fmt.Errorf("%w: save record: %v", ErrStorageFailure, err)
	}

	s.metrics.ObserveTransform(ch.SourceFormat, ch.TargetFormat, model.StatusCompleted, time.Since(start))
	return stored, nil
}

// fail appends a failed record for a rejected document and returns cause unchanged.
// A failure to append is logged, never returned.
func (s *channelService) fail(ctx context.Context, ch *model.Channel, source *tree.Value, start time.Time, cause error) error {
	s.metrics.ObserveTransform(ch.SourceFormat, ch.TargetFormat, model.StatusFailed, time.Since(start))

	rec := &model.Transformation{
		ID:             uuid.NewString(),
		ChannelID:      ch.ID,
		OwnerID:        ch.OwnerID,
		SourceDocument: source,
		Status:         model.StatusFailed,
		Error:          cause.Error(),
		CreatedAt:      s.now().UTC(),
	}
	if _, err := s.transforms.Create(ctx, rec); err != nil {
		s.log.WarnContext(ctx, "transformation_record_failed",
			"channel_id", ch.ID,
			"cause", cause.Error(),
			"error_message", err.Error(),
		)
	}
	return cause
}

func (s *channelService) Preview(ctx context.Context, format string, r io.Reader) (*tree.Value, error) {
	_, span := tracer.Start(ctx, "ChannelService.Preview")
	defer span.End()

	f, err := model.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReaderNil
	}
	raw, err := readBounded(r, s.maxBytes)
	if err != nil {
		return nil, err
	}
	return parser.Parse(f, raw)
}

func (s *channelService) owned(ctx context.Context, callerID, id string) (*model.Channel, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: channel %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: load channel: %v", ErrStorageFailure, err)
	}
	if ch.OwnerID != callerID {
		return nil, ErrUnauthorized
	}
	return ch, nil
}

func readBounded(r io.Reader, max int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if int64(len(raw)) > max {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrDocumentTooLarge, max)
	}
	return raw, nil
}
