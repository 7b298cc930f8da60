package postgres

import (
	"context"
	"database/sql"
	"math"
	"time"

	"channelapi/internal/model"
	"channelapi/internal/repository"
)

// TransformationPostgres is a PostgreSQL implementation of repository.TransformationRepository.
// Rows are inserted once and never updated.
type TransformationPostgres struct {
	db *sql.DB
}

// NewTransformationPostgres creates a new TransformationPostgres repository.
func NewTransformationPostgres(db *sql.DB) *TransformationPostgres {
	return &TransformationPostgres{db: db}
}

var _ repository.TransformationRepository = (*TransformationPostgres)(nil)

const transformationColumns = `id, channel_id, owner_id, source_document, target_document,
		       status, error, artifact_path, created_at`

func scanTransformation(row rowScanner) (*model.Transformation, error) {
	var (
		t        model.Transformation
		status   string
		src, tgt []byte
	)
	if err := row.Scan(
		&t.ID,
		&t.ChannelID,
		&t.OwnerID,
		&src,
		&tgt,
		&status,
		&t.Error,
		&t.ArtifactPath,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}

	t.Status = model.TransformationStatus(status)

	var err error
	if t.SourceDocument, err = decodeTree(src); err != nil {
		return nil, err
	}
	if t.TargetDocument, err = decodeTree(tgt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a transformation record and returns the stored row.
func (r *TransformationPostgres) Create(ctx context.Context, tr *model.Transformation) (*model.Transformation, error) {
	src, err := encodeTree(tr.SourceDocument)
	if err != nil {
		return nil, err
	}
	tgt, err := encodeTree(tr.TargetDocument)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO transformations (id, channel_id, owner_id, source_document, target_document,
		                             status, error, artifact_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + transformationColumns
	row := r.db.QueryRowContext(ctx, q,
		tr.ID,
		tr.ChannelID,
		tr.OwnerID,
		src,
		tgt,
		string(tr.Status),
		tr.Error,
		tr.ArtifactPath,
		tr.CreatedAt,
	)
	return scanTransformation(row)
}

// FindByID fetches a single record by its ID.
func (r *TransformationPostgres) FindByID(ctx context.Context, id string) (*model.Transformation, error) {
	const q = `
		SELECT ` + transformationColumns + `
		FROM transformations
		WHERE id = $1
	`
	return scanTransformation(r.db.QueryRowContext(ctx, q, id))
}

// ListByChannel returns a channel's records using LIMIT/OFFSET pagination and a total count.
func (r *TransformationPostgres) ListByChannel(ctx context.Context, channelID string, pq repository.PageQuery) (*repository.PageResult[model.Transformation], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM transformations WHERE channel_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, channelID).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `
		SELECT ` + transformationColumns + `
		FROM transformations
		WHERE channel_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, channelID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Transformation, 0)
	for rows.Next() {
		t, err := scanTransformation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Transformation]{
		Items: items,
		Total: total,
	}, nil
}

// Stats counts an owner's records. SuccessRate is the completed share in percent, one decimal.
func (r *TransformationPostgres) Stats(ctx context.Context, ownerID string, monthStart time.Time) (*model.TransformationStats, error) {
	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= $2),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM transformations
		WHERE owner_id = $1
	`
	var total, thisMonth, completed, pending int
	if err := r.db.QueryRowContext(ctx, q, ownerID, monthStart).Scan(&total, &thisMonth, &completed, &pending); err != nil {
		return nil, err
	}

	stats := &model.TransformationStats{
		TotalTransformations:     total,
		TransformationsThisMonth: thisMonth,
		Processing:               pending,
	}
	if total > 0 {
		stats.SuccessRate = math.Round(float64(completed)/float64(total)*1000) / 10
	}
	return stats, nil
}
