package postgres

import (
	"context"
	"database/sql"

	"channelapi/internal/model"
	"channelapi/internal/repository"
)

// ChannelPostgres is a PostgreSQL implementation of repository.ChannelRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ChannelPostgres struct {
	db *sql.DB
}

// NewChannelPostgres creates a new ChannelPostgres repository.
func NewChannelPostgres(db *sql.DB) *ChannelPostgres {
	return &ChannelPostgres{db: db}
}

var _ repository.ChannelRepository = (*ChannelPostgres)(nil)

const channelColumns = `id, owner_id, name, description, source_format, target_format,
		       source_template, target_template, mappings, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (*model.Channel, error) {
	var (
		c                  model.Channel
		description        sql.NullString
		srcFmt, tgtFmt     string
		srcTpl, tgtTpl, mp []byte
	)
	if err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&description,
		&srcFmt,
		&tgtFmt,
		&srcTpl,
		&tgtTpl,
		&mp,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}

	c.Description = stringPtr(description)
	c.SourceFormat = model.Format(srcFmt)
	c.TargetFormat = model.Format(tgtFmt)

	var err error
	if c.SourceTemplate, err = decodeTree(srcTpl); err != nil {
		return nil, err
	}
	if c.TargetTemplate, err = decodeTree(tgtTpl); err != nil {
		return nil, err
	}
	if c.Mappings, err = decodeMappings(mp); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new channel row and returns the stored record.
func (r *ChannelPostgres) Create(ctx context.Context, ch *model.Channel) (*model.Channel, error) {
	srcTpl, err := encodeTree(ch.SourceTemplate)
	if err != nil {
		return nil, err
	}
	tgtTpl, err := encodeTree(ch.TargetTemplate)
	if err != nil {
		return nil, err
	}
	mappings, err := encodeMappings(ch.Mappings)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO channels (id, owner_id, name, description, source_format, target_format,
		                      source_template, target_template, mappings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + channelColumns
	row := r.db.QueryRowContext(ctx, q,
		ch.ID,
		ch.OwnerID,
		ch.Name,
		nullString(ch.Description),
		string(ch.SourceFormat),
		string(ch.TargetFormat),
		srcTpl,
		tgtTpl,
		mappings,
		ch.CreatedAt,
	)
	return scanChannel(row)
}

// FindByID fetches a single channel by its ID.
func (r *ChannelPostgres) FindByID(ctx context.Context, id string) (*model.Channel, error) {
	const q = `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE id = $1
	`
	return scanChannel(r.db.QueryRowContext(ctx, q, id))
}

// ListByOwner returns the owner's channels ordered newest first.
func (r *ChannelPostgres) ListByOwner(ctx context.Context, ownerID string) ([]model.Channel, error) {
	const q = `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Channel, 0)
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a channel by ID. It does not return an error if the row does not exist.
func (r *ChannelPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM channels WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
