package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

// Templates, documents and mappings are stored as json (not jsonb) so that key order survives.
var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  email         TEXT        NOT NULL UNIQUE,
  name          TEXT        NOT NULL DEFAULT '',
  password_hash TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_channels",
		SQL: `CREATE TABLE IF NOT EXISTS channels (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  owner_id        UUID        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  name            TEXT        NOT NULL,
  description     TEXT,
  source_format   TEXT        NOT NULL CHECK (source_format IN ('XML', 'JSON')),
  target_format   TEXT        NOT NULL CHECK (target_format IN ('XML', 'JSON')),
  source_template JSON,
  target_template JSON        NOT NULL,
  mappings        JSON        NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_transformations",
		SQL: `CREATE TABLE IF NOT EXISTS transformations (
  id              UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  channel_id      UUID        NOT NULL REFERENCES channels (id) ON DELETE CASCADE,
  owner_id        UUID        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  source_document JSON,
  target_document JSON,
  status          TEXT        NOT NULL CHECK (status IN ('pending', 'completed', 'failed')),
  error           TEXT        NOT NULL DEFAULT '',
  artifact_path   TEXT        NOT NULL DEFAULT '',
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_channels_owner_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_channels_owner_created_at ON channels (owner_id, created_at DESC);`,
	},
	{
		Name: "create_index_transformations_channel_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_transformations_channel_created_at ON transformations (channel_id, created_at DESC);`,
	},
	{
		Name: "create_index_transformations_owner_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_transformations_owner_created_at ON transformations (owner_id, created_at);`,
	},
}

// EnsureMigrated checks if the 'transformations' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "database", "db_host", dbHost)
	start := time.Now()

	log.Info("db_migration_check", "status", "starting")

	var exists bool
	query := "SELECT to_regclass('public.transformations') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			"status", "error",
			"error_message", fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			"status", "success",
			"detail", "schema already exists, skipping migration",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	log.Info("db_migration_start", "status", "in_progress")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.Info("db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}
