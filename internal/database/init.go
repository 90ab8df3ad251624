package database

import (
	"context"
	"fmt"

	"github.com/watsonpaul80/tipping-monster/internal/config"
)

// PostgresSchema creates the settlements table used by the Postgres mirror.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS settlements (
    id          UUID PRIMARY KEY,
    date        DATE             NOT NULL,
    race_time   TEXT             NOT NULL,
    course      TEXT             NOT NULL,
    horse       TEXT             NOT NULL,
    price       DOUBLE PRECISION NOT NULL DEFAULT 0,
    price_valid BOOLEAN          NOT NULL DEFAULT FALSE,
    confidence  DOUBLE PRECISION,
    position    TEXT             NOT NULL,
    stake       DOUBLE PRECISION NOT NULL DEFAULT 0,
    profit      DOUBLE PRECISION NOT NULL DEFAULT 0,
    outcome     TEXT             NOT NULL,
    mode        TEXT             NOT NULL,
    tags        TEXT[]           NOT NULL DEFAULT '{}',
    nap         BOOLEAN          NOT NULL DEFAULT FALSE,
    matched     BOOLEAN          NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_settlements_mode_date ON settlements(mode, date);
`

// Initialize creates a database connection pool and applies the schema
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if _, err := db.pool.Exec(ctx, PostgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return db, nil
}
