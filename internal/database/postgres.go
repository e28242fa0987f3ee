package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const connectTimeout = 10 * time.Second

// Connect opens a pgx pool against the given URL and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	cfg.MaxConns = 25
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.ConnConfig.Tracer = &MetricsTracer{}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations applies the schema. Every statement is idempotent so restarts
// are safe.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS catalog_entries (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			external_media_id TEXT UNIQUE NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			thumbnail_url TEXT NOT NULL DEFAULT '',
			keywords TEXT[] NOT NULL DEFAULT '{}',
			provenance TEXT NOT NULL DEFAULT 'user-submitted',
			popularity INT NOT NULL DEFAULT 0,
			request_count INT NOT NULL DEFAULT 0,
			last_requested_at TIMESTAMPTZ,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_title ON catalog_entries (LOWER(title))`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_title_artist ON catalog_entries (LOWER(title), LOWER(artist))`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_search ON catalog_entries
			USING GIN (to_tsvector('simple', title || ' ' || artist))`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	slog.Info("Database migrations completed")
	return nil
}
