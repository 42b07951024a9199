// Package db opens the service's Postgres and Redis connections and owns
// the schema migrations.
package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "jobmate/listings-service/internal/errors"
)

const maxConnIdleTime = 5 * time.Minute

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, apperrors.InvalidInput("DATABASE_URL is not a valid connection string", err)
	}
	cfg.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, apperrors.Unavailable("creating postgres pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.Unavailable("postgres ping failed", err)
	}

	return pool, nil
}
