package db

import (
	"context"

	"github.com/redis/go-redis/v9"

	apperrors "jobmate/listings-service/internal/errors"
)

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, apperrors.InvalidInput("REDIS_URL is not a valid redis url", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, apperrors.Unavailable("redis ping failed", err)
	}

	return client, nil
}
