package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jobmate/listings-service/internal/errors"
)

func TestNewPostgresPool_BadURL(t *testing.T) {
	_, err := NewPostgresPool(context.Background(), "postgres://user@localhost:notaport/jobs")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalidInput))
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "http://localhost:6379")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeInvalidInput))
}
