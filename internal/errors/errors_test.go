package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "jobmate/listings-service/internal/errors"
)

func TestDomainError_WrapsAndCapturesStack(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := apperrors.Unavailable("job store unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "UNAVAILABLE: job store unreachable: connection refused", err.Error())
	assert.NotEmpty(t, err.StackTrace())
}

func TestIs_FindsNestedType(t *testing.T) {
	inner := apperrors.Conflict("duplicate hash", nil)
	outer := apperrors.Internal("create job", inner)
	wrapped := fmt.Errorf("ingest: %w", outer)

	assert.True(t, apperrors.Is(wrapped, apperrors.ErrTypeConflict))
	assert.True(t, apperrors.Is(wrapped, apperrors.ErrTypeInternal))
	assert.False(t, apperrors.Is(wrapped, apperrors.ErrTypeNotFound))
	assert.False(t, apperrors.Is(stderrors.New("plain"), apperrors.ErrTypeInternal))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(apperrors.NotFound("job", nil)))
	assert.Equal(t, apperrors.ErrTypeInternal, apperrors.TypeOf(stderrors.New("plain")))
}
