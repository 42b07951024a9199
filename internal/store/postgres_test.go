package store

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	apperrors "jobmate/listings-service/internal/errors"
)

func TestBuildWhere(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	where, args := buildWhere(Filter{}, nil)
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = buildWhere(Filter{Hash: "abc", DeadlineBefore: &at}, nil)
	assert.Equal(t, " WHERE hash = $1 AND apply_deadline < $2", where)
	assert.Equal(t, []any{"abc", at}, args)

	where, args = buildWhere(Filter{UnknownCompany: true, CheckDueBefore: &at}, []any{"x"})
	assert.Equal(t,
		" WHERE lower(btrim(company_name)) IN ('', 'unknown') AND is_expired = FALSE AND (last_checked_at IS NULL OR last_checked_at <= $2)",
		where)
	assert.Len(t, args, 2)
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, " ORDER BY created_at ASC, id ASC", orderBy(SortCreated))
	assert.Equal(t, " ORDER BY last_checked_at ASC NULLS FIRST, id ASC", orderBy(SortLastChecked))
}

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError("op", pgx.ErrNoRows), ErrNotFound)

	dup := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "jobs_hash_key"}
	err := mapError("create", dup)
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeConflict))
	assert.Contains(t, err.Error(), "jobs_hash_key")

	lost := &pgconn.PgError{Code: pgerrcode.AdminShutdown}
	assert.Equal(t, apperrors.ErrTypeInternal, apperrors.TypeOf(mapError("count", lost)))

	conn := &pgconn.PgError{Code: pgerrcode.ConnectionFailure}
	assert.True(t, apperrors.Is(mapError("count", conn), apperrors.ErrTypeUnavailable))

	plain := errors.New("boom")
	assert.ErrorIs(t, mapError("count", plain), plain)
}
