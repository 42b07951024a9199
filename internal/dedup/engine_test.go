package dedup_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"jobmate/listings-service/internal/dedup"
	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/store"
)

var day = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func add(t *testing.T, m *store.Memory, n int, title, company, location string, posted time.Time) model.Job {
	t.Helper()
	j := model.Job{
		Hash:      fmt.Sprintf("hash-%04d", n),
		Slug:      fmt.Sprintf("slug-%04d", n),
		Title:     title,
		Company:   model.Company{Name: company},
		Location:  location,
		PostedAt:  posted,
		CreatedAt: day.Add(time.Duration(n) * time.Minute),
	}
	require.NoError(t, m.Create(context.Background(), &j))
	return j
}

func TestGroupKey(t *testing.T) {
	assert.Equal(t, "graduate engineer__acme__london",
		dedup.GroupKey("  Graduate   Engineer ", "ACME", "London"))
	assert.Equal(t, dedup.GroupKey("Graduate Engineer", "Acme", ""), dedup.GroupKey("graduate engineer", "acme ", " "))
}

func TestRun_ConvergesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	newest := add(t, m, 1, "Graduate Engineer", "Acme", "London", day.Add(48*time.Hour))
	add(t, m, 2, "graduate engineer", "ACME", "london", day)
	add(t, m, 3, "Graduate  Engineer", "Acme ", "London", day.Add(24*time.Hour))
	other := add(t, m, 4, "Graduate Engineer", "Acme", "Leeds", day)

	e := dedup.NewEngine(m, m, 2, nil)
	stats, err := e.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalScanned)
	assert.Equal(t, 1, stats.DuplicateGroups)
	assert.Equal(t, 2, stats.Deleted)
	assert.Empty(t, stats.Errors)
	assert.Equal(t, 2, m.Len())
	_, ok := m.Get(newest.ID)
	assert.True(t, ok, "newest posting survives")
	_, ok = m.Get(other.ID)
	assert.True(t, ok, "different location is a different job")

	again, err := e.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.DuplicateGroups)
	assert.Equal(t, 0, again.Deleted)
	assert.Equal(t, 2, m.Len())
}

func TestRun_TieBreaksOnInsertionTime(t *testing.T) {
	m := store.NewMemory()
	add(t, m, 1, "Analyst", "Acme", "", day)
	later := add(t, m, 2, "Analyst", "Acme", "", day)

	_, err := dedup.NewEngine(m, m, 0, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	_, ok := m.Get(later.ID)
	assert.True(t, ok)
}

func TestRun_RepointsSavedJobsToSurvivor(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	survivor := add(t, m, 1, "Graduate Engineer", "Acme", "London", day.Add(time.Hour))
	loser := add(t, m, 2, "Graduate Engineer", "Acme", "London", day)
	s1 := m.SaveJob(loser.ID, "user-1")
	s2 := m.SaveJob(loser.ID, "user-2")

	stats, err := dedup.NewEngine(m, m, 10, nil).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Repointed)
	assert.Equal(t, 1, stats.Deleted)
	_, ok := m.Get(loser.ID)
	assert.False(t, ok)
	for _, id := range []string{s1.ID, s2.ID} {
		s, _ := m.SavedJob(id)
		assert.Equal(t, survivor.ID, s.JobID)
	}
}

func TestRun_PurgesUnknownCompanyUnlessReferenced(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	add(t, m, 1, "Intern", "Unknown", "", day)
	add(t, m, 2, "Placement", "  ", "", day)
	kept := add(t, m, 3, "Graduate", "unknown", "", day)
	add(t, m, 4, "Engineer", "Acme", "", day)
	m.SaveJob(kept.ID, "user-1")

	stats, err := dedup.NewEngine(m, m, 1, nil).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.UnknownRemoved)
	assert.Equal(t, 4, stats.TotalScanned)
	assert.Equal(t, 2, m.Len())
	_, ok := m.Get(kept.ID)
	assert.True(t, ok)
}

type mockSavedJobs struct{ mock.Mock }

func (m *mockSavedJobs) CountByJob(ctx context.Context, jobID string) (int64, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSavedJobs) Repoint(ctx context.Context, from, to string) (int64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func TestRun_RepointFailureKeepsLoser(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	survivor := add(t, m, 1, "Graduate Engineer", "Acme", "", day.Add(time.Hour))
	loser := add(t, m, 2, "Graduate Engineer", "Acme", "", day)

	saved := &mockSavedJobs{}
	saved.On("Repoint", mock.Anything, loser.ID, survivor.ID).Return(int64(0), errors.New("saved-jobs store timeout"))

	stats, err := dedup.NewEngine(m, saved, 10, nil).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.DuplicateGroups)
	assert.Equal(t, 0, stats.Deleted)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "saved-jobs store timeout")
	_, ok := m.Get(loser.ID)
	assert.True(t, ok, "loser must survive a failed repoint")
	saved.AssertExpectations(t)
}

func TestRun_ContinuesPastOneFailedGroup(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	a1 := add(t, m, 1, "Analyst", "Acme", "", day.Add(time.Hour))
	a2 := add(t, m, 2, "Analyst", "Acme", "", day)
	b1 := add(t, m, 3, "Engineer", "Beta", "", day.Add(time.Hour))
	b2 := add(t, m, 4, "Engineer", "Beta", "", day)

	saved := &mockSavedJobs{}
	saved.On("Repoint", mock.Anything, a2.ID, a1.ID).Return(int64(0), errors.New("boom"))
	saved.On("Repoint", mock.Anything, b2.ID, b1.ID).Return(int64(0), nil)

	stats, err := dedup.NewEngine(m, saved, 10, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DuplicateGroups)
	assert.Equal(t, 1, stats.Deleted)
	assert.Len(t, stats.Errors, 1)
	_, ok := m.Get(b2.ID)
	assert.False(t, ok)
}

func TestRun_UnavailableSavedStoreIsFatal(t *testing.T) {
	m := store.NewMemory()
	add(t, m, 1, "Analyst", "Acme", "", day.Add(time.Hour))
	add(t, m, 2, "Analyst", "Acme", "", day)

	saved := &mockSavedJobs{}
	saved.On("Repoint", mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), apperrors.Unavailable("repointSavedJobs: postgres unreachable", nil))

	stats, err := dedup.NewEngine(m, saved, 10, nil).Run(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrTypeUnavailable))
	assert.Equal(t, 1, stats.DuplicateGroups)
	assert.False(t, stats.FinishedAt.IsZero())
}
