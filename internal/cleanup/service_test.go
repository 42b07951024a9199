package cleanup_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/listings-service/internal/cleanup"
	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/store"
)

var now = time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)

func add(t *testing.T, m *store.Memory, n int, deadline *time.Time) model.Job {
	t.Helper()
	j := model.Job{
		Hash:          fmt.Sprintf("hash-%04d", n),
		Slug:          fmt.Sprintf("slug-%04d", n),
		Title:         "Graduate Analyst",
		Company:       model.Company{Name: "Acme"},
		ApplyDeadline: deadline,
		CreatedAt:     now.Add(time.Duration(n) * time.Minute),
	}
	require.NoError(t, m.Create(context.Background(), &j))
	return j
}

func at(t time.Time) *time.Time { return &t }

func TestCutoff(t *testing.T) {
	assert.Equal(t, time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC), cleanup.Cutoff(now, 3))
}

func TestRun_RespectsReferences(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	old := now.AddDate(0, -4, 0)

	referenced := add(t, m, 1, at(old))
	unreferenced := add(t, m, 2, at(old))
	recent := add(t, m, 3, at(now.AddDate(0, -1, 0)))
	noDeadline := add(t, m, 4, nil)
	m.SaveJob(referenced.ID, "user-1")

	svc := cleanup.NewService(m, m, 3, 1, nil).WithClock(func() time.Time { return now })
	stats, err := svc.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalExpired)
	assert.Equal(t, 1, stats.ReferencedKept)
	assert.Equal(t, 1, stats.Deleted)
	assert.Empty(t, stats.Errors)

	for _, id := range []string{referenced.ID, recent.ID, noDeadline.ID} {
		_, ok := m.Get(id)
		assert.True(t, ok, id)
	}
	_, ok := m.Get(unreferenced.ID)
	assert.False(t, ok)

	again, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Deleted)
	assert.Equal(t, 1, again.ReferencedKept)
}

func TestRun_PagesPastKeptRows(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	old := now.AddDate(-1, 0, 0)
	for i := 0; i < 7; i++ {
		j := add(t, m, i, at(old))
		if i%2 == 0 {
			m.SaveJob(j.ID, "user")
		}
	}

	stats, err := cleanup.NewService(m, m, 3, 2, nil).WithClock(func() time.Time { return now }).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalExpired)
	assert.Equal(t, 4, stats.ReferencedKept)
	assert.Equal(t, 3, stats.Deleted)
	assert.Equal(t, 4, m.Len())
}

func TestPreview(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	old := now.AddDate(0, -6, 0)
	a := add(t, m, 1, at(old))
	add(t, m, 2, at(old))
	add(t, m, 3, at(now))
	add(t, m, 4, nil)
	m.SaveJob(a.ID, "user-1")

	p, err := cleanup.NewService(m, m, 3, 1, nil).WithClock(func() time.Time { return now }).Preview(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CleanupPreview{
		Cutoff:               cleanup.Cutoff(now, 3),
		WithDeadline:         3,
		PastCutoff:           2,
		PastCutoffReferenced: 1,
	}, p)
	assert.Equal(t, 4, m.Len(), "preview never deletes")
}
