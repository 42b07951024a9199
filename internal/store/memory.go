package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/model"
)

// Memory implements JobStore and SavedJobStore in process, for tests.
type Memory struct {
	mu    sync.RWMutex
	jobs  map[string]model.Job
	saved map[string]model.SavedJob
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		jobs:  make(map[string]model.Job),
		saved: make(map[string]model.SavedJob),
		now:   time.Now,
	}
}

// SetClock overrides the clock used for createdAt/updatedAt stamps.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Memory) FindMany(ctx context.Context, q Query) ([]model.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	matched := make([]model.Job, 0)
	for _, j := range m.jobs {
		if m.matches(j, q.Filter) {
			matched = append(matched, j)
		}
	}
	m.mu.RUnlock()

	sortJobs(matched, q.Sort)

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []model.Job{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (m *Memory) Count(ctx context.Context, f Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, j := range m.jobs {
		if m.matches(j, f) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) matches(j model.Job, f Filter) bool {
	if f.Hash != "" && j.Hash != f.Hash {
		return false
	}
	if f.UnknownCompany {
		name := strings.ToLower(strings.TrimSpace(j.Company.Name))
		if name != "" && name != "unknown" {
			return false
		}
	}
	if f.HasDeadline && j.ApplyDeadline == nil {
		return false
	}
	if f.DeadlineBefore != nil && (j.ApplyDeadline == nil || !j.ApplyDeadline.Before(*f.DeadlineBefore)) {
		return false
	}
	if f.CheckDueBefore != nil {
		if j.IsExpired {
			return false
		}
		if j.LastCheckedAt != nil && j.LastCheckedAt.After(*f.CheckDueBefore) {
			return false
		}
	}
	return true
}

func sortJobs(jobs []model.Job, s Sort) {
	sort.Slice(jobs, func(a, b int) bool {
		x, y := jobs[a], jobs[b]
		if s == SortLastChecked {
			switch {
			case x.LastCheckedAt == nil && y.LastCheckedAt != nil:
				return true
			case x.LastCheckedAt != nil && y.LastCheckedAt == nil:
				return false
			case x.LastCheckedAt != nil && !x.LastCheckedAt.Equal(*y.LastCheckedAt):
				return x.LastCheckedAt.Before(*y.LastCheckedAt)
			}
			return x.ID < y.ID
		}
		if !x.CreatedAt.Equal(y.CreatedAt) {
			return x.CreatedAt.Before(y.CreatedAt)
		}
		return x.ID < y.ID
	})
}

func (m *Memory) Create(ctx context.Context, job *model.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, j := range m.jobs {
		if j.Hash == job.Hash {
			return apperrors.Conflict("create: duplicate key on jobs_hash_key", nil)
		}
		if j.Slug == job.Slug {
			return apperrors.Conflict("create: duplicate key on jobs_slug_key", nil)
		}
	}

	now := m.now().UTC()
	job.ID = uuid.NewString()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.PostedAt.IsZero() {
		job.PostedAt = now
	}
	job.UpdatedAt = now
	job.IsExpired = false
	job.LastCheckedAt = nil
	m.jobs[job.ID] = *job
	return nil
}

func (m *Memory) Update(ctx context.Context, id string, job *model.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	next := *job
	next.ID = id
	next.Hash = cur.Hash
	next.Slug = cur.Slug
	next.IsExpired = cur.IsExpired
	next.LastCheckedAt = cur.LastCheckedAt
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = m.now().UTC()
	m.jobs[id] = next
	*job = next
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *Memory) DeleteIfUnreferenced(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return false, nil
	}
	for _, s := range m.saved {
		if s.JobID == id {
			return false, nil
		}
	}
	delete(m.jobs, id)
	return true, nil
}

func (m *Memory) MarkChecked(ctx context.Context, id string, expired *bool, checkedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	at := checkedAt.UTC()
	j.LastCheckedAt = &at
	if expired != nil {
		j.IsExpired = *expired
	}
	m.jobs[id] = j
	return nil
}

func (m *Memory) CountByJob(ctx context.Context, jobID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, s := range m.saved {
		if s.JobID == jobID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) Repoint(ctx context.Context, from, to string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.saved {
		if s.JobID == from {
			s.JobID = to
			m.saved[id] = s
			n++
		}
	}
	return n, nil
}

// Get returns the posting with id.
func (m *Memory) Get(id string) (model.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	return j, ok
}

// Len returns the number of stored postings.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}

// SaveJob records a bookmark on jobID, as the saved-jobs owner would.
func (m *Memory) SaveJob(jobID, owner string) model.SavedJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.SavedJob{ID: uuid.NewString(), JobID: jobID, Owner: owner, CreatedAt: m.now().UTC()}
	m.saved[s.ID] = s
	return s
}

// SavedJob returns the bookmark with id.
func (m *Memory) SavedJob(id string) (model.SavedJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.saved[id]
	return s, ok
}
