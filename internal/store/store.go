// Package store defines the persistence contracts of the listings pipeline
// and provides Postgres and in-memory implementations of them.
//
// Postings are created or refreshed by ingestion, stamped by the link
// checker and deleted only by dedup or cleanup. Saved jobs are owned
// elsewhere; this package only counts and repoints them.
package store

import (
	"context"
	"errors"
	"time"

	"jobmate/listings-service/internal/model"
)

// ErrNotFound is returned when a posting id does not exist.
var ErrNotFound = errors.New("job not found")

// Filter selects postings. Zero-valued fields do not constrain.
type Filter struct {
	Hash string
	// UnknownCompany matches postings whose trimmed, lower-cased company
	// name is empty or "unknown".
	UnknownCompany bool
	HasDeadline    bool
	DeadlineBefore *time.Time
	// CheckDueBefore matches live postings never checked or last checked
	// at or before the given instant.
	CheckDueBefore *time.Time
}

// Sort orders FindMany results. Every order ends with the id so pages are
// stable.
type Sort int

const (
	SortCreated     Sort = iota // created_at asc, id asc
	SortLastChecked             // last_checked_at asc nulls first, id asc
)

// Query is a paged FindMany request. Limit <= 0 means no limit.
type Query struct {
	Filter Filter
	Sort   Sort
	Limit  int
	Offset int
}

// JobStore is the posting store the pipeline operates on.
type JobStore interface {
	FindMany(ctx context.Context, q Query) ([]model.Job, error)
	Count(ctx context.Context, f Filter) (int64, error)
	// Create inserts job and fills its ID, CreatedAt and UpdatedAt. A hash
	// or slug collision yields a CONFLICT domain error.
	Create(ctx context.Context, job *model.Job) error
	// Update replaces the descriptive and provenance fields of the posting
	// with the given id. Hash, slug, createdAt and liveness are kept.
	Update(ctx context.Context, id string, job *model.Job) error
	Delete(ctx context.Context, id string) error
	// DeleteIfUnreferenced deletes the posting only when no saved job
	// points at it, as one atomic step. It reports whether a row went.
	DeleteIfUnreferenced(ctx context.Context, id string) (bool, error)
	// MarkChecked stamps lastCheckedAt and, when expired is non-nil,
	// sets isExpired.
	MarkChecked(ctx context.Context, id string, expired *bool, checkedAt time.Time) error
}

// SavedJobStore is the narrow view of user bookmarks the pipeline needs.
type SavedJobStore interface {
	CountByJob(ctx context.Context, jobID string) (int64, error)
	// Repoint moves every saved job pointing at from onto to and returns
	// how many moved.
	Repoint(ctx context.Context, from, to string) (int64, error)
}

// FindByHash returns the posting with hash, or ErrNotFound.
func FindByHash(ctx context.Context, s JobStore, hash string) (*model.Job, error) {
	jobs, err := s.FindMany(ctx, Query{Filter: Filter{Hash: hash}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, ErrNotFound
	}
	return &jobs[0], nil
}
