// Package ingest upserts batches of canonical postings into the job store,
// keyed by content hash.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/events"
	"jobmate/listings-service/internal/fingerprint"
	"jobmate/listings-service/internal/logging"
	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/store"
	"jobmate/listings-service/internal/telemetry"
)

var tracer = telemetry.GetTracer("ingest")

// Result summarizes one batch. Accepted counts postings written, created
// or updated.
type Result struct {
	Accepted int      `json:"accepted"`
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

type Service struct {
	jobs     store.JobStore
	notifier events.Notifier
	logger   *zap.Logger
}

func NewService(jobs store.JobStore, notifier events.Notifier, logger *zap.Logger) *Service {
	if notifier == nil {
		notifier = events.Nop{}
	}
	return &Service{
		jobs:     jobs,
		notifier: notifier,
		logger:   logging.OrNop(logger).Named("ingest"),
	}
}

// Ingest upserts jobs by hash. Postings without a hash are skipped; a
// failure on one posting is recorded and the batch continues. Within one
// batch the last posting for a hash wins.
func (s *Service) Ingest(ctx context.Context, jobs []model.Job) (Result, error) {
	ctx, span := tracer.Start(ctx, "Ingest")
	defer span.End()

	var res Result
	order := make([]string, 0, len(jobs))
	byHash := make(map[string]model.Job, len(jobs))
	for _, j := range jobs {
		if j.Hash == "" {
			res.Skipped++
			continue
		}
		if _, seen := byHash[j.Hash]; !seen {
			order = append(order, j.Hash)
		} else {
			res.Skipped++
		}
		byHash[j.Hash] = j
	}

	for _, hash := range order {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		job := byHash[hash]
		if job.Slug == "" {
			job.Slug = fingerprint.Slug(job.Title, job.Company.Name, job.Location, job.Hash)
		}

		created, err := s.upsert(ctx, &job)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrTypeUnavailable) {
				span.RecordError(err)
				return res, err
			}
			s.logger.Warn("upsert failed", zap.String("hash", hash), zap.Error(err))
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", hash, err))
			continue
		}
		res.Accepted++
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	span.SetAttributes(
		telemetry.Int("ingest.received", len(jobs)),
		telemetry.Int("ingest.created", res.Created),
		telemetry.Int("ingest.updated", res.Updated),
		telemetry.Int("ingest.skipped", res.Skipped),
	)
	s.logger.Info("batch ingested",
		zap.Int("received", len(jobs)),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", len(res.Errors)))

	if res.Accepted > 0 {
		s.notifier.Notify(ctx, events.EventJobsIngested, map[string]any{
			"accepted": res.Accepted,
			"created":  res.Created,
			"updated":  res.Updated,
		})
	}
	return res, nil
}

// upsert writes job and reports whether it was inserted. A concurrent
// insert of the same hash surfaces as CONFLICT and is retried as update.
func (s *Service) upsert(ctx context.Context, job *model.Job) (bool, error) {
	existing, err := store.FindByHash(ctx, s.jobs, job.Hash)
	switch {
	case err == nil:
		return false, s.update(ctx, existing, job)
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	err = s.jobs.Create(ctx, job)
	if err == nil {
		return true, nil
	}
	if !apperrors.Is(err, apperrors.ErrTypeConflict) {
		return false, err
	}

	existing, findErr := store.FindByHash(ctx, s.jobs, job.Hash)
	if findErr != nil {
		// slug collision with a different hash
		return false, err
	}
	return false, s.update(ctx, existing, job)
}

// update overwrites existing with job. A posting that arrives without
// postedAt keeps the stored one.
func (s *Service) update(ctx context.Context, existing *model.Job, job *model.Job) error {
	if job.PostedAt.IsZero() {
		job.PostedAt = existing.PostedAt
	}
	return s.jobs.Update(ctx, existing.ID, job)
}
