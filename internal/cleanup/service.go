// Package cleanup removes postings whose apply deadline passed more than a
// grace period ago. Postings a saved job still points at are kept, and
// postings without a deadline are never touched.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/logging"
	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/store"
	"jobmate/listings-service/internal/telemetry"
)

const (
	DefaultGraceMonths = 3
	DefaultPageSize    = 100
)

var tracer = telemetry.GetTracer("cleanup")

// Cutoff is the deadline before which postings are eligible for deletion.
func Cutoff(now time.Time, graceMonths int) time.Time {
	return now.UTC().AddDate(0, -graceMonths, 0)
}

type Service struct {
	jobs        store.JobStore
	saved       store.SavedJobStore
	graceMonths int
	pageSize    int
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(jobs store.JobStore, saved store.SavedJobStore, graceMonths, pageSize int, logger *zap.Logger) *Service {
	if graceMonths <= 0 {
		graceMonths = DefaultGraceMonths
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		jobs:        jobs,
		saved:       saved,
		graceMonths: graceMonths,
		pageSize:    pageSize,
		logger:      logging.OrNop(logger).Named("cleanup"),
		now:         time.Now,
	}
}

// WithClock replaces the clock the cutoff is computed from.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run deletes every unreferenced posting past the cutoff. The returned
// stats are valid even when err is non-nil.
func (s *Service) Run(ctx context.Context) (model.CleanupStats, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	now := s.now().UTC()
	stats := model.CleanupStats{
		RunID:     uuid.NewString(),
		Cutoff:    Cutoff(now, s.graceMonths),
		Errors:    make([]string, 0),
		StartedAt: now,
	}
	log := s.logger.With(zap.String("runId", stats.RunID), zap.Time("cutoff", stats.Cutoff))
	log.Info("cleanup started")

	err := s.sweep(ctx, log, &stats)
	stats.FinishedAt = s.now().UTC()

	span.SetAttributes(
		telemetry.Int("cleanup.expired", stats.TotalExpired),
		telemetry.Int("cleanup.kept", stats.ReferencedKept),
		telemetry.Int("cleanup.deleted", stats.Deleted),
	)
	if err != nil {
		span.RecordError(err)
		log.Error("cleanup aborted", zap.Error(err))
		return stats, err
	}
	log.Info("cleanup finished",
		zap.Int("expired", stats.TotalExpired),
		zap.Int("referencedKept", stats.ReferencedKept),
		zap.Int("deleted", stats.Deleted),
		zap.Int("errors", len(stats.Errors)))
	return stats, nil
}

// sweep pages through postings past the cutoff. Deleted rows leave the
// result set, so the offset only advances past rows that stay.
func (s *Service) sweep(ctx context.Context, log *zap.Logger, stats *model.CleanupStats) error {
	cutoff := stats.Cutoff
	offset := 0
	for {
		page, err := s.jobs.FindMany(ctx, store.Query{
			Filter: store.Filter{DeadlineBefore: &cutoff},
			Sort:   store.SortCreated,
			Limit:  s.pageSize,
			Offset: offset,
		})
		if err != nil {
			return fmt.Errorf("expired scan: %w", err)
		}
		if len(page) == 0 {
			return nil
		}

		for _, j := range page {
			stats.TotalExpired++
			deleted, err := s.jobs.DeleteIfUnreferenced(ctx, j.ID)
			switch {
			case err != nil:
				if fatal(err) {
					return err
				}
				stats.Errors = append(stats.Errors, fmt.Sprintf("delete %s (%s): %v", j.ID, j.Hash, err))
				offset++
			case deleted:
				stats.Deleted++
			default:
				log.Info("kept, referenced", zap.String("jobId", j.ID), zap.String("slug", j.Slug))
				stats.ReferencedKept++
				offset++
			}
		}
	}
}

// Preview counts what Run would consider without deleting anything.
func (s *Service) Preview(ctx context.Context) (model.CleanupPreview, error) {
	cutoff := Cutoff(s.now(), s.graceMonths)
	p := model.CleanupPreview{Cutoff: cutoff}

	withDeadline, err := s.jobs.Count(ctx, store.Filter{HasDeadline: true})
	if err != nil {
		return p, err
	}
	past, err := s.jobs.Count(ctx, store.Filter{DeadlineBefore: &cutoff})
	if err != nil {
		return p, err
	}
	p.WithDeadline = int(withDeadline)
	p.PastCutoff = int(past)

	for offset := 0; ; offset += s.pageSize {
		page, err := s.jobs.FindMany(ctx, store.Query{
			Filter: store.Filter{DeadlineBefore: &cutoff},
			Sort:   store.SortCreated,
			Limit:  s.pageSize,
			Offset: offset,
		})
		if err != nil {
			return p, err
		}
		for _, j := range page {
			n, err := s.saved.CountByJob(ctx, j.ID)
			if err != nil {
				return p, err
			}
			if n > 0 {
				p.PastCutoffReferenced++
			}
		}
		if len(page) < s.pageSize {
			return p, nil
		}
	}
}

func fatal(err error) bool {
	return apperrors.Is(err, apperrors.ErrTypeUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
