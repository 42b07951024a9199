// Package dedup keeps at most one live posting per semantic identity.
//
// A run has two phases over the whole store:
//
//	A: purge postings whose company is empty or "unknown", unless a saved
//	   job references them.
//	B: group the rest by normalized title, company and location; in each
//	   group keep the newest posting, repoint saved jobs from the others
//	   onto it, then delete the others.
//
// A record's failure is recorded in the run stats and never aborts the
// run; only losing the store does.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/logging"
	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/store"
	"jobmate/listings-service/internal/telemetry"
)

const DefaultPageSize = 500

var tracer = telemetry.GetTracer("dedup")

// GroupKey is the semantic identity of a posting.
func GroupKey(title, company, location string) string {
	return normalizePart(title) + "__" + normalizePart(company) + "__" + normalizePart(location)
}

func normalizePart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

type Engine struct {
	jobs     store.JobStore
	saved    store.SavedJobStore
	pageSize int
	logger   *zap.Logger
	now      func() time.Time
}

func NewEngine(jobs store.JobStore, saved store.SavedJobStore, pageSize int, logger *zap.Logger) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Engine{
		jobs:     jobs,
		saved:    saved,
		pageSize: pageSize,
		logger:   logging.OrNop(logger).Named("dedup"),
		now:      time.Now,
	}
}

// member is the slice of a posting Phase B needs to pick a survivor.
type member struct {
	id        string
	postedAt  time.Time
	createdAt time.Time
}

// Run executes both phases. The returned stats are valid even when err
// is non-nil.
func (e *Engine) Run(ctx context.Context) (model.DedupStats, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	stats := model.DedupStats{
		RunID:     uuid.NewString(),
		Errors:    make([]string, 0),
		StartedAt: e.now().UTC(),
	}
	log := e.logger.With(zap.String("runId", stats.RunID))
	log.Info("dedup started")

	err := e.purgeUnknown(ctx, log, &stats)
	if err == nil {
		err = e.collapseDuplicates(ctx, log, &stats)
	}
	stats.FinishedAt = e.now().UTC()

	span.SetAttributes(
		telemetry.Int("dedup.scanned", stats.TotalScanned),
		telemetry.Int("dedup.unknown_removed", stats.UnknownRemoved),
		telemetry.Int("dedup.groups", stats.DuplicateGroups),
		telemetry.Int("dedup.deleted", stats.Deleted),
		telemetry.Int("dedup.repointed", stats.Repointed),
	)
	if err != nil {
		span.RecordError(err)
		log.Error("dedup aborted", zap.Error(err), zap.Int("errors", len(stats.Errors)))
		return stats, err
	}
	log.Info("dedup finished",
		zap.Int("scanned", stats.TotalScanned),
		zap.Int("unknownRemoved", stats.UnknownRemoved),
		zap.Int("groups", stats.DuplicateGroups),
		zap.Int("deleted", stats.Deleted),
		zap.Int("repointed", stats.Repointed),
		zap.Int("errors", len(stats.Errors)),
		zap.Duration("took", stats.FinishedAt.Sub(stats.StartedAt)))
	return stats, nil
}

// purgeUnknown is Phase A. Deleted rows leave the result set, so the
// offset only advances past rows that stay.
func (e *Engine) purgeUnknown(ctx context.Context, log *zap.Logger, stats *model.DedupStats) error {
	offset := 0
	for {
		page, err := e.jobs.FindMany(ctx, store.Query{
			Filter: store.Filter{UnknownCompany: true},
			Sort:   store.SortCreated,
			Limit:  e.pageSize,
			Offset: offset,
		})
		if err != nil {
			return fmt.Errorf("unknown-company scan: %w", err)
		}
		if len(page) == 0 {
			return nil
		}

		for _, j := range page {
			deleted, err := e.jobs.DeleteIfUnreferenced(ctx, j.ID)
			switch {
			case err != nil:
				if fatal(err) {
					return err
				}
				stats.Errors = append(stats.Errors, fmt.Sprintf("unknown-company %s (%s): %v", j.ID, j.Hash, err))
				offset++
			case deleted:
				stats.UnknownRemoved++
				stats.TotalScanned++
			default:
				log.Debug("unknown-company posting kept, referenced", zap.String("jobId", j.ID))
				offset++
			}
		}
	}
}

// collapseDuplicates is Phase B. The scan only collects group members;
// deletes happen after it so paging is unaffected.
func (e *Engine) collapseDuplicates(ctx context.Context, log *zap.Logger, stats *model.DedupStats) error {
	groups := make(map[string][]member)
	for offset := 0; ; offset += e.pageSize {
		page, err := e.jobs.FindMany(ctx, store.Query{
			Sort:   store.SortCreated,
			Limit:  e.pageSize,
			Offset: offset,
		})
		if err != nil {
			return fmt.Errorf("duplicate scan: %w", err)
		}
		for _, j := range page {
			key := GroupKey(j.Title, j.Company.Name, j.Location)
			groups[key] = append(groups[key], member{id: j.ID, postedAt: j.PostedAt, createdAt: j.CreatedAt})
		}
		stats.TotalScanned += len(page)
		if len(page) < e.pageSize {
			break
		}
	}

	keys := make([]string, 0, len(groups))
	for k, members := range groups {
		if len(members) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	stats.DuplicateGroups = len(keys)

	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		members := groups[k]
		sortSurvivorFirst(members)
		survivor := members[0]
		for _, loser := range members[1:] {
			if err := e.retire(ctx, log, stats, loser.id, survivor.id); err != nil {
				return err
			}
		}
	}
	return nil
}

// retire repoints saved jobs from loser to survivor, then deletes loser.
// A failed repoint keeps the loser.
func (e *Engine) retire(ctx context.Context, log *zap.Logger, stats *model.DedupStats, loser, survivor string) error {
	moved, err := e.saved.Repoint(ctx, loser, survivor)
	if err != nil {
		if fatal(err) {
			return err
		}
		log.Warn("repoint failed, keeping duplicate",
			zap.String("jobId", loser), zap.String("survivorId", survivor), zap.Error(err))
		stats.Errors = append(stats.Errors, fmt.Sprintf("repoint %s -> %s: %v", loser, survivor, err))
		return nil
	}
	stats.Repointed += int(moved)

	deleted, err := e.jobs.DeleteIfUnreferenced(ctx, loser)
	if err != nil {
		if fatal(err) {
			return err
		}
		stats.Errors = append(stats.Errors, fmt.Sprintf("delete %s: %v", loser, err))
		return nil
	}
	if !deleted {
		// saved after the repoint, or already gone
		stats.Errors = append(stats.Errors, fmt.Sprintf("delete %s: still referenced or missing, kept", loser))
		return nil
	}
	stats.Deleted++
	log.Debug("duplicate removed",
		zap.String("jobId", loser), zap.String("survivorId", survivor), zap.Int64("repointed", moved))
	return nil
}

// sortSurvivorFirst orders by postedAt desc, createdAt desc, then id asc.
func sortSurvivorFirst(members []member) {
	sort.Slice(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if !a.postedAt.Equal(b.postedAt) {
			return a.postedAt.After(b.postedAt)
		}
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.After(b.createdAt)
		}
		return a.id < b.id
	})
}

func fatal(err error) bool {
	return apperrors.Is(err, apperrors.ErrTypeUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
