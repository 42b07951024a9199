package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/fingerprint"
	"jobmate/listings-service/internal/logging"
	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/normalize"
)

// Normalizer turns one raw record into a Job.
type Normalizer interface {
	Normalize(ctx context.Context, raw model.RawPosting, source string) (*model.Job, error)
}

// Worker runs the full scrape cycle: fetch every source, normalize, drop
// filtered and red-flagged postings, fingerprint, validate, and publish.
type Worker struct {
	sources     []Source
	normalizer  Normalizer
	sink        Sink
	redFlags    []string
	concurrency int
	logger      *zap.Logger
}

// NewWorker constructs a Worker. Concurrency bounds how many sources are
// polled at once.
func NewWorker(sources []Source, normalizer Normalizer, sink Sink, redFlags []string, concurrency int, logger *zap.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		sources:     sources,
		normalizer:  normalizer,
		sink:        sink,
		redFlags:    redFlags,
		concurrency: concurrency,
		logger:      logging.OrNop(logger).Named("scraper"),
	}
}

// sourceStats is one source's contribution to ScrapeStats.
type sourceStats struct {
	fetched, filtered, invalid, published int
	errs                                  []string
}

// Run polls every source once. A failing source is recorded and the rest
// still run.
func (w *Worker) Run(ctx context.Context) (model.ScrapeStats, error) {
	stats := model.ScrapeStats{
		RunID:     uuid.NewString(),
		Sources:   len(w.sources),
		Errors:    []string{},
		StartedAt: time.Now().UTC(),
	}
	w.logger.Info("scrape started", zap.String("run_id", stats.RunID), zap.Int("sources", len(w.sources)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, src := range w.sources {
		src := src
		g.Go(func() error {
			s, err := w.runSource(gctx, src)
			mu.Lock()
			stats.Fetched += s.fetched
			stats.Filtered += s.filtered
			stats.Invalid += s.invalid
			stats.Published += s.published
			stats.Errors = append(stats.Errors, s.errs...)
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()

	stats.FinishedAt = time.Now().UTC()
	w.logger.Info("scrape finished",
		zap.String("run_id", stats.RunID),
		zap.Int("fetched", stats.Fetched),
		zap.Int("filtered", stats.Filtered),
		zap.Int("invalid", stats.Invalid),
		zap.Int("published", stats.Published),
		zap.Int("errors", len(stats.Errors)),
	)
	return stats, err
}

// runSource returns an error only when the sink is unreachable or ctx is
// done; everything else ends up in s.errs.
func (w *Worker) runSource(ctx context.Context, src Source) (sourceStats, error) {
	var s sourceStats
	name := src.Name()
	log := w.logger.With(zap.String("source", name))

	raws, err := src.FetchBatch(ctx)
	s.fetched = len(raws)
	if err != nil {
		if ctx.Err() != nil {
			return s, ctx.Err()
		}
		log.Warn("fetch failed", zap.Int("partial", len(raws)), zap.Error(err))
		s.errs = append(s.errs, fmt.Sprintf("%s: fetch: %v", name, err))
	}

	batch := make([]model.Job, 0, len(raws))
	for _, raw := range raws {
		job, err := w.normalizer.Normalize(ctx, raw, name)
		if err != nil {
			s.invalid++
			log.Debug("normalize rejected posting", zap.Error(err))
			continue
		}
		if ok, reason := normalize.Accept(job); !ok {
			s.filtered++
			log.Debug("posting filtered", zap.String("reason", reason), zap.String("title", job.Title))
			continue
		}
		if ContainsRedFlag(job.Title, job.Company.Name, job.DescriptionText, w.redFlags) {
			s.filtered++
			continue
		}
		fingerprint.Apply(job)
		if err := normalize.Validate(job); err != nil {
			s.invalid++
			log.Debug("posting failed validation", zap.Error(err))
			continue
		}
		batch = append(batch, *job)
	}

	if len(batch) == 0 {
		return s, nil
	}
	n, err := w.sink.Publish(ctx, name, batch)
	s.published = n
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTypeUnavailable) || ctx.Err() != nil {
			return s, fmt.Errorf("%s: publish: %w", name, err)
		}
		log.Warn("publish failed", zap.Error(err))
		s.errs = append(s.errs, fmt.Sprintf("%s: publish: %v", name, err))
	}
	log.Info("source done", zap.Int("fetched", s.fetched), zap.Int("published", s.published))
	return s, nil
}
