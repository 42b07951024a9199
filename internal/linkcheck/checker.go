// Package linkcheck re-fetches apply URLs and marks postings whose links
// are gone as expired.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/logging"
	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/store"
	"jobmate/listings-service/internal/telemetry"
)

// maxBodyBytes caps the read; 4000 runes are at most 16000 bytes.
const maxBodyBytes = 4 * bodyScanRunes

var tracer = telemetry.GetTracer("linkcheck")

// Options tunes a Checker. Zero values get the defaults below.
type Options struct {
	PageSize        int
	MaxPerRun       int
	RecheckInterval time.Duration
	Concurrency     int
	Timeout         time.Duration
	MinSpacing      time.Duration
	UserAgent       string
	Transport       http.RoundTripper
}

func (o *Options) defaults() {
	if o.PageSize <= 0 {
		o.PageSize = 100
	}
	if o.MaxPerRun <= 0 {
		o.MaxPerRun = 500
	}
	if o.RecheckInterval <= 0 {
		o.RecheckInterval = 24 * time.Hour
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 8
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MinSpacing < 0 {
		o.MinSpacing = 0
	}
	if o.UserAgent == "" {
		o.UserAgent = "JobMateLinkChecker/1.0"
	}
}

type Checker struct {
	jobs   store.JobStore
	opts   Options
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewChecker(jobs store.JobStore, opts Options, logger *zap.Logger) *Checker {
	opts.defaults()
	return &Checker{
		jobs:   jobs,
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		logger: logging.OrNop(logger).Named("linkcheck"),
		now:    time.Now,
	}
}

// WithClock replaces the clock used for selection and stamps.
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	return c
}

// Check fetches rawURL and classifies the response. A request that never
// gets a response yields an Outcome with Err set.
func (c *Checker) Check(ctx context.Context, rawURL string) Outcome {
	if strings.TrimSpace(rawURL) == "" {
		return Outcome{Expired: true, Reason: "missing-url"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Outcome{Reason: "request-error: " + err.Error(), Err: err}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return Outcome{Reason: "request-error: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	var body []byte
	if resp.StatusCode < 400 {
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil && len(body) == 0 {
			return Outcome{Reason: "request-error: " + err.Error(), Status: resp.StatusCode, Err: err}
		}
	}
	return Classify(resp.StatusCode, string(body))
}

// Run checks every live posting due for a recheck, up to MaxPerRun. The
// returned stats are valid even when err is non-nil.
func (c *Checker) Run(ctx context.Context) (model.LinkCheckStats, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	now := c.now().UTC()
	stats := model.LinkCheckStats{
		RunID:     uuid.NewString(),
		Errors:    make([]string, 0),
		StartedAt: now,
	}
	log := c.logger.With(zap.String("runId", stats.RunID))
	log.Info("link check started")

	err := c.sweep(ctx, log, now.Add(-c.opts.RecheckInterval), &stats)
	stats.FinishedAt = c.now().UTC()

	span.SetAttributes(
		telemetry.Int("linkcheck.checked", stats.Checked),
		telemetry.Int("linkcheck.expired", stats.Expired),
		telemetry.Int("linkcheck.active", stats.Active),
		telemetry.Int("linkcheck.errors", len(stats.Errors)),
	)
	if err != nil {
		span.RecordError(err)
		log.Error("link check aborted", zap.Error(err))
		return stats, err
	}
	log.Info("link check finished",
		zap.Int("checked", stats.Checked),
		zap.Int("expired", stats.Expired),
		zap.Int("active", stats.Active),
		zap.Int("errors", len(stats.Errors)),
		zap.Duration("took", stats.FinishedAt.Sub(stats.StartedAt)))
	return stats, nil
}

// sweep pages through due postings. A stamped posting is no longer due,
// so the offset only advances past postings whose stamp failed.
func (c *Checker) sweep(ctx context.Context, log *zap.Logger, dueBefore time.Time, stats *model.LinkCheckStats) error {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if c.opts.MinSpacing > 0 {
		limiter = rate.NewLimiter(rate.Every(c.opts.MinSpacing), 1)
	}

	var (
		mu        sync.Mutex
		unstamped int
		selected  int
	)
	for selected < c.opts.MaxPerRun {
		limit := min(c.opts.PageSize, c.opts.MaxPerRun-selected)
		mu.Lock()
		offset := unstamped
		mu.Unlock()

		page, err := c.jobs.FindMany(ctx, store.Query{
			Filter: store.Filter{CheckDueBefore: &dueBefore},
			Sort:   store.SortLastChecked,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return fmt.Errorf("due scan: %w", err)
		}
		if len(page) == 0 {
			return nil
		}
		selected += len(page)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.opts.Concurrency)
		for _, job := range page {
			job := job
			if err := limiter.Wait(gctx); err != nil {
				break
			}
			g.Go(func() error {
				outcome := c.Check(gctx, job.ApplyURL)
				checkedAt := c.now().UTC()

				var expired *bool
				if outcome.Known() {
					expired = &outcome.Expired
				}
				stampErr := c.jobs.MarkChecked(gctx, job.ID, expired, checkedAt)

				mu.Lock()
				defer mu.Unlock()
				stats.Checked++
				switch {
				case !outcome.Known():
					stats.Errors = append(stats.Errors, fmt.Sprintf("%s (%s): %s", job.ID, job.ApplyURL, outcome.Reason))
				case outcome.Expired:
					stats.Expired++
					log.Info("posting expired",
						zap.String("jobId", job.ID), zap.String("reason", outcome.Reason))
				default:
					stats.Active++
				}
				if stampErr != nil {
					unstamped++
					if fatal(stampErr) {
						return stampErr
					}
					stats.Errors = append(stats.Errors, fmt.Sprintf("stamp %s: %v", job.ID, stampErr))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(page) < limit {
			return nil
		}
	}
	return nil
}

func fatal(err error) bool {
	return apperrors.Is(err, apperrors.ErrTypeUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
