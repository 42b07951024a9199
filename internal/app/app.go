// Package app wires the listings service together with fx. Core holds
// everything a one-off command needs; Server adds the long-running parts.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"jobmate/listings-service/internal/cache"
	"jobmate/listings-service/internal/cleanup"
	"jobmate/listings-service/internal/config"
	"jobmate/listings-service/internal/db"
	"jobmate/listings-service/internal/dedup"
	"jobmate/listings-service/internal/events"
	"jobmate/listings-service/internal/ingest"
	"jobmate/listings-service/internal/linkcheck"
	"jobmate/listings-service/internal/logging"
	"jobmate/listings-service/internal/normalize"
	"jobmate/listings-service/internal/scheduler"
	"jobmate/listings-service/internal/scraper"
	"jobmate/listings-service/internal/store"
	"jobmate/listings-service/internal/telemetry"
)

const (
	Version        = "1.0.0"
	connectTimeout = 10 * time.Second
)

// Task IDs, also the admin CLI's run targets.
const (
	TaskScrape    = "scrape"
	TaskCleanup   = "cleanup"
	TaskDedup     = "dedup"
	TaskLinkCheck = "linkcheck"
)

// Core provides config-driven infrastructure and every domain service.
// The caller supplies *config.Config.
var Core = fx.Options(
	fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: logger.Named("fx")}
	}),
	fx.Provide(
		NewLogger,
		NewPostgresPool,
		NewRedisClient,
		NewNATSConnection,
		NewStores,
		NewNotifier,
		NewNormalizer,
		ingest.NewService,
		NewDedupEngine,
		NewCleanupService,
		NewLinkChecker,
		NewSink,
		NewScrapeWorker,
		NewTasks,
	),
)

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Dev, cfg.LogLevel)
}

func NewPostgresPool(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("postgres connected")
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		pool.Close()
		return nil
	}})
	return pool, nil
}

// NewRedisClient returns nil when REDIS_URL is unset; events, locking and
// the apply-URL cache then fall back to their in-process forms.
func NewRedisClient(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, running without redis")
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	logger.Info("redis connected")
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return rdb.Close() }})
	return rdb, nil
}

// NewNATSConnection returns nil when NATS_URL is unset; scraped batches are
// then ingested in-process.
func NewNATSConnection(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*nats.Conn, error) {
	if cfg.NATSURL == "" {
		return nil, nil
	}
	nc, err := events.NewNATSConnection(cfg.NATSURL, telemetry.ServiceName, connectTimeout)
	if err != nil {
		return nil, err
	}
	logger.Info("nats connection created", zap.String("url", cfg.NATSURL))
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return nc.Drain() }})
	return nc, nil
}

type Stores struct {
	fx.Out

	Jobs  store.JobStore
	Saved store.SavedJobStore
}

func NewStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Jobs:  store.NewPostgres(pool),
		Saved: store.NewPostgresSavedJobs(pool),
	}
}

func NewNotifier(rdb *redis.Client, logger *zap.Logger) events.Notifier {
	if rdb == nil {
		return events.Nop{}
	}
	return events.NewRedisNotifier(rdb, logger)
}

func NewNormalizer(cfg *config.Config, rdb *redis.Client, logger *zap.Logger) *normalize.Normalizer {
	var c cache.Cache = cache.NewMemory()
	if rdb != nil {
		c = cache.NewRedis(rdb, "listings:")
	}
	resolver := normalize.NewApplyURLResolver(normalize.ResolverOptions{
		Timeout:      cfg.ApplyURL.Timeout,
		MaxRedirects: cfg.ApplyURL.MaxRedirects,
		UserAgent:    cfg.LinkCheck.UserAgent,
		Cache:        c,
		CacheTTL:     cfg.ApplyURL.CacheTTL,
		Logger:       logger,
	})
	return normalize.New(resolver, logger, normalize.WithLocation(cfg.Location()))
}

func NewDedupEngine(cfg *config.Config, jobs store.JobStore, saved store.SavedJobStore, logger *zap.Logger) *dedup.Engine {
	return dedup.NewEngine(jobs, saved, cfg.Dedup.PageSize, logger)
}

func NewCleanupService(cfg *config.Config, jobs store.JobStore, saved store.SavedJobStore, logger *zap.Logger) *cleanup.Service {
	return cleanup.NewService(jobs, saved, cfg.Cleanup.GraceMonths, cfg.Cleanup.PageSize, logger)
}

func NewLinkChecker(cfg *config.Config, jobs store.JobStore, logger *zap.Logger) *linkcheck.Checker {
	return linkcheck.NewChecker(jobs, linkcheck.Options{
		PageSize:        cfg.LinkCheck.PageSize,
		MaxPerRun:       cfg.LinkCheck.MaxPerRun,
		RecheckInterval: cfg.LinkCheck.RecheckInterval,
		Concurrency:     cfg.LinkCheck.Concurrency,
		Timeout:         cfg.LinkCheck.Timeout,
		MinSpacing:      cfg.LinkCheck.MinSpacing,
		UserAgent:       cfg.LinkCheck.UserAgent,
	}, logger)
}

func NewSink(cfg *config.Config, nc *nats.Conn, svc *ingest.Service, logger *zap.Logger) scraper.Sink {
	if nc == nil {
		return scraper.IngestSink{Service: svc}
	}
	return scraper.NATSSink{Publisher: events.NewNATSPublisher(nc, cfg.NATSSubject, logger)}
}

// Sources builds one adapter per configured board.
func Sources(cfg config.SourcesConfig, logger *zap.Logger) []scraper.Source {
	sources := []scraper.Source{
		scraper.NewAdzunaSource(cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.AdzunaCountry,
			cfg.AdzunaQueries, cfg.AdzunaLocations, logger),
	}
	for _, board := range cfg.GreenhouseBoards {
		sources = append(sources, scraper.NewGreenhouseSource(board))
	}
	for _, company := range cfg.LeverCompanies {
		sources = append(sources, scraper.NewLeverSource(company))
	}
	return sources
}

func NewScrapeWorker(cfg *config.Config, n *normalize.Normalizer, sink scraper.Sink, logger *zap.Logger) *scraper.Worker {
	return scraper.NewWorker(Sources(cfg.Sources, logger), n, sink, cfg.Sources.RedFlags, cfg.Sources.Concurrency, logger)
}

// Tasks lists the daily maintenance tasks in run order.
type Tasks []scheduler.Task

// Get returns the task with id.
func (ts Tasks) Get(id string) (scheduler.Task, bool) {
	for _, t := range ts {
		if t.ID == id {
			return t, true
		}
	}
	return scheduler.Task{}, false
}

type TaskDeps struct {
	fx.In

	Config  *config.Config
	Scraper *scraper.Worker
	Cleanup *cleanup.Service
	Dedup   *dedup.Engine
	Checker *linkcheck.Checker
}

func NewTasks(d TaskDeps) (Tasks, error) {
	s := d.Config.Schedule
	specs := []struct {
		id, name, at string
		enabled      bool
		run          scheduler.TaskFunc
	}{
		{TaskScrape, "Source scrape", s.ScrapeAt, s.ScrapeEnabled,
			func(ctx context.Context) (any, error) { return d.Scraper.Run(ctx) }},
		{TaskCleanup, "Expired posting cleanup", s.CleanupAt, s.CleanupEnabled,
			func(ctx context.Context) (any, error) { return d.Cleanup.Run(ctx) }},
		{TaskDedup, "Deduplication", s.DedupAt, s.DedupEnabled,
			func(ctx context.Context) (any, error) { return d.Dedup.Run(ctx) }},
		{TaskLinkCheck, "Link liveness check", s.LinkCheckAt, s.LinkCheckEnabled,
			func(ctx context.Context) (any, error) { return d.Checker.Run(ctx) }},
	}

	tasks := make(Tasks, 0, len(specs))
	for _, sp := range specs {
		hour, minute, err := config.ParseClock(sp.at)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", sp.id, err)
		}
		tasks = append(tasks, scheduler.Task{
			ID: sp.id, Name: sp.name, Hour: hour, Minute: minute, Enabled: sp.enabled, Run: sp.run,
		})
	}
	return tasks, nil
}
