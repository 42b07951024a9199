package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"jobmate/listings-service/internal/api"
	"jobmate/listings-service/internal/cleanup"
	"jobmate/listings-service/internal/config"
	"jobmate/listings-service/internal/db"
	"jobmate/listings-service/internal/events"
	"jobmate/listings-service/internal/ingest"
	"jobmate/listings-service/internal/scheduler"
	"jobmate/listings-service/internal/telemetry"
)

// Task runs triggered over HTTP are synchronous.
const httpWriteTimeout = 30 * time.Minute

// Server adds the scheduler, the HTTP API, the NATS subscriber and tracing
// on top of Core. Migrations run before anything starts.
var Server = fx.Options(
	fx.Provide(NewScheduler, NewHTTPServer),
	fx.Invoke(
		RegisterTracer,
		RunMigrations,
		RegisterSubscriber,
		RegisterScheduler,
		RegisterHTTPServer,
	),
)

func RegisterTracer(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) error {
	shutdown, err := telemetry.InitTracer(context.Background(), telemetry.ServiceName, cfg.OTELCollectorURL)
	if err != nil {
		return err
	}
	if cfg.OTELCollectorURL != "" {
		logger.Info("tracing enabled", zap.String("collector", cfg.OTELCollectorURL))
	}
	lc.Append(fx.Hook{OnStop: shutdown})
	return nil
}

func RunMigrations(pool *pgxpool.Pool, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	_, err := db.Migrate(ctx, pool, logger)
	return err
}

// RegisterSubscriber consumes canonical batches when NATS is configured.
func RegisterSubscriber(lc fx.Lifecycle, cfg *config.Config, nc *nats.Conn, svc *ingest.Service, logger *zap.Logger) error {
	if nc == nil {
		return nil
	}
	return ingest.NewSubscriber(nc, cfg.NATSSubject, cfg.NATSQueue, svc, logger).Register(lc)
}

func NewScheduler(cfg *config.Config, rdb *redis.Client, notifier events.Notifier, logger *zap.Logger) *scheduler.Scheduler {
	opts := scheduler.Options{
		Location: cfg.Location(),
		LockTTL:  cfg.Schedule.LockTTL,
		Notifier: notifier,
	}
	if rdb != nil {
		opts.Locker = scheduler.NewRedisLocker(rdb, "listings:lock:")
	}
	return scheduler.New(opts, logger)
}

func RegisterScheduler(lc fx.Lifecycle, s *scheduler.Scheduler, tasks Tasks) error {
	for _, t := range tasks {
		if err := s.Register(t); err != nil {
			return err
		}
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: s.Stop,
	})
	return nil
}

func NewHTTPServer(cfg *config.Config, svc *ingest.Service, s *scheduler.Scheduler, c *cleanup.Service, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	api.NewHandler(svc, s, c, cfg.IngestSecret, cfg.Dev, Version, logger).RegisterRoutes(mux)

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: httpWriteTimeout,
	}
}

func RegisterHTTPServer(lc fx.Lifecycle, srv *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
			logger.Info("listening", zap.String("addr", srv.Addr), zap.String("version", Version))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: srv.Shutdown,
	})
}
