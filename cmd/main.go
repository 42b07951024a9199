// jobmate-listings-service
//
// Canonical job-postings store for the JobMate platform.
//   - scrapes Adzuna, Greenhouse and Lever on a daily schedule
//   - normalizes, fingerprints and upserts postings (HTTP or NATS)
//   - purges expired postings and collapses duplicates nightly
//   - re-checks apply links and marks dead postings expired
//
// Publishes EVENT_JOBS_INGESTED and EVENT_TASK_COMPLETED to Redis.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"jobmate/listings-service/internal/app"
	"jobmate/listings-service/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[listings-service] Config error: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("[listings-service] Config error: %v", err)
	}

	application := fx.New(
		fx.Supply(cfg),
		app.Core,
		app.Server,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := application.Start(startCtx); err != nil {
		log.Fatalf("[listings-service] Startup: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := application.Stop(stopCtx); err != nil {
		log.Printf("[listings-service] Shutdown error: %v", err)
	}
}
