package scraper

import (
	"context"

	"jobmate/listings-service/internal/events"
	"jobmate/listings-service/internal/ingest"
	"jobmate/listings-service/internal/model"
)

// Sink receives each source's cleaned batch. It returns how many postings
// were handed on.
type Sink interface {
	Publish(ctx context.Context, source string, jobs []model.Job) (int, error)
}

// IngestSink upserts in-process, for single-binary deployments.
type IngestSink struct {
	Service *ingest.Service
}

func (s IngestSink) Publish(ctx context.Context, _ string, jobs []model.Job) (int, error) {
	res, err := s.Service.Ingest(ctx, jobs)
	return res.Accepted, err
}

// NATSSink hands the batch to the ingest subscribers over NATS.
type NATSSink struct {
	Publisher *events.NATSPublisher
}

func (s NATSSink) Publish(ctx context.Context, source string, jobs []model.Job) (int, error) {
	if err := s.Publisher.PublishBatch(ctx, source, jobs); err != nil {
		return 0, err
	}
	return len(jobs), nil
}
