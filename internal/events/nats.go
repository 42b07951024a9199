package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/logging"
	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/telemetry"
)

var tracer = telemetry.GetTracer("events")

// Batch is one NATS message of canonical, fingerprinted postings.
type Batch struct {
	Source      string      `json:"source"`
	PublishedAt time.Time   `json:"publishedAt"`
	Jobs        []model.Job `json:"jobs"`
}

// DecodeBatch parses a Batch message body.
func DecodeBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, apperrors.InvalidInput("decoding job batch", err)
	}
	return &b, nil
}

// NewNATSConnection dials NATS, retrying in the background while the
// server is unavailable.
func NewNATSConnection(url, name string, timeout time.Duration) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return nc, nil
}

// NATSPublisher hands scraped batches to ingestion over NATS.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	logger  *zap.Logger
	now     func() time.Time
}

func NewNATSPublisher(nc *nats.Conn, subject string, logger *zap.Logger) *NATSPublisher {
	return &NATSPublisher{
		nc:      nc,
		subject: subject,
		logger:  logging.OrNop(logger).Named("nats"),
		now:     time.Now,
	}
}

// PublishBatch sends jobs as a single message on the configured subject.
func (p *NATSPublisher) PublishBatch(ctx context.Context, source string, jobs []model.Job) error {
	_, span := tracer.Start(ctx, "PublishBatch")
	defer span.End()

	data, err := json.Marshal(Batch{Source: source, PublishedAt: p.now().UTC(), Jobs: jobs})
	if err != nil {
		span.RecordError(err)
		return apperrors.Internal("marshaling job batch", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", p.subject),
		telemetry.Int("message.size", len(data)),
		telemetry.Int("batch.size", len(jobs)),
	)

	if err := p.nc.Publish(p.subject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish job batch",
			zap.String("source", source),
			zap.Int("jobs", len(jobs)),
			zap.Error(err))
		return apperrors.Unavailable("publishing to NATS", err)
	}

	p.logger.Debug("published job batch",
		zap.String("source", source),
		zap.String("subject", p.subject),
		zap.Int("jobs", len(jobs)))
	return nil
}
