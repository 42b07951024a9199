package ingest

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"jobmate/listings-service/internal/events"
	"jobmate/listings-service/internal/logging"
)

// Subscriber consumes canonical batches published by scraper workers and
// upserts them. Replicas share one queue group so each batch is ingested
// once.
type Subscriber struct {
	nc      *nats.Conn
	subject string
	queue   string
	service *Service
	logger  *zap.Logger
	sub     *nats.Subscription
}

func NewSubscriber(nc *nats.Conn, subject, queue string, service *Service, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		nc:      nc,
		subject: subject,
		queue:   queue,
		service: service,
		logger:  logging.OrNop(logger).Named("ingest.nats"),
	}
}

// Register subscribes and ties unsubscription to the fx lifecycle.
func (s *Subscriber) Register(lc fx.Lifecycle) error {
	sub, err := s.nc.QueueSubscribe(s.subject, s.queue, s.handleBatch)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.subject, err)
	}
	s.sub = sub
	s.logger.Info("registered NATS subscription",
		zap.String("subject", s.subject), zap.String("queue", s.queue))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return s.sub.Drain()
		},
	})
	return nil
}

func (s *Subscriber) handleBatch(msg *nats.Msg) {
	s.Handle(context.Background(), msg.Data)
}

// Handle decodes and ingests one message body.
func (s *Subscriber) Handle(ctx context.Context, data []byte) {
	ctx, span := tracer.Start(ctx, "handleBatch")
	defer span.End()

	batch, err := events.DecodeBatch(data)
	if err != nil {
		s.logger.Error("dropping malformed batch", zap.Error(err))
		return
	}

	res, err := s.service.Ingest(ctx, batch.Jobs)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to ingest batch",
			zap.String("source", batch.Source),
			zap.Int("jobs", len(batch.Jobs)),
			zap.Error(err))
		return
	}
	s.logger.Info("ingested batch",
		zap.String("source", batch.Source),
		zap.Int("accepted", res.Accepted),
		zap.Int("errors", len(res.Errors)))
}
