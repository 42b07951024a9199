// Package events carries the listings service's outbound messages: Redis
// pub/sub notifications for other JobMate services and NATS batches of
// canonical postings between the scraper and ingestion.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jobmate/listings-service/internal/logging"
)

// Redis channels published on.
const (
	EventJobsIngested  = "EVENT_JOBS_INGESTED"
	EventTaskCompleted = "EVENT_TASK_COMPLETED"
)

// Notifier broadcasts fire-and-forget events. Delivery failures are
// logged and never returned to the caller.
type Notifier interface {
	Notify(ctx context.Context, eventType string, fields map[string]any)
}

// RedisNotifier publishes events as JSON on a channel named after the
// event type. A nil client turns it into a no-op.
type RedisNotifier struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisNotifier(rdb *redis.Client, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, logger: logging.OrNop(logger).Named("events")}
}

func (n *RedisNotifier) Notify(ctx context.Context, eventType string, fields map[string]any) {
	if n.rdb == nil {
		return
	}
	payload, err := Encode(eventType, fields)
	if err != nil {
		n.logger.Warn("encode event failed", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := n.rdb.Publish(ctx, eventType, payload).Err(); err != nil {
		n.logger.Warn("publish event failed", zap.String("type", eventType), zap.Error(err))
	}
}

// Encode renders an event body: fields plus a "type" key.
func Encode(eventType string, fields map[string]any) ([]byte, error) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["type"] = eventType
	return json.Marshal(body)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, string, map[string]any) {}
