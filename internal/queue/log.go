package queue

import (
	"context"
	"log/slog"

	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
)

// LogPublisher writes messages to the structured log instead of a broker.
// Used for local development when no Kafka cluster is available.
type LogPublisher struct {
	logger *slog.Logger
}

var _ Publisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, msg v1.EnqueuedMessage) error {
	p.logger.InfoContext(ctx, "[Queue] Enqueued event",
		"event_id", msg.EventID,
		"device_id", msg.DeviceID,
		"type", msg.Type,
		"ts", msg.TS,
		"request_id", msg.RequestID)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
