package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
	"github.com/segmentio/kafka-go"
)

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaPublisher publishes one message per accepted event, keyed by device_id
// so a device's events land on a single partition.
type KafkaPublisher struct {
	writer Writer
	topic  string
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher builds a synchronous writer that waits for all in-sync replicas.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}

	slog.Info("[Queue] Kafka publisher configured",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic)
	return NewKafkaPublisherWithWriter(w, cfg.Topic)
}

// NewKafkaPublisherWithWriter wraps an existing writer.
func NewKafkaPublisherWithWriter(w Writer, topic string) *KafkaPublisher {
	if w == nil {
		panic("kafka writer is required")
	}
	return &KafkaPublisher{writer: w, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg v1.EnqueuedMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: failed to encode message: %w", ErrPublishFailure, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.DeviceID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "request_id", Value: []byte(msg.RequestID)},
			{Key: "event_id", Value: []byte(msg.EventID)},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: topic %s: %w", ErrPublishFailure, p.topic, err)
	}

	slog.DebugContext(ctx, "[Queue] Published event",
		"event_id", msg.EventID,
		"topic", p.topic)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}
