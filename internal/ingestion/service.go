package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
	"github.com/aevon-lab/telemetry-ingest/internal/core/storage"
	"github.com/aevon-lab/telemetry-ingest/internal/queue"
	"github.com/gin-gonic/gin"
)

// Outcome is the terminal state of one ingest attempt.
type Outcome int

const (
	// OutcomeRejected: the body was malformed or failed validation. Nothing was stored.
	OutcomeRejected Outcome = iota + 1
	// OutcomeDuplicate: an event with the same (device_id, ts) was already stored. Nothing was published.
	OutcomeDuplicate
	// OutcomeStoreFailed: the store could not be reached. Nothing was published.
	OutcomeStoreFailed
	// OutcomePublishFailed: the event is stored but the queue did not acknowledge it.
	OutcomePublishFailed
	// OutcomeEnqueued: the event is stored and acknowledged by the queue.
	OutcomeEnqueued
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeStoreFailed:
		return "store_failed"
	case OutcomePublishFailed:
		return "publish_failed"
	case OutcomeEnqueued:
		return "enqueued"
	default:
		return "unknown"
	}
}

// Result describes what happened to a submission.
// Event is set once validation passed; Err is set for every outcome except duplicate and enqueued.
type Result struct {
	Outcome   Outcome
	RequestID string
	Event     *v1.Event
	Err       error
}

type Service struct {
	store            storage.EventStore
	marker           storage.EnqueueMarker
	publisher        queue.Publisher
	maxBodySizeBytes int
	now              func() time.Time
}

// NewService wires the pipeline. marker may be nil, in which case acknowledged
// publishes are not recorded and the outbox relay cannot tell them apart.
func NewService(store storage.EventStore, marker storage.EnqueueMarker, publisher queue.Publisher, maxBodySizeMB int) *Service {
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if publisher == nil {
		panic("ingestion: publisher must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            store,
		marker:           marker,
		publisher:        publisher,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		now:              time.Now,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/events", s.IngestHandler)
}

// Ingest runs one submission through validate, store and publish.
// Publishing happens only after the store accepted the event as new.
func (s *Service) Ingest(ctx context.Context, body []byte, requestID string) *Result {
	res := &Result{RequestID: requestID}

	input, err := ParseBody(body)
	if err != nil {
		slog.Warn("[Ingest] Invalid JSON body received",
			"error", err,
			"payload_size", len(body),
			"request_id", requestID)
		res.Outcome, res.Err = OutcomeRejected, err
		return res
	}

	evt, err := Validate(input)
	if err != nil {
		slog.Warn("[Ingest] Validation failed", "error", err, "request_id", requestID)
		res.Outcome, res.Err = OutcomeRejected, err
		return res
	}

	evt.IngestedAt = s.now().UnixMilli()
	evt.RequestID = requestID
	res.Event = evt

	inserted, err := s.store.Insert(ctx, evt)
	if err != nil {
		slog.Error("[Ingest] Failed to store event",
			"error", err,
			"device_id", evt.DeviceID,
			"ts", evt.TS,
			"request_id", requestID)
		res.Outcome, res.Err = OutcomeStoreFailed, err
		return res
	}

	if inserted == storage.InsertDuplicate {
		slog.Info("[Ingest] Duplicate event ignored",
			"device_id", evt.DeviceID,
			"ts", evt.TS,
			"request_id", requestID)
		res.Outcome = OutcomeDuplicate
		return res
	}

	slog.Info("[Ingest] Event stored",
		"event_id", evt.ID(),
		"type", evt.Type,
		"request_id", requestID)

	if err := s.publisher.Publish(ctx, evt.Message()); err != nil {
		if !errors.Is(err, queue.ErrPublishFailure) {
			err = errors.Join(queue.ErrPublishFailure, err)
		}
		slog.Error("[Ingest] Enqueue failed, event stored but not published",
			"error", err,
			"event_id", evt.ID(),
			"request_id", requestID)
		res.Outcome, res.Err = OutcomePublishFailed, err
		return res
	}

	s.markEnqueued(ctx, evt)

	slog.Info("[Ingest] Event enqueued", "event_id", evt.ID(), "request_id", requestID)
	res.Outcome = OutcomeEnqueued
	return res
}

// markEnqueued is best effort: an unmarked event is republished by the relay.
func (s *Service) markEnqueued(ctx context.Context, evt *v1.Event) {
	if s.marker == nil {
		return
	}
	if err := s.marker.MarkEnqueued(ctx, evt.DeviceID, evt.TS, s.now().UnixMilli()); err != nil {
		slog.Warn("[Ingest] Failed to mark event enqueued",
			"error", err,
			"event_id", evt.ID(),
			"request_id", evt.RequestID)
	}
}
