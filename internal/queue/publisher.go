// Package queue hands accepted events to the downstream work queue.
package queue

import (
	"context"
	"errors"

	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
)

// ErrPublishFailure wraps every error that means the message was not acknowledged.
var ErrPublishFailure = errors.New("queue publish failure")

// Publisher sends a message and returns only after the broker acknowledged it.
type Publisher interface {
	Publish(ctx context.Context, msg v1.EnqueuedMessage) error
	Close() error
}
