// Package outbox republishes stored events whose queue message was never acknowledged.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
	"github.com/aevon-lab/telemetry-ingest/internal/core/storage"
	"github.com/aevon-lab/telemetry-ingest/internal/queue"
	"golang.org/x/sync/errgroup"
)

const (
	defaultInterval    = 30 * time.Second
	defaultGracePeriod = time.Minute
	defaultBatchSize   = 500
	defaultWorkerCount = 8

	maxConsecutiveBatches = 100
	shutdownDrainTimeout  = 30 * time.Second
)

// Options controls relay cadence and throughput.
type Options struct {
	Interval time.Duration
	// GracePeriod keeps the relay away from events whose request may still be publishing.
	GracePeriod time.Duration
	BatchSize   int
	WorkerCount int
}

func (o Options) normalized() Options {
	n := o
	if n.Interval <= 0 {
		n.Interval = defaultInterval
	}
	if n.GracePeriod <= 0 {
		n.GracePeriod = defaultGracePeriod
	}
	if n.BatchSize <= 0 {
		n.BatchSize = defaultBatchSize
	}
	if n.WorkerCount <= 0 {
		n.WorkerCount = defaultWorkerCount
	}
	return n
}

// BatchResult summarizes one relay pass.
type BatchResult struct {
	Listed    int
	Published int
	Failed    int
}

// Relay periodically publishes unacknowledged events and marks them enqueued.
// Delivery is at-least-once: a crash between publish and mark republishes on the next pass.
type Relay struct {
	store     storage.OutboxStore
	publisher queue.Publisher
	opts      Options
	nowFn     func() time.Time
}

func NewRelay(store storage.OutboxStore, publisher queue.Publisher, opts Options) *Relay {
	if store == nil {
		panic("outbox: store must not be nil")
	}
	if publisher == nil {
		panic("outbox: publisher must not be nil")
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		opts:      opts.normalized(),
		nowFn:     time.Now,
	}
}

// Start runs the relay until ctx is cancelled, then performs a final drain.
func (r *Relay) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	slog.Info("[Relay] Starting outbox relay",
		"interval", r.opts.Interval,
		"grace_period", r.opts.GracePeriod,
		"batch_size", r.opts.BatchSize,
		"workers", r.opts.WorkerCount,
	)

	r.drainBacklog(ctx)

	for {
		select {
		case <-ticker.C:
			r.drainBacklog(ctx)
		case <-ctx.Done():
			slog.Info("[Relay] Stopping (context cancelled)")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDrainTimeout)
			defer cancel()

			slog.Info("[Relay] Running final drain before shutdown...")
			r.drainBacklog(shutdownCtx)
			slog.Info("[Relay] Final drain complete")

			return nil
		}
	}
}

// drainBacklog runs batches until one comes back short or any publish fails.
// Failed events stay unmarked, so retrying them in the same tick would only spin.
func (r *Relay) drainBacklog(ctx context.Context) {
	batchCount := 0

	for batchCount < maxConsecutiveBatches {
		if ctx.Err() != nil {
			slog.Info("[Relay] Drain interrupted by context cancellation", "batches_processed", batchCount)
			return
		}

		res, err := r.RunOnce(ctx)
		if err != nil {
			slog.Error("[Relay] Batch failed", "error", err, "batch_number", batchCount+1)
			return
		}

		batchCount++

		if res.Failed > 0 || res.Listed < r.opts.BatchSize {
			if batchCount > 1 || res.Published > 0 {
				slog.Info("[Relay] Backlog pass complete",
					"total_batches", batchCount,
					"last_published", res.Published,
					"last_failed", res.Failed,
				)
			}
			return
		}

		slog.Info("[Relay] Backlog detected, continuing to drain", "batches_so_far", batchCount)
	}

	slog.Warn("[Relay] Max consecutive batches reached, pausing drain",
		"max_batches", maxConsecutiveBatches,
		"note", "Will resume on next tick",
	)
}

// RunOnce publishes one batch of unacknowledged events.
// Individual publish or mark failures are counted, not returned; only a failed listing is an error.
func (r *Relay) RunOnce(ctx context.Context) (BatchResult, error) {
	cutoff := r.nowFn().Add(-r.opts.GracePeriod).UnixMilli()

	events, err := r.store.ListUnenqueued(ctx, cutoff, r.opts.BatchSize)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list unenqueued events: %w", err)
	}
	if len(events) == 0 {
		slog.Debug("[Relay] No unacknowledged events")
		return BatchResult{}, nil
	}

	var published, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(r.opts.WorkerCount)

	for _, evt := range events {
		g.Go(func() error {
			if err := r.relay(ctx, evt); err != nil {
				failed.Add(1)
				slog.Warn("[Relay] Failed to relay event",
					"error", err,
					"event_id", evt.ID(),
					"request_id", evt.RequestID)
				return nil
			}
			published.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := BatchResult{
		Listed:    len(events),
		Published: int(published.Load()),
		Failed:    int(failed.Load()),
	}
	slog.Info("[Relay] Batch complete",
		"listed", res.Listed,
		"published", res.Published,
		"failed", res.Failed,
	)
	return res, nil
}

func (r *Relay) relay(ctx context.Context, evt *v1.Event) error {
	if err := r.publisher.Publish(ctx, evt.Message()); err != nil {
		return err
	}
	if err := r.store.MarkEnqueued(ctx, evt.DeviceID, evt.TS, r.nowFn().UnixMilli()); err != nil {
		return fmt.Errorf("published but not marked: %w", err)
	}
	return nil
}
