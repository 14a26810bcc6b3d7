package storage

import (
	"context"
	"errors"
	"fmt"
	"math"

	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
)

// DefaultLimit is the page size used when a range query does not set one.
const DefaultLimit = 100

var (
	// ErrStoreFailure wraps every I/O fault surfaced by a store adapter.
	ErrStoreFailure = errors.New("event store failure")

	// ErrInvalidCursor is returned when a continuation token cannot be used for the query.
	ErrInvalidCursor = errors.New("invalid continuation token")
)

// InsertResult is the outcome of a conditional insert.
// Store failures are reported through the error return, never through this value.
type InsertResult int

const (
	// InsertAccepted means the event was new and is now durably stored.
	InsertAccepted InsertResult = iota + 1
	// InsertDuplicate means an event with the same (device_id, ts) already exists.
	// The store was left untouched.
	InsertDuplicate
)

func (r InsertResult) String() string {
	switch r {
	case InsertAccepted:
		return "accepted"
	case InsertDuplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("InsertResult(%d)", int(r))
	}
}

// RangeQuery selects one device's events by inclusive ts bounds.
// Nil bounds are open-ended.
type RangeQuery struct {
	DeviceID string
	FromTS   *int64
	ToTS     *int64
	Limit    int

	// After is the LastEvaluatedKey of a previous page. Empty starts from the newest event.
	After string
}

// Page is one newest-first slice of a device's events.
type Page struct {
	Events []*v1.Event

	// LastEvaluatedKey is set only when more events exist beyond this page.
	LastEvaluatedKey *string
}

// EventStore is the append-only, device-partitioned event store.
type EventStore interface {
	// Insert stores the event only if no event exists for its (device_id, ts).
	// Exactly one of any number of concurrent callers for the same pair observes InsertAccepted.
	Insert(ctx context.Context, event *v1.Event) (InsertResult, error)

	// QueryRange returns the device's events in strictly descending ts order.
	QueryRange(ctx context.Context, q RangeQuery) (*Page, error)
}

// EnqueueMarker records that an event's queue message was acknowledged.
type EnqueueMarker interface {
	MarkEnqueued(ctx context.Context, deviceID string, ts int64, enqueuedAt int64) error
}

// OutboxStore exposes stored events whose queue message was never acknowledged.
type OutboxStore interface {
	EnqueueMarker

	// ListUnenqueued returns up to limit events with no enqueue mark that were ingested
	// strictly before ingestedBefore, oldest first.
	ListUnenqueued(ctx context.Context, ingestedBefore int64, limit int) ([]*v1.Event, error)
}

// Store is the full capability set a backing adapter provides.
type Store interface {
	EventStore
	OutboxStore
	Ping(ctx context.Context) error
	Close() error
}

// Bounds resolves the query into an inclusive [lower, upper] ts window and an effective limit,
// applying the continuation token when present.
func (q RangeQuery) Bounds() (lower, upper int64, limit int, err error) {
	lower, upper = math.MinInt64, math.MaxInt64
	if q.FromTS != nil {
		lower = *q.FromTS
	}
	if q.ToTS != nil {
		upper = *q.ToTS
	}

	if q.After != "" {
		deviceID, ts, decodeErr := DecodeCursor(q.After)
		if decodeErr != nil {
			return 0, 0, 0, decodeErr
		}
		if deviceID != q.DeviceID {
			return 0, 0, 0, fmt.Errorf("%w: token belongs to another device", ErrInvalidCursor)
		}
		if ts-1 < upper {
			upper = ts - 1
		}
	}

	limit = q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return lower, upper, limit, nil
}

// NewPage trims rows (fetched with limit+1) to limit and sets the continuation token
// when the extra row proves another page exists.
func NewPage(deviceID string, rows []*v1.Event, limit int) *Page {
	page := &Page{Events: rows}
	if len(rows) > limit {
		page.Events = rows[:limit]
		last := page.Events[limit-1]
		token := EncodeCursor(deviceID, last.TS)
		page.LastEvaluatedKey = &token
	}
	if page.Events == nil {
		page.Events = []*v1.Event{}
	}
	return page
}
