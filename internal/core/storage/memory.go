package storage

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
	"github.com/aevon-lab/telemetry-ingest/internal/core/partition"
)

// MemoryStore is an in-memory implementation of Store.
// Devices are spread over partition.Count shards, each with its own lock,
// so inserts for unrelated devices rarely contend.
// Useful for testing and development.
type MemoryStore struct {
	shards [partition.Count]*memoryShard
}

type memoryShard struct {
	mu      sync.RWMutex
	devices map[string][]*memoryRecord // sorted by ts ascending
}

type memoryRecord struct {
	event      v1.Event
	enqueuedAt int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &memoryShard{devices: make(map[string][]*memoryRecord)}
	}
	return s
}

func (s *MemoryStore) shard(deviceID string) *memoryShard {
	return s.shards[partition.For(deviceID)]
}

// Insert stores a copy of the event unless (device_id, ts) is already present.
func (s *MemoryStore) Insert(ctx context.Context, event *v1.Event) (InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	sh := s.shard(event.DeviceID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	records := sh.devices[event.DeviceID]
	i := sort.Search(len(records), func(i int) bool { return records[i].event.TS >= event.TS })
	if i < len(records) && records[i].event.TS == event.TS {
		return InsertDuplicate, nil
	}

	rec := &memoryRecord{event: copyEvent(event)}
	records = append(records, nil)
	copy(records[i+1:], records[i:])
	records[i] = rec
	sh.devices[event.DeviceID] = records

	return InsertAccepted, nil
}

// QueryRange walks the device's records from the newest ts downwards.
func (s *MemoryStore) QueryRange(ctx context.Context, q RangeQuery) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	lower, upper, limit, err := q.Bounds()
	if err != nil {
		return nil, err
	}

	sh := s.shard(q.DeviceID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	records := sh.devices[q.DeviceID]
	// First index with ts > upper; everything before it is a candidate.
	end := sort.Search(len(records), func(i int) bool { return records[i].event.TS > upper })

	rows := make([]*v1.Event, 0, min(limit+1, end))
	for i := end - 1; i >= 0 && len(rows) <= limit; i-- {
		if records[i].event.TS < lower {
			break
		}
		evt := copyEvent(&records[i].event)
		rows = append(rows, &evt)
	}

	return NewPage(q.DeviceID, rows, limit), nil
}

// ListUnenqueued scans every shard.
func (s *MemoryStore) ListUnenqueued(ctx context.Context, ingestedBefore int64, limit int) ([]*v1.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	var pending []*v1.Event
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, records := range sh.devices {
			for _, rec := range records {
				if rec.enqueuedAt == 0 && rec.event.IngestedAt < ingestedBefore {
					evt := copyEvent(&rec.event)
					pending = append(pending, &evt)
				}
			}
		}
		sh.mu.RUnlock()
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].IngestedAt != pending[j].IngestedAt {
			return pending[i].IngestedAt < pending[j].IngestedAt
		}
		if pending[i].DeviceID != pending[j].DeviceID {
			return pending[i].DeviceID < pending[j].DeviceID
		}
		return pending[i].TS < pending[j].TS
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// MarkEnqueued records the acknowledgement time. Marking an unknown event is a no-op.
func (s *MemoryStore) MarkEnqueued(ctx context.Context, deviceID string, ts int64, enqueuedAt int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	sh := s.shard(deviceID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	records := sh.devices[deviceID]
	i := sort.Search(len(records), func(i int) bool { return records[i].event.TS >= ts })
	if i < len(records) && records[i].event.TS == ts && records[i].enqueuedAt == 0 {
		records[i].enqueuedAt = enqueuedAt
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}

// copyEvent returns a copy that shares no map with the original.
func copyEvent(e *v1.Event) v1.Event {
	c := *e
	if e.Raw != nil {
		c.Raw = maps.Clone(e.Raw)
	}
	return c
}
