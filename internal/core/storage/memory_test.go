package storage

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent(deviceID string, ts int64) *v1.Event {
	return &v1.Event{
		DeviceID:   deviceID,
		Type:       "temp",
		Value:      float64(ts) / 10,
		TS:         ts,
		IngestedAt: 1700000000000 + ts,
		RequestID:  "req",
	}
}

func int64Ptr(v int64) *int64 { return &v }

func tsOf(events []*v1.Event) []int64 {
	out := make([]int64, 0, len(events))
	for _, e := range events {
		out = append(out, e.TS)
	}
	return out
}

func TestMemoryStore_InsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	res, err := store.Insert(ctx, newEvent("d1", 1000))
	require.NoError(t, err)
	require.Equal(t, InsertAccepted, res)

	dup := newEvent("d1", 1000)
	dup.Value = 99
	res, err = store.Insert(ctx, dup)
	require.NoError(t, err)
	require.Equal(t, InsertDuplicate, res)

	page, err := store.QueryRange(ctx, RangeQuery{DeviceID: "d1"})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	require.Equal(t, float64(100), page.Events[0].Value, "duplicate must not overwrite the stored event")
}

func TestMemoryStore_ConcurrentInsertSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const callers = 64
	var accepted, duplicates atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.Insert(ctx, newEvent("race", 42))
			assert.NoError(t, err)
			switch res {
			case InsertAccepted:
				accepted.Add(1)
			case InsertDuplicate:
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), accepted.Load())
	require.Equal(t, int32(callers-1), duplicates.Load())
}

func TestMemoryStore_QueryRangeNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, ts := range []int64{200, 100, 300} {
		_, err := store.Insert(ctx, newEvent("d1", ts))
		require.NoError(t, err)
	}

	page, err := store.QueryRange(ctx, RangeQuery{DeviceID: "d1", Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []int64{300, 200}, tsOf(page.Events))
	require.NotNil(t, page.LastEvaluatedKey)
}

func TestMemoryStore_QueryRangeBounds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rng := rand.New(rand.NewSource(7))
	stored := map[int64]bool{}
	for len(stored) < 200 {
		ts := rng.Int63n(10000) + 1
		if stored[ts] {
			continue
		}
		stored[ts] = true
		_, err := store.Insert(ctx, newEvent("dev", ts))
		require.NoError(t, err)
	}
	// Another device must never leak into the results.
	_, err := store.Insert(ctx, newEvent("other", 5000))
	require.NoError(t, err)

	tests := []struct {
		name string
		from *int64
		to   *int64
	}{
		{name: "both bounds", from: int64Ptr(2500), to: int64Ptr(7500)},
		{name: "from only", from: int64Ptr(9000)},
		{name: "to only", to: int64Ptr(1200)},
		{name: "unbounded"},
		{name: "single point", from: int64Ptr(5000), to: int64Ptr(5000)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var want []int64
			for ts := range stored {
				if tc.from != nil && ts < *tc.from {
					continue
				}
				if tc.to != nil && ts > *tc.to {
					continue
				}
				want = append(want, ts)
			}

			page, err := store.QueryRange(ctx, RangeQuery{DeviceID: "dev", FromTS: tc.from, ToTS: tc.to, Limit: 1000})
			require.NoError(t, err)
			require.Nil(t, page.LastEvaluatedKey)

			got := tsOf(page.Events)
			require.ElementsMatch(t, want, got)
			for i := 1; i < len(got); i++ {
				require.Greater(t, got[i-1], got[i], "results must be strictly descending")
			}
		})
	}
}

func TestMemoryStore_QueryRangePagination(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for ts := int64(1); ts <= 7; ts++ {
		_, err := store.Insert(ctx, newEvent("d1", ts*100))
		require.NoError(t, err)
	}

	var all []int64
	q := RangeQuery{DeviceID: "d1", FromTS: int64Ptr(200), Limit: 2}
	for pages := 0; pages < 10; pages++ {
		page, err := store.QueryRange(ctx, q)
		require.NoError(t, err)
		all = append(all, tsOf(page.Events)...)
		if page.LastEvaluatedKey == nil {
			break
		}
		q.After = *page.LastEvaluatedKey
	}

	require.Equal(t, []int64{700, 600, 500, 400, 300, 200}, all)
}

func TestMemoryStore_QueryRangeUnknownDevice(t *testing.T) {
	page, err := NewMemoryStore().QueryRange(context.Background(), RangeQuery{DeviceID: "unknown"})
	require.NoError(t, err)
	require.NotNil(t, page.Events)
	require.Empty(t, page.Events)
	require.Nil(t, page.LastEvaluatedKey)
}

func TestMemoryStore_QueryRangeRejectsForeignCursor(t *testing.T) {
	_, err := NewMemoryStore().QueryRange(context.Background(), RangeQuery{
		DeviceID: "d1",
		After:    EncodeCursor("d2", 100),
	})
	require.ErrorIs(t, err, ErrInvalidCursor)
}

func TestMemoryStore_ReturnedEventsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	evt := newEvent("d1", 1)
	evt.Raw = map[string]interface{}{"unit": "C"}
	_, err := store.Insert(ctx, evt)
	require.NoError(t, err)

	evt.Raw["unit"] = "F"

	page, err := store.QueryRange(ctx, RangeQuery{DeviceID: "d1"})
	require.NoError(t, err)
	require.Equal(t, "C", page.Events[0].Raw["unit"])
}

func TestMemoryStore_Outbox(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, e := range []*v1.Event{newEvent("a", 3), newEvent("b", 1), newEvent("a", 2)} {
		_, err := store.Insert(ctx, e)
		require.NoError(t, err)
	}

	pending, err := store.ListUnenqueued(ctx, 1700000000000+3, 10)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, tsOf(pending), "oldest ingested first, cutoff exclusive")

	require.NoError(t, store.MarkEnqueued(ctx, "b", 1, 1700000001000))

	pending, err = store.ListUnenqueued(ctx, 1800000000000, 10)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3}, tsOf(pending))

	pending, err = store.ListUnenqueued(ctx, 1800000000000, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Unknown events are ignored.
	require.NoError(t, store.MarkEnqueued(ctx, "zzz", 1, 1))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().Insert(ctx, newEvent("d1", 1))
	require.ErrorIs(t, err, ErrStoreFailure)
}
