package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aevon-lab/telemetry-ingest/internal/core/storage"
)

const (
	defaultPageSize = storage.DefaultLimit
	maxPageSize     = 1000
)

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid events query")

// Service implements the read side: newest-first range queries over one device.
type Service struct {
	eventStore   storage.EventStore
	defaultLimit int
	maxLimit     int
}

// NewService creates a new projection service. Non-positive limits fall back to 100 and 1000.
func NewService(eventStore storage.EventStore, defaultLimit, maxLimit int) *Service {
	if eventStore == nil {
		panic("projection: event store must not be nil")
	}
	if maxLimit <= 0 {
		maxLimit = maxPageSize
	}
	if defaultLimit <= 0 {
		defaultLimit = defaultPageSize
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		eventStore:   eventStore,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// QueryDeviceEvents returns one page of events for req.DeviceID in descending ts order.
func (s *Service) QueryDeviceEvents(ctx context.Context, req EventsQueryRequest) (*EventsQueryResponse, error) {
	if strings.TrimSpace(req.DeviceID) == "" {
		return nil, fmt.Errorf("%w: device_id is required", ErrInvalidQuery)
	}
	if req.FromTS != nil && req.ToTS != nil && *req.FromTS > *req.ToTS {
		return nil, fmt.Errorf("%w: from_ts must not be greater than to_ts", ErrInvalidQuery)
	}
	if req.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must be a positive integer", ErrInvalidQuery)
	}

	limit := req.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	page, err := s.eventStore.QueryRange(ctx, storage.RangeQuery{
		DeviceID: req.DeviceID,
		FromTS:   req.FromTS,
		ToTS:     req.ToTS,
		Limit:    limit,
		After:    req.LastEvaluatedKey,
	})
	if err != nil {
		return nil, fmt.Errorf("query events for device %s: %w", req.DeviceID, err)
	}

	events := make([]EventView, 0, len(page.Events))
	for _, evt := range page.Events {
		events = append(events, newEventView(evt))
	}

	slog.Debug("[Projection] Range query served",
		"device_id", req.DeviceID,
		"count", len(events),
		"has_more", page.LastEvaluatedKey != nil)

	return &EventsQueryResponse{
		DeviceID:         req.DeviceID,
		Count:            len(events),
		Events:           events,
		LastEvaluatedKey: page.LastEvaluatedKey,
	}, nil
}
