package projection

import (
	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
)

// EventsQueryRequest selects one page of a device's events.
type EventsQueryRequest struct {
	DeviceID string
	FromTS   *int64
	ToTS     *int64
	// Limit is the requested page size; zero means the configured default.
	Limit            int
	LastEvaluatedKey string
}

// EventView is the wire shape of a stored event.
type EventView struct {
	EventID    string                 `json:"event_id"`
	DeviceID   string                 `json:"device_id"`
	Type       string                 `json:"type"`
	Value      float64                `json:"value"`
	TS         int64                  `json:"ts"`
	IngestedAt int64                  `json:"ingested_at"`
	RequestID  string                 `json:"request_id"`
	Raw        map[string]interface{} `json:"raw,omitempty"`
}

// EventsQueryResponse is the 200 body for a range query.
// LastEvaluatedKey is null on the final page.
type EventsQueryResponse struct {
	DeviceID         string      `json:"device_id"`
	Count            int         `json:"count"`
	Events           []EventView `json:"events"`
	LastEvaluatedKey *string     `json:"last_evaluated_key"`
}

func newEventView(e *v1.Event) EventView {
	return EventView{
		EventID:    e.ID(),
		DeviceID:   e.DeviceID,
		Type:       e.Type,
		Value:      e.Value,
		TS:         e.TS,
		IngestedAt: e.IngestedAt,
		RequestID:  e.RequestID,
		Raw:        e.Raw,
	}
}
