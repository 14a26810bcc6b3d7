package v1

import "fmt"

// Event is a single telemetry reading from a device.
// Events are append-only: once accepted they are never updated or deleted.
type Event struct {
	// DeviceID is the partition key. Together with TS it forms the event identity.
	DeviceID string `json:"device_id"`

	// Type is the reading category (e.g. "temp", "humidity").
	Type string `json:"type"`

	// Value is the measurement itself.
	Value float64 `json:"value"`

	// TS is the client-side reading time in epoch milliseconds.
	// It is the sort key within a device partition and must be > 0.
	TS int64 `json:"ts"`

	// Raw is an optional opaque payload passed through from the client.
	Raw map[string]interface{} `json:"raw,omitempty"`

	// IngestedAt is when the service accepted the event (epoch milliseconds).
	// Set by the ingestion pipeline, never by the client.
	IngestedAt int64 `json:"ingested_at"`

	// RequestID correlates the event with the request that stored it.
	RequestID string `json:"request_id"`
}

// ID returns the deterministic identifier of the event.
func (e *Event) ID() string {
	return EventID(e.DeviceID, e.TS)
}

// Message projects the event into the shape published downstream.
func (e *Event) Message() EnqueuedMessage {
	return EnqueuedMessage{
		DeviceID:  e.DeviceID,
		Type:      e.Type,
		Value:     e.Value,
		TS:        e.TS,
		RequestID: e.RequestID,
		EventID:   e.ID(),
	}
}

// EnqueuedMessage is the queue payload for an accepted event.
// Consumers should dedupe on EventID: delivery is at-least-once.
type EnqueuedMessage struct {
	DeviceID  string  `json:"device_id"`
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	TS        int64   `json:"ts"`
	RequestID string  `json:"request_id"`
	EventID   string  `json:"event_id"`
}

// EventID builds the identifier for the (deviceID, ts) pair.
func EventID(deviceID string, ts int64) string {
	return fmt.Sprintf("DEVICE#%s:TS#%d", deviceID, ts)
}
