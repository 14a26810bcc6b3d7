package postgres

import (
	"encoding/json"
	"fmt"

	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
	"github.com/shopspring/decimal"
)

// marshalRaw marshals the optional raw payload into a statement argument.
// A nil or empty payload produces an untyped nil (SQL NULL) rather than JSON "null".
func marshalRaw(raw map[string]interface{}) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw payload: %w", err)
	}
	return b, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans a database row into an Event.
// value is stored as NUMERIC and normalized back to float64 here.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanEventRow(row scanner) (*v1.Event, error) {
	var evt v1.Event
	var value decimal.Decimal
	var rawJSON []byte

	err := row.Scan(
		&evt.DeviceID,
		&evt.TS,
		&evt.Type,
		&value,
		&rawJSON,
		&evt.IngestedAt,
		&evt.RequestID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	evt.Value = value.InexactFloat64()

	if len(rawJSON) > 0 {
		if err := json.Unmarshal(rawJSON, &evt.Raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal raw payload: %w", err)
		}
	}

	return &evt, nil
}
