package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
)

const (
	maxDeviceIDLength = 128
	maxTypeLength     = 64
)

// MalformedInputError means the body is not a single JSON object.
type MalformedInputError struct {
	Detail string
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Detail
}

// FieldViolation names one field and why it was rejected.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violated field of a request, not just the first.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ParseBody decodes a request body into a generic JSON object.
// Numbers are kept as json.Number so integers are not rounded through float64.
func ParseBody(body []byte) (map[string]interface{}, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &MalformedInputError{Detail: "request body is empty"}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var decoded interface{}
	if err := dec.Decode(&decoded); err != nil {
		return nil, &MalformedInputError{Detail: err.Error()}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &MalformedInputError{Detail: "unexpected data after top-level JSON value"}
	}

	obj, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, &MalformedInputError{Detail: "request body must be a JSON object"}
	}
	return obj, nil
}

// Validate checks every field of a decoded body and builds the event on success.
// IngestedAt and RequestID are left for the caller.
func Validate(input map[string]interface{}) (*v1.Event, error) {
	var violations []FieldViolation
	fail := func(field, msg string) {
		violations = append(violations, FieldViolation{Field: field, Message: msg})
	}

	deviceID, msg := requiredString(input, "device_id", maxDeviceIDLength)
	if msg != "" {
		fail("device_id", msg)
	}

	eventType, msg := requiredString(input, "type", maxTypeLength)
	if msg != "" {
		fail("type", msg)
	}

	value, msg := requiredNumber(input, "value")
	if msg != "" {
		fail("value", msg)
	}

	ts, msg := requiredTimestamp(input, "ts")
	if msg != "" {
		fail("ts", msg)
	}

	raw, msg := optionalObject(input, "raw")
	if msg != "" {
		fail("raw", msg)
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	return &v1.Event{
		DeviceID: deviceID,
		Type:     eventType,
		Value:    value,
		TS:       ts,
		Raw:      raw,
	}, nil
}

func requiredString(input map[string]interface{}, field string, maxLen int) (string, string) {
	v, ok := input[field]
	if !ok || v == nil {
		return "", "field required"
	}
	s, ok := v.(string)
	if !ok {
		return "", "must be a string"
	}
	if strings.TrimSpace(s) == "" {
		return "", "must not be blank"
	}
	if utf8.RuneCountInString(s) > maxLen {
		return "", fmt.Sprintf("must be at most %d characters", maxLen)
	}
	return s, ""
}

func requiredNumber(input map[string]interface{}, field string) (float64, string) {
	v, ok := input[field]
	if !ok || v == nil {
		return 0, "field required"
	}

	var text string
	switch n := v.(type) {
	case json.Number:
		text = n.String()
	case string:
		text = strings.TrimSpace(n)
	default:
		return 0, "must be a number"
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, "must be a finite number"
		}
		return 0, "must be a number"
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "must be a finite number"
	}
	return f, ""
}

func requiredTimestamp(input map[string]interface{}, field string) (int64, string) {
	v, ok := input[field]
	if !ok || v == nil {
		return 0, "field required"
	}

	var ts int64
	switch n := v.(type) {
	case json.Number:
		parsed, ok := integralNumber(n.String())
		if !ok {
			return 0, "must be an integer"
		}
		ts = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, "must be an integer"
		}
		ts = parsed
	default:
		return 0, "must be an integer"
	}

	if ts <= 0 {
		return 0, "must be a positive epoch millisecond value"
	}
	return ts, ""
}

// integralNumber accepts "1000" and "1000.0" but not "1000.5".
func integralNumber(text string) (int64, bool) {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func optionalObject(input map[string]interface{}, field string) (map[string]interface{}, string) {
	v, ok := input[field]
	if !ok || v == nil {
		return nil, ""
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, "must be an object"
	}
	return obj, ""
}
