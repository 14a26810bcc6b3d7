package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

type cursorKey struct {
	DeviceID string `json:"device_id"`
	TS       int64  `json:"ts"`
}

// EncodeCursor builds the opaque continuation token for the last event of a page.
func EncodeCursor(deviceID string, ts int64) string {
	b, _ := json.Marshal(cursorKey{DeviceID: deviceID, TS: ts})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (string, int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var key cursorKey
	if err := json.Unmarshal(b, &key); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if key.DeviceID == "" || key.TS <= 0 {
		return "", 0, fmt.Errorf("%w: incomplete key", ErrInvalidCursor)
	}
	return key.DeviceID, key.TS, nil
}
