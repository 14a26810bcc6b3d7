// Package sqlite is a single-file event store for local development and small deployments.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	v1 "github.com/aevon-lab/telemetry-ingest/internal/api/v1"
	"github.com/aevon-lab/telemetry-ingest/internal/core/storage"
	_ "github.com/mattn/go-sqlite3" // Register sqlite3 driver
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schemaSQL string

const (
	queryInsertEvent = `
		INSERT INTO device_events (
			device_id, ts, type, value, raw, ingested_at, request_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (device_id, ts) DO NOTHING
	`

	queryRangeEvents = `
		SELECT device_id, ts, type, value, raw, ingested_at, request_id
		FROM device_events
		WHERE device_id = ?
		  AND ts BETWEEN ? AND ?
		ORDER BY ts DESC
		LIMIT ?
	`

	queryListUnenqueued = `
		SELECT device_id, ts, type, value, raw, ingested_at, request_id
		FROM device_events
		WHERE enqueued_at IS NULL
		  AND ingested_at < ?
		ORDER BY ingested_at ASC, device_id ASC, ts ASC
		LIMIT ?
	`

	queryMarkEnqueued = `
		UPDATE device_events
		SET enqueued_at = ?
		WHERE device_id = ?
		  AND ts = ?
		  AND enqueued_at IS NULL
	`
)

// Store implements storage.Store on SQLite.
// A single connection serializes writers, which also makes the conditional insert atomic.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open creates or opens a SQLite database at the given path and applies the schema.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// Safe to call repeatedly on the same file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	slog.Info("[SQLite] Store opened", "path", path)
	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Insert stores the event unless (device_id, ts) exists. Zero affected rows means duplicate.
func (s *Store) Insert(ctx context.Context, event *v1.Event) (storage.InsertResult, error) {
	var raw interface{}
	if len(event.Raw) > 0 {
		b, err := json.Marshal(event.Raw)
		if err != nil {
			return 0, fmt.Errorf("%w: failed to marshal raw payload: %w", storage.ErrStoreFailure, err)
		}
		raw = string(b)
	}

	res, err := s.db.ExecContext(ctx, queryInsertEvent,
		event.DeviceID,
		event.TS,
		event.Type,
		decimal.NewFromFloat(event.Value).String(),
		raw,
		event.IngestedAt,
		event.RequestID,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to save event: %w", storage.ErrStoreFailure, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read insert result: %w", storage.ErrStoreFailure, err)
	}
	if n == 0 {
		return storage.InsertDuplicate, nil
	}
	return storage.InsertAccepted, nil
}

func (s *Store) QueryRange(ctx context.Context, q storage.RangeQuery) (*storage.Page, error) {
	lower, upper, limit, err := q.Bounds()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, queryRangeEvents, q.DeviceID, lower, upper, limit+1)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query events: %w", storage.ErrStoreFailure, err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	return storage.NewPage(q.DeviceID, events, limit), nil
}

func (s *Store) ListUnenqueued(ctx context.Context, ingestedBefore int64, limit int) ([]*v1.Event, error) {
	rows, err := s.db.QueryContext(ctx, queryListUnenqueued, ingestedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query unenqueued events: %w", storage.ErrStoreFailure, err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (s *Store) MarkEnqueued(ctx context.Context, deviceID string, ts int64, enqueuedAt int64) error {
	if _, err := s.db.ExecContext(ctx, queryMarkEnqueued, enqueuedAt, deviceID, ts); err != nil {
		return fmt.Errorf("%w: failed to mark event enqueued: %w", storage.ErrStoreFailure, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func collectEvents(rows *sql.Rows) ([]*v1.Event, error) {
	var events []*v1.Event
	for rows.Next() {
		var (
			evt   v1.Event
			value decimal.Decimal
			raw   sql.NullString
		)
		if err := rows.Scan(
			&evt.DeviceID,
			&evt.TS,
			&evt.Type,
			&value,
			&raw,
			&evt.IngestedAt,
			&evt.RequestID,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to scan event row: %w", storage.ErrStoreFailure, err)
		}

		evt.Value = value.InexactFloat64()
		if raw.Valid && raw.String != "" {
			if err := json.Unmarshal([]byte(raw.String), &evt.Raw); err != nil {
				return nil, fmt.Errorf("%w: failed to unmarshal raw payload: %w", storage.ErrStoreFailure, err)
			}
		}
		events = append(events, &evt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating events: %w", storage.ErrStoreFailure, err)
	}
	return events, nil
}
