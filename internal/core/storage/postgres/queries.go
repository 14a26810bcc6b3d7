package postgres

// SQL queries for device event storage.

const (
	// queryInsertEvent is the conditional insert. The (device_id, ts) primary key makes it
	// atomic per pair: ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	queryInsertEvent = `
		INSERT INTO device_events (
			device_id, ts, type, value, raw, ingested_at, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (device_id, ts) DO NOTHING
		RETURNING ts
	`

	// queryRangeEvents reads one device partition newest first.
	// Open bounds are passed as the int64 extremes.
	queryRangeEvents = `
		SELECT
			device_id, ts, type, value, raw, ingested_at, request_id
		FROM device_events
		WHERE device_id = $1
		  AND ts BETWEEN $2 AND $3
		ORDER BY ts DESC
		LIMIT $4
	`

	// queryListUnenqueued feeds the outbox relay, oldest acceptance first.
	// Served by the partial index on ingested_at WHERE enqueued_at IS NULL.
	queryListUnenqueued = `
		SELECT
			device_id, ts, type, value, raw, ingested_at, request_id
		FROM device_events
		WHERE enqueued_at IS NULL
		  AND ingested_at < $1
		ORDER BY ingested_at ASC, device_id ASC, ts ASC
		LIMIT $2
	`

	// queryMarkEnqueued only sets the first acknowledgement time.
	queryMarkEnqueued = `
		UPDATE device_events
		SET enqueued_at = $3
		WHERE device_id = $1
		  AND ts = $2
		  AND enqueued_at IS NULL
	`
)
