package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore persists audit events to Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and ensures the events table
// exists. The table is append-only; no updates or deletes are issued.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS audit_events (
			id         UUID PRIMARY KEY,
			ts         TIMESTAMPTZ NOT NULL,
			action     TEXT NOT NULL,
			subject    TEXT NOT NULL DEFAULT '',
			method     TEXT NOT NULL DEFAULT '',
			outcome    TEXT NOT NULL DEFAULT '',
			request_id TEXT NOT NULL DEFAULT '',
			detail     TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS audit_events_subject_idx ON audit_events (subject, ts);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	const q = `
		INSERT INTO audit_events (id, ts, action, subject, method, outcome, request_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.ExecContext(ctx, q,
		event.ID, event.Timestamp, string(event.Action), event.Subject,
		event.Method, event.Outcome, event.RequestID, event.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	const q = `
		SELECT id, ts, action, subject, method, outcome, request_id, detail
		FROM audit_events WHERE subject = $1 ORDER BY ts`
	rows, err := s.db.QueryContext(ctx, q, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var e Event
		var action string
		if err := rows.Scan(&e.ID, &e.Timestamp, &action, &e.Subject, &e.Method, &e.Outcome, &e.RequestID, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
