package eventstore

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS export_events (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id  TEXT    NOT NULL,
	type    TEXT    NOT NULL,
	at_ms   INTEGER NOT NULL,
	payload TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS export_events_run ON export_events(run_id, seq);
CREATE INDEX IF NOT EXISTS export_events_at ON export_events(at_ms);
`

const selectEvents = `SELECT seq, run_id, type, at_ms, payload FROM export_events`

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the history database at path, creating it when missing.
// ":memory:" gives a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeError(err, "could not open export history database").WithContext("path", path).Build()
	}
	// One connection serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, storeError(err, "failed to create export history schema").WithContext("path", path).Build()
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	payload := string(e.Payload)
	if payload == "" {
		payload = "null"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO export_events (run_id, type, at_ms, payload) VALUES (?, ?, ?, ?)`,
		e.RunID, e.Type, e.At.UnixMilli(), payload)
	if err != nil {
		return storeError(err, "failed to append event").
			WithContext("run_id", e.RunID).
			WithContext("type", e.Type).
			Build()
	}
	return nil
}

func (s *SQLiteStore) Run(ctx context.Context, runID string) ([]Event, error) {
	return s.query(ctx, selectEvents+` WHERE run_id = ? ORDER BY seq`, runID)
}

func (s *SQLiteStore) Since(ctx context.Context, t time.Time) ([]Event, error) {
	return s.query(ctx, selectEvents+` WHERE at_ms >= ? ORDER BY seq`, t.UnixMilli())
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeError(err, "failed to query events").Build()
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			atMS    int64
			payload string
		)
		if err := rows.Scan(&e.Seq, &e.RunID, &e.Type, &atMS, &payload); err != nil {
			return nil, storeError(err, "failed to scan event").Build()
		}
		e.At = time.UnixMilli(atMS)
		e.Payload = []byte(payload)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "failed to read events").Build()
	}
	return out, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func storeError(err error, msg string) *errors.ErrorBuilder {
	return errors.WrapError(err, errors.CategoryEventStore, msg)
}
