package eventstore

import (
	"context"
	"encoding/json"
	"time"
)

// Event is one recorded step of an export run. Seq is assigned by the store
// and orders events of all runs.
type Event struct {
	Seq     int64           `json:"seq"`
	RunID   string          `json:"run_id"`
	Type    string          `json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error { return json.Unmarshal(e.Payload, v) }

// Store persists export events.
type Store interface {
	// Append records e. A zero At is set to the current time.
	Append(ctx context.Context, e Event) error
	// Run returns the events of one run in the order they were recorded.
	Run(ctx context.Context, runID string) ([]Event, error)
	// Since returns all events recorded at or after t.
	Since(ctx context.Context, t time.Time) ([]Event, error)
	Close() error
}
