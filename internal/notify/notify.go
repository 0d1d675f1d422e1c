// Package notify publishes export lifecycle notifications to NATS.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

// Notification kinds. The kind is appended to the configured subject.
const (
	KindStarted     = "started"
	KindRouteFailed = "route_failed"
	KindCompleted   = "completed"
	KindFailed      = "failed"
)

// Notification is the message body published for an export lifecycle event.
type Notification struct {
	Kind      string    `json:"kind"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Outcome   string    `json:"outcome,omitempty"`
	Route     string    `json:"route,omitempty"`
	Lang      string    `json:"lang,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Error     string    `json:"error,omitempty"`
	Rendered  int       `json:"rendered,omitempty"`
	Failed    int       `json:"failed,omitempty"`
	Languages []string  `json:"languages,omitempty"`
}

// Publisher sends notifications.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
	Close() error
}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes notifications on <subject>.<kind>.
type NATSPublisher struct {
	conn    conn
	subject string
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("langexport"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotify, "failed to connect to NATS").
			WithContext("url", url).
			Retryable().
			Build()
	}
	slog.Info("NATS notifications enabled", "url", url, "subject", subject)
	return newPublisher(nc, subject), nil
}

func newPublisher(c conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject}
}

// Subject returns the subject a notification kind is published on.
func (p *NATSPublisher) Subject(kind string) string {
	return p.subject + "." + kind
}

// Publish sends n and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	data, err := json.Marshal(n)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal notification").Build()
	}
	if err := p.conn.Publish(p.Subject(n.Kind), data); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to publish notification").
			WithContext("subject", p.Subject(n.Kind)).
			Retryable().
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to flush notification").
			WithContext("subject", p.Subject(n.Kind)).
			Retryable().
			Build()
	}
	slog.Debug("Published notification", "subject", p.Subject(n.Kind), "run_id", n.RunID)
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
