package export

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/langexport/internal/logfields"
	"git.home.luguber.info/inful/langexport/internal/notify"
)

// NotifyObserver publishes run start, route failures and the final outcome.
type NotifyObserver struct {
	NoopObserver
	pub notify.Publisher
}

// NewNotifyObserver creates an observer publishing through pub.
func NewNotifyObserver(pub notify.Publisher) *NotifyObserver {
	return &NotifyObserver{pub: pub}
}

func (o *NotifyObserver) OnExportStart(ctx context.Context, r *Report) {
	o.publish(ctx, notify.Notification{Kind: notify.KindStarted, RunID: r.RunID, Languages: r.Languages})
}

func (o *NotifyObserver) OnRouteFailed(ctx context.Context, r *Report, f RouteFailure) {
	n := notify.Notification{Kind: notify.KindRouteFailed, RunID: r.RunID, Route: f.Route, Lang: f.Lang}
	if len(f.Errors) > 0 {
		n.Error = f.Errors[0].Err.Error()
	}
	o.publish(ctx, n)
}

func (o *NotifyObserver) OnExportComplete(ctx context.Context, r *Report) {
	n := notify.Notification{
		Kind:      notify.KindCompleted,
		RunID:     r.RunID,
		Outcome:   string(r.Outcome),
		Rendered:  r.Rendered,
		Failed:    r.Failed,
		Languages: r.Languages,
	}
	if r.Outcome == OutcomeFailed || r.Outcome == OutcomeCanceled {
		n.Kind = notify.KindFailed
		n.Stage = string(r.FailedStage())
		if len(r.Errors) > 0 {
			n.Error = r.Errors[0].Error()
		}
	}
	o.publish(ctx, n)
}

func (o *NotifyObserver) publish(ctx context.Context, n notify.Notification) {
	if err := o.pub.Publish(context.WithoutCancel(ctx), n); err != nil {
		slog.Warn("Failed to publish notification", logfields.RunID(n.RunID), logfields.Event(n.Kind), logfields.Error(err))
	}
}
