package export

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/langexport/internal/eventstore"
	"git.home.luguber.info/inful/langexport/internal/logfields"
)

// HistoryObserver appends the lifecycle of every run to an event store.
type HistoryObserver struct {
	NoopObserver
	store eventstore.Store
}

// NewHistoryObserver creates an observer writing into store.
func NewHistoryObserver(store eventstore.Store) *HistoryObserver {
	return &HistoryObserver{store: store}
}

func (h *HistoryObserver) OnExportStart(ctx context.Context, r *Report) {
	h.append(ctx, r.RunID, func() (eventstore.Event, error) {
		return eventstore.ExportStarted(r.RunID, eventstore.ExportStartedData{
			Languages:      r.Languages,
			OutputDir:      r.OutputDir,
			SourceRevision: r.SourceRevision,
		})
	})
}

func (h *HistoryObserver) OnRoutesExpanded(ctx context.Context, r *Report) {
	h.append(ctx, r.RunID, func() (eventstore.Event, error) {
		return eventstore.RoutesExpanded(r.RunID, r.DeclaredRoutes, r.Routes)
	})
}

func (h *HistoryObserver) OnStageComplete(ctx context.Context, r *Report, stage StageName, d time.Duration, res StageResult) {
	h.append(ctx, r.RunID, func() (eventstore.Event, error) {
		return eventstore.StageCompleted(r.RunID, string(stage), string(res), d)
	})
}

func (h *HistoryObserver) OnRouteFailed(ctx context.Context, r *Report, f RouteFailure) {
	reasons := make([]string, len(f.Errors))
	for i, e := range f.Errors {
		reasons[i] = e.Type + ": " + e.Err.Error()
	}
	h.append(ctx, r.RunID, func() (eventstore.Event, error) {
		return eventstore.RouteFailed(r.RunID, f.Route, f.Lang, reasons)
	})
}

func (h *HistoryObserver) OnExportComplete(ctx context.Context, r *Report) {
	if r.Outcome == OutcomeFailed || r.Outcome == OutcomeCanceled {
		msg := string(r.Outcome)
		if len(r.Errors) > 0 {
			msg = r.Errors[0].Error()
		}
		h.append(ctx, r.RunID, func() (eventstore.Event, error) {
			return eventstore.ExportFailed(r.RunID, string(r.FailedStage()), msg)
		})
		return
	}
	h.append(ctx, r.RunID, func() (eventstore.Event, error) {
		return eventstore.ExportCompleted(r.RunID, eventstore.ExportCompletedData{
			Outcome:       string(r.Outcome),
			Routes:        r.Routes,
			Rendered:      r.Rendered,
			Failed:        r.Failed,
			LanguageRoots: r.LanguageRoots,
			DurationMS:    r.Duration().Milliseconds(),
			StageMS:       r.StageMS(),
		})
	})
}

func (h *HistoryObserver) append(ctx context.Context, runID string, build func() (eventstore.Event, error)) {
	ev, err := build()
	if err == nil {
		err = h.store.Append(context.WithoutCancel(ctx), ev)
	}
	if err != nil {
		slog.Warn("Failed to record export event", logfields.RunID(runID), logfields.Error(err))
	}
}
