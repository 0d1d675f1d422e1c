package export

import (
	"context"
	"time"

	"git.home.luguber.info/inful/langexport/internal/metrics"
)

// Observer receives callbacks around an export run. Observers cannot fail the
// export; implementations log their own errors.
type Observer interface {
	OnExportStart(ctx context.Context, report *Report)
	OnRoutesExpanded(ctx context.Context, report *Report)
	OnStageComplete(ctx context.Context, report *Report, stage StageName, d time.Duration, result StageResult)
	OnRouteFailed(ctx context.Context, report *Report, failure RouteFailure)
	OnExportComplete(ctx context.Context, report *Report)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnExportStart(context.Context, *Report)                                          {}
func (NoopObserver) OnRoutesExpanded(context.Context, *Report)                                       {}
func (NoopObserver) OnStageComplete(context.Context, *Report, StageName, time.Duration, StageResult) {}
func (NoopObserver) OnRouteFailed(context.Context, *Report, RouteFailure)                            {}
func (NoopObserver) OnExportComplete(context.Context, *Report)                                       {}

// multiObserver fans callbacks out in registration order.
type multiObserver []Observer

func (m multiObserver) OnExportStart(ctx context.Context, r *Report) {
	for _, o := range m {
		o.OnExportStart(ctx, r)
	}
}

func (m multiObserver) OnRoutesExpanded(ctx context.Context, r *Report) {
	for _, o := range m {
		o.OnRoutesExpanded(ctx, r)
	}
}

func (m multiObserver) OnStageComplete(ctx context.Context, r *Report, stage StageName, d time.Duration, res StageResult) {
	for _, o := range m {
		o.OnStageComplete(ctx, r, stage, d, res)
	}
}

func (m multiObserver) OnRouteFailed(ctx context.Context, r *Report, f RouteFailure) {
	for _, o := range m {
		o.OnRouteFailed(ctx, r, f)
	}
}

func (m multiObserver) OnExportComplete(ctx context.Context, r *Report) {
	for _, o := range m {
		o.OnExportComplete(ctx, r)
	}
}

// recorderObserver adapts metrics.Recorder into an Observer.
type recorderObserver struct {
	NoopObserver
	rec metrics.Recorder
}

func (o recorderObserver) OnStageComplete(_ context.Context, _ *Report, stage StageName, d time.Duration, res StageResult) {
	o.rec.ObserveStageDuration(string(stage), d)
	o.rec.IncStageResult(string(stage), res.label())
}

func (o recorderObserver) OnExportComplete(_ context.Context, r *Report) {
	o.rec.ObserveExportDuration(r.Duration())
	o.rec.IncExportOutcome(metrics.ExportOutcomeLabel(r.Outcome))
}
