package metrics

import "time"

// ResultLabel is the result of a single stage.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// ExportOutcomeLabel is the outcome of a whole run: success, warning, failed or canceled.
type ExportOutcomeLabel string

// Recorder receives the measurements of an export run.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveExportDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncExportOutcome(outcome ExportOutcomeLabel)
	// ObserveRouteRender records one render of a route for lang.
	ObserveRouteRender(lang string, d time.Duration, success bool)
	// IncErrorArtifact counts failure files; written is false when writing one failed.
	IncErrorArtifact(written bool)
	SetRenderConcurrency(n int)
	SetLanguageRoots(n int)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)     {}
func (NoopRecorder) ObserveExportDuration(time.Duration)            {}
func (NoopRecorder) IncStageResult(string, ResultLabel)             {}
func (NoopRecorder) IncExportOutcome(ExportOutcomeLabel)            {}
func (NoopRecorder) ObserveRouteRender(string, time.Duration, bool) {}
func (NoopRecorder) IncErrorArtifact(bool)                          {}
func (NoopRecorder) SetRenderConcurrency(int)                       {}
func (NoopRecorder) SetLanguageRoots(int)                           {}
