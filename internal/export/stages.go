package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/langexport/internal/logfields"
	"git.home.luguber.info/inful/langexport/internal/metrics"
)

// StageName identifies a pipeline stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StagePrepareOutput StageName = "prepare_output"
	StageDistCopied    StageName = "dist_copied"
	StageExtendRoutes  StageName = "extend_routes"
	StageRenderRoutes  StageName = "render_routes"
	StageSitemap       StageName = "sitemap"
	StageExportDone    StageName = "export_done"
)

// Stage is a discrete unit of work of an export run.
type Stage func(ctx context.Context, st *exportState) error

type namedStage struct {
	name StageName
	fn   Stage
}

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Export must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying kind, stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageResult is the classification of one stage execution.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

func (r StageResult) label() metrics.ResultLabel { return metrics.ResultLabel(r) }

// runStages executes stages in order, recording timing and stopping on the first
// fatal or canceled stage. Context cancellation is checked between stages.
func runStages(ctx context.Context, st *exportState, stages []namedStage) error {
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			se := newCanceledStageError(s.name, err)
			st.report.recordStage(s.name, 0, StageResultCanceled, se)
			st.observer.OnStageComplete(ctx, st.report, s.name, 0, StageResultCanceled)
			return se
		}

		slog.Debug("Stage started", logfields.RunID(st.report.RunID), logfields.Stage(string(s.name)))
		t0 := time.Now()
		err := s.fn(ctx, st)
		dur := time.Since(t0)

		result := StageResultSuccess
		var se *StageError
		if err != nil {
			if !errors.As(err, &se) {
				se = newFatalStageError(s.name, err)
			}
			result = StageResult(se.Kind)
		}
		st.report.recordStage(s.name, dur, result, se)
		st.observer.OnStageComplete(ctx, st.report, s.name, dur, result)

		switch result {
		case StageResultSuccess:
			slog.Debug("Stage completed", logfields.Stage(string(s.name)), logfields.DurationMS(float64(dur.Milliseconds())))
		case StageResultWarning:
			slog.Warn("Stage completed with warnings", logfields.Stage(string(s.name)), logfields.Error(se.Err))
		default:
			return se
		}
	}
	return nil
}
