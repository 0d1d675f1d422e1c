package export

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

// ReportFileName is the report written into the output root.
const ReportFileName = "export-report.json"

// Outcome is the final result of an export run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report captures what an export run did.
type Report struct {
	SchemaVersion  int
	RunID          string
	SourceRevision string
	Languages      []string
	OutputDir      string
	Start          time.Time
	End            time.Time

	DeclaredRoutes int
	Routes         int
	Rendered       int
	Failed         int
	FailedRoutes   []string
	LanguageRoots  int

	StageDurations map[StageName]time.Duration
	StageResults   map[StageName]StageResult
	Errors         []error // fatal or canceled stage errors (at most one)
	Warnings       []error
	Outcome        Outcome
}

func newReport(runID string, opts Options) *Report {
	return &Report{
		SchemaVersion:  1,
		RunID:          runID,
		Languages:      slices.Clone(opts.Languages),
		OutputDir:      opts.OutputDir,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
	}
}

func (r *Report) recordStage(stage StageName, d time.Duration, res StageResult, se *StageError) {
	r.StageDurations[stage] = d
	r.StageResults[stage] = res
	if se == nil {
		return
	}
	if se.Kind == StageErrorWarning {
		r.Warnings = append(r.Warnings, se)
	} else {
		r.Errors = append(r.Errors, se)
	}
}

func (r *Report) finish() {
	r.End = time.Now()
	r.deriveOutcome()
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// FailedStage returns the stage that aborted the run, if any.
func (r *Report) FailedStage() StageName {
	for _, e := range r.Errors {
		var se *StageError
		if stderrors.As(e, &se) {
			return se.Stage
		}
	}
	return ""
}

func (r *Report) deriveOutcome() {
	switch {
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
		for _, e := range r.Errors {
			var se *StageError
			if stderrors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
			}
		}
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("run=%s routes=%d rendered=%d failed=%d languages=%d duration=%s outcome=%s",
		r.RunID, r.Routes, r.Rendered, r.Failed, len(r.Languages), r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// StageMS returns the stage durations in milliseconds keyed by stage name.
func (r *Report) StageMS() map[string]int64 {
	out := make(map[string]int64, len(r.StageDurations))
	for k, v := range r.StageDurations {
		out[string(k)] = v.Milliseconds()
	}
	return out
}

// reportJSON is the serialized form of Report.
type reportJSON struct {
	SchemaVersion  int               `json:"schema_version"`
	RunID          string            `json:"run_id"`
	SourceRevision string            `json:"source_revision,omitempty"`
	Languages      []string          `json:"languages"`
	Start          time.Time         `json:"start"`
	End            time.Time         `json:"end"`
	DurationMS     int64             `json:"duration_ms"`
	DeclaredRoutes int               `json:"declared_routes"`
	Routes         int               `json:"routes"`
	Rendered       int               `json:"rendered"`
	Failed         int               `json:"failed"`
	FailedRoutes   []string          `json:"failed_routes,omitempty"`
	LanguageRoots  int               `json:"language_roots"`
	StageMS        map[string]int64  `json:"stage_ms"`
	StageResults   map[string]string `json:"stage_results"`
	Errors         []string          `json:"errors"`
	ErrorCategory  string            `json:"error_category,omitempty"`
	Warnings       []string          `json:"warnings"`
	Outcome        Outcome           `json:"outcome"`
}

func (r *Report) serializable() *reportJSON {
	s := &reportJSON{
		SchemaVersion:  r.SchemaVersion,
		RunID:          r.RunID,
		SourceRevision: r.SourceRevision,
		Languages:      r.Languages,
		Start:          r.Start,
		End:            r.End,
		DurationMS:     r.Duration().Milliseconds(),
		DeclaredRoutes: r.DeclaredRoutes,
		Routes:         r.Routes,
		Rendered:       r.Rendered,
		Failed:         r.Failed,
		FailedRoutes:   r.FailedRoutes,
		LanguageRoots:  r.LanguageRoots,
		StageMS:        r.StageMS(),
		StageResults:   make(map[string]string, len(r.StageResults)),
		Errors:         make([]string, len(r.Errors)),
		Warnings:       make([]string, len(r.Warnings)),
		Outcome:        r.Outcome,
	}
	for k, v := range r.StageResults {
		s.StageResults[string(k)] = string(v)
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	if r.Outcome == OutcomeFailed && len(r.Errors) > 0 {
		s.ErrorCategory = string(errors.CategoryOf(r.Errors[0]))
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// Persist writes the report atomically as export-report.json into root.
func (r *Report) Persist(root string) error {
	if r.End.IsZero() {
		r.finish()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create report directory").
			WithContext("path", root).
			Warning().
			Build()
	}
	data, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal export report").Build()
	}
	path := filepath.Join(root, ReportFileName)
	if err := atomic.WriteFile(path, bytes.NewReader(append(data, '\n'))); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write export report").
			WithContext("path", path).
			Warning().
			Build()
	}
	return nil
}
