package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

// Event types recorded for an export run.
const (
	TypeExportStarted   = "ExportStarted"
	TypeRoutesExpanded  = "RoutesExpanded"
	TypeRouteFailed     = "RouteFailed"
	TypeStageCompleted  = "StageCompleted"
	TypeExportCompleted = "ExportCompleted"
	TypeExportFailed    = "ExportFailed"
)

type ExportStartedData struct {
	Languages      []string `json:"languages"`
	OutputDir      string   `json:"output_dir"`
	SourceRevision string   `json:"source_revision,omitempty"`
}

type RoutesExpandedData struct {
	Declared int `json:"declared"`
	Expanded int `json:"expanded"`
}

type RouteFailedData struct {
	Route   string   `json:"route"`
	Lang    string   `json:"lang"`
	Reasons []string `json:"reasons"`
}

type StageCompletedData struct {
	Stage      string `json:"stage"`
	Result     string `json:"result"`
	DurationMS int64  `json:"duration_ms"`
}

// ExportCompletedData is the part of the export report kept in the history.
type ExportCompletedData struct {
	Outcome       string           `json:"outcome"`
	Routes        int              `json:"routes"`
	Rendered      int              `json:"rendered"`
	Failed        int              `json:"failed"`
	LanguageRoots int              `json:"language_roots"`
	DurationMS    int64            `json:"duration_ms"`
	StageMS       map[string]int64 `json:"stage_ms,omitempty"`
}

type ExportFailedData struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

func ExportStarted(runID string, d ExportStartedData) (Event, error) {
	return newEvent(runID, TypeExportStarted, d)
}

func RoutesExpanded(runID string, declared, expanded int) (Event, error) {
	return newEvent(runID, TypeRoutesExpanded, RoutesExpandedData{Declared: declared, Expanded: expanded})
}

func RouteFailed(runID, route, lang string, reasons []string) (Event, error) {
	return newEvent(runID, TypeRouteFailed, RouteFailedData{Route: route, Lang: lang, Reasons: reasons})
}

func StageCompleted(runID, stage, result string, d time.Duration) (Event, error) {
	return newEvent(runID, TypeStageCompleted, StageCompletedData{Stage: stage, Result: result, DurationMS: d.Milliseconds()})
}

func ExportCompleted(runID string, d ExportCompletedData) (Event, error) {
	return newEvent(runID, TypeExportCompleted, d)
}

func ExportFailed(runID, stage, msg string) (Event, error) {
	return newEvent(runID, TypeExportFailed, ExportFailedData{Stage: stage, Error: msg})
}

func newEvent(runID, typ string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, errors.WrapError(err, errors.CategoryEventStore, "failed to encode "+typ+" event").
			WithContext("run_id", runID).
			Build()
	}
	return Event{RunID: runID, Type: typ, At: time.Now(), Payload: data}, nil
}
