// Package eventstore persists export run events in SQLite and folds them into
// a run history.
package eventstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// Run statuses besides the report outcomes.
const (
	StatusRunning = "running"
	StatusFailed  = "failed"
)

// RunSummary describes one export run as reconstructed from its events.
type RunSummary struct {
	RunID          string               `json:"run_id"`
	Status         string               `json:"status"`
	StartedAt      time.Time            `json:"started_at"`
	FinishedAt     *time.Time           `json:"finished_at,omitempty"`
	Duration       time.Duration        `json:"duration,omitempty"`
	Languages      []string             `json:"languages,omitempty"`
	SourceRevision string               `json:"source_revision,omitempty"`
	Routes         int                  `json:"routes"`
	FailedRoutes   []string             `json:"failed_routes,omitempty"`
	Failure        *ExportFailedData    `json:"failure,omitempty"`
	Report         *ExportCompletedData `json:"report,omitempty"`
}

// History is a read model of the most recent export runs.
type History struct {
	store Store
	limit int

	mu   sync.RWMutex
	runs map[string]*RunSummary
}

// NewHistory creates a history over store keeping at most limit runs; a
// non-positive limit keeps 100.
func NewHistory(store Store, limit int) *History {
	if limit <= 0 {
		limit = 100
	}
	return &History{store: store, limit: limit, runs: map[string]*RunSummary{}}
}

// Load replaces the history with the runs found in the store.
func (h *History) Load(ctx context.Context) error {
	events, err := h.store.Since(ctx, time.Time{})
	if err != nil {
		return err
	}
	runs := map[string]*RunSummary{}
	for _, e := range events {
		fold(runs, e)
	}
	h.mu.Lock()
	h.runs = runs
	h.trimLocked()
	h.mu.Unlock()
	return nil
}

// Runs returns copies of the kept runs, newest first.
func (h *History) Runs() []RunSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sortedLocked()
}

// Run returns a copy of the summary of runID.
func (h *History) Run(runID string) (RunSummary, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.runs[runID]
	if !ok {
		return RunSummary{}, false
	}
	return *s, true
}

func (h *History) sortedLocked() []RunSummary {
	out := make([]RunSummary, 0, len(h.runs))
	for _, s := range h.runs {
		out = append(out, *s)
	}
	slices.SortStableFunc(out, func(a, b RunSummary) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.RunID, a.RunID)
	})
	return out
}

func (h *History) trimLocked() {
	if len(h.runs) <= h.limit {
		return
	}
	for _, s := range h.sortedLocked()[h.limit:] {
		delete(h.runs, s.RunID)
	}
}

// fold applies e to the summary of its run. Undecodable payloads are skipped.
func fold(runs map[string]*RunSummary, e Event) {
	if e.RunID == "" {
		return
	}
	s, ok := runs[e.RunID]
	if !ok {
		s = &RunSummary{RunID: e.RunID, Status: StatusRunning, StartedAt: e.At}
		runs[e.RunID] = s
	}

	switch e.Type {
	case TypeExportStarted:
		var d ExportStartedData
		if e.Decode(&d) == nil {
			s.StartedAt = e.At
			s.Languages = d.Languages
			s.SourceRevision = d.SourceRevision
		}
	case TypeRoutesExpanded:
		var d RoutesExpandedData
		if e.Decode(&d) == nil {
			s.Routes = d.Expanded
		}
	case TypeRouteFailed:
		var d RouteFailedData
		if e.Decode(&d) == nil {
			s.FailedRoutes = append(s.FailedRoutes, d.Route)
		}
	case TypeExportCompleted:
		var d ExportCompletedData
		if e.Decode(&d) == nil {
			s.Report = &d
			if d.Outcome != "" {
				s.Status = d.Outcome
			}
		}
		finish(s, e.At)
	case TypeExportFailed:
		var d ExportFailedData
		if e.Decode(&d) == nil {
			s.Failure = &d
		}
		s.Status = StatusFailed
		finish(s, e.At)
	}
}

func finish(s *RunSummary, at time.Time) {
	s.FinishedAt = &at
	s.Duration = at.Sub(s.StartedAt)
}
