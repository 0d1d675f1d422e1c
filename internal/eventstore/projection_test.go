package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// record appends events built by the constructors, shifting each run to start at base.
func record(t *testing.T, store Store, base time.Time, build ...func() (Event, error)) {
	t.Helper()
	for i, b := range build {
		e, err := b()
		require.NoError(t, err)
		e.At = base.Add(time.Duration(i) * time.Millisecond)
		require.NoError(t, store.Append(t.Context(), e))
	}
}

func TestHistory_Load(t *testing.T) {
	store := newTestStore(t)
	base := time.Now().Add(-time.Minute)

	record(t, store, base,
		func() (Event, error) {
			return ExportStarted("run-1", ExportStartedData{Languages: []string{"ru", "ua"}, SourceRevision: "abc123"})
		},
		func() (Event, error) { return RoutesExpanded("run-1", 2, 6) },
		func() (Event, error) { return RouteFailed("run-1", "/ua/broken/", "ua", []string{"http: status 500"}) },
		func() (Event, error) { return StageCompleted("run-1", "render_routes", "warning", 30*time.Millisecond) },
		func() (Event, error) {
			return ExportCompleted("run-1", ExportCompletedData{Outcome: "warning", Routes: 6, Rendered: 5, Failed: 1, LanguageRoots: 2})
		},
	)
	record(t, store, base.Add(time.Second),
		func() (Event, error) { return ExportStarted("run-2", ExportStartedData{Languages: []string{"ru"}}) },
		func() (Event, error) { return ExportFailed("run-2", "export_done", "failed to move assets into staging") },
	)

	h := NewHistory(store, 10)
	require.NoError(t, h.Load(t.Context()))

	runs := h.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, StatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].Failure)
	assert.Equal(t, "export_done", runs[0].Failure.Stage)

	run1, ok := h.Run("run-1")
	require.True(t, ok)
	assert.Equal(t, "warning", run1.Status)
	assert.Equal(t, []string{"ru", "ua"}, run1.Languages)
	assert.Equal(t, "abc123", run1.SourceRevision)
	assert.Equal(t, 6, run1.Routes)
	assert.Equal(t, []string{"/ua/broken/"}, run1.FailedRoutes)
	require.NotNil(t, run1.Report)
	assert.Equal(t, 2, run1.Report.LanguageRoots)
	assert.Equal(t, 4*time.Millisecond, run1.Duration)
	require.NotNil(t, run1.FinishedAt)
}

func TestHistory_TrimsOldest(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	require.NoError(t, store.Append(t.Context(), Event{RunID: "a", Type: TypeExportStarted, At: now, Payload: []byte(`{}`)}))
	require.NoError(t, store.Append(t.Context(), Event{RunID: "b", Type: TypeExportStarted, At: now.Add(time.Second), Payload: []byte(`{}`)}))

	h := NewHistory(store, 1)
	require.NoError(t, h.Load(t.Context()))

	runs := h.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "b", runs[0].RunID)
	assert.Equal(t, StatusRunning, runs[0].Status)
	assert.Nil(t, runs[0].FinishedAt)

	_, ok := h.Run("a")
	assert.False(t, ok)
}

func TestHistory_SkipsBadPayload(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Append(t.Context(), Event{RunID: "r", Type: TypeRoutesExpanded, Payload: []byte(`not json`)}))

	h := NewHistory(store, 0)
	require.NoError(t, h.Load(t.Context()))

	run, ok := h.Run("r")
	require.True(t, ok)
	assert.Zero(t, run.Routes)
	assert.Equal(t, StatusRunning, run.Status)
}
