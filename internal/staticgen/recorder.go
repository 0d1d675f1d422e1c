package staticgen

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/langexport/internal/export"
	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

const errorFilePrefix = "generate-error__"

// ErrorFileName returns the artifact name for a failed route: every "/" becomes "_".
func ErrorFileName(route string) string {
	return errorFilePrefix + strings.ReplaceAll(route, "/", "_") + ".json"
}

type errorRecord struct {
	Route  string       `json:"route"`
	Errors []errorEntry `json:"errors"`
}

type errorEntry struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ErrorRecorder writes one JSON artifact per failed route into a directory.
type ErrorRecorder struct {
	dir string
}

func NewErrorRecorder(dir string) *ErrorRecorder {
	return &ErrorRecorder{dir: dir}
}

// Record writes the artifact for failure and returns its path. Artifacts are
// written atomically and never modified afterwards; a second failure of the same
// route replaces the file as a whole.
func (r *ErrorRecorder) Record(failure export.RouteFailure) (string, error) {
	rec := errorRecord{Route: failure.Route, Errors: make([]errorEntry, 0, len(failure.Errors))}
	for _, e := range failure.Errors {
		desc := e.Type + " error without details"
		if e.Err != nil {
			desc = e.Err.Error()
		}
		rec.Errors = append(rec.Errors, errorEntry{Type: e.Type, Description: desc})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to encode route failure").
			WithContext("route", failure.Route).
			Build()
	}

	path := filepath.Join(r.dir, ErrorFileName(failure.Route))
	if err := atomic.WriteFile(path, &buf); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to write route failure artifact").
			WithContext("route", failure.Route).
			WithContext("path", path).
			Warning().
			Build()
	}
	return path, nil
}
