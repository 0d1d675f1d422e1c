package errors

import (
	"log/slog"
	"net/http"
)

// ErrorCategory classifies where a failure came from. The category decides the
// CLI exit code and the HTTP status of the preview server.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// CategoryRender is a per-route render failure. It is recorded, never propagated.
	CategoryRender     ErrorCategory = "render"
	CategoryExport     ErrorCategory = "export"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Optional collaborators of an export run.
	CategoryEventStore ErrorCategory = "eventstore"
	CategoryNotify     ErrorCategory = "notify"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

type categoryInfo struct {
	exitCode   int
	httpStatus int
	// userFacing errors show their message without -v.
	userFacing bool
}

var categories = map[ErrorCategory]categoryInfo{
	CategoryValidation: {exitCode: 2, httpStatus: http.StatusBadRequest, userFacing: true},
	CategoryNotFound:   {exitCode: 4, httpStatus: http.StatusNotFound, userFacing: true},
	CategoryConfig:     {exitCode: 7, httpStatus: http.StatusBadRequest, userFacing: true},
	CategoryEventStore: {exitCode: 8, httpStatus: http.StatusBadGateway},
	CategoryNotify:     {exitCode: 8, httpStatus: http.StatusBadGateway},
	CategoryInternal:   {exitCode: 10, httpStatus: http.StatusInternalServerError},
	CategoryExport:     {exitCode: 11, httpStatus: http.StatusUnprocessableEntity, userFacing: true},
	CategoryRender:     {exitCode: 11, httpStatus: http.StatusUnprocessableEntity, userFacing: true},
	CategoryFileSystem: {exitCode: 11, httpStatus: http.StatusInternalServerError, userFacing: true},
	CategoryRuntime:    {exitCode: 12, httpStatus: http.StatusServiceUnavailable},
}

// ExitCode returns the process exit code for the category; 1 when unknown.
func (c ErrorCategory) ExitCode() int {
	if info, ok := categories[c]; ok {
		return info.exitCode
	}
	return 1
}

// HTTPStatus returns the response status for the category; 500 when unknown.
func (c ErrorCategory) HTTPStatus() int {
	if info, ok := categories[c]; ok {
		return info.httpStatus
	}
	return http.StatusInternalServerError
}

func (c ErrorCategory) userFacing() bool { return categories[c].userFacing }

// ErrorSeverity indicates the impact of an error on the export run.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // aborts the run
	SeverityError   ErrorSeverity = "error"   // fails the current operation
	SeverityWarning ErrorSeverity = "warning" // the run continues degraded
	SeverityInfo    ErrorSeverity = "info"
)

// Level maps the severity to a log level.
func (s ErrorSeverity) Level() slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// RetryStrategy indicates whether repeating the operation may help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user"
)

// ErrorContext holds structured key/value details such as route, lang or path.
type ErrorContext map[string]any

// with returns a copy of c extended by key.
func (c ErrorContext) with(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[key] = value
	return out
}
