// Package middleware holds the request logging and panic recovery used by the
// preview server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
	"git.home.luguber.info/inful/langexport/internal/logfields"
)

// RequestLog logs every request at debug level once it has been served.
func RequestLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				logger.Debug("HTTP request",
					logfields.Method(r.Method),
					logfields.Path(r.URL.Path),
					logfields.Status(status),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
					slog.String("request_id", chimw.GetReqID(r.Context())),
					logfields.UserAgent(r.UserAgent()),
					logfields.RemoteAddr(r.RemoteAddr))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// Recover turns a handler panic into a 500 JSON response. http.ErrAbortHandler
// is re-raised.
func Recover(logger *slog.Logger, adapter *errors.HTTPErrorAdapter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("HTTP handler panic", slog.Any("panic", rec), logfields.Method(r.Method), logfields.Path(r.URL.Path))
				adapter.WriteErrorResponse(w, r, errors.InternalError("internal server error").
					WithContext("path", r.URL.Path).
					Build())
			}()
			next.ServeHTTP(w, r)
		})
	}
}
