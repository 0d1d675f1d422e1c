// Package server serves an exported site for local preview together with health,
// metrics and last-report endpoints.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
	"git.home.luguber.info/inful/langexport/internal/logfields"
	smw "git.home.luguber.info/inful/langexport/internal/server/middleware"
)

// Options configure the preview server.
type Options struct {
	Addr string
	// Root is the export output directory.
	Root string
	// ReportFile is the report name inside Root served on /api/report.
	ReportFile string
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
	// DefaultLanguage is the redirect target for "/" when no root index exists.
	DefaultLanguage string
}

// Server is the preview HTTP server.
type Server struct {
	opts    Options
	adapter *errors.HTTPErrorAdapter
	srv     *http.Server
}

// New creates the server.
func New(opts Options) *Server {
	s := &Server{opts: opts, adapter: errors.NewHTTPErrorAdapter(slog.Default())}
	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, smw.RequestLog(slog.Default()), smw.Recover(slog.Default(), s.adapter))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/report", s.handleReport)
	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics)
	}
	r.Get("/", s.handleRoot)
	r.Handle("/*", http.FileServer(http.Dir(s.opts.Root)))
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.opts.Root, s.opts.ReportFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			s.adapter.WriteErrorResponse(w, r, errors.NotFoundError("no export report found").
				WithContext("path", path).
				Build())
			return
		}
		s.adapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryFileSystem, "failed to read export report").Build())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handleRoot serves the unprefixed index when present and otherwise redirects
// to the default language root.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(filepath.Join(s.opts.Root, "index.html")); err == nil || s.opts.DefaultLanguage == "" {
		http.ServeFile(w, r, filepath.Join(s.opts.Root, "index.html"))
		return
	}
	http.Redirect(w, r, "/"+s.opts.DefaultLanguage+"/", http.StatusFound)
}

// ListenAndServe serves until ctx is canceled and then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening", slog.String("addr", s.opts.Addr), logfields.Path(s.opts.Root))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapError(err, errors.CategoryRuntime, "preview server failed").
				WithContext("addr", s.opts.Addr).
				Build()
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "preview server shutdown failed").Build()
	}
	slog.Info("Preview server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
