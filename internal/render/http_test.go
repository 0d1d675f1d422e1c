package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/langexport/internal/config"
	"git.home.luguber.info/inful/langexport/internal/retry"
	"git.home.luguber.info/inful/langexport/internal/routes"
)

func newAppServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		var payload map[string]any
		if raw := req.Header.Get(PayloadHeader); raw != "" {
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html lang="xx"><head></head><body>` +
			req.URL.Path + `|` + req.Header.Get("Accept-Language") + `|` + req.Header.Get("X-Token") +
			`</body></html>`))
	})
	r.Get("/missing/", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	r.Get("/slow/", func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-req.Context().Done():
		}
	})
	r.Get("/data.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPRenderer_Render(t *testing.T) {
	srv := newAppServer(t)
	r, err := NewHTTPRenderer(HTTPOptions{
		BaseURL:     srv.URL,
		Headers:     map[string]string{"X-Token": "secret"},
		SetHTMLLang: true,
	})
	require.NoError(t, err)

	res, err := r.Render(t.Context(), Request{Route: "/ua/about/", Lang: "ua", Payload: routes.Payload{"lang": "ua"}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "/ua/about/", res.Route)
	body := string(res.Body)
	assert.Contains(t, body, `<html lang="ua">`)
	assert.Contains(t, body, "/ua/about/|ua|secret")
}

func TestHTTPRenderer_NonHTMLUntouched(t *testing.T) {
	srv := newAppServer(t)
	r, err := NewHTTPRenderer(HTTPOptions{BaseURL: srv.URL, SetHTMLLang: true})
	require.NoError(t, err)

	res, err := r.Render(t.Context(), Request{Route: "/data.json", Lang: "ru"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(res.Body))
}

func TestHTTPRenderer_StatusFailure(t *testing.T) {
	srv := newAppServer(t)
	r, err := NewHTTPRenderer(HTTPOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = r.Render(t.Context(), Request{Route: "/missing/", Lang: "ru"})
	require.Error(t, err)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, FailureHTTP, rerr.Type)
	assert.Equal(t, http.StatusNotFound, rerr.Status)
	assert.Equal(t, "http: status 404", rerr.Error())
}

func TestHTTPRenderer_Timeout(t *testing.T) {
	srv := newAppServer(t)
	r, err := NewHTTPRenderer(HTTPOptions{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = r.Render(t.Context(), Request{Route: "/slow/"})
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, FailureTimeout, rerr.Type)
}

func TestHTTPRenderer_NetworkFailure(t *testing.T) {
	srv := newAppServer(t)
	base := srv.URL
	srv.Close()

	r, err := NewHTTPRenderer(HTTPOptions{BaseURL: base})
	require.NoError(t, err)

	_, err = r.Render(context.Background(), Request{Route: "/"})
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, FailureNetwork, rerr.Type)
}

func TestNewHTTPRenderer_InvalidBase(t *testing.T) {
	_, err := NewHTTPRenderer(HTTPOptions{BaseURL: "not a url"})
	require.Error(t, err)
}

func newFlakyServer(t *testing.T, failures int32, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Get("/*", func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= failures {
			http.Error(w, "unavailable", status)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestHTTPRenderer_RetriesTransientStatus(t *testing.T) {
	srv, calls := newFlakyServer(t, 2, http.StatusServiceUnavailable)
	r, err := NewHTTPRenderer(HTTPOptions{
		BaseURL: srv.URL,
		Retry:   retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2),
	})
	require.NoError(t, err)

	res, err := r.Render(t.Context(), Request{Route: "/about/"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPRenderer_RetriesExhausted(t *testing.T) {
	srv, calls := newFlakyServer(t, 10, http.StatusBadGateway)
	r, err := NewHTTPRenderer(HTTPOptions{
		BaseURL: srv.URL,
		Retry:   retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 1),
	})
	require.NoError(t, err)

	_, err = r.Render(t.Context(), Request{Route: "/about/"})
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusBadGateway, rerr.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPRenderer_PermanentFailureNotRetried(t *testing.T) {
	srv, calls := newFlakyServer(t, 10, http.StatusInternalServerError)
	r, err := NewHTTPRenderer(HTTPOptions{
		BaseURL: srv.URL,
		Retry:   retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3),
	})
	require.NoError(t, err)

	_, err = r.Render(t.Context(), Request{Route: "/about/"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
