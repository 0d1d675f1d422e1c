package render

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
	"git.home.luguber.info/inful/langexport/internal/logfields"
	"git.home.luguber.info/inful/langexport/internal/retry"
)

// PayloadHeader carries the route payload as JSON to the application server.
const PayloadHeader = "X-Langexport-Payload"

const userAgent = "langexport/1.0"

// HTTPRenderer snapshots pages by requesting them from a running application.
type HTTPRenderer struct {
	base        *url.URL
	client      *http.Client
	headers     map[string]string
	setHTMLLang bool
	retry       retry.Policy
}

// HTTPOptions configures an HTTPRenderer.
type HTTPOptions struct {
	BaseURL     string
	Timeout     time.Duration
	Headers     map[string]string
	SetHTMLLang bool
	// Retry re-renders routes failing with a transient error; the zero value never retries.
	Retry retry.Policy
	// Client overrides the default client; Timeout is ignored when set.
	Client *http.Client
}

// NewHTTPRenderer creates a renderer for the application at opts.BaseURL.
func NewHTTPRenderer(opts HTTPOptions) (*HTTPRenderer, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Host == "" {
		return nil, errors.ConfigError(fmt.Sprintf("invalid render base URL %q", opts.BaseURL)).Build()
	}
	if opts.Retry.MaxRetries > 0 {
		if err := opts.Retry.Validate(); err != nil {
			return nil, err
		}
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
	}
	return &HTTPRenderer{
		base:        base,
		client:      client,
		headers:     opts.Headers,
		setHTMLLang: opts.SetHTMLLang,
		retry:       opts.Retry,
	}, nil
}

// Render fetches the route. Non-2xx responses become FailureHTTP errors and transport
// problems FailureNetwork (or FailureTimeout) errors. Transient failures are retried
// according to the retry policy.
func (r *HTTPRenderer) Render(ctx context.Context, req Request) (*Result, error) {
	for attempt := 1; ; attempt++ {
		res, err := r.fetch(ctx, req)
		if err == nil || attempt > r.retry.MaxRetries || !isTransient(err) {
			return res, err
		}
		slog.Debug("Retrying route render",
			logfields.Route(req.Route),
			slog.Int("attempt", attempt),
			slog.Duration("delay", r.retry.Delay(attempt)),
			logfields.Error(err))
		if r.retry.Wait(ctx, attempt) != nil {
			return nil, err
		}
	}
}

func (r *HTTPRenderer) fetch(ctx context.Context, req Request) (*Result, error) {
	target := r.base.JoinPath(req.Route)
	if strings.HasSuffix(req.Route, "/") && !strings.HasSuffix(target.Path, "/") {
		target.Path += "/"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &Error{Type: FailureNetwork, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "text/html,*/*;q=0.8")
	if req.Lang != "" {
		httpReq.Header.Set("Accept-Language", req.Lang)
	}
	if len(req.Payload) > 0 {
		payload, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, &Error{Type: FailureContent, Err: fmt.Errorf("encode payload: %w", err)}
		}
		httpReq.Header.Set(PayloadHeader, string(payload))
	}
	for k, v := range r.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Type: FailureHTTP, Status: resp.StatusCode, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	contentType := resp.Header.Get("Content-Type")
	if r.setHTMLLang && req.Lang != "" && isHTML(contentType) {
		body, err = SetHTMLLang(body, req.Lang)
		if err != nil {
			return nil, &Error{Type: FailureContent, Status: resp.StatusCode, Err: err}
		}
	}

	return &Result{Route: req.Route, Status: resp.StatusCode, ContentType: contentType, Body: body}, nil
}

func classifyTransportError(err error) *Error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return &Error{Type: FailureTimeout, Err: err}
	}
	var netErr interface{ Timeout() bool }
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Type: FailureTimeout, Err: err}
	}
	return &Error{Type: FailureNetwork, Err: err}
}

// isTransient reports whether a failed render may succeed when repeated.
func isTransient(err error) bool {
	var re *Error
	if !stderrors.As(err, &re) {
		return false
	}
	switch re.Type {
	case FailureNetwork, FailureTimeout:
		return true
	case FailureHTTP:
		return re.Status == http.StatusBadGateway ||
			re.Status == http.StatusServiceUnavailable ||
			re.Status == http.StatusGatewayTimeout
	}
	return false
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/html"
}
