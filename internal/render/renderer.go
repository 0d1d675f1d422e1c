// Package render turns concrete routes into page bytes. The export pipeline only
// depends on the Renderer contract; HTTPRenderer snapshots pages from a running
// application server.
package render

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/langexport/internal/routes"
)

// Failure types reported by renderers.
const (
	FailureHTTP    = "http"
	FailureNetwork = "network"
	FailureTimeout = "timeout"
	FailureContent = "content"
)

// Request describes one route to render.
type Request struct {
	Route   string
	Lang    string
	Payload routes.Payload
}

// Result is a rendered page.
type Result struct {
	Route       string
	Status      int
	ContentType string
	Body        []byte
}

// Renderer renders a single route. Implementations must be safe for concurrent use.
type Renderer interface {
	Render(ctx context.Context, req Request) (*Result, error)
}

// Error is a classified per-route render failure.
type Error struct {
	Type   string
	Status int
	Err    error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Type, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, req Request) (*Result, error)

func (f RendererFunc) Render(ctx context.Context, req Request) (*Result, error) { return f(ctx, req) }
