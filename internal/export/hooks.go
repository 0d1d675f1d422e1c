package export

import (
	"context"

	"git.home.luguber.info/inful/langexport/internal/routes"
)

// Hooks is the lifecycle contract between the export pipeline and a build-time module.
// The pipeline calls the hooks sequentially, never concurrently, in this order:
// OnBeforeRender, OnRoutesRequested, zero or more OnRouteFailed, OnExportComplete.
type Hooks interface {
	// OnBeforeRender runs after static assets were copied into the output directory
	// and before any route is rendered.
	OnBeforeRender(ctx context.Context, ev BeforeRenderEvent) error
	// OnRoutesRequested returns the complete list of routes to render. The returned
	// list replaces the declared routes.
	OnRoutesRequested(ctx context.Context, declared []routes.Declared) ([]routes.Variant, error)
	// OnRouteFailed is informed about a route that could not be rendered. It cannot
	// abort the export.
	OnRouteFailed(ctx context.Context, failure RouteFailure)
	// OnExportComplete runs once after all routes were rendered. An error aborts the export.
	OnExportComplete(ctx context.Context, ev CompleteEvent) error
}

// BeforeRenderEvent is passed to Hooks.OnBeforeRender.
type BeforeRenderEvent struct {
	RunID     string
	OutputDir string
}

// FailureEntry is one reason a route failed to render.
type FailureEntry struct {
	Type string
	Err  error
}

// RouteFailure describes a route that could not be rendered.
type RouteFailure struct {
	Route  string
	Lang   string
	Errors []FailureEntry
}

// CompleteEvent is passed to Hooks.OnExportComplete.
type CompleteEvent struct {
	RunID     string
	OutputDir string
	Routes    []routes.Variant
	Rendered  int
	Failed    int
}

// NopHooks renders the declared routes as they are and performs no reorganization.
type NopHooks struct{}

func (NopHooks) OnBeforeRender(context.Context, BeforeRenderEvent) error { return nil }

func (NopHooks) OnRoutesRequested(_ context.Context, declared []routes.Declared) ([]routes.Variant, error) {
	out := make([]routes.Variant, 0, len(declared))
	for _, d := range declared {
		out = append(out, routes.Variant{Route: d.Route, Payload: d.Payload})
	}
	return out, nil
}

func (NopHooks) OnRouteFailed(context.Context, RouteFailure) {}

func (NopHooks) OnExportComplete(context.Context, CompleteEvent) error { return nil }
