package export

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
	"git.home.luguber.info/inful/langexport/internal/logfields"
	"git.home.luguber.info/inful/langexport/internal/render"
	"git.home.luguber.info/inful/langexport/internal/routes"
)

// Failure types added by the pipeline on top of the renderer's own.
const (
	FailureRender  = "render"
	FailureWrite   = "write"
	FailurePayload = "payload"
)

type renderOutcome struct {
	variant  routes.Variant
	duration time.Duration
	errs     []FailureEntry
}

// stageRenderRoutes renders the route list with a pool of workers. Results are
// consumed by this goroutine only, so OnRouteFailed is never called concurrently.
// Route failures never abort the stage; the fallback page is required.
func stageRenderRoutes(ctx context.Context, st *exportState) error {
	opts := st.ex.opts
	jobs := make(chan routes.Variant)
	results := make(chan renderOutcome)

	var wg sync.WaitGroup
	for range opts.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range jobs {
				results <- st.renderRoute(ctx, v)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, v := range st.variants {
			select {
			case jobs <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	rendered := make(map[string]bool, len(st.variants))
	for res := range results {
		ok := len(res.errs) == 0
		st.ex.recorder.ObserveRouteRender(res.variant.Lang, res.duration, ok)
		if ok {
			rendered[res.variant.Route] = true
			st.report.Rendered++
			continue
		}
		if ctx.Err() != nil {
			continue
		}
		st.report.Failed++
		st.report.FailedRoutes = append(st.report.FailedRoutes, res.variant.Route)
		failure := RouteFailure{Route: res.variant.Route, Lang: res.variant.Lang, Errors: res.errs}
		slog.Warn("Route failed to render",
			logfields.Route(failure.Route),
			logfields.Lang(failure.Lang),
			logfields.Error(res.errs[0].Err))
		st.ex.hooks.OnRouteFailed(ctx, failure)
		st.observer.OnRouteFailed(ctx, st.report, failure)
	}
	if err := ctx.Err(); err != nil {
		return newCanceledStageError(StageRenderRoutes, err)
	}

	// Keep the declared order for everything downstream.
	for _, v := range st.variants {
		if rendered[v.Route] {
			st.rendered = append(st.rendered, v)
		}
	}

	if err := st.renderFallback(ctx); err != nil {
		return newFatalStageError(StageRenderRoutes, err)
	}

	if st.report.Failed > 0 {
		return newWarnStageError(StageRenderRoutes, fmt.Errorf("%d of %d routes failed to render", st.report.Failed, len(st.variants)))
	}
	return nil
}

func (st *exportState) renderRoute(ctx context.Context, v routes.Variant) renderOutcome {
	opts := st.ex.opts
	start := time.Now()
	out := renderOutcome{variant: v}

	res, err := st.ex.renderer.Render(ctx, render.Request{Route: v.Route, Lang: v.Lang, Payload: v.Payload})
	out.duration = time.Since(start)
	if err != nil {
		out.errs = append(out.errs, failureEntry(err))
		return out
	}

	page := filepath.Join(opts.OutputDir, PagePath(v.Route, opts.Subfolders))
	if err := writeFile(page, res.Body); err != nil {
		out.errs = append(out.errs, FailureEntry{Type: FailureWrite, Err: err})
	}
	if opts.WritePayloads {
		p := filepath.Join(opts.OutputDir, opts.AssetsDir, PayloadPath(v.Route))
		if err := writePayload(p, v.Payload); err != nil {
			out.errs = append(out.errs, FailureEntry{Type: FailurePayload, Err: err})
		}
	}
	return out
}

// renderFallback renders the fallback route of the default language into the
// fallback file at the output root.
func (st *exportState) renderFallback(ctx context.Context) error {
	opts := st.ex.opts
	if opts.FallbackFile == "" {
		return nil
	}
	req := render.Request{
		Route:   opts.FallbackRoute,
		Lang:    opts.DefaultLanguage,
		Payload: routes.Payload{routes.LangParam: opts.DefaultLanguage},
	}
	res, err := st.ex.renderer.Render(ctx, req)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRender, "failed to render fallback page").
			WithContext("route", opts.FallbackRoute).
			Fatal().
			Build()
	}
	p := filepath.Join(opts.OutputDir, opts.FallbackFile)
	if err := writeFile(p, res.Body); err != nil {
		return fsError(err, "failed to write fallback page", p)
	}
	slog.Debug("Fallback page written", logfields.Route(opts.FallbackRoute), logfields.Path(p))
	return nil
}

func failureEntry(err error) FailureEntry {
	var re *render.Error
	if stderrors.As(err, &re) {
		return FailureEntry{Type: re.Type, Err: re.Err}
	}
	return FailureEntry{Type: FailureRender, Err: err}
}
