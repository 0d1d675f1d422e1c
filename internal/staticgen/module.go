// Package staticgen is the build-time module that turns a single-locale export into
// a multi-language static site. It expands every route into per-language variants,
// records route failures as JSON artifacts and partitions the output tree into one
// directory per language.
package staticgen

import (
	"context"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/langexport/internal/export"
	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
	"git.home.luguber.info/inful/langexport/internal/fsutil"
	"git.home.luguber.info/inful/langexport/internal/logfields"
	"git.home.luguber.info/inful/langexport/internal/metrics"
	"git.home.luguber.info/inful/langexport/internal/routes"
)

// Layout names the directories and top-level entries the module works with.
type Layout struct {
	OutputDir    string
	StagingDir   string
	AssetsDir    string
	FallbackFile string
}

// LayoutFor returns the layout matching the directories of an export run.
func LayoutFor(opts export.Options) Layout {
	return Layout{
		OutputDir:    opts.OutputDir,
		StagingDir:   opts.StagingDir,
		AssetsDir:    opts.AssetsDir,
		FallbackFile: opts.FallbackFile,
	}
}

// Module implements export.Hooks.
type Module struct {
	opts        *Resolved
	layout      Layout
	routerPaths []string
	recorder    *ErrorRecorder
	metrics     metrics.Recorder
}

var _ export.Hooks = (*Module)(nil)

// New creates the module. router is the host router table whose language-only
// routes are rendered in addition to the declared routes.
func New(opts *Resolved, layout Layout, router []routes.RouteNode) *Module {
	return &Module{
		opts:        opts,
		layout:      layout,
		routerPaths: routes.Flatten(router),
		recorder:    NewErrorRecorder(layout.OutputDir),
		metrics:     metrics.NoopRecorder{},
	}
}

// WithRecorder sets the metrics recorder.
func (m *Module) WithRecorder(r metrics.Recorder) *Module {
	if r != nil {
		m.metrics = r
	}
	return m
}

// OnBeforeRender moves the not yet finalized output into the staging tree so that
// route rendering cannot overwrite it.
func (m *Module) OnBeforeRender(_ context.Context, ev export.BeforeRenderEvent) error {
	slog.Info("Copying resources to staging", logfields.RunID(ev.RunID), logfields.Path(m.layout.StagingDir))
	if err := os.MkdirAll(m.layout.OutputDir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", m.layout.OutputDir).
			Fatal().
			Build()
	}
	if err := fsutil.MoveContents(m.layout.OutputDir, m.layout.StagingDir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to move output into staging").
			WithContext("output_dir", m.layout.OutputDir).
			WithContext("staging_dir", m.layout.StagingDir).
			Fatal().
			Build()
	}
	slog.Info("Resources copied to staging", logfields.RunID(ev.RunID))
	return nil
}

// OnRoutesRequested replaces the declared routes with the expanded per-language route set.
func (m *Module) OnRoutesRequested(_ context.Context, declared []routes.Declared) ([]routes.Variant, error) {
	slog.Info("Expanding routes for configured languages", logfields.Count(len(declared)))
	variants, err := routes.BuildSet(m.opts.LangSet(), declared, m.routerPaths)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to build route set").Fatal().Build()
	}
	slog.Info("Routes expanded", logfields.Count(len(variants)))
	return variants, nil
}

// OnRouteFailed records the failure. Write errors are logged and swallowed.
func (m *Module) OnRouteFailed(_ context.Context, failure export.RouteFailure) {
	path, err := m.recorder.Record(failure)
	if err != nil {
		m.metrics.IncErrorArtifact(false)
		slog.Warn("Route failure artifact not written", logfields.Route(failure.Route), logfields.Error(err))
		return
	}
	m.metrics.IncErrorArtifact(true)
	slog.Info("Route failure recorded", logfields.Route(failure.Route), logfields.Lang(failure.Lang), logfields.Path(path))
}

// OnExportComplete partitions the rendered output into the language roots.
func (m *Module) OnExportComplete(_ context.Context, ev export.CompleteEvent) error {
	start := time.Now()
	baseline := append([]string{m.layout.FallbackFile}, m.opts.RequiredFilesModules...)
	p := &Partitioner{
		OutputDir:  m.layout.OutputDir,
		StagingDir: m.layout.StagingDir,
		AssetsDir:  m.layout.AssetsDir,
		Baseline:   baseline,
		Languages:  m.opts.GenerateLanguages,
	}

	slog.Info("Partitioning output into language roots",
		logfields.RunID(ev.RunID),
		logfields.Count(len(p.Languages)))
	res, err := p.Partition()
	if err != nil {
		return err
	}
	m.metrics.SetLanguageRoots(len(res.LanguageRoots))
	slog.Info("Language roots ready",
		logfields.RunID(ev.RunID),
		logfields.Count(len(res.LanguageRoots)),
		slog.Any("shared", res.Moved),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return nil
}
