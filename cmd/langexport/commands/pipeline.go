package commands

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/langexport/internal/config"
	"git.home.luguber.info/inful/langexport/internal/eventstore"
	"git.home.luguber.info/inful/langexport/internal/export"
	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
	"git.home.luguber.info/inful/langexport/internal/logfields"
	"git.home.luguber.info/inful/langexport/internal/metrics"
	"git.home.luguber.info/inful/langexport/internal/notify"
	"git.home.luguber.info/inful/langexport/internal/render"
	"git.home.luguber.info/inful/langexport/internal/retry"
	"git.home.luguber.info/inful/langexport/internal/routes"
	"git.home.luguber.info/inful/langexport/internal/staticgen"
)

// pipeline is an exporter wired to the staticgen module and the optional
// history, notification and metrics collaborators.
type pipeline struct {
	opts     export.Options
	module   *staticgen.Module
	exporter *export.Exporter
	closers  []io.Closer
}

type pipelineOptions struct {
	// outputDir overrides export.output_dir; the staging directory is derived from it.
	outputDir string
	recorder  metrics.Recorder
}

// exportOptions derives run options, applying an output directory override.
// cfg itself is left unchanged.
func exportOptions(cfg *config.Config, baseDir, outputDir string) (export.Options, error) {
	if outputDir == "" {
		return export.OptionsFromConfig(cfg, baseDir), nil
	}
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return export.Options{}, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve output directory").
			WithContext("path", outputDir).
			Build()
	}
	overridden := *cfg
	overridden.Export.OutputDir = abs
	overridden.Export.StagingDir = config.DefaultStagingDir(abs)
	if err := config.ValidateConfig(&overridden); err != nil {
		return export.Options{}, err
	}
	return export.OptionsFromConfig(&overridden, baseDir), nil
}

// newModule builds the multi-language module for cfg.
func newModule(cfg *config.Config, baseDir string, opts export.Options) (*staticgen.Module, error) {
	resolved, err := staticgen.OptionsFromConfig(cfg).Resolve()
	if err != nil {
		return nil, err
	}
	var router []routes.RouteNode
	if cfg.Routes.RouterFile != "" {
		path := resolvePath(baseDir, cfg.Routes.RouterFile)
		router, err = routes.LoadRouter(path)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to load router table").
				WithContext("path", path).
				Fatal().
				Build()
		}
	}
	return staticgen.New(resolved, staticgen.LayoutFor(opts), router), nil
}

func newPipeline(cfg *config.Config, baseDir string, po pipelineOptions) (*pipeline, error) {
	opts, err := exportOptions(cfg, baseDir, po.outputDir)
	if err != nil {
		return nil, err
	}
	module, err := newModule(cfg, baseDir, opts)
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewHTTPRenderer(render.HTTPOptions{
		BaseURL:     cfg.Render.BaseURL,
		Timeout:     cfg.Render.TimeoutDuration(),
		Headers:     cfg.Render.Headers,
		SetHTMLLang: cfg.Render.RewriteHTMLLang(),
		Retry:       retry.FromConfig(cfg.Render),
	})
	if err != nil {
		return nil, err
	}

	p := &pipeline{opts: opts, module: module}
	p.exporter = export.New(opts, module, renderer)
	if po.recorder != nil {
		module.WithRecorder(po.recorder)
		p.exporter.WithRecorder(po.recorder)
	}

	if db := cfg.History.Database; db != "" {
		store, err := eventstore.NewSQLiteStore(resolvePath(baseDir, db))
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, store)
		p.exporter.WithObserver(export.NewHistoryObserver(store))
	}

	if url := cfg.Notify.NatsURL; url != "" {
		pub, err := notify.NewNATSPublisher(url, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Export notifications disabled", slog.String("nats_url", url), logfields.Error(err))
		} else {
			p.closers = append(p.closers, pub)
			p.exporter.WithObserver(export.NewNotifyObserver(pub))
		}
	}
	return p, nil
}

func (p *pipeline) run(ctx context.Context, out io.Writer) error {
	report, err := p.exporter.Run(ctx)
	if report != nil {
		printReport(out, report)
	}
	return err
}

// Close releases the history store and the notification connection.
func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil {
			slog.Warn("Failed to close export resource", logfields.Error(err))
		}
	}
	p.closers = nil
}

func printReport(out io.Writer, r *export.Report) {
	fprintf(out, "%s\n", r.Summary())
	for _, route := range r.FailedRoutes {
		fprintf(out, "  failed: %s\n", route)
	}
}
