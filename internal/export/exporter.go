// Package export is the host static-export pipeline. It prepares the output
// directory, asks a build-time module for the routes to render, renders them
// through a Renderer and hands the result back to the module, calling the
// module's lifecycle hooks in a fixed order.
package export

import (
	"context"
	stderrors "errors"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/langexport/internal/config"
	"git.home.luguber.info/inful/langexport/internal/git"
	"git.home.luguber.info/inful/langexport/internal/logfields"
	"git.home.luguber.info/inful/langexport/internal/metrics"
	"git.home.luguber.info/inful/langexport/internal/render"
	"git.home.luguber.info/inful/langexport/internal/routes"
)

// Options configures an export run. Paths are used as given.
type Options struct {
	Languages       []string
	DefaultLanguage string

	OutputDir     string
	StagingDir    string
	AssetsDir     string
	FallbackFile  string
	FallbackRoute string
	StaticDir     string
	BundleDir     string
	DeclaredFiles []string
	SourceDir     string

	Clean         bool
	Concurrency   int
	Subfolders    bool
	WritePayloads bool
	WriteReport   bool

	SitemapEnabled bool
	SitemapHost    string
	SitemapFile    string
}

// OptionsFromConfig derives run options from cfg. Relative paths are resolved
// against baseDir, normally the directory of the configuration file.
func OptionsFromConfig(cfg *config.Config, baseDir string) Options {
	ex := cfg.Export
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	staging := ex.StagingDir
	if staging == "" {
		staging = config.DefaultStagingDir(ex.OutputDir)
	}
	declared := make([]string, len(cfg.Routes.DeclaredFiles))
	for i, f := range cfg.Routes.DeclaredFiles {
		declared[i] = resolve(f)
	}
	return Options{
		Languages:       cfg.StaticGenerate.GenerateLanguages,
		DefaultLanguage: cfg.StaticGenerate.DefaultLanguage,
		OutputDir:       resolve(ex.OutputDir),
		StagingDir:      resolve(staging),
		AssetsDir:       ex.AssetsDir,
		FallbackFile:    ex.FallbackFile,
		FallbackRoute:   ex.FallbackRoute,
		StaticDir:       resolve(ex.StaticDir),
		BundleDir:       resolve(ex.BundleDir),
		DeclaredFiles:   declared,
		SourceDir:       baseDir,
		Clean:           ex.CleanOutput(),
		Concurrency:     ex.Concurrency,
		Subfolders:      ex.UseSubfolders(),
		WritePayloads:   ex.PayloadsEnabled(),
		WriteReport:     ex.ReportEnabled(),
		SitemapEnabled:  cfg.Sitemap.IsEnabled(),
		SitemapHost:     cfg.Sitemap.Host,
		SitemapFile:     cfg.Sitemap.File,
	}
}

// Exporter runs export pipelines.
type Exporter struct {
	opts      Options
	hooks     Hooks
	renderer  render.Renderer
	observers multiObserver
	recorder  metrics.Recorder
	newRunID  func() string
}

// New creates an exporter. A nil hooks value renders the declared routes unchanged.
func New(opts Options, hooks Hooks, renderer render.Renderer) *Exporter {
	if hooks == nil {
		hooks = NopHooks{}
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Exporter{
		opts:     opts,
		hooks:    hooks,
		renderer: renderer,
		recorder: metrics.NoopRecorder{},
		newRunID: uuid.NewString,
	}
}

// WithRecorder sets the metrics recorder.
func (e *Exporter) WithRecorder(r metrics.Recorder) *Exporter {
	if r != nil {
		e.recorder = r
	}
	return e
}

// WithObserver adds an observer. Observers are called in registration order.
func (e *Exporter) WithObserver(o Observer) *Exporter {
	if o != nil {
		e.observers = append(e.observers, o)
	}
	return e
}

// Options returns the run options.
func (e *Exporter) Options() Options { return e.opts }

// exportState carries mutable state across the stages of one run.
type exportState struct {
	ex       *Exporter
	report   *Report
	observer Observer
	declared []routes.Declared
	variants []routes.Variant
	rendered []routes.Variant
}

func (e *Exporter) stages() []namedStage {
	return []namedStage{
		{StagePrepareOutput, stagePrepareOutput},
		{StageDistCopied, stageDistCopied},
		{StageExtendRoutes, stageExtendRoutes},
		{StageRenderRoutes, stageRenderRoutes},
		{StageSitemap, stageSitemap},
		{StageExportDone, stageExportDone},
	}
}

// Run executes one export. The report is returned even when the run fails; the
// error is the fatal or canceled StageError that stopped it.
func (e *Exporter) Run(ctx context.Context) (*Report, error) {
	report := newReport(e.newRunID(), e.opts)
	report.SourceRevision = e.sourceRevision()

	observers := append(multiObserver{recorderObserver{rec: e.recorder}}, e.observers...)
	st := &exportState{ex: e, report: report, observer: observers}

	slog.Info("Export started",
		logfields.RunID(report.RunID),
		logfields.Path(e.opts.OutputDir),
		slog.Any("languages", e.opts.Languages))
	observers.OnExportStart(ctx, report)
	e.recorder.SetRenderConcurrency(e.opts.Concurrency)

	err := runStages(ctx, st, e.stages())
	report.finish()

	if e.opts.WriteReport && report.FailedStage() != StagePrepareOutput {
		if perr := report.Persist(e.opts.OutputDir); perr != nil {
			slog.Warn("Failed to persist export report", logfields.RunID(report.RunID), logfields.Error(perr))
		}
	}
	observers.OnExportComplete(ctx, report)

	if err != nil {
		slog.Error("Export failed", logfields.RunID(report.RunID), logfields.Stage(string(report.FailedStage())), logfields.Error(err))
		return report, err
	}
	slog.Info("Export completed", logfields.RunID(report.RunID), slog.String("summary", report.Summary()))
	return report, nil
}

func (e *Exporter) sourceRevision() string {
	if e.opts.SourceDir == "" {
		return ""
	}
	rev, err := git.SourceRevision(e.opts.SourceDir)
	if err != nil && !stderrors.Is(err, git.ErrNotRepository) {
		slog.Warn("Could not determine source revision", logfields.Path(e.opts.SourceDir), logfields.Error(err))
	}
	return rev.String()
}
