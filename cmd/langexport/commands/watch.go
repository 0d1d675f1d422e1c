package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/langexport/internal/config"
	"git.home.luguber.info/inful/langexport/internal/export"
	"git.home.luguber.info/inful/langexport/internal/logfields"
	"git.home.luguber.info/inful/langexport/internal/metrics"
	"git.home.luguber.info/inful/langexport/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output string `short:"o" help:"Output directory (overrides export.output_dir)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session, err := newWatchSession(root.Config, w.Output, nil, g.out())
	if err != nil {
		return err
	}
	return session.run(ctx)
}

// watchSession re-exports on source changes. The configuration is reloaded for
// every run so edits to it take effect without a restart.
type watchSession struct {
	configPath string
	outputDir  string
	recorder   metrics.Recorder
	out        io.Writer
	watcher    *watch.Watcher
}

func newWatchSession(configPath, outputDir string, rec metrics.Recorder, out io.Writer) (*watchSession, error) {
	cfg, baseDir, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	opts, err := exportOptions(cfg, baseDir, outputDir)
	if err != nil {
		return nil, err
	}

	s := &watchSession{configPath: configPath, outputDir: outputDir, recorder: rec, out: out}
	s.watcher, err = watch.New(watch.Options{
		Paths:    watchPaths(cfg, baseDir, configPath, opts),
		Ignore:   []string{opts.OutputDir, opts.StagingDir},
		Debounce: cfg.Watch.DebounceDuration(),
		Interval: cfg.Watch.IntervalDuration(),
	}, s.export)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// run exports once the watches are in place, then on every trigger.
func (s *watchSession) run(ctx context.Context) error {
	s.watcher.Trigger(watch.ReasonStartup)
	return s.watcher.Run(ctx)
}

func (s *watchSession) export(ctx context.Context, _ string) error {
	cfg, baseDir, err := loadConfig(s.configPath)
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, baseDir, pipelineOptions{outputDir: s.outputDir, recorder: s.recorder})
	if err != nil {
		return err
	}
	defer p.Close()
	return p.run(ctx, s.out)
}

// watchPaths lists the existing inputs of an export: the configuration file,
// route files, static and bundle directories and watch.paths.
func watchPaths(cfg *config.Config, baseDir, configPath string, opts export.Options) []string {
	candidates := []string{configPath, resolvePath(baseDir, cfg.Routes.RouterFile), opts.StaticDir, opts.BundleDir}
	candidates = append(candidates, opts.DeclaredFiles...)
	for _, p := range cfg.Watch.Paths {
		candidates = append(candidates, resolvePath(baseDir, p))
	}

	seen := make(map[string]bool)
	var paths []string
	for _, p := range candidates {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if _, err := os.Stat(p); err != nil {
			slog.Debug("Not watching missing path", logfields.Path(p))
			continue
		}
		paths = append(paths, p)
	}
	return paths
}
