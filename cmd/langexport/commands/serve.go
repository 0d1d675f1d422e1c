package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/langexport/internal/export"
	"git.home.luguber.info/inful/langexport/internal/metrics"
	"git.home.luguber.info/inful/langexport/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr   string `help:"Listen address (overrides serve.addr)"`
	Output string `short:"o" help:"Directory to serve (overrides export.output_dir)"`
	Watch  bool   `short:"w" help:"Export and re-export on source changes while serving"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, baseDir, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	opts, err := exportOptions(cfg, baseDir, s.Output)
	if err != nil {
		return err
	}

	var (
		handler  http.Handler
		recorder metrics.Recorder
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		handler = metrics.HTTPHandler(reg)
	}

	addr := s.Addr
	if addr == "" {
		addr = cfg.Serve.Addr
	}
	srv := server.New(server.Options{
		Addr:            addr,
		Root:            opts.OutputDir,
		ReportFile:      export.ReportFileName,
		Metrics:         handler,
		DefaultLanguage: cfg.StaticGenerate.DefaultLanguage,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !s.Watch {
		return srv.ListenAndServe(ctx)
	}

	session, err := newWatchSession(root.Config, s.Output, recorder, g.out())
	if err != nil {
		return err
	}
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- session.run(ctx)
		cancel()
	}()
	serveErr := srv.ListenAndServe(ctx)
	cancel()
	if err := <-watchErr; err != nil {
		return err
	}
	return serveErr
}
