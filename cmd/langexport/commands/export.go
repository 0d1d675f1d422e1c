package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// ExportCmd implements the 'export' command.
type ExportCmd struct {
	Output string `short:"o" help:"Output directory (overrides export.output_dir)"`
}

func (e *ExportCmd) Run(g *Global, root *CLI) error {
	cfg, baseDir, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, baseDir, pipelineOptions{outputDir: e.Output})
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return p.run(ctx, g.out())
}

func fprintf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
