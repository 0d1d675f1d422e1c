package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/langexport/internal/config"
	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

// LogLevelEnv overrides the log level chosen by --verbose.
const LogLevelEnv = "LANGEXPORT_LOG_LEVEL"

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"langexport.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Export  ExportCmd  `cmd:"" help:"Export the site once for every configured language"`
	Routes  RoutesCmd  `cmd:"" help:"Print the expanded route set without rendering"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Watch   WatchCmd   `cmd:"" help:"Export, then re-export whenever sources change"`
	Serve   ServeCmd   `cmd:"" help:"Serve the exported site for local preview"`
	History HistoryCmd `cmd:"" help:"Show recorded export runs"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honors LANGEXPORT_LOG_LEVEL before the verbose flag.
func parseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnv))) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// loadConfig loads the configuration and returns the directory relative paths
// in it are resolved against.
func loadConfig(path string) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve configuration path").
			WithContext("path", path).
			Build()
	}
	return cfg, filepath.Dir(abs), nil
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
