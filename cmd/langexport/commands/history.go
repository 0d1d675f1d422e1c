package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/langexport/internal/eventstore"
	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	RunID string `name:"run" help:"Show the recorded events of one export run"`
	Limit int    `short:"n" help:"Number of runs to list" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, baseDir, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if cfg.History.Database == "" {
		return errors.ConfigError("export history is disabled: set history.database").Build()
	}
	store, err := eventstore.NewSQLiteStore(resolvePath(baseDir, cfg.History.Database))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if h.RunID != "" {
		return printRunEvents(ctx, g, store, h.RunID)
	}

	history := eventstore.NewHistory(store, h.Limit)
	if err := history.Load(ctx); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	fprintf(tw, "RUN\tSTATUS\tSTARTED\tDURATION\tROUTES\tFAILED\tREVISION\n")
	for _, run := range history.Runs() {
		fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			run.RunID,
			run.Status,
			run.StartedAt.Local().Format(time.DateTime),
			run.Duration.Round(time.Millisecond),
			run.Routes,
			len(run.FailedRoutes),
			run.SourceRevision)
	}
	return tw.Flush()
}

func printRunEvents(ctx context.Context, g *Global, store eventstore.Store, runID string) error {
	events, err := store.Run(ctx, runID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return errors.NotFoundError(fmt.Sprintf("no events recorded for run %s", runID)).Build()
	}
	for _, ev := range events {
		fprintf(g.out(), "%s  %-16s %s\n",
			ev.At.Local().Format(time.RFC3339),
			ev.Type,
			strings.TrimSpace(string(ev.Payload)))
	}
	return nil
}
