package commands

import (
	"context"
	"encoding/json"
	"text/tabwriter"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
	"git.home.luguber.info/inful/langexport/internal/routes"
)

// RoutesCmd implements the 'routes' command.
type RoutesCmd struct {
	JSON bool `name:"json" help:"Print the route set as JSON"`
}

func (r *RoutesCmd) Run(g *Global, root *CLI) error {
	cfg, baseDir, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	opts, err := exportOptions(cfg, baseDir, "")
	if err != nil {
		return err
	}
	module, err := newModule(cfg, baseDir, opts)
	if err != nil {
		return err
	}
	declared, err := routes.LoadDeclared(opts.DeclaredFiles...)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to load declared routes").Fatal().Build()
	}
	variants, err := module.OnRoutesRequested(context.Background(), declared)
	if err != nil {
		return err
	}

	if r.JSON {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		if err := enc.Encode(variants); err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "failed to encode routes").Build()
		}
		return nil
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	fprintf(tw, "LANG\tROUTE\n")
	for _, v := range variants {
		fprintf(tw, "%s\t%s\n", v.Lang, v.Route)
	}
	return tw.Flush()
}
