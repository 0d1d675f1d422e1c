package commands

import "git.home.luguber.info/inful/langexport/internal/version"

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (VersionCmd) Run(g *Global) error {
	fprintf(g.out(), "%s\n", version.String())
	return nil
}
