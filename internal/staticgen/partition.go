package staticgen

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
	"git.home.luguber.info/inful/langexport/internal/fsutil"
	"git.home.luguber.info/inful/langexport/internal/logfields"
)

// Partitioner splits a rendered output tree into one root per language.
//
// Baseline entries and the assets directory are moved from the output directory
// into the staging tree, where they merge with the bundle already there. A
// missing assets directory in the output leaves the staged bundle as it is.
// The staging tree is then copied into <OutputDir>/<lang> for every
// language in order. Only the copy for the last language consumes the staging
// tree; all earlier copies leave it intact.
type Partitioner struct {
	OutputDir  string
	StagingDir string
	AssetsDir  string
	// Baseline are top-level entries of the output directory moved into every language root.
	Baseline  []string
	Languages []string
}

// PartitionResult lists what a partition produced.
type PartitionResult struct {
	Moved         []string
	LanguageRoots []string
}

// Partition runs the three partition steps. Any filesystem error aborts immediately;
// the output directory is not restored.
func (p *Partitioner) Partition() (*PartitionResult, error) {
	res := &PartitionResult{}
	if len(p.Languages) == 0 {
		return nil, errors.ValidationError("no languages to partition into").Build()
	}
	if err := os.MkdirAll(p.StagingDir, 0o755); err != nil {
		return nil, p.fsError(err, "failed to create staging directory", p.StagingDir)
	}

	for _, name := range p.Baseline {
		src := filepath.Join(p.OutputDir, name)
		if err := fsutil.MoveTree(src, filepath.Join(p.StagingDir, name)); err != nil {
			return nil, p.fsError(err, "failed to move baseline file into staging", src)
		}
		res.Moved = append(res.Moved, name)
	}

	assets := filepath.Join(p.OutputDir, p.AssetsDir)
	if fsutil.Exists(assets) {
		if err := fsutil.MoveTree(assets, filepath.Join(p.StagingDir, p.AssetsDir)); err != nil {
			return nil, p.fsError(err, "failed to move assets into staging", assets)
		}
		res.Moved = append(res.Moved, p.AssetsDir)
	} else {
		slog.Debug("No rendered assets to merge", logfields.Path(assets))
	}

	last := len(p.Languages) - 1
	for i, lang := range p.Languages {
		dst := filepath.Join(p.OutputDir, lang)
		var err error
		if i == last {
			err = fsutil.MoveTree(p.StagingDir, dst)
		} else {
			err = fsutil.CopyTree(p.StagingDir, dst)
		}
		if err != nil {
			return nil, p.fsError(err, "failed to populate language root", dst)
		}
		slog.Debug("Language root populated", logfields.Lang(lang), logfields.Path(dst))
		res.LanguageRoots = append(res.LanguageRoots, dst)
	}
	return res, nil
}

func (p *Partitioner) fsError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, msg).
		WithContext("path", path).
		WithContext("staging_dir", p.StagingDir).
		Fatal().
		Build()
}
