package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
	"git.home.luguber.info/inful/langexport/internal/fsutil"
	"git.home.luguber.info/inful/langexport/internal/logfields"
	"git.home.luguber.info/inful/langexport/internal/routes"
)

// stagePrepareOutput cleans the output and copies the static directory and the
// runtime bundle into it. The assets directory always exists afterwards.
func stagePrepareOutput(_ context.Context, st *exportState) error {
	opts := st.ex.opts
	if opts.Clean {
		for _, dir := range []string{opts.OutputDir, opts.StagingDir} {
			if err := os.RemoveAll(dir); err != nil {
				return newFatalStageError(StagePrepareOutput, errors.WrapError(err, errors.CategoryFileSystem, "failed to clean directory").
					WithContext("path", dir).
					Fatal().
					Build())
			}
		}
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return newFatalStageError(StagePrepareOutput, fsError(err, "failed to create output directory", opts.OutputDir))
	}

	var warning error
	if opts.StaticDir != "" {
		if fsutil.Exists(opts.StaticDir) {
			if err := fsutil.CopyTree(opts.StaticDir, opts.OutputDir); err != nil {
				return newFatalStageError(StagePrepareOutput, fsError(err, "failed to copy static directory", opts.StaticDir))
			}
		} else {
			warning = fmt.Errorf("static directory %s does not exist", opts.StaticDir)
		}
	}

	assets := filepath.Join(opts.OutputDir, opts.AssetsDir)
	if opts.BundleDir != "" {
		if err := fsutil.CopyTree(opts.BundleDir, assets); err != nil {
			return newFatalStageError(StagePrepareOutput, fsError(err, "failed to copy bundle directory", opts.BundleDir))
		}
	}
	if err := os.MkdirAll(assets, 0o755); err != nil {
		return newFatalStageError(StagePrepareOutput, fsError(err, "failed to create assets directory", assets))
	}

	if warning != nil {
		return newWarnStageError(StagePrepareOutput, warning)
	}
	return nil
}

func stageDistCopied(ctx context.Context, st *exportState) error {
	err := st.ex.hooks.OnBeforeRender(ctx, BeforeRenderEvent{RunID: st.report.RunID, OutputDir: st.ex.opts.OutputDir})
	if err != nil {
		return newFatalStageError(StageDistCopied, err)
	}
	return nil
}

// stageExtendRoutes loads the declared routes and lets the hooks replace them
// with the final route list.
func stageExtendRoutes(ctx context.Context, st *exportState) error {
	declared, err := routes.LoadDeclared(st.ex.opts.DeclaredFiles...)
	if err != nil {
		return newFatalStageError(StageExtendRoutes, errors.WrapError(err, errors.CategoryConfig, "failed to load declared routes").Build())
	}
	st.declared = declared

	variants, err := st.ex.hooks.OnRoutesRequested(ctx, declared)
	if err != nil {
		return newFatalStageError(StageExtendRoutes, err)
	}
	st.variants = variants
	st.report.DeclaredRoutes = len(declared)
	st.report.Routes = len(variants)
	slog.Info("Route list ready",
		logfields.RunID(st.report.RunID),
		slog.Int("declared", len(declared)),
		logfields.Count(len(variants)))
	st.observer.OnRoutesExpanded(ctx, st.report)
	return nil
}

func stageExportDone(ctx context.Context, st *exportState) error {
	ev := CompleteEvent{
		RunID:     st.report.RunID,
		OutputDir: st.ex.opts.OutputDir,
		Routes:    st.variants,
		Rendered:  st.report.Rendered,
		Failed:    st.report.Failed,
	}
	if err := st.ex.hooks.OnExportComplete(ctx, ev); err != nil {
		return newFatalStageError(StageExportDone, err)
	}
	st.report.LanguageRoots = countLanguageRoots(st.ex.opts.OutputDir, st.report.Languages)
	return nil
}

func countLanguageRoots(outputDir string, langs []string) int {
	n := 0
	for _, lang := range langs {
		if info, err := os.Stat(filepath.Join(outputDir, lang)); err == nil && info.IsDir() {
			n++
		}
	}
	return n
}

func fsError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, msg).
		WithContext("path", path).
		Fatal().
		Build()
}
