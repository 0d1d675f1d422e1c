package staticgen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newPartitionFixture(t *testing.T, langs ...string) *Partitioner {
	t.Helper()
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	staging := filepath.Join(root, "__export_dist")

	writeFile(t, filepath.Join(staging, "favicon.ico"), "icon")
	writeFile(t, filepath.Join(staging, "_assets", "app.js"), "bundle")
	writeFile(t, filepath.Join(out, "200.html"), "fallback")
	writeFile(t, filepath.Join(out, "sitemap.xml"), "<urlset/>")
	writeFile(t, filepath.Join(out, "_assets", "payloads", "about", "payload.json"), "{}")
	writeFile(t, filepath.Join(out, "about", "index.html"), "about")

	return &Partitioner{
		OutputDir:  out,
		StagingDir: staging,
		AssetsDir:  "_assets",
		Baseline:   []string{"200.html", "sitemap.xml"},
		Languages:  langs,
	}
}

func TestPartition(t *testing.T) {
	p := newPartitionFixture(t, "ru", "ua", "kz")

	res, err := p.Partition()
	require.NoError(t, err)
	assert.Equal(t, []string{"200.html", "sitemap.xml", "_assets"}, res.Moved)
	require.Len(t, res.LanguageRoots, 3)

	for _, lang := range p.Languages {
		root := filepath.Join(p.OutputDir, lang)
		assert.Equal(t, "bundle", readFile(t, filepath.Join(root, "_assets", "app.js")), lang)
		assert.Equal(t, "{}", readFile(t, filepath.Join(root, "_assets", "payloads", "about", "payload.json")), lang)
		assert.Equal(t, "fallback", readFile(t, filepath.Join(root, "200.html")), lang)
		assert.Equal(t, "<urlset/>", readFile(t, filepath.Join(root, "sitemap.xml")), lang)
		assert.Equal(t, "icon", readFile(t, filepath.Join(root, "favicon.ico")), lang)
	}

	assert.NoDirExists(t, p.StagingDir)
	assert.NoFileExists(t, filepath.Join(p.OutputDir, "200.html"))
	assert.NoFileExists(t, filepath.Join(p.OutputDir, "sitemap.xml"))
	assert.NoDirExists(t, filepath.Join(p.OutputDir, "_assets"))
	assert.Equal(t, "about", readFile(t, filepath.Join(p.OutputDir, "about", "index.html")))

	entries, err := os.ReadDir(p.OutputDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"about", "kz", "ru", "ua"}, names)
}

func TestPartition_MergesIntoRenderedLanguageDir(t *testing.T) {
	p := newPartitionFixture(t, "ru")
	writeFile(t, filepath.Join(p.OutputDir, "ru", "about", "index.html"), "ru about")

	_, err := p.Partition()
	require.NoError(t, err)
	assert.Equal(t, "ru about", readFile(t, filepath.Join(p.OutputDir, "ru", "about", "index.html")))
	assert.FileExists(t, filepath.Join(p.OutputDir, "ru", "_assets", "app.js"))
	assert.NoDirExists(t, p.StagingDir)
}

func TestPartition_MissingBaselineIsFatal(t *testing.T) {
	p := newPartitionFixture(t, "ru", "ua")
	p.Baseline = append(p.Baseline, "robots.txt")

	_, err := p.Partition()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
	assert.True(t, errors.HasSeverity(err, errors.SeverityFatal))
}

func TestPartition_WithoutRenderedAssetsKeepsBundle(t *testing.T) {
	p := newPartitionFixture(t, "ru", "ua")
	require.NoError(t, os.RemoveAll(filepath.Join(p.OutputDir, "_assets")))

	res, err := p.Partition()
	require.NoError(t, err)
	assert.Equal(t, []string{"200.html", "sitemap.xml"}, res.Moved)
	for _, lang := range p.Languages {
		root := filepath.Join(p.OutputDir, lang)
		assert.Equal(t, "bundle", readFile(t, filepath.Join(root, "_assets", "app.js")), lang)
		assert.NoDirExists(t, filepath.Join(root, "_assets", "payloads"), lang)
	}
	assert.NoDirExists(t, p.StagingDir)
}

func TestPartition_EarlierCopiesKeepStaging(t *testing.T) {
	p := newPartitionFixture(t, "ru", "ua", "kz")
	// A regular file where the second language root belongs makes that copy fail.
	writeFile(t, filepath.Join(p.OutputDir, "ua"), "blocker")

	_, err := p.Partition()
	require.Error(t, err)

	assert.FileExists(t, filepath.Join(p.OutputDir, "ru", "_assets", "app.js"))
	assert.FileExists(t, filepath.Join(p.StagingDir, "_assets", "app.js"))
	assert.FileExists(t, filepath.Join(p.StagingDir, "200.html"))
	assert.NoDirExists(t, filepath.Join(p.OutputDir, "kz"))
}

func TestPartition_NoLanguages(t *testing.T) {
	p := newPartitionFixture(t)
	_, err := p.Partition()
	require.Error(t, err)
}
