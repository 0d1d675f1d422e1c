package commands

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/langexport/internal/config"
	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
	"git.home.luguber.info/inful/langexport/internal/routes"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newAppServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head></head><body>` + req.URL.Path + `</body></html>`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// newProject writes a two-language project and returns its config path.
func newProject(t *testing.T, baseURL string) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "static", "favicon.ico"), "icon")
	writeFile(t, filepath.Join(root, "router.yaml"), `- path: /:lang?
  children:
    - path: ""
    - path: contacts
`)
	writeFile(t, filepath.Join(root, "routes.yaml"), "- route: /about/\n")
	path := filepath.Join(root, "langexport.yaml")
	writeFile(t, path, `version: "1.0"
static_generate:
  generate_languages: [ru, ua]
  required_files_modules: [sitemap.xml]
export:
  output_dir: dist
  static_dir: static
render:
  base_url: `+baseURL+`
routes:
  router_file: router.yaml
  declared_files: [routes.yaml]
history:
  database: history.db
`)
	return path
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env     string
		verbose bool
		want    slog.Level
	}{
		{env: "", verbose: false, want: slog.LevelInfo},
		{env: "", verbose: true, want: slog.LevelDebug},
		{env: "warn", verbose: true, want: slog.LevelWarn},
		{env: " ERROR ", verbose: false, want: slog.LevelError},
		{env: "bogus", verbose: true, want: slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(LogLevelEnv, tt.env)
			assert.Equal(t, tt.want, parseLogLevel(tt.verbose))
		})
	}
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	g := &Global{Out: &out}

	cmd := &InitCmd{Output: dir}
	require.NoError(t, cmd.Run(g, &CLI{}))
	assert.Contains(t, out.String(), "initialized successfully")
	assert.FileExists(t, filepath.Join(dir, "langexport.yaml"))

	err := cmd.Run(g, &CLI{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	cmd.Force = true
	require.NoError(t, cmd.Run(g, &CLI{}))
}

func TestRoutesCmd_JSON(t *testing.T) {
	path := newProject(t, "http://localhost:3000")
	var out bytes.Buffer

	require.NoError(t, (&RoutesCmd{JSON: true}).Run(&Global{Out: &out}, &CLI{Config: path}))

	var variants []routes.Variant
	require.NoError(t, json.Unmarshal(out.Bytes(), &variants))
	got := make([]string, len(variants))
	for i, v := range variants {
		got[i] = v.Route
	}
	assert.Equal(t, []string{
		"/ru/about/", "/ua/about/", "/about/",
		"/ru", "/ua", "/",
		"/ru/contacts", "/ua/contacts", "/contacts",
	}, got)
	assert.Equal(t, "ru", variants[2].Lang)
}

func TestRoutesCmd_Table(t *testing.T) {
	path := newProject(t, "http://localhost:3000")
	var out bytes.Buffer

	require.NoError(t, (&RoutesCmd{}).Run(&Global{Out: &out}, &CLI{Config: path}))
	assert.Contains(t, out.String(), "LANG")
	assert.Regexp(t, `(?m)^ua\s+/ua/contacts$`, out.String())
}

func TestRoutesCmd_MissingConfig(t *testing.T) {
	err := (&RoutesCmd{}).Run(&Global{}, &CLI{Config: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestExportAndHistory(t *testing.T) {
	path := newProject(t, newAppServer(t).URL)
	root := filepath.Dir(path)
	var out bytes.Buffer
	g := &Global{Out: &out}

	require.NoError(t, (&ExportCmd{}).Run(g, &CLI{Config: path}))
	assert.Contains(t, out.String(), "outcome=success")
	for _, f := range []string{"ru/index.html", "ua/contacts/index.html", "ru/sitemap.xml", "ua/favicon.ico", "export-report.json"} {
		assert.FileExists(t, filepath.Join(root, "dist", f))
	}

	data, err := os.ReadFile(filepath.Join(root, "dist", "export-report.json"))
	require.NoError(t, err)
	var report struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	require.NotEmpty(t, report.RunID)

	out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 5}).Run(g, &CLI{Config: path}))
	assert.Contains(t, out.String(), report.RunID)
	assert.Contains(t, out.String(), "success")

	out.Reset()
	require.NoError(t, (&HistoryCmd{RunID: report.RunID}).Run(g, &CLI{Config: path}))
	assert.Contains(t, out.String(), "ExportStarted")
	assert.Contains(t, out.String(), "ExportCompleted")

	err = (&HistoryCmd{RunID: "unknown"}).Run(g, &CLI{Config: path})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestExportCmd_OutputOverride(t *testing.T) {
	path := newProject(t, newAppServer(t).URL)
	target := filepath.Join(t.TempDir(), "site")
	var out bytes.Buffer

	require.NoError(t, (&ExportCmd{Output: target}).Run(&Global{Out: &out}, &CLI{Config: path}))
	assert.FileExists(t, filepath.Join(target, "ua", "index.html"))
	assert.NoDirExists(t, filepath.Join(filepath.Dir(path), "dist"))
	assert.NoDirExists(t, config.DefaultStagingDir(target))
}

func TestExportOptions_OverrideKeepsConfig(t *testing.T) {
	path := newProject(t, "http://localhost:3000")
	cfg, baseDir, err := loadConfig(path)
	require.NoError(t, err)
	before := cfg.Export

	target := filepath.Join(t.TempDir(), "site")
	opts, err := exportOptions(cfg, baseDir, target)
	require.NoError(t, err)
	assert.Equal(t, target, opts.OutputDir)
	assert.Equal(t, config.DefaultStagingDir(target), opts.StagingDir)
	assert.Equal(t, before, cfg.Export)

	opts, err = exportOptions(cfg, baseDir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(baseDir, "dist"), opts.OutputDir)
}

func TestHistoryCmd_Disabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "langexport.yaml")
	writeFile(t, path, "version: \"1.0\"\n")

	err := (&HistoryCmd{}).Run(&Global{}, &CLI{Config: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history.database")
}

func TestWatchPaths(t *testing.T) {
	path := newProject(t, "http://localhost:3000")
	cfg, baseDir, err := loadConfig(path)
	require.NoError(t, err)
	opts, err := exportOptions(cfg, baseDir, "")
	require.NoError(t, err)

	cfg.Watch.Paths = []string{"content", "static"}
	require.NoError(t, os.Mkdir(filepath.Join(baseDir, "content"), 0o755))

	assert.ElementsMatch(t, []string{
		path,
		filepath.Join(baseDir, "router.yaml"),
		filepath.Join(baseDir, "static"),
		filepath.Join(baseDir, "routes.yaml"),
		filepath.Join(baseDir, "content"),
	}, watchPaths(cfg, baseDir, path, opts))
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, VersionCmd{}.Run(&Global{Out: &out}))
	assert.Contains(t, out.String(), "langexport")
}
