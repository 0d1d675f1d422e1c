package staticgen

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/langexport/internal/export"
	"git.home.luguber.info/inful/langexport/internal/routes"
)

var testRouter = []routes.RouteNode{
	{Path: "/:lang?", Children: []routes.RouteNode{
		{Path: ""},
		{Path: "contacts"},
		{Path: "news/:slug"},
	}},
	{Path: "/admin"},
}

func newTestModule(t *testing.T, opts Options) *Module {
	t.Helper()
	resolved, err := opts.Resolve()
	require.NoError(t, err)
	root := t.TempDir()
	return New(resolved, Layout{
		OutputDir:    filepath.Join(root, "dist"),
		StagingDir:   filepath.Join(root, "__export_dist"),
		AssetsDir:    "_assets",
		FallbackFile: "200.html",
	}, testRouter)
}

func routeList(vs []routes.Variant) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Route
	}
	return out
}

func TestModule_OnRoutesRequested(t *testing.T) {
	m := newTestModule(t, Options{GenerateLanguages: []string{"ru", "ua"}, RedirectDefaultLang: true})

	vs, err := m.OnRoutesRequested(t.Context(), []routes.Declared{
		{Route: "/about/"},
		{Route: "/news/hello/", Payload: routes.Payload{"title": "Hello"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/ru/about/", "/ua/about/", "/about/",
		"/ru/news/hello/", "/ua/news/hello/", "/news/hello/",
		"/ru", "/ua", "/",
		"/ru/contacts", "/ua/contacts", "/contacts",
	}, routeList(vs))

	assert.Equal(t, routes.Variant{Route: "/ru/about/", Lang: "ru", Payload: routes.Payload{"lang": "ru"}}, vs[0])
	assert.Equal(t, routes.Variant{Route: "/about/", Lang: "ru", Payload: routes.Payload{"lang": "ru"}}, vs[2])
	assert.Equal(t, routes.Payload{"lang": "ua", "title": "Hello"}, vs[4].Payload)
}

func TestModule_OnRoutesRequested_NoRedirect(t *testing.T) {
	m := newTestModule(t, Options{GenerateLanguages: []string{"ru", "ua"}, DefaultLanguage: "ru"})

	vs, err := m.OnRoutesRequested(t.Context(), []routes.Declared{{Route: "/about/"}})
	require.NoError(t, err)

	for _, v := range vs {
		assert.False(t, strings.HasPrefix(v.Route, "/ru/") || v.Route == "/ru", v.Route)
	}
	assert.Contains(t, vs, routes.Variant{Route: "/about/", Lang: "ru", Payload: routes.Payload{"lang": "ru"}})
	assert.Contains(t, vs, routes.Variant{Route: "/ua/about/", Lang: "ua", Payload: routes.Payload{"lang": "ua"}})
}

func TestModule_OnRoutesRequested_RejectsLangInDeclared(t *testing.T) {
	m := newTestModule(t, Options{GenerateLanguages: []string{"ru"}, RedirectDefaultLang: true})
	_, err := m.OnRoutesRequested(t.Context(), []routes.Declared{{Route: "/:lang/about/"}})
	require.Error(t, err)
}

func TestModule_OnRouteFailed_SwallowsWriteErrors(t *testing.T) {
	m := newTestModule(t, Options{GenerateLanguages: []string{"ru"}, RedirectDefaultLang: true})
	// Output directory does not exist yet, so the artifact cannot be written.
	assert.NotPanics(t, func() {
		m.OnRouteFailed(t.Context(), export.RouteFailure{
			Route:  "/ru/about/",
			Errors: []export.FailureEntry{{Type: "http", Err: stderrors.New("status 500")}},
		})
	})
	assert.NoDirExists(t, m.layout.OutputDir)
}

// runLifecycle drives the module through a full export with a fake renderer that
// writes <route>/index.html for every route.
func runLifecycle(t *testing.T, m *Module) {
	t.Helper()
	ctx := t.Context()
	out := m.layout.OutputDir

	writeFile(t, filepath.Join(out, "favicon.ico"), "icon")
	writeFile(t, filepath.Join(out, "_assets", "app.js"), "bundle")

	require.NoError(t, m.OnBeforeRender(ctx, export.BeforeRenderEvent{RunID: "run", OutputDir: out}))

	vs, err := m.OnRoutesRequested(ctx, []routes.Declared{{Route: "/about/"}, {Route: "/broken/"}})
	require.NoError(t, err)

	failed := 0
	for _, v := range vs {
		if strings.HasSuffix(v.Route, "/broken/") {
			failed++
			m.OnRouteFailed(ctx, export.RouteFailure{
				Route:  v.Route,
				Lang:   v.Lang,
				Errors: []export.FailureEntry{{Type: "http", Err: stderrors.New("status 500")}},
			})
			continue
		}
		writeFile(t, filepath.Join(out, filepath.FromSlash(v.Route), "index.html"), v.Lang+":"+v.Route)
	}
	writeFile(t, filepath.Join(out, "200.html"), "fallback")

	require.NoError(t, m.OnExportComplete(ctx, export.CompleteEvent{
		RunID:     "run",
		OutputDir: out,
		Routes:    vs,
		Rendered:  len(vs) - failed,
		Failed:    failed,
	}))
}

func relativeFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	require.NoError(t, filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	}))
	sort.Strings(files)
	return files
}

func TestModule_Lifecycle(t *testing.T) {
	m := newTestModule(t, Options{
		GenerateLanguages:   []string{"ru", "ua"},
		RedirectDefaultLang: true,
	})
	runLifecycle(t, m)
	out := m.layout.OutputDir

	assert.Equal(t, []string{
		"about/index.html",
		"contacts/index.html",
		"generate-error___broken_.json",
		"generate-error___ru_broken_.json",
		"generate-error___ua_broken_.json",
		"index.html",
		"ru/200.html",
		"ru/_assets/app.js",
		"ru/about/index.html",
		"ru/contacts/index.html",
		"ru/favicon.ico",
		"ru/index.html",
		"ua/200.html",
		"ua/_assets/app.js",
		"ua/about/index.html",
		"ua/contacts/index.html",
		"ua/favicon.ico",
		"ua/index.html",
	}, relativeFiles(t, out))
	assert.NoDirExists(t, m.layout.StagingDir)
	assert.Equal(t, "ua:/ua/about/", readFile(t, filepath.Join(out, "ua", "about", "index.html")))
}

func TestModule_LifecycleIsRepeatable(t *testing.T) {
	opts := Options{GenerateLanguages: []string{"ru", "ua", "kz"}, RedirectDefaultLang: true, RequiredFilesModules: nil}

	first := newTestModule(t, opts)
	runLifecycle(t, first)
	second := newTestModule(t, opts)
	runLifecycle(t, second)

	assert.Equal(t, relativeFiles(t, first.layout.OutputDir), relativeFiles(t, second.layout.OutputDir))
}

func TestModule_OnExportComplete_MissingRequiredFile(t *testing.T) {
	m := newTestModule(t, Options{
		GenerateLanguages:    []string{"ru"},
		RequiredFilesModules: []string{"sitemap.xml"},
	})
	out := m.layout.OutputDir
	writeFile(t, filepath.Join(out, "200.html"), "fallback")
	writeFile(t, filepath.Join(out, "_assets", "app.js"), "bundle")

	err := m.OnExportComplete(t.Context(), export.CompleteEvent{OutputDir: out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sitemap.xml")
}
