package staticgen

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/langexport/internal/export"
)

func TestErrorFileName(t *testing.T) {
	assert.Equal(t, "generate-error___news_articles_foo_.json", ErrorFileName("/news/articles/foo/"))
	assert.Equal(t, "generate-error___.json", ErrorFileName("/"))
}

func TestErrorRecorder_Record(t *testing.T) {
	dir := t.TempDir()
	r := NewErrorRecorder(dir)

	path, err := r.Record(export.RouteFailure{
		Route: "/news/articles/foo/",
		Lang:  "ru",
		Errors: []export.FailureEntry{
			{Type: "http", Err: stderrors.New("status 500")},
			{Type: "content", Err: stderrors.New("<html> missing & broken")},
			{Type: "unhandled"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "generate-error___news_articles_foo_.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"route\": \"/news/articles/foo/\"")
	assert.Contains(t, string(data), "<html> missing & broken")

	var got struct {
		Route  string `json:"route"`
		Errors []struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "/news/articles/foo/", got.Route)
	require.Len(t, got.Errors, 3)
	assert.Equal(t, "http", got.Errors[0].Type)
	assert.Equal(t, "status 500", got.Errors[0].Description)
	assert.Equal(t, "unhandled", got.Errors[2].Type)
	assert.Equal(t, "unhandled error without details", got.Errors[2].Description)
}

func TestErrorRecorder_EmptyErrorList(t *testing.T) {
	r := NewErrorRecorder(t.TempDir())
	path, err := r.Record(export.RouteFailure{Route: "/a/"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"route":"/a/","errors":[]}`, string(data))
}

func TestErrorRecorder_WriteFailure(t *testing.T) {
	r := NewErrorRecorder(filepath.Join(t.TempDir(), "missing", "dir"))
	_, err := r.Record(export.RouteFailure{Route: "/a/"})
	require.Error(t, err)
}
