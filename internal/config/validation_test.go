package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

func TestValidateLanguages(t *testing.T) {
	tests := []struct {
		name    string
		langs   []string
		def     string
		wantErr string
	}{
		{name: "valid", langs: []string{"ru", "ua"}, def: "ua"},
		{name: "empty", langs: nil, def: "ru", wantErr: "At least one language should be configured."},
		{name: "default missing", langs: []string{"ru", "ua"}, def: "kz", wantErr: `Default language "kz" must be included in list of languages.`},
		{name: "bad code", langs: []string{"ru", "u/a"}, def: "ru", wantErr: `invalid language code "u/a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLanguages(tt.langs, tt.def)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
			assert.True(t, errors.HasSeverity(err, errors.SeverityFatal))
		})
	}
}

func TestParse_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "explicit empty language list",
			yaml:    "static_generate:\n  generate_languages: []\n",
			wantErr: "At least one language",
		},
		{
			name:    "default not in list",
			yaml:    "static_generate:\n  generate_languages: [ru]\n  default_language: en\n",
			wantErr: `Default language "en"`,
		},
		{
			name:    "required file with path",
			yaml:    "static_generate:\n  required_files_modules: [a/b.xml]\n",
			wantErr: "static_generate.required_files_modules must be a plain",
		},
		{
			name:    "assets dir traversal",
			yaml:    "export:\n  assets_dir: ..\n",
			wantErr: "export.assets_dir",
		},
		{
			name:    "staging inside output",
			yaml:    "export:\n  output_dir: dist\n  staging_dir: dist/tmp\n",
			wantErr: "must not overlap",
		},
		{
			name:    "output inside staging",
			yaml:    "export:\n  output_dir: stage/dist\n  staging_dir: stage\n",
			wantErr: "must not overlap",
		},
		{
			name:    "relative base url",
			yaml:    "render:\n  base_url: localhost:3000\n",
			wantErr: "render.base_url",
		},
		{
			name:    "bad duration",
			yaml:    "watch:\n  interval: often\n",
			wantErr: "invalid watch.interval duration",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
		})
	}
}

func TestWithin(t *testing.T) {
	assert.True(t, within("/a/b", "/a/b"))
	assert.True(t, within("/a/b", "/a/b/c"))
	assert.False(t, within("/a/b", "/a/bc"))
	assert.False(t, within("/a/b", "/a"))
	assert.True(t, within("/a", "/a/..b"))
}
