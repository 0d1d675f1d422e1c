package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

// Example returns the configuration written by Init.
func Example() *Config {
	return &Config{
		Version: CurrentVersion,
		StaticGenerate: StaticGenerateConfig{
			GenerateLanguages:    []string{"ru", "ua", "kz", "by"},
			DefaultLanguage:      "ru",
			RedirectDefaultLang:  boolPtr(true),
			RequiredFilesModules: []string{"sitemap.xml"},
		},
		Export: ExportConfig{
			OutputDir:     "dist",
			AssetsDir:     "_assets",
			FallbackFile:  "200.html",
			FallbackRoute: "/",
			StaticDir:     "static",
			Clean:         boolPtr(true),
			Concurrency:   4,
			Subfolders:    boolPtr(true),
			WritePayloads: boolPtr(true),
			Report:        boolPtr(true),
		},
		Render: RenderConfig{
			BaseURL:      "http://localhost:3000",
			Timeout:      "30s",
			SetHTMLLang:  boolPtr(true),
			Retries:      2,
			RetryBackoff: RetryBackoffExponential,
			RetryInitial: "500ms",
			RetryMax:     "5s",
		},
		Routes: RoutesConfig{
			RouterFile:    "router.yaml",
			DeclaredFiles: []string{"routes.yaml"},
		},
		Sitemap: SitemapConfig{
			Enabled: boolPtr(true),
			Host:    "https://example.com",
			File:    "sitemap.xml",
		},
		Notify: NotifyConfig{Subject: "langexport.export"},
		Watch:  WatchConfig{Debounce: "2s"},
		Serve:  ServeConfig{Addr: ":8080"},
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}

	// #nosec G306 -- configuration file is meant to be readable
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	fmt.Printf("Configuration file created: %s\n", configPath)
	return nil
}
