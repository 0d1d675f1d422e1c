package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

// CurrentVersion is the configuration schema version written by Init.
const CurrentVersion = "1.0"

// DefaultStagingName is the staging directory created next to the output directory.
const DefaultStagingName = "__export_dist"

// Config represents the langexport configuration file.
type Config struct {
	Version        string               `yaml:"version"`
	StaticGenerate StaticGenerateConfig `yaml:"static_generate"`
	Export         ExportConfig         `yaml:"export"`
	Render         RenderConfig         `yaml:"render"`
	Routes         RoutesConfig         `yaml:"routes"`
	Sitemap        SitemapConfig        `yaml:"sitemap"`
	History        HistoryConfig        `yaml:"history"`
	Notify         NotifyConfig         `yaml:"notify"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	Watch          WatchConfig          `yaml:"watch"`
	Serve          ServeConfig          `yaml:"serve"`
}

// StaticGenerateConfig holds the options of the multi-language export module.
type StaticGenerateConfig struct {
	GenerateLanguages    []string `yaml:"generate_languages"`
	DefaultLanguage      string   `yaml:"default_language"`
	RedirectDefaultLang  *bool    `yaml:"redirect_default_lang,omitempty"`
	RequiredFilesModules []string `yaml:"required_files_modules"`
}

// RedirectDefault reports whether the default language also gets an explicit prefix.
func (s StaticGenerateConfig) RedirectDefault() bool {
	return boolOr(s.RedirectDefaultLang, true)
}

// ExportConfig controls the host export pipeline and the output layout.
type ExportConfig struct {
	OutputDir     string `yaml:"output_dir"`
	StagingDir    string `yaml:"staging_dir"`
	AssetsDir     string `yaml:"assets_dir"`
	FallbackFile  string `yaml:"fallback_file"`
	FallbackRoute string `yaml:"fallback_route"`
	StaticDir     string `yaml:"static_dir"`
	BundleDir     string `yaml:"bundle_dir"`
	Clean         *bool  `yaml:"clean,omitempty"`
	Concurrency   int    `yaml:"concurrency"`
	Subfolders    *bool  `yaml:"subfolders,omitempty"`
	WritePayloads *bool  `yaml:"write_payloads,omitempty"`
	Report        *bool  `yaml:"report,omitempty"`
}

func (e ExportConfig) CleanOutput() bool     { return boolOr(e.Clean, true) }
func (e ExportConfig) UseSubfolders() bool   { return boolOr(e.Subfolders, true) }
func (e ExportConfig) PayloadsEnabled() bool { return boolOr(e.WritePayloads, true) }
func (e ExportConfig) ReportEnabled() bool   { return boolOr(e.Report, true) }

// RetryBackoffMode selects how the delay between render retries grows.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// RenderConfig configures the HTTP snapshot renderer.
type RenderConfig struct {
	BaseURL     string            `yaml:"base_url"`
	Timeout     string            `yaml:"timeout"`
	SetHTMLLang *bool             `yaml:"set_html_lang,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	// Retries is the number of extra attempts for transient failures.
	Retries      int              `yaml:"retries"`
	RetryBackoff RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitial string           `yaml:"retry_initial"`
	RetryMax     string           `yaml:"retry_max"`
}

// RewriteHTMLLang reports whether rendered pages get their <html lang> attribute rewritten.
func (r RenderConfig) RewriteHTMLLang() bool { return boolOr(r.SetHTMLLang, true) }

// TimeoutDuration returns the per-request render timeout.
func (r RenderConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(r.Timeout, 30*time.Second)
}

func (r RenderConfig) RetryInitialDuration() time.Duration {
	return parseDurationOr(r.RetryInitial, time.Second)
}

func (r RenderConfig) RetryMaxDuration() time.Duration {
	return parseDurationOr(r.RetryMax, 30*time.Second)
}

// RoutesConfig points at the router table and declared route lists.
type RoutesConfig struct {
	RouterFile    string   `yaml:"router_file"`
	DeclaredFiles []string `yaml:"declared_files"`
}

type SitemapConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host"`
	File    string `yaml:"file"`
}

func (s SitemapConfig) IsEnabled() bool { return boolOr(s.Enabled, true) }

// HistoryConfig enables the SQLite export history when Database is set.
type HistoryConfig struct {
	Database string `yaml:"database"`
}

// NotifyConfig enables NATS lifecycle notifications when NatsURL is set.
type NotifyConfig struct {
	NatsURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// WatchConfig controls re-export triggers of the watch command.
type WatchConfig struct {
	Paths    []string `yaml:"paths"`
	Debounce string   `yaml:"debounce"`
	Interval string   `yaml:"interval"`
}

func (w WatchConfig) DebounceDuration() time.Duration {
	return parseDurationOr(w.Debounce, 2*time.Second)
}

// IntervalDuration returns the periodic re-export interval, zero when disabled.
func (w WatchConfig) IntervalDuration() time.Duration {
	return parseDurationOr(w.Interval, 0)
}

type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads, normalizes, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
			WithContext("path", configPath).
			Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	return Parse(data)
}

// Parse builds a configuration from raw YAML, expanding ${VAR} references first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config").Fatal().Build()
	}

	if cfg.Version != "" && cfg.Version != CurrentVersion {
		return nil, errors.ConfigError(fmt.Sprintf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)).Build()
	}

	if res, err := NormalizeConfig(&cfg); err != nil {
		return nil, err
	} else {
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
		}
	}

	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, err
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultStagingDir returns the staging directory used when export.staging_dir is empty.
func DefaultStagingDir(outputDir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(outputDir)), DefaultStagingName)
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func boolPtr(b bool) *bool { return &b }

func parseDurationOr(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
