package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

var languageCodePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateConfig validates a normalized, defaulted configuration.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateStaticGenerate(); err != nil {
		return err
	}
	if err := cv.validateExport(); err != nil {
		return err
	}
	if err := cv.validateRender(); err != nil {
		return err
	}
	return cv.validateDurations()
}

// ValidateLanguages checks the language list and the default language. It is shared with
// callers that assemble module options without a config file.
func ValidateLanguages(langs []string, defaultLang string) error {
	if len(langs) == 0 {
		return errors.ConfigError("At least one language should be configured.").Build()
	}
	for _, code := range langs {
		if !languageCodePattern.MatchString(code) {
			return errors.ConfigError(fmt.Sprintf("invalid language code %q", code)).
				WithContext("language", code).
				Build()
		}
	}
	if !slices.Contains(langs, defaultLang) {
		return errors.ConfigError(fmt.Sprintf("Default language %q must be included in list of languages.", defaultLang)).
			WithContext("default_language", defaultLang).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateStaticGenerate() error {
	sg := cv.config.StaticGenerate
	if err := ValidateLanguages(sg.GenerateLanguages, sg.DefaultLanguage); err != nil {
		return err
	}
	for _, name := range sg.RequiredFilesModules {
		if err := validatePlainName("static_generate.required_files_modules", name); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateExport() error {
	ex := cv.config.Export
	if err := validatePlainName("export.assets_dir", ex.AssetsDir); err != nil {
		return err
	}
	if err := validatePlainName("export.fallback_file", ex.FallbackFile); err != nil {
		return err
	}
	if ex.Concurrency < 1 {
		return errors.ConfigError("export.concurrency must be at least 1").Build()
	}

	out, err := filepath.Abs(ex.OutputDir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid export.output_dir").Fatal().Build()
	}
	staging, err := filepath.Abs(ex.StagingDir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid export.staging_dir").Fatal().Build()
	}
	if within(out, staging) || within(staging, out) {
		return errors.ConfigError("export.staging_dir must not overlap export.output_dir").
			WithContext("output_dir", out).
			WithContext("staging_dir", staging).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateRender() error {
	u, err := url.Parse(cv.config.Render.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.ConfigError(fmt.Sprintf("render.base_url must be an absolute http(s) URL, got %q", cv.config.Render.BaseURL)).Build()
	}
	return nil
}

func (cv *configurationValidator) validateDurations() error {
	fields := []struct{ name, raw string }{
		{"render.timeout", cv.config.Render.Timeout},
		{"render.retry_initial", cv.config.Render.RetryInitial},
		{"render.retry_max", cv.config.Render.RetryMax},
		{"watch.debounce", cv.config.Watch.Debounce},
		{"watch.interval", cv.config.Watch.Interval},
	}
	for _, f := range fields {
		field, raw := f.name, f.raw
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("invalid %s duration %q", field, raw)).Fatal().Build()
		}
		if d < 0 {
			return errors.ConfigError(fmt.Sprintf("%s must not be negative", field)).Build()
		}
	}
	return nil
}

// validatePlainName requires a single top-level entry name of the output tree.
func validatePlainName(field, name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.ConfigError(fmt.Sprintf("%s must be a plain file or directory name, got %q", field, name)).Build()
	}
	return nil
}

// within reports whether path equals dir or lies beneath it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
