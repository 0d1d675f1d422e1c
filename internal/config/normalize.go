package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

// NormalizationResult captures adjustments & warnings from the normalization pass.
type NormalizationResult struct{ Warnings []string }

var lower = cases.Lower(language.Und)

// NormalizeConfig canonicalizes language codes and bounded fields prior to default application.
// It mutates the provided config in-place and returns a result describing any coercions.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, errors.InternalError("config nil").Build()
	}
	res := &NormalizationResult{}
	normalizeStaticGenerate(&c.StaticGenerate, res)
	normalizeExport(&c.Export, res)
	normalizeRender(&c.Render, res)
	return res, nil
}

func normalizeStaticGenerate(s *StaticGenerateConfig, res *NormalizationResult) {
	seen := make(map[string]struct{}, len(s.GenerateLanguages))
	langs := make([]string, 0, len(s.GenerateLanguages))
	for _, raw := range s.GenerateLanguages {
		code := NormalizeLanguageCode(raw)
		if code != raw {
			res.Warnings = append(res.Warnings, warnChanged("static_generate.generate_languages", raw, code))
		}
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			res.Warnings = append(res.Warnings, fmt.Sprintf("static_generate.generate_languages: duplicate %q dropped", code))
			continue
		}
		seen[code] = struct{}{}
		langs = append(langs, code)
	}
	if s.GenerateLanguages != nil {
		s.GenerateLanguages = langs
	}

	if s.DefaultLanguage != "" {
		code := NormalizeLanguageCode(s.DefaultLanguage)
		if code != s.DefaultLanguage {
			res.Warnings = append(res.Warnings, warnChanged("static_generate.default_language", s.DefaultLanguage, code))
			s.DefaultLanguage = code
		}
	}

	files := s.RequiredFilesModules[:0]
	for _, f := range s.RequiredFilesModules {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	s.RequiredFilesModules = files
}

func normalizeExport(e *ExportConfig, res *NormalizationResult) {
	if e.Concurrency < 0 {
		res.Warnings = append(res.Warnings, warnChanged("export.concurrency", e.Concurrency, 0))
		e.Concurrency = 0
	}
	if e.FallbackRoute != "" && !strings.HasPrefix(e.FallbackRoute, "/") {
		fixed := "/" + e.FallbackRoute
		res.Warnings = append(res.Warnings, warnChanged("export.fallback_route", e.FallbackRoute, fixed))
		e.FallbackRoute = fixed
	}
}

// NormalizeLanguageCode trims and lowercases a language code.
func NormalizeLanguageCode(raw string) string {
	return lower.String(strings.TrimSpace(raw))
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func normalizeRender(r *RenderConfig, res *NormalizationResult) {
	if r.Retries < 0 {
		res.Warnings = append(res.Warnings, warnChanged("render.retries", r.Retries, 0))
		r.Retries = 0
	}
	if r.RetryBackoff == "" {
		return
	}
	mode := RetryBackoffMode(lower.String(strings.TrimSpace(string(r.RetryBackoff))))
	switch mode {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		res.Warnings = append(res.Warnings, fmt.Sprintf("render.retry_backoff: unknown mode %q, using %q", r.RetryBackoff, RetryBackoffLinear))
		mode = RetryBackoffLinear
	}
	r.RetryBackoff = mode
}
