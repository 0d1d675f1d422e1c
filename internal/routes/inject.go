package routes

import (
	"fmt"
	"maps"
	"regexp"
	"strings"
)

// LangParam is the name of the language path parameter.
const LangParam = "lang"

// Payload is render-time data handed to a page.
type Payload map[string]any

// Variant is one concrete route to render together with its payload.
type Variant struct {
	Route   string  `json:"route" yaml:"route"`
	Lang    string  `json:"lang" yaml:"lang"`
	Payload Payload `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// LangSet is the language configuration the injector works with.
// Explicit lists the codes reachable through a path prefix; Default is rendered
// unprefixed.
type LangSet struct {
	Default  string
	Explicit []string
}

// AddLangParam prefixes path with an optional language parameter constrained to
// the explicit language codes.
func (s LangSet) AddLangParam(path string) string {
	if len(s.Explicit) == 0 {
		return "/:" + LangParam + "?" + path
	}
	quoted := make([]string, len(s.Explicit))
	for i, code := range s.Explicit {
		quoted[i] = regexp.QuoteMeta(code)
	}
	return fmt.Sprintf("/:%s(%s)?%s", LangParam, strings.Join(quoted, "|"), path)
}

// Interpolate expands a template carrying the language parameter into one
// variant per explicit language plus the unprefixed default variant.
func (s LangSet) Interpolate(path string, payload Payload) ([]Variant, error) {
	compiled, err := Compile(path)
	if err != nil {
		return nil, err
	}
	toPath := func(values map[string]string) (string, error) {
		route, err := compiled(values)
		if route == "" && err == nil {
			route = "/"
		}
		return route, err
	}

	variants := make([]Variant, 0, len(s.Explicit)+1)
	for _, code := range s.Explicit {
		route, err := toPath(map[string]string{LangParam: code})
		if err != nil {
			return nil, fmt.Errorf("interpolate %q for %s: %w", path, code, err)
		}
		variants = append(variants, Variant{Route: route, Lang: code, Payload: withLang(payload, code)})
	}

	route, err := toPath(nil)
	if err != nil {
		return nil, fmt.Errorf("interpolate %q for default language: %w", path, err)
	}
	variants = append(variants, Variant{Route: route, Lang: s.Default, Payload: withLang(payload, s.Default)})
	return variants, nil
}

func withLang(payload Payload, code string) Payload {
	out := make(Payload, len(payload)+1)
	maps.Copy(out, payload)
	out[LangParam] = code
	return out
}
