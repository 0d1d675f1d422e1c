package routes

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/langexport/internal/logfields"
)

// Declared is a route supplied by a content provider together with its payload.
type Declared struct {
	Route   string  `json:"route" yaml:"route"`
	Payload Payload `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// IsLangOnly reports whether the template's only parameter is the language marker.
// Templates that do not parse are never language-only.
func IsLangOnly(path string) bool {
	params, err := Params(path)
	if err != nil {
		return false
	}
	return len(params) == 1 && params[0].Name == LangParam
}

// BuildSet computes the final list of routes to render. Declared routes are
// expanded first, then router-derived templates whose only parameter is the
// language marker. Templates combining the language with other parameters are
// skipped; those pages must come from the declared routes. The first occurrence
// of a concrete route wins.
func BuildSet(langs LangSet, declared []Declared, routerPaths []string) ([]Variant, error) {
	var out []Variant
	seen := make(map[string]struct{})
	add := func(vs []Variant) {
		for _, v := range vs {
			if _, dup := seen[v.Route]; dup {
				continue
			}
			seen[v.Route] = struct{}{}
			out = append(out, v)
		}
	}

	for _, d := range declared {
		params, err := Params(d.Route)
		if err != nil {
			return nil, fmt.Errorf("declared route %q: %w", d.Route, err)
		}
		for _, p := range params {
			if p.Name == LangParam {
				return nil, fmt.Errorf("declared route %q must not contain the %s parameter", d.Route, LangParam)
			}
		}
		vs, err := langs.Interpolate(langs.AddLangParam(d.Route), d.Payload)
		if err != nil {
			return nil, fmt.Errorf("declared route %q: %w", d.Route, err)
		}
		add(vs)
	}

	for _, tmpl := range routerPaths {
		if !IsLangOnly(tmpl) {
			slog.Debug("Skipping router route", logfields.Route(tmpl))
			continue
		}
		vs, err := langs.Interpolate(tmpl, nil)
		if err != nil {
			return nil, fmt.Errorf("router route %q: %w", tmpl, err)
		}
		add(vs)
	}
	return out, nil
}
