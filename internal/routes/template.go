package routes

import (
	"fmt"
	"net/url"

	pathtoregexp "github.com/soongo/path-to-regexp"
)

// Param describes one dynamic segment of a path template. Unnamed groups are
// named by their index.
type Param struct {
	Name     string
	Prefix   string
	Pattern  string
	Modifier string
}

// Optional reports whether the parameter may be omitted.
func (p Param) Optional() bool {
	return p.Modifier == "?" || p.Modifier == "*"
}

// Params returns the parameters of a path template in declaration order.
func Params(path string) ([]Param, error) {
	tokens, err := pathtoregexp.Parse(path, nil)
	if err != nil {
		return nil, fmt.Errorf("parse route template %q: %w", path, err)
	}
	var params []Param
	for _, t := range tokens {
		tok, ok := t.(pathtoregexp.Token)
		if !ok {
			continue
		}
		params = append(params, Param{
			Name:     fmt.Sprint(tok.Name),
			Prefix:   tok.Prefix,
			Pattern:  tok.Pattern,
			Modifier: tok.Modifier,
		})
	}
	return params, nil
}

// PathFunc renders a concrete path from parameter values. A missing key means
// the parameter is omitted.
type PathFunc func(values map[string]string) (string, error)

// Compile turns a path template into a PathFunc. Values are path-escaped and
// must match the parameter pattern; omitted optional parameters drop their prefix.
func Compile(path string) (PathFunc, error) {
	toPath, err := pathtoregexp.Compile(path, &pathtoregexp.Options{Encode: encodeSegment})
	if err != nil {
		return nil, fmt.Errorf("compile route template %q: %w", path, err)
	}
	return func(values map[string]string) (string, error) {
		if values == nil {
			values = map[string]string{}
		}
		return toPath(values)
	}, nil
}

func encodeSegment(value string, _ interface{}) string {
	return url.PathEscape(value)
}
