package routes

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRouter reads a router table from a YAML or JSON file.
func LoadRouter(path string) ([]RouteNode, error) {
	var nodes []RouteNode
	if err := decodeFile(path, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// LoadDeclared reads declared route lists from YAML or JSON files, preserving
// file order and entry order.
func LoadDeclared(paths ...string) ([]Declared, error) {
	var all []Declared
	for _, p := range paths {
		var ds []Declared
		if err := decodeFile(p, &ds); err != nil {
			return nil, err
		}
		for i, d := range ds {
			if d.Route == "" {
				return nil, fmt.Errorf("%s: entry %d has no route", p, i)
			}
		}
		all = append(all, ds...)
	}
	return all, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
