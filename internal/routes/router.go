package routes

import "strings"

// RouteNode is one entry of the application router table.
type RouteNode struct {
	Path     string      `yaml:"path" json:"path"`
	Name     string      `yaml:"name,omitempty" json:"name,omitempty"`
	Children []RouteNode `yaml:"children,omitempty" json:"children,omitempty"`
}

// Flatten walks the nested router table depth-first and returns the path
// templates of all leaf routes, children in declaration order.
// A child with an empty path consumes the trailing slash of its parent.
func Flatten(nodes []RouteNode) []string {
	return flatten(nodes, "", nil)
}

func flatten(nodes []RouteNode, prefix string, out []string) []string {
	for _, n := range nodes {
		if n.Children != nil {
			out = flatten(n.Children, prefix+n.Path+"/", out)
			continue
		}
		base := prefix
		if n.Path == "" && strings.HasSuffix(base, "/") {
			base = base[:len(base)-1]
		}
		out = append(out, base+n.Path)
	}
	return out
}
