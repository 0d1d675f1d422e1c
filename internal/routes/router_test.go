package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	table := []RouteNode{
		{Path: "/:lang(ru|ua)?", Children: []RouteNode{
			{Path: ""},
			{Path: "about"},
			{Path: "news", Children: []RouteNode{
				{Path: ""},
				{Path: ":slug"},
			}},
		}},
		{Path: "/contacts"},
		{Path: "/empty", Children: []RouteNode{}},
		{Path: "*"},
	}

	got := Flatten(table)
	assert.Equal(t, []string{
		"/:lang(ru|ua)?",
		"/:lang(ru|ua)?/about",
		"/:lang(ru|ua)?/news",
		"/:lang(ru|ua)?/news/:slug",
		"/contacts",
		"*",
	}, got)
}

func TestFlattenStableOrder(t *testing.T) {
	table := []RouteNode{{Path: "/b"}, {Path: "/a"}, {Path: "/c"}}
	first := Flatten(table)
	for range 5 {
		assert.Equal(t, first, Flatten(table))
	}
	assert.Equal(t, []string{"/b", "/a", "/c"}, first)
}
