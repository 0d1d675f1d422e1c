package export

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/langexport/internal/logfields"
	"git.home.luguber.info/inful/langexport/internal/routes"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// BuildSitemap renders a sitemap listing every route once, in route order.
func BuildSitemap(host string, variants []routes.Variant) ([]byte, error) {
	host = strings.TrimRight(host, "/")
	set := sitemapURLSet{XMLNS: sitemapNS}
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if seen[v.Route] {
			continue
		}
		seen[v.Route] = true
		set.URLs = append(set.URLs, sitemapURL{Loc: host + v.Route})
	}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// stageSitemap writes the sitemap of all rendered routes into the output root.
func stageSitemap(_ context.Context, st *exportState) error {
	opts := st.ex.opts
	if !opts.SitemapEnabled {
		return nil
	}
	if opts.SitemapHost == "" {
		return newWarnStageError(StageSitemap, fmt.Errorf("sitemap host is not configured"))
	}
	data, err := BuildSitemap(opts.SitemapHost, st.rendered)
	if err != nil {
		return newFatalStageError(StageSitemap, err)
	}
	p := filepath.Join(opts.OutputDir, opts.SitemapFile)
	if err := writeFile(p, data); err != nil {
		return newFatalStageError(StageSitemap, fsError(err, "failed to write sitemap", p))
	}
	slog.Info("Sitemap written", logfields.Path(p), logfields.Count(len(st.rendered)))
	return nil
}
