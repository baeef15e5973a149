package crawl

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OutrankHQ/siteaudit/pkg/fn"
	"github.com/antchfx/xmlquery"
)

// sitemapTimeout bounds each sitemap request. Discovery is advisory and must
// never hold up the crawl.
const sitemapTimeout = 5 * time.Second

const maxSitemapBytes = 4 << 20

// discoverSitemap probes the conventional locations, /sitemap.xml first and
// /sitemap_index.xml as fallback. When a location turns out to be a sitemap
// index, only its first child sitemap is expanded. Returns normalized
// same-site page URLs and whether any sitemap responded at all.
func discoverSitemap(ctx context.Context, client *http.Client, agent string, seed *url.URL) ([]string, bool) {
	origin := seed.Scheme + "://" + seed.Host

	for _, path := range []string{"/sitemap.xml", "/sitemap_index.xml"} {
		pages, children, ok := fetchSitemap(ctx, client, agent, origin+path)
		if !ok {
			continue
		}
		if len(pages) == 0 && len(children) > 0 {
			if sub, _, subOK := fetchSitemap(ctx, client, agent, children[0]); subOK {
				pages = sub
			}
		}
		return sameSitePages(seed, pages), true
	}
	return nil, false
}

// fetchSitemap retrieves one sitemap document and splits its entries into
// page locations (//url/loc) and child sitemap locations (//sitemap/loc).
// Any fetch or parse failure reports ok=false.
func fetchSitemap(ctx context.Context, client *http.Client, agent, loc string) (pages, children []string, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, sitemapTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, nil, false
	}
	req.Header.Set("User-Agent", agent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, false
	}

	doc, err := xmlquery.Parse(io.LimitReader(resp.Body, maxSitemapBytes))
	if err != nil {
		return nil, nil, false
	}

	xmlquery.FindEach(doc, "//url/loc", func(_ int, n *xmlquery.Node) {
		if t := strings.TrimSpace(n.InnerText()); t != "" {
			pages = append(pages, t)
		}
	})
	xmlquery.FindEach(doc, "//sitemap/loc", func(_ int, n *xmlquery.Node) {
		if t := strings.TrimSpace(n.InnerText()); t != "" {
			children = append(children, t)
		}
	})
	return pages, children, true
}

func sameSitePages(seed *url.URL, locs []string) []string {
	var out []string
	for _, loc := range locs {
		u, err := url.Parse(loc)
		if err != nil {
			continue
		}
		if !sameSite(seed.Hostname(), u.Hostname()) {
			continue
		}
		out = append(out, Normalize(loc))
	}
	return fn.Unique(out)
}
