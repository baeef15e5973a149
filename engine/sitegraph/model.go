// Package sitegraph persists crawled site structures and audit reports to
// Neo4j, so repeat audits of the same site can be compared over time.
package sitegraph

import (
	"fmt"
	"time"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/google/uuid"
)

// Page is one crawled page node.
type Page struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	WordCount int    `json:"word_count"`
	HTTPS     bool   `json:"https"`
}

// Link is an internal edge between two crawled pages.
type Link struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// AuditRecord is the stored summary of one audit run. The ID is derived
// from the site URL and timestamp, so re-saving the same run is idempotent.
type AuditRecord struct {
	ID          string    `json:"id"`
	SiteURL     string    `json:"site_url"`
	Timestamp   time.Time `json:"timestamp"`
	PriorityOFI int       `json:"priority_ofi"`
	OFI         int       `json:"ofi"`
	OK          int       `json:"ok"`
	NA          int       `json:"na"`
	Total       int       `json:"total"`
}

// Finding is one stored audit item, tagged with its category.
type Finding struct {
	Category   string `json:"category"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Importance string `json:"importance"`
	Notes      string `json:"notes"`
}

// pagesOf flattens a site structure into Page nodes.
func pagesOf(s domain.SiteStructure) []Page {
	kind := func(p domain.PageCrawlResult, k domain.PageKind) Page {
		return Page{
			URL:       p.URL,
			Title:     p.Title,
			Kind:      string(k),
			WordCount: p.WordCount,
			HTTPS:     p.HasHTTPS,
		}
	}

	pages := []Page{kind(s.Homepage, domain.KindHome)}
	if s.ContactPage != nil {
		pages = append(pages, kind(*s.ContactPage, domain.KindContact))
	}
	for _, p := range s.ServicePages {
		pages = append(pages, kind(p, domain.KindService))
	}
	for _, p := range s.LocationPages {
		pages = append(pages, kind(p, domain.KindLocation))
	}
	for _, p := range s.ServiceAreaPages {
		pages = append(pages, kind(p, domain.KindServiceArea))
	}
	for _, p := range s.OtherPages {
		pages = append(pages, kind(p, domain.KindOther))
	}
	return pages
}

// linksOf returns the internal edges between crawled pages. Links pointing
// at URLs the crawl never reached are dropped so the graph only holds real
// nodes.
func linksOf(s domain.SiteStructure) []Link {
	crawled := make(map[string]bool)
	for _, p := range s.AllPages() {
		crawled[p.URL] = true
	}

	var links []Link
	seen := make(map[Link]bool)
	for _, p := range s.AllPages() {
		for _, to := range p.Links.Internal {
			if !crawled[to] || to == p.URL {
				continue
			}
			l := Link{From: p.URL, To: to}
			if seen[l] {
				continue
			}
			seen[l] = true
			links = append(links, l)
		}
	}
	return links
}

// recordOf summarizes a report as an AuditRecord with a deterministic ID.
func recordOf(r domain.RivalAudit) AuditRecord {
	key := fmt.Sprintf("%s|%s", r.URL, r.Timestamp.UTC().Format(time.RFC3339))
	return AuditRecord{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String(),
		SiteURL:     r.URL,
		Timestamp:   r.Timestamp.UTC(),
		PriorityOFI: r.Summary.PriorityOFICount,
		OFI:         r.Summary.OFICount,
		OK:          r.Summary.OKCount,
		NA:          r.Summary.NACount,
		Total:       r.Summary.Total,
	}
}

// categoryNames mirrors the report's JSON field names, in report order.
var categoryNames = []string{
	"on_page",
	"structure_navigation",
	"contact_page",
	"service_pages",
	"location_pages",
	"service_area_pages",
}

// findingsOf flattens a report's items, tagging each with its category.
func findingsOf(r domain.RivalAudit) []Finding {
	var out []Finding
	for i, cat := range r.Categories() {
		for _, item := range cat.Items {
			out = append(out, Finding{
				Category:   categoryNames[i],
				Name:       item.Name,
				Status:     string(item.Status),
				Importance: string(item.Importance),
				Notes:      item.Notes,
			})
		}
	}
	return out
}
