package rules

import (
	"strings"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
)

// StructureNavigation covers how the site hangs together: discoverability,
// link health, and whether a visitor can get from the homepage to contact.
var StructureNavigation = []Check{
	{
		Name:        "Has sitemap.xml?",
		Description: "Site publishes an XML sitemap.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			if f.Structure.HasSitemapXML {
				return grade(domain.StatusOK, "sitemap.xml discovered")
			}
			return grade(domain.StatusOFI, "no sitemap.xml found at the usual paths")
		},
	},
	{
		Name:        "Internal linking density healthy?",
		Description: "Pages link generously into the rest of the site.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			pages := f.Structure.AllPages()
			total := 0
			for _, p := range pages {
				total += len(p.Links.Internal)
			}
			avg := total / len(pages)
			return grade(linkDensity.Grade(avg), "%d internal links across %d pages (avg %d/page)", total, len(pages), avg)
		},
	},
	{
		Name:        "No broken links found?",
		Description: "Anchors resolve to real destinations.",
		Importance:  domain.ImportanceHigh,
		Run: func(f Facts) fn.Result[Outcome] {
			count, sample := 0, ""
			for _, p := range f.Structure.AllPages() {
				count += len(p.Links.Broken)
				if sample == "" && len(p.Links.Broken) > 0 {
					sample = p.URL
				}
			}
			switch {
			case count == 0:
				return grade(domain.StatusOK, "no broken anchors on crawled pages")
			case count <= brokenLinkOFILimit:
				return grade(domain.StatusOFI, "%d broken anchors, first seen on %s", count, sample)
			default:
				return grade(domain.StatusPriorityOFI, "%d broken anchors, first seen on %s", count, sample)
			}
		},
	},
	{
		Name:        "Site has crawlable depth?",
		Description: "Crawl reached a meaningful number of pages.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			n := f.Structure.TotalPages()
			return grade(siteDepth.Grade(n), "crawl reached %d pages", n)
		},
	},
	{
		Name:        "Contact page reachable from homepage?",
		Description: "Homepage links straight to the contact page.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			c := f.Structure.ContactPage
			if c == nil {
				return skipf("no contact page identified")
			}
			if linksTo(f.Structure.Homepage, c.URL) {
				return grade(domain.StatusOK, "homepage links to %s", c.URL)
			}
			return grade(domain.StatusOFI, "homepage does not link to %s", c.URL)
		},
	},
	{
		Name:        "Robots directives present?",
		Description: "Homepage declares an explicit robots meta tag.",
		Importance:  domain.ImportanceLow,
		Run: func(f Facts) fn.Result[Outcome] {
			if f.Structure.Homepage.HasRobotsMeta {
				return grade(domain.StatusOK, "homepage carries a robots meta tag")
			}
			return grade(domain.StatusOFI, "no robots meta tag on homepage")
		},
	},
	{
		Name:        "URLs free of query parameters?",
		Description: "Internal links resolve to clean paths.",
		Importance:  domain.ImportanceLow,
		Run: func(f Facts) fn.Result[Outcome] {
			total, clean := 0, 0
			for _, p := range f.Structure.AllPages() {
				for _, u := range p.Links.Internal {
					total++
					if !strings.Contains(u, "?") {
						clean++
					}
				}
			}
			if total == 0 {
				return skipf("no internal links recorded")
			}
			r := float64(clean) / float64(total)
			return grade(cleanURLShare.Grade(r), "%d of %d internal links are parameter-free (%s)", clean, total, pct(r))
		},
	},
	{
		Name:        "Heading hierarchy in place?",
		Description: "Pages structure copy under an h1 with subheadings.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			r := ratio(f.Structure.AllPages(), func(p domain.PageCrawlResult) bool {
				return len(p.Headings.H1) > 0 && len(p.Headings.H2)+len(p.Headings.H3) > 0
			})
			return grade(headingCoverage.Grade(r), "%s of pages pair an h1 with subheadings", pct(r))
		},
	},
}
