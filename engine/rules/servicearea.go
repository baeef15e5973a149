package rules

import (
	"regexp"
	"strings"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
)

// geoTitleRe matches a geographic preposition followed by a capitalized
// place name, the shape of a title like "AC Repair in Round Rock".
var geoTitleRe = regexp.MustCompile(`\b(?:in|near|serving)\s+[A-Z][A-Za-z]+`)

// ServiceAreaPages grades combined place-plus-service pages. These pages
// are the most templated on trade sites, so duplicate copy is the headline
// check.
var ServiceAreaPages = []Check{
	{
		Name:        "Uses service area pages?",
		Description: "Site targets place-plus-service queries.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			if n := len(f.Structure.ServiceAreaPages); n > 0 {
				return grade(domain.StatusOK, "%d service area pages found", n)
			}
			return grade(domain.StatusOFI, "no service area pages found")
		},
	},
	{
		Name:        "Enough service area pages?",
		Description: "Coverage matches the served territory.",
		Importance:  domain.ImportanceLow,
		Run: withAreas(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			return grade(areaCount.Grade(len(pages)), "%d service area pages found", len(pages))
		}),
	},
	{
		Name:        "Service area pages have unique content?",
		Description: "Area pages are written, not find-and-replaced.",
		Importance:  domain.ImportanceHigh,
		Run: func(f Facts) fn.Result[Outcome] {
			if len(f.Structure.ServiceAreaPages) <= 1 {
				return skipf("fewer than two service area pages")
			}
			if f.ServiceAreaUniqueness.Unique {
				return grade(domain.StatusOK, "no near-duplicate service area pages")
			}
			return grade(domain.StatusPriorityOFI, "near-duplicate service area pages: %s", pairNotes(f.ServiceAreaUniqueness))
		},
	},
	{
		Name:        "Area titles combine place and service?",
		Description: "Titles pair the service with the place it targets.",
		Importance:  domain.ImportanceMedium,
		Run: withAreas(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			r := ratio(pages, func(p domain.PageCrawlResult) bool {
				return geoTitleRe.MatchString(p.Title) &&
					containsAny(strings.ToLower(p.Title), serviceTitleTerms)
			})
			return grade(areaTitleShare.Grade(r), "%s of area titles pair a place with a service", pct(r))
		}),
	},
	{
		Name:        "Service area content depth?",
		Description: "Area pages carry more than a templated paragraph.",
		Importance:  domain.ImportanceMedium,
		Run: withAreas(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			r := ratio(pages, func(p domain.PageCrawlResult) bool {
				return p.WordCount >= areaPageWordFloor
			})
			return grade(areaDepthShare.Grade(r), "%s of area pages exceed %d words", pct(r), areaPageWordFloor)
		}),
	},
	{
		Name:        "Service area pages interlinked?",
		Description: "Area pages link back into the rest of the site.",
		Importance:  domain.ImportanceLow,
		Run: withAreas(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			r := ratio(pages, func(p domain.PageCrawlResult) bool {
				return len(p.Links.Internal) > 0
			})
			return grade(areaLinkShare.Grade(r), "%s of area pages link internally", pct(r))
		}),
	},
}

// withAreas lifts a bucket-scoped check into a Facts check, skipping when
// the crawl found no service area pages.
func withAreas(run func([]domain.PageCrawlResult) fn.Result[Outcome]) func(Facts) fn.Result[Outcome] {
	return func(f Facts) fn.Result[Outcome] {
		if len(f.Structure.ServiceAreaPages) == 0 {
			return skipf("no service area pages found")
		}
		return run(f.Structure.ServiceAreaPages)
	}
}
