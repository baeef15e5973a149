package rules

import (
	"strings"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
)

// serviceTitleTerms is the vocabulary a service page title is expected to
// draw from. Matched against the lowercased title.
var serviceTitleTerms = []string{
	"service", "repair", "install", "maintenance", "replacement",
	"cleaning", "plumbing", "hvac", "roofing", "electrical", "remodel",
	"restoration", "landscaping", "solution", "product", "offering",
}

// ServicePages grades the pages that describe what the business sells.
var ServicePages = []Check{
	{
		Name:        "Uses service pages?",
		Description: "Site dedicates pages to individual services.",
		Importance:  domain.ImportanceHigh,
		Run: func(f Facts) fn.Result[Outcome] {
			if n := len(f.Structure.ServicePages); n > 0 {
				return grade(domain.StatusOK, "%d service pages found", n)
			}
			return grade(domain.StatusPriorityOFI, "no service pages found")
		},
	},
	{
		Name:        "Enough service pages?",
		Description: "Each core service gets its own page.",
		Importance:  domain.ImportanceMedium,
		Run: withServices(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			return grade(serviceCount.Grade(len(pages)), "%d service pages found", len(pages))
		}),
	},
	{
		Name:        "Service titles carry service terms?",
		Description: "Titles name the service being offered.",
		Importance:  domain.ImportanceMedium,
		Run: withServices(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			r := ratio(pages, func(p domain.PageCrawlResult) bool {
				return containsAny(strings.ToLower(p.Title), serviceTitleTerms)
			})
			return grade(serviceTitleShare.Grade(r), "%s of service titles name a service", pct(r))
		}),
	},
	{
		Name:        "Service content depth?",
		Description: "Service pages carry enough copy to rank.",
		Importance:  domain.ImportanceMedium,
		Run: withServices(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			r := ratio(pages, func(p domain.PageCrawlResult) bool {
				return p.WordCount >= servicePageWordFloor
			})
			return grade(serviceDepthShare.Grade(r), "%s of service pages exceed %d words", pct(r), servicePageWordFloor)
		}),
	},
	{
		Name:        "Service pages use schema?",
		Description: "Structured data marks the service offering.",
		Importance:  domain.ImportanceLow,
		Run: withServices(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			r := ratio(pages, func(p domain.PageCrawlResult) bool { return p.HasSchema })
			return grade(serviceSchemaShare.Grade(r), "%s of service pages embed structured data", pct(r))
		}),
	},
	{
		Name:        "Service pages link to contact?",
		Description: "Each service page offers a path to conversion.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			pages := f.Structure.ServicePages
			if len(pages) == 0 {
				return skipf("no service pages found")
			}
			c := f.Structure.ContactPage
			if c == nil {
				return skipf("no contact page identified")
			}
			r := ratio(pages, func(p domain.PageCrawlResult) bool {
				return linksTo(p, c.URL)
			})
			return grade(serviceContactShare.Grade(r), "%s of service pages link to %s", pct(r), c.URL)
		},
	},
	{
		Name:        "Service pages include imagery?",
		Description: "Pages show the work, not just describe it.",
		Importance:  domain.ImportanceLow,
		Run: withServices(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			r := ratio(pages, func(p domain.PageCrawlResult) bool {
				return p.Images.Total > 0
			})
			return grade(serviceImageShare.Grade(r), "%s of service pages include images", pct(r))
		}),
	},
}

// withServices lifts a bucket-scoped check into a Facts check, skipping
// when the crawl found no service pages.
func withServices(run func([]domain.PageCrawlResult) fn.Result[Outcome]) func(Facts) fn.Result[Outcome] {
	return func(f Facts) fn.Result[Outcome] {
		if len(f.Structure.ServicePages) == 0 {
			return skipf("no service pages found")
		}
		return run(f.Structure.ServicePages)
	}
}
