package rules

import (
	"net/url"
	"strings"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
)

// LocationPages grades city and branch pages. A single location page has
// nothing to be compared against, so every check past the first is
// inapplicable until the site has at least two.
var LocationPages = []Check{
	{
		Name:        "Uses location pages?",
		Description: "Site dedicates pages to the places it serves.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			if n := len(f.Structure.LocationPages); n > 0 {
				return grade(domain.StatusOK, "%d location pages found", n)
			}
			return grade(domain.StatusOFI, "no location pages found")
		},
	},
	{
		Name:        "Enough location pages?",
		Description: "Each served market gets its own page.",
		Importance:  domain.ImportanceLow,
		Run: withLocations(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			return grade(locationCount.Grade(len(pages)), "%d location pages found", len(pages))
		}),
	},
	{
		Name:        "Location pages list contact info?",
		Description: "Pages carry the local phone number and address.",
		Importance:  domain.ImportanceHigh,
		Run: withLocations(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			r := ratio(pages, func(p domain.PageCrawlResult) bool {
				return p.HasPhoneNumber && p.HasAddress
			})
			return grade(napCoverage.Grade(r), "%s of location pages list phone and address", pct(r))
		}),
	},
	{
		Name:        "Location content is unique?",
		Description: "Each location page stands on its own copy.",
		Importance:  domain.ImportanceHigh,
		Run: func(f Facts) fn.Result[Outcome] {
			if len(f.Structure.LocationPages) <= 1 {
				return skipf("fewer than two location pages")
			}
			if f.LocationUniqueness.Unique {
				return grade(domain.StatusOK, "no near-duplicate location pages")
			}
			return grade(domain.StatusPriorityOFI, "near-duplicate location pages: %s", pairNotes(f.LocationUniqueness))
		},
	},
	{
		Name:        "Location titles name the area?",
		Description: "Titles repeat the place the page targets.",
		Importance:  domain.ImportanceMedium,
		Run: withLocations(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			r := ratio(pages, titleNamesPlace)
			return grade(locationTitleShare.Grade(r), "%s of location titles name their area", pct(r))
		}),
	},
	{
		Name:        "Location pages use schema?",
		Description: "Structured data marks each branch.",
		Importance:  domain.ImportanceLow,
		Run: withLocations(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			r := ratio(pages, func(p domain.PageCrawlResult) bool { return p.HasSchema })
			return grade(locationSchemaShare.Grade(r), "%s of location pages embed structured data", pct(r))
		}),
	},
	{
		Name:        "Location content depth?",
		Description: "Location pages carry locally written copy.",
		Importance:  domain.ImportanceMedium,
		Run: withLocations(func(pages []domain.PageCrawlResult) fn.Result[Outcome] {
			r := ratio(pages, func(p domain.PageCrawlResult) bool {
				return p.WordCount >= locationPageWordFloor
			})
			return grade(locationDepthShare.Grade(r), "%s of location pages exceed %d words", pct(r), locationPageWordFloor)
		}),
	},
}

// withLocations lifts a bucket-scoped check into a Facts check. Checks in
// this table compare location pages against each other, so fewer than two
// renders them inapplicable.
func withLocations(run func([]domain.PageCrawlResult) fn.Result[Outcome]) func(Facts) fn.Result[Outcome] {
	return func(f Facts) fn.Result[Outcome] {
		if len(f.Structure.LocationPages) <= 1 {
			return skipf("fewer than two location pages")
		}
		return run(f.Structure.LocationPages)
	}
}

// titleNamesPlace reports whether a page title repeats a place token from
// its own URL slug.
func titleNamesPlace(p domain.PageCrawlResult) bool {
	u, err := url.Parse(p.URL)
	if err != nil {
		return false
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) == 0 {
		return false
	}
	title := strings.ToLower(p.Title)
	slug := strings.ReplaceAll(segs[len(segs)-1], "_", "-")
	for _, tok := range strings.Split(slug, "-") {
		if len(tok) >= 4 && strings.Contains(title, tok) {
			return true
		}
	}
	return false
}
