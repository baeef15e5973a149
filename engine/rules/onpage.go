package rules

import (
	"strings"
	"unicode/utf8"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
)

// OnPage covers sitewide content and markup hygiene, anchored on the
// homepage where a single page is the natural subject.
var OnPage = []Check{
	{
		Name:        "Has SSL?",
		Description: "Site is served over HTTPS.",
		Importance:  domain.ImportanceHigh,
		Run: func(f Facts) fn.Result[Outcome] {
			if f.Structure.Homepage.HasHTTPS {
				return grade(domain.StatusOK, "homepage served over https")
			}
			return grade(domain.StatusPriorityOFI, "homepage served over plain http")
		},
	},
	{
		Name:        "Is site mobile friendly?",
		Description: "Pages declare a responsive viewport.",
		Importance:  domain.ImportanceHigh,
		Run: func(f Facts) fn.Result[Outcome] {
			r := ratio(f.Structure.AllPages(), func(p domain.PageCrawlResult) bool {
				return p.MobileFriendly
			})
			return grade(mobileCoverage.Grade(r), "%s of crawled pages declare a viewport", pct(r))
		},
	},
	{
		Name:        "Has schema markup?",
		Description: "Homepage embeds structured data.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			h := f.Structure.Homepage
			if h.HasSchema {
				return grade(domain.StatusOK, "homepage schema types: %s", strings.Join(h.SchemaTypes, ", "))
			}
			return grade(domain.StatusOFI, "no structured data found on homepage")
		},
	},
	{
		Name:        "Title tag length optimized?",
		Description: "Homepage title fits the search snippet window.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			n := utf8.RuneCountInString(strings.TrimSpace(f.Structure.Homepage.Title))
			return grade(titleSpan.Grade(n), "homepage title is %d characters (target %d-%d)", n, titleSpan.Min, titleSpan.Max)
		},
	},
	{
		Name:        "Meta description length optimized?",
		Description: "Homepage meta description fits the snippet window.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			n := utf8.RuneCountInString(strings.TrimSpace(f.Structure.Homepage.MetaDescription))
			if n == 0 {
				return grade(domain.StatusPriorityOFI, "homepage has no meta description")
			}
			return grade(metaDescSpan.Grade(n), "homepage meta description is %d characters (target %d-%d)", n, metaDescSpan.Min, metaDescSpan.Max)
		},
	},
	{
		Name:        "Pages have H1 headings?",
		Description: "Each page exposes a top-level heading.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			r := ratio(f.Structure.AllPages(), func(p domain.PageCrawlResult) bool {
				return len(p.Headings.H1) > 0
			})
			return grade(h1Coverage.Grade(r), "%s of crawled pages carry an h1", pct(r))
		},
	},
	{
		Name:        "Homepage content depth?",
		Description: "Homepage carries substantive copy.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			n := f.Structure.Homepage.WordCount
			return grade(homepageWords.Grade(n), "homepage body is %d words", n)
		},
	},
	{
		Name:        "Keyword focus apparent?",
		Description: "Homepage copy repeats a recognizable topic term.",
		Importance:  domain.ImportanceLow,
		Run: func(f Facts) fn.Result[Outcome] {
			word, count := topTerm(f.Structure.Homepage.KeywordDensity)
			if count == 0 {
				return grade(domain.StatusOFI, "no recurring terms found in homepage copy")
			}
			if count >= keywordFocusMin {
				return grade(domain.StatusOK, "strongest term %q appears %d times", word, count)
			}
			return grade(domain.StatusOFI, "strongest term %q appears only %d times", word, count)
		},
	},
	{
		Name:        "Content readability reasonable?",
		Description: "Copy scores as plain language on the Flesch scale.",
		Importance:  domain.ImportanceLow,
		Run: func(f Facts) fn.Result[Outcome] {
			r := ratio(f.Structure.AllPages(), func(p domain.PageCrawlResult) bool {
				return p.ReadabilityScore >= readabilityFloor
			})
			return grade(readableShare.Grade(r), "%s of pages read at or above %.0f on the Flesch scale", pct(r), readabilityFloor)
		},
	},
	{
		Name:        "Images have alt text?",
		Description: "Images carry alternative text.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			total, withAlt := 0, 0
			for _, p := range f.Structure.AllPages() {
				total += p.Images.Total
				withAlt += p.Images.WithAlt
			}
			if total == 0 {
				return skipf("no images found on crawled pages")
			}
			r := float64(withAlt) / float64(total)
			return grade(altTextCoverage.Grade(r), "%d of %d images have alt text (%s)", withAlt, total, pct(r))
		},
	},
	{
		Name:        "Page speed acceptable?",
		Description: "Homepage load performance score.",
		Importance:  domain.ImportanceMedium,
		Run: func(f Facts) fn.Result[Outcome] {
			s := f.Structure.Homepage.PageLoadSpeed.Score
			return grade(speedScore.Grade(s), "homepage speed score %d/100", s)
		},
	},
	{
		Name:        "Social sharing tags present?",
		Description: "Pages declare Open Graph or Twitter card tags.",
		Importance:  domain.ImportanceLow,
		Run: func(f Facts) fn.Result[Outcome] {
			r := ratio(f.Structure.AllPages(), func(p domain.PageCrawlResult) bool {
				return p.HasSocialTags
			})
			return grade(socialTagShare.Grade(r), "%s of pages carry social sharing tags", pct(r))
		},
	},
	{
		Name:        "Canonical tags in use?",
		Description: "Pages declare a canonical URL.",
		Importance:  domain.ImportanceLow,
		Run: func(f Facts) fn.Result[Outcome] {
			r := ratio(f.Structure.AllPages(), func(p domain.PageCrawlResult) bool {
				return p.HasCanonical
			})
			return grade(canonicalShare.Grade(r), "%s of pages declare a canonical", pct(r))
		},
	},
}

// topTerm picks the most repeated keyword, breaking count ties on the
// lexicographically smaller word so the check stays deterministic.
func topTerm(density map[string]int) (string, int) {
	word, count := "", 0
	for w, n := range density {
		if n > count || (n == count && count > 0 && w < word) {
			word, count = w, n
		}
	}
	return word, count
}
