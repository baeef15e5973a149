// Package rules turns crawled site facts into categorized audit findings.
// Each category is an ordered table of named, pure checks. A check either
// grades its facts or reports itself inapplicable; the runner renders the
// latter as an N/A finding and never lets one rule abort the audit.
package rules

import (
	"fmt"
	"strings"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/engine/similarity"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
)

// Facts is the read-only input shared by every check: the finished crawl
// plus the bucket uniqueness reports.
type Facts struct {
	Structure             domain.SiteStructure
	LocationUniqueness    similarity.Report
	ServiceAreaUniqueness similarity.Report
}

// Outcome is the judgment half of an AuditItem.
type Outcome struct {
	Status domain.Status
	Notes  string
}

// Check is one named audit rule. Run must be pure: same facts, same result.
type Check struct {
	Name        string
	Description string
	Importance  domain.Importance
	Run         func(Facts) fn.Result[Outcome]
}

// grade wraps a status and printf-style notes as a successful outcome.
func grade(status domain.Status, format string, args ...any) fn.Result[Outcome] {
	return fn.Ok(Outcome{Status: status, Notes: fmt.Sprintf(format, args...)})
}

// skipf marks a check structurally inapplicable; the runner renders it as
// N/A with the reason in the notes.
func skipf(format string, args ...any) fn.Result[Outcome] {
	return fn.Errf[Outcome](format, args...)
}

// RunChecks evaluates one category table against facts, in table order.
func RunChecks(checks []Check, facts Facts) []domain.AuditItem {
	items := make([]domain.AuditItem, 0, len(checks))
	for _, c := range checks {
		items = append(items, runCheck(c, facts))
	}
	return items
}

func runCheck(c Check, facts Facts) (item domain.AuditItem) {
	item = domain.AuditItem{
		Name:        c.Name,
		Description: c.Description,
		Importance:  c.Importance,
		Status:      domain.StatusNA,
	}
	defer func() {
		if r := recover(); r != nil {
			item.Status = domain.StatusNA
			item.Notes = fmt.Sprintf("check aborted: %v", r)
		}
	}()

	out, err := c.Run(facts).Unwrap()
	if err != nil {
		item.Notes = err.Error()
		return item
	}
	item.Status = out.Status
	item.Notes = out.Notes
	return item
}

// ratio is the share of pages satisfying pred; 0 for an empty bucket.
func ratio(pages []domain.PageCrawlResult, pred func(domain.PageCrawlResult) bool) float64 {
	if len(pages) == 0 {
		return 0
	}
	return float64(len(fn.Filter(pages, pred))) / float64(len(pages))
}

// pct renders a ratio for notes.
func pct(r float64) string {
	return fmt.Sprintf("%.0f%%", r*100)
}

// linksTo reports whether the page links internally to url.
func linksTo(p domain.PageCrawlResult, url string) bool {
	for _, u := range p.Links.Internal {
		if u == url {
			return true
		}
	}
	return false
}

// hasSchemaType reports whether a page declares the given schema.org type.
func hasSchemaType(p domain.PageCrawlResult, typ string) bool {
	for _, t := range p.SchemaTypes {
		if t == typ {
			return true
		}
	}
	return false
}

// containsAny reports whether lowercase text contains any of the terms.
func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// pairNotes renders a similarity report's flagged pairs for check notes,
// naming both URLs of every pair.
func pairNotes(rep similarity.Report) string {
	parts := fn.Map(rep.Pairs, func(p similarity.Pair) string {
		return fmt.Sprintf("%s and %s are %.0f%% similar", p.URLA, p.URLB, p.Score*100)
	})
	return strings.Join(parts, "; ")
}
