// Package classify assigns crawled pages to audit buckets. The cascade is an
// ordered rule table: the first matching rule decides the bucket, and pages
// matching nothing fall through to KindOther. Classification is pure; it
// looks only at the page itself.
package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/OutrankHQ/siteaudit/engine/domain"
)

// contactTerms mark contact pages by URL or title.
var contactTerms = []string{"contact", "get in touch", "reach us"}

// serviceTerms mark general offering pages.
var serviceTerms = []string{"service", "product", "solution", "offering", "feature"}

// areaServiceTerms are the service half of a localized landing slug. Terms
// of three letters or fewer must match a whole word; longer terms match as
// word prefixes, so "repair" also covers "repairs".
var areaServiceTerms = []string{
	"repair", "install", "maintenance", "hvac", "ac", "heat", "furnace",
	"service", "replacement", "plumbing", "roofing", "cleaning",
	"electrical", "remodel", "restoration", "landscaping",
}

// locationTerms mark areas-served and office pages.
var locationTerms = []string{"location", "city", "county", "area", "serving", "service-area"}

// usStateTokens lists the two-letter postal codes plus full state names used
// to recognize city-state slugs like "austin-tx" or "denver-colorado".
var usStateTokens = []string{
	"al", "ak", "az", "ar", "ca", "co", "ct", "de", "dc", "fl", "ga", "hi",
	"id", "il", "in", "ia", "ks", "ky", "la", "me", "md", "ma", "mi", "mn",
	"ms", "mo", "mt", "ne", "nv", "nh", "nj", "nm", "ny", "nc", "nd", "oh",
	"ok", "or", "pa", "ri", "sc", "sd", "tn", "tx", "ut", "vt", "va", "wa",
	"wv", "wi", "wy",
	"alabama", "alaska", "arizona", "arkansas", "california", "colorado",
	"connecticut", "delaware", "florida", "georgia", "hawaii", "idaho",
	"illinois", "indiana", "iowa", "kansas", "kentucky", "louisiana",
	"maine", "maryland", "massachusetts", "michigan", "minnesota",
	"mississippi", "missouri", "montana", "nebraska", "nevada",
	"ohio", "oklahoma", "oregon", "pennsylvania", "tennessee", "texas",
	"utah", "vermont", "virginia", "washington", "wisconsin", "wyoming",
}

// geoTitlePattern finds a locational preposition followed by a proper-noun
// place in a title, e.g. "AC Repair in Austin".
var geoTitlePattern = regexp.MustCompile(`\b(?:in|near|serving)\s+[A-Z][A-Za-z]+`)

type rule struct {
	kind  domain.PageKind
	match func(p page) bool
}

// cascade is evaluated in order; first match wins. serviceArea precedes
// service so localized landing pages are not swallowed by the broader
// service vocabulary.
var cascade = []rule{
	{domain.KindContact, isContact},
	{domain.KindServiceArea, isServiceArea},
	{domain.KindService, isService},
	{domain.KindLocation, isLocation},
}

// page carries the pre-lowered fields the rules inspect.
type page struct {
	result   domain.PageCrawlResult
	path     string   // lowercase URL path, no leading/trailing slash
	segments []string // path split on "/"
	text     string   // path + title, lowercase, separators spaced
	title    string   // original-case title
}

// Classify assigns exactly one bucket to a non-homepage page. Identical
// input always yields the same bucket.
func Classify(result domain.PageCrawlResult) domain.PageKind {
	p := newPage(result)
	for _, r := range cascade {
		if r.match(p) {
			return r.kind
		}
	}
	return domain.KindOther
}

func newPage(result domain.PageCrawlResult) page {
	var path string
	if u, err := url.Parse(result.URL); err == nil {
		path = u.Path
	}
	path = strings.Trim(strings.ToLower(path), "/")

	var segments []string
	if path != "" {
		segments = strings.Split(path, "/")
	}

	spacer := strings.NewReplacer("-", " ", "_", " ", "/", " ")
	text := spacer.Replace(path) + " " + strings.ToLower(result.Title)

	return page{result: result, path: path, segments: segments, text: text, title: result.Title}
}

func isContact(p page) bool {
	for _, term := range contactTerms {
		if strings.Contains(p.text, term) {
			return true
		}
	}
	return p.result.HasContactForm && p.result.HasPhoneNumber
}

func isServiceArea(p page) bool {
	if len(p.segments) >= 2 && isLocationSlug(p.segments[0]) {
		rest := strings.Join(p.segments[1:], " ")
		if hasAreaServiceTerm(p.segments[1]) || hasAreaServiceTerm(rest) {
			return true
		}
	}
	return geoTitlePattern.MatchString(p.title) && hasAreaServiceTerm(strings.ToLower(p.title))
}

func isService(p page) bool {
	for _, term := range serviceTerms {
		if strings.Contains(stripAreaCompound(p.text), term) {
			return true
		}
	}
	return false
}

func isLocation(p page) bool {
	stripped := stripAreaCompound(p.text)
	hasService := false
	for _, term := range serviceTerms {
		if strings.Contains(stripped, term) {
			hasService = true
			break
		}
	}
	if hasService {
		return false
	}

	for _, term := range locationTerms {
		if strings.Contains(p.text, strings.ReplaceAll(term, "-", " ")) {
			return true
		}
	}
	if len(p.segments) == 1 && isLocationSlug(p.segments[0]) {
		return true
	}
	return p.result.HasAddress && len(p.segments) <= 1
}

// stripAreaCompound removes "service area(s)" phrasing so the location term
// is not mistaken for the service vocabulary.
func stripAreaCompound(text string) string {
	for _, phrase := range []string{"service areas", "service area"} {
		text = strings.ReplaceAll(text, phrase, " ")
	}
	return text
}

// isLocationSlug reports whether a path segment names a place: a city-state
// compound, or a trailing county/city/area word.
func isLocationSlug(slug string) bool {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	if len(words) < 2 {
		return false
	}
	last := words[len(words)-1]
	switch last {
	case "county", "city", "area":
		return true
	}
	for _, tok := range usStateTokens {
		if last == tok {
			return true
		}
	}
	return false
}

func hasAreaServiceTerm(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, w := range words {
		for _, term := range areaServiceTerms {
			if len(term) <= 3 {
				if w == term {
					return true
				}
			} else if strings.HasPrefix(w, term) {
				return true
			}
		}
	}
	return false
}
