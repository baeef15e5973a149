package crawl

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
	"github.com/PuerkitoBio/goquery"
)

// Contact-detail regex families. Phones cover the common US formats;
// addresses match a numbered street, a city/state/zip tail, or a bare
// street-suffix phrase.
var (
	phoneRe = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}\b`)

	numberedStreetRe = regexp.MustCompile(`(?i)\b\d{1,5}\s+(?:[A-Za-z0-9.]+\s){0,3}(?:street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln|way|court|ct|place|pl|circle|cir)\.?\b`)
	cityStateZipRe   = regexp.MustCompile(`\b[A-Z][A-Za-z .]+,\s*[A-Z]{2}\s+\d{5}(?:-\d{4})?\b`)
	suiteRe          = regexp.MustCompile(`(?i)\b(?:suite|ste|unit|apt)\.?\s*#?\s*\d+\b`)
)

// largeImagePx is the width/height attribute above which an image counts as
// an optimization candidate.
const largeImagePx = 1000

// extractPage parses a fetched body into a PageCrawlResult. Every field
// except PageLoadSpeed is populated here; the caller attaches speed.
func extractPage(f *fetched) (domain.PageCrawlResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(f.body))
	if err != nil {
		return domain.PageCrawlResult{}, domain.NewCrawlError(f.url, domain.KindParse, err)
	}

	page := domain.PageCrawlResult{
		URL:      f.url,
		HasHTTPS: f.https,
	}

	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	page.MetaDescription, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
	page.MetaDescription = strings.TrimSpace(page.MetaDescription)

	page.Headings = domain.Headings{
		H1: headingTexts(doc, "h1"),
		H2: headingTexts(doc, "h2"),
		H3: headingTexts(doc, "h3"),
	}

	internal, external, broken, hasTelLink := extractLinks(doc, f.finalURL)
	page.Links = domain.Links{Internal: internal, External: external, Broken: broken}

	// Schema blocks come off the DOM before scripts are stripped for text.
	page.SchemaTypes, page.HasSchema = extractSchema(doc)

	page.HasContactForm = doc.Find("form").Length() > 0 || doc.Find(`input[type="email"]`).Length() > 0
	page.MobileFriendly = doc.Find(`meta[name="viewport"]`).Length() > 0
	page.HasCanonical = doc.Find(`link[rel="canonical"]`).Length() > 0
	page.HasSitemap = doc.Find(`link[rel="sitemap"]`).Length() > 0
	page.HasHreflang = doc.Find(`link[rel="alternate"][hreflang]`).Length() > 0
	page.HasAmpVersion = doc.Find(`link[rel="amphtml"]`).Length() > 0
	page.HasSocialTags = doc.Find(`meta[property^="og:"]`).Length() > 0 ||
		doc.Find(`meta[name^="twitter:"]`).Length() > 0
	page.HasRobotsMeta = doc.Find(`meta[name="robots"]`).Length() > 0

	page.Images = extractImages(doc)

	hasVideo := doc.Find("video").Length() > 0
	doc.Find("iframe[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		src = strings.ToLower(src)
		if strings.Contains(src, "youtube") || strings.Contains(src, "vimeo") || strings.Contains(src, "wistia") {
			hasVideo = true
			return false
		}
		return true
	})

	doc.Find("script, style, noscript").Remove()
	page.BodyText = strings.Join(strings.Fields(doc.Find("body").Text()), " ")

	page.HasPhoneNumber = hasTelLink || phoneRe.MatchString(page.BodyText)
	page.HasAddress = numberedStreetRe.MatchString(page.BodyText) ||
		cityStateZipRe.MatchString(page.BodyText) ||
		suiteRe.MatchString(page.BodyText)

	page.ContentStructure = domain.ContentStructure{
		HasFAQs:  hasFAQs(page),
		HasTable: doc.Find("table").Length() > 0,
		HasLists: doc.Find("ul, ol").Length() > 0,
		HasVideo: hasVideo,
	}

	page.WordCount = len(strings.Fields(page.BodyText))
	page.KeywordDensity = topKeywords(page.BodyText, 10)
	page.ReadabilityScore = fleschReadingEase(page.BodyText)

	return page, nil
}

func headingTexts(doc *goquery.Document, tag string) []string {
	var out []string
	doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// extractLinks walks every anchor, resolving against base and splitting by
// registrable domain. Placeholder ("#", empty) and unresolvable hrefs are
// reported as broken; javascript:, mailto:, and tel: anchors are not page
// links and are skipped, though tel: feeds the phone heuristic.
func extractLinks(doc *goquery.Document, base *url.URL) (internal, external, broken []string, hasTel bool) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)

		switch {
		case href == "" || href == "#":
			broken = append(broken, "#")
			return
		case strings.HasPrefix(href, "tel:"):
			hasTel = true
			return
		case strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:"):
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			broken = append(broken, href)
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if sameSite(base.Hostname(), resolved.Hostname()) {
			internal = append(internal, Normalize(resolved.String()))
		} else {
			external = append(external, resolved.String())
		}
	})
	return fn.Unique(internal), fn.Unique(external), fn.Unique(broken), hasTel
}

// extractSchema parses each JSON-LD block independently; a malformed block
// is skipped and its siblings still contribute types.
func extractSchema(doc *goquery.Document) ([]string, bool) {
	var types []string
	parsed := 0
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var block any
		if err := json.Unmarshal([]byte(s.Text()), &block); err != nil {
			return
		}
		parsed++
		types = append(types, schemaTypesOf(block)...)
	})
	return fn.Unique(types), parsed > 0
}

// schemaTypesOf collects @type values from a decoded JSON-LD value,
// descending into arrays and @graph containers.
func schemaTypesOf(block any) []string {
	var types []string
	switch v := block.(type) {
	case map[string]any:
		switch t := v["@type"].(type) {
		case string:
			types = append(types, t)
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					types = append(types, s)
				}
			}
		}
		if graph, ok := v["@graph"].([]any); ok {
			for _, item := range graph {
				types = append(types, schemaTypesOf(item)...)
			}
		}
	case []any:
		for _, item := range v {
			types = append(types, schemaTypesOf(item)...)
		}
	}
	return types
}

func extractImages(doc *goquery.Document) domain.ImageStats {
	var stats domain.ImageStats
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		stats.Total++
		if alt, ok := s.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			stats.WithAlt++
		} else {
			stats.WithoutAlt++
		}
		if attrPx(s, "width") > largeImagePx || attrPx(s, "height") > largeImagePx {
			stats.LargeImages++
		}
	})
	return stats
}

func attrPx(s *goquery.Selection, name string) int {
	v, ok := s.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if err != nil {
		return 0
	}
	return n
}

func hasFAQs(page domain.PageCrawlResult) bool {
	for _, t := range page.SchemaTypes {
		if strings.EqualFold(t, "FAQPage") {
			return true
		}
	}
	for _, h := range append(append([]string{}, page.Headings.H1...), page.Headings.H2...) {
		lower := strings.ToLower(h)
		if strings.Contains(lower, "faq") || strings.Contains(lower, "frequently asked") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(page.URL), "faq")
}

var punctTrim = regexp.MustCompile(`[^a-z0-9]+`)

// topKeywords tallies lower-cased, punctuation-stripped tokens longer than
// three characters and keeps the n most frequent. Ties break
// alphabetically so output is deterministic.
func topKeywords(text string, n int) map[string]int {
	counts := make(map[string]int)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = punctTrim.ReplaceAllString(w, "")
		if len(w) <= 3 {
			continue
		}
		counts[w]++
	}
	if len(counts) <= n {
		return counts
	}

	type kc struct {
		word  string
		count int
	}
	ranked := make([]kc, 0, len(counts))
	for w, c := range counts {
		ranked = append(ranked, kc{w, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	top := make(map[string]int, n)
	for _, e := range ranked[:n] {
		top[e.word] = e.count
	}
	return top
}

// fleschReadingEase scores text readability on the standard 0-100 scale,
// clamped at the ends. Empty text scores zero.
func fleschReadingEase(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	sentences := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	score := 206.835 - 1.015*(float64(len(words))/float64(sentences)) - 84.6*(float64(syllables)/float64(len(words)))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// countSyllables approximates by counting vowel groups, with the usual
// silent-e adjustment. Minimum one per word.
func countSyllables(word string) int {
	word = punctTrim.ReplaceAllString(strings.ToLower(word), "")
	if word == "" {
		return 1
	}
	isVowel := func(r byte) bool {
		return strings.IndexByte("aeiouy", r) >= 0
	}
	count := 0
	prevVowel := false
	for i := 0; i < len(word); i++ {
		v := isVowel(word[i])
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}
