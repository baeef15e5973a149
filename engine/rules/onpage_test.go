package rules

import (
	"strings"
	"testing"

	"github.com/OutrankHQ/siteaudit/engine/domain"
)

func TestOnPageHomepageSignals(t *testing.T) {
	s := domain.SiteStructure{
		Homepage: domain.PageCrawlResult{
			URL:            "https://example.com",
			Title:          "Acme Heating and Cooling of Austin Texas",
			HasHTTPS:       true,
			MobileFriendly: true,
			HasSchema:      false,
		},
	}

	items := RunChecks(OnPage, testFacts(s))

	if it := findItem(t, items, "Has SSL?"); it.Status != domain.StatusOK {
		t.Errorf("Has SSL? = %s, want %s", it.Status, domain.StatusOK)
	}
	if it := findItem(t, items, "Is site mobile friendly?"); it.Status != domain.StatusOK {
		t.Errorf("Is site mobile friendly? = %s, want %s", it.Status, domain.StatusOK)
	}
	if it := findItem(t, items, "Has schema markup?"); it.Status != domain.StatusOFI {
		t.Errorf("Has schema markup? = %s, want %s", it.Status, domain.StatusOFI)
	}
}

func TestOnPagePlainHTTPIsPriority(t *testing.T) {
	s := domain.SiteStructure{
		Homepage: domain.PageCrawlResult{URL: "http://example.com", HasHTTPS: false},
	}

	it := findItem(t, RunChecks(OnPage, testFacts(s)), "Has SSL?")
	if it.Status != domain.StatusPriorityOFI {
		t.Fatalf("status = %s, want %s", it.Status, domain.StatusPriorityOFI)
	}
}

func TestOnPageSchemaNotesListTypes(t *testing.T) {
	s := domain.SiteStructure{
		Homepage: domain.PageCrawlResult{
			HasSchema:   true,
			SchemaTypes: []string{"LocalBusiness", "FAQPage"},
		},
	}

	it := findItem(t, RunChecks(OnPage, testFacts(s)), "Has schema markup?")
	if it.Status != domain.StatusOK {
		t.Fatalf("status = %s, want %s", it.Status, domain.StatusOK)
	}
	if !strings.Contains(it.Notes, "LocalBusiness") || !strings.Contains(it.Notes, "FAQPage") {
		t.Fatalf("notes = %q", it.Notes)
	}
}

func TestOnPageTitleAndMetaSpans(t *testing.T) {
	cases := []struct {
		name      string
		title     string
		meta      string
		wantTitle domain.Status
		wantMeta  domain.Status
	}{
		{
			name:      "both in range",
			title:     "AC Repair in Austin TX | Acme Heating and Air",
			meta:      strings.Repeat("Fast same-day air conditioning repair. ", 3),
			wantTitle: domain.StatusOK,
			wantMeta:  domain.StatusOK,
		},
		{
			name:      "title too short, meta missing",
			title:     "Acme",
			meta:      "",
			wantTitle: domain.StatusOFI,
			wantMeta:  domain.StatusPriorityOFI,
		},
		{
			name:      "title missing",
			title:     "",
			meta:      strings.Repeat("Plumbing and drain service across the metro. ", 3),
			wantTitle: domain.StatusPriorityOFI,
			wantMeta:  domain.StatusOK,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := domain.SiteStructure{
				Homepage: domain.PageCrawlResult{Title: c.title, MetaDescription: c.meta},
			}
			items := RunChecks(OnPage, testFacts(s))
			if it := findItem(t, items, "Title tag length optimized?"); it.Status != c.wantTitle {
				t.Errorf("title status = %s, want %s", it.Status, c.wantTitle)
			}
			if it := findItem(t, items, "Meta description length optimized?"); it.Status != c.wantMeta {
				t.Errorf("meta status = %s, want %s", it.Status, c.wantMeta)
			}
		})
	}
}

func TestOnPageAltTextSkipsWithoutImages(t *testing.T) {
	s := domain.SiteStructure{Homepage: domain.PageCrawlResult{URL: "https://example.com"}}

	it := findItem(t, RunChecks(OnPage, testFacts(s)), "Images have alt text?")
	if it.Status != domain.StatusNA {
		t.Fatalf("status = %s, want %s", it.Status, domain.StatusNA)
	}
	if !strings.Contains(it.Notes, "no images") {
		t.Fatalf("notes = %q", it.Notes)
	}
}

func TestOnPageAltTextCoverage(t *testing.T) {
	cases := []struct {
		name    string
		total   int
		withAlt int
		want    domain.Status
	}{
		{"full coverage", 10, 10, domain.StatusOK},
		{"nine of ten", 10, 9, domain.StatusOK},
		{"half", 10, 5, domain.StatusOFI},
		{"sparse", 10, 2, domain.StatusPriorityOFI},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := domain.SiteStructure{
				Homepage: domain.PageCrawlResult{
					Images: domain.ImageStats{Total: c.total, WithAlt: c.withAlt},
				},
			}
			it := findItem(t, RunChecks(OnPage, testFacts(s)), "Images have alt text?")
			if it.Status != c.want {
				t.Errorf("status = %s, want %s", it.Status, c.want)
			}
		})
	}
}

func TestOnPageKeywordFocus(t *testing.T) {
	cases := []struct {
		name    string
		density map[string]int
		want    domain.Status
	}{
		{"strong focus", map[string]int{"repair": 6, "austin": 2}, domain.StatusOK},
		{"weak focus", map[string]int{"repair": 2}, domain.StatusOFI},
		{"no terms", nil, domain.StatusOFI},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := domain.SiteStructure{
				Homepage: domain.PageCrawlResult{KeywordDensity: c.density},
			}
			it := findItem(t, RunChecks(OnPage, testFacts(s)), "Keyword focus apparent?")
			if it.Status != c.want {
				t.Errorf("status = %s, want %s", it.Status, c.want)
			}
		})
	}
}

func TestTopTermBreaksTiesDeterministically(t *testing.T) {
	density := map[string]int{"zulu": 3, "alpha": 3, "mike": 3}
	for i := 0; i < 50; i++ {
		word, count := topTerm(density)
		if word != "alpha" || count != 3 {
			t.Fatalf("topTerm = %q/%d, want alpha/3", word, count)
		}
	}
}

func TestOnPageMobileCoverageAcrossPages(t *testing.T) {
	mobile := func(b bool) domain.PageCrawlResult {
		return domain.PageCrawlResult{MobileFriendly: b}
	}
	s := domain.SiteStructure{
		Homepage:     mobile(true),
		ServicePages: []domain.PageCrawlResult{mobile(true), mobile(true), mobile(false)},
	}

	it := findItem(t, RunChecks(OnPage, testFacts(s)), "Is site mobile friendly?")
	// 3 of 4 pages = 75%, between the 90% OK bar and the 70% OFI bar.
	if it.Status != domain.StatusOFI {
		t.Fatalf("status = %s, want %s", it.Status, domain.StatusOFI)
	}
}
