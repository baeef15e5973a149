package rules

import (
	"strings"
	"testing"

	"github.com/OutrankHQ/siteaudit/engine/domain"
)

func TestStructureSitemapCheck(t *testing.T) {
	s := domain.SiteStructure{HasSitemapXML: true}
	it := findItem(t, RunChecks(StructureNavigation, testFacts(s)), "Has sitemap.xml?")
	if it.Status != domain.StatusOK {
		t.Fatalf("status = %s, want %s", it.Status, domain.StatusOK)
	}

	s.HasSitemapXML = false
	it = findItem(t, RunChecks(StructureNavigation, testFacts(s)), "Has sitemap.xml?")
	if it.Status != domain.StatusOFI {
		t.Fatalf("status = %s, want %s", it.Status, domain.StatusOFI)
	}
}

func TestStructureBrokenLinkGrading(t *testing.T) {
	withBroken := func(urls ...string) domain.SiteStructure {
		return domain.SiteStructure{
			Homepage: domain.PageCrawlResult{
				URL:   "https://example.com",
				Links: domain.Links{Broken: urls},
			},
		}
	}

	cases := []struct {
		name   string
		broken []string
		want   domain.Status
	}{
		{"none", nil, domain.StatusOK},
		{"a few", []string{"#", "#"}, domain.StatusOFI},
		{"many", []string{"#", "#", "#", "#", "#"}, domain.StatusPriorityOFI},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			it := findItem(t, RunChecks(StructureNavigation, testFacts(withBroken(c.broken...))), "No broken links found?")
			if it.Status != c.want {
				t.Errorf("status = %s, want %s", it.Status, c.want)
			}
			if c.want != domain.StatusOK && !strings.Contains(it.Notes, "https://example.com") {
				t.Errorf("notes should name the page: %q", it.Notes)
			}
		})
	}
}

func TestStructureContactReachability(t *testing.T) {
	contact := testPage("https://example.com/contact", "Contact Us")

	t.Run("no contact page", func(t *testing.T) {
		it := findItem(t, RunChecks(StructureNavigation, testFacts(domain.SiteStructure{})), "Contact page reachable from homepage?")
		if it.Status != domain.StatusNA {
			t.Fatalf("status = %s, want %s", it.Status, domain.StatusNA)
		}
	})

	t.Run("linked from homepage", func(t *testing.T) {
		s := domain.SiteStructure{
			Homepage: domain.PageCrawlResult{
				Links: domain.Links{Internal: []string{"https://example.com/contact"}},
			},
			ContactPage: &contact,
		}
		it := findItem(t, RunChecks(StructureNavigation, testFacts(s)), "Contact page reachable from homepage?")
		if it.Status != domain.StatusOK {
			t.Fatalf("status = %s, want %s", it.Status, domain.StatusOK)
		}
	})

	t.Run("buried", func(t *testing.T) {
		s := domain.SiteStructure{
			Homepage:    domain.PageCrawlResult{Links: domain.Links{Internal: []string{"https://example.com/about"}}},
			ContactPage: &contact,
		}
		it := findItem(t, RunChecks(StructureNavigation, testFacts(s)), "Contact page reachable from homepage?")
		if it.Status != domain.StatusOFI {
			t.Fatalf("status = %s, want %s", it.Status, domain.StatusOFI)
		}
	})
}

func TestStructureURLHygiene(t *testing.T) {
	t.Run("no internal links", func(t *testing.T) {
		it := findItem(t, RunChecks(StructureNavigation, testFacts(domain.SiteStructure{})), "URLs free of query parameters?")
		if it.Status != domain.StatusNA {
			t.Fatalf("status = %s, want %s", it.Status, domain.StatusNA)
		}
	})

	t.Run("half parameterized", func(t *testing.T) {
		s := domain.SiteStructure{
			Homepage: domain.PageCrawlResult{
				Links: domain.Links{Internal: []string{
					"https://example.com/a",
					"https://example.com/b?page=2",
				}},
			},
		}
		it := findItem(t, RunChecks(StructureNavigation, testFacts(s)), "URLs free of query parameters?")
		if it.Status != domain.StatusPriorityOFI {
			t.Fatalf("status = %s, want %s", it.Status, domain.StatusPriorityOFI)
		}
	})
}

func TestStructureLinkDensity(t *testing.T) {
	links := func(n int) domain.PageCrawlResult {
		p := domain.PageCrawlResult{}
		for i := 0; i < n; i++ {
			p.Links.Internal = append(p.Links.Internal, "https://example.com/x")
		}
		return p
	}

	s := domain.SiteStructure{
		Homepage:     links(8),
		ServicePages: []domain.PageCrawlResult{links(6), links(7)},
	}
	it := findItem(t, RunChecks(StructureNavigation, testFacts(s)), "Internal linking density healthy?")
	if it.Status != domain.StatusOK {
		t.Fatalf("status = %s, want %s (notes %q)", it.Status, domain.StatusOK, it.Notes)
	}

	s = domain.SiteStructure{Homepage: links(1)}
	it = findItem(t, RunChecks(StructureNavigation, testFacts(s)), "Internal linking density healthy?")
	if it.Status != domain.StatusPriorityOFI {
		t.Fatalf("status = %s, want %s", it.Status, domain.StatusPriorityOFI)
	}
}

func TestStructureHeadingHierarchy(t *testing.T) {
	structured := domain.PageCrawlResult{
		Headings: domain.Headings{H1: []string{"Main"}, H2: []string{"Sub"}},
	}
	flat := domain.PageCrawlResult{Headings: domain.Headings{H1: []string{"Main"}}}

	s := domain.SiteStructure{
		Homepage:     structured,
		ServicePages: []domain.PageCrawlResult{structured, structured, flat},
	}
	it := findItem(t, RunChecks(StructureNavigation, testFacts(s)), "Heading hierarchy in place?")
	// 3 of 4 pages pair an h1 with subheadings.
	if it.Status != domain.StatusOFI {
		t.Fatalf("status = %s, want %s", it.Status, domain.StatusOFI)
	}
}
