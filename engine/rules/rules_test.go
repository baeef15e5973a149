package rules

import (
	"strings"
	"testing"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
)

func findItem(t *testing.T, items []domain.AuditItem, name string) domain.AuditItem {
	t.Helper()
	for _, it := range items {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("no item named %q", name)
	return domain.AuditItem{}
}

func testPage(url, title string) domain.PageCrawlResult {
	return domain.PageCrawlResult{URL: url, Title: title}
}

func testFacts(s domain.SiteStructure) Facts {
	return Facts{Structure: s}
}

func TestRunChecksPreservesTableOrderAndIdentity(t *testing.T) {
	table := []Check{
		{
			Name:        "first",
			Description: "first check",
			Importance:  domain.ImportanceHigh,
			Run: func(Facts) fn.Result[Outcome] {
				return grade(domain.StatusOK, "fine")
			},
		},
		{
			Name:        "second",
			Description: "second check",
			Importance:  domain.ImportanceLow,
			Run: func(Facts) fn.Result[Outcome] {
				return grade(domain.StatusOFI, "could be better")
			},
		},
	}

	items := RunChecks(table, Facts{})
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Name != "first" || items[1].Name != "second" {
		t.Fatalf("order not preserved: %q, %q", items[0].Name, items[1].Name)
	}
	if items[0].Description != "first check" || items[0].Importance != domain.ImportanceHigh {
		t.Fatalf("identity fields not copied: %+v", items[0])
	}
	if items[0].Status != domain.StatusOK || items[1].Status != domain.StatusOFI {
		t.Fatalf("statuses: %s, %s", items[0].Status, items[1].Status)
	}
}

func TestRunChecksRendersSkipAsNA(t *testing.T) {
	table := []Check{{
		Name:       "inapplicable",
		Importance: domain.ImportanceMedium,
		Run: func(Facts) fn.Result[Outcome] {
			return skipf("nothing to grade")
		},
	}}

	items := RunChecks(table, Facts{})
	if items[0].Status != domain.StatusNA {
		t.Fatalf("status = %s, want %s", items[0].Status, domain.StatusNA)
	}
	if items[0].Notes != "nothing to grade" {
		t.Fatalf("notes = %q", items[0].Notes)
	}
}

func TestRunChecksRecoversFromPanic(t *testing.T) {
	table := []Check{
		{
			Name: "explodes",
			Run: func(Facts) fn.Result[Outcome] {
				panic("index out of range")
			},
		},
		{
			Name: "survives",
			Run: func(Facts) fn.Result[Outcome] {
				return grade(domain.StatusOK, "")
			},
		},
	}

	items := RunChecks(table, Facts{})
	if items[0].Status != domain.StatusNA {
		t.Fatalf("panicking check status = %s, want %s", items[0].Status, domain.StatusNA)
	}
	if !strings.Contains(items[0].Notes, "check aborted") || !strings.Contains(items[0].Notes, "index out of range") {
		t.Fatalf("notes = %q", items[0].Notes)
	}
	if items[1].Status != domain.StatusOK {
		t.Fatalf("later check did not run: %+v", items[1])
	}
}

func TestThresholdGrade(t *testing.T) {
	th := Threshold{OK: 0.9, OFI: 0.7}
	cases := []struct {
		ratio float64
		want  domain.Status
	}{
		{1.0, domain.StatusOK},
		{0.9, domain.StatusOK},
		{0.89, domain.StatusOFI},
		{0.7, domain.StatusOFI},
		{0.69, domain.StatusPriorityOFI},
		{0, domain.StatusPriorityOFI},
	}
	for _, c := range cases {
		if got := th.Grade(c.ratio); got != c.want {
			t.Errorf("Grade(%v) = %s, want %s", c.ratio, got, c.want)
		}
	}
}

func TestCountThresholdGrade(t *testing.T) {
	th := CountThreshold{OK: 10, OFI: 4}
	cases := []struct {
		n    int
		want domain.Status
	}{
		{25, domain.StatusOK},
		{10, domain.StatusOK},
		{9, domain.StatusOFI},
		{4, domain.StatusOFI},
		{3, domain.StatusPriorityOFI},
		{0, domain.StatusPriorityOFI},
	}
	for _, c := range cases {
		if got := th.Grade(c.n); got != c.want {
			t.Errorf("Grade(%d) = %s, want %s", c.n, got, c.want)
		}
	}
}

func TestSpanGrade(t *testing.T) {
	s := Span{Min: 30, Max: 65}
	cases := []struct {
		n    int
		want domain.Status
	}{
		{0, domain.StatusPriorityOFI},
		{30, domain.StatusOK},
		{65, domain.StatusOK},
		{29, domain.StatusOFI},
		{66, domain.StatusOFI},
	}
	for _, c := range cases {
		if got := s.Grade(c.n); got != c.want {
			t.Errorf("Grade(%d) = %s, want %s", c.n, got, c.want)
		}
	}
}

func TestCategoryTablesAreWellFormed(t *testing.T) {
	tables := map[string][]Check{
		"on-page":              OnPage,
		"structure-navigation": StructureNavigation,
		"contact-page":         ContactPage,
		"service-pages":        ServicePages,
		"location-pages":       LocationPages,
		"service-area-pages":   ServiceAreaPages,
	}
	seen := map[string]bool{}
	for name, checks := range tables {
		if len(checks) == 0 {
			t.Errorf("%s table is empty", name)
		}
		for _, c := range checks {
			if c.Name == "" || c.Description == "" || c.Run == nil {
				t.Errorf("%s contains an incomplete check: %+v", name, c.Name)
			}
			if !domain.ValidImportances[c.Importance] {
				t.Errorf("%s check %q has importance %q", name, c.Name, c.Importance)
			}
			if seen[c.Name] {
				t.Errorf("check name %q appears twice", c.Name)
			}
			seen[c.Name] = true
		}
	}
}
