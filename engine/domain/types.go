// Package domain defines the core data model, error taxonomy, and input
// validation for the site audit engine. It acts as the validation gate at
// audit entry points.
package domain

import "time"

// Status grades a single audit finding.
type Status string

const (
	StatusPriorityOFI Status = "Priority OFI"
	StatusOFI         Status = "OFI"
	StatusOK          Status = "OK"
	StatusNA          Status = "N/A"
)

// ValidStatuses is the set of recognised finding statuses.
var ValidStatuses = map[Status]bool{
	StatusPriorityOFI: true, StatusOFI: true, StatusOK: true, StatusNA: true,
}

// Importance weights a finding for report consumers.
type Importance string

const (
	ImportanceHigh   Importance = "High"
	ImportanceMedium Importance = "Medium"
	ImportanceLow    Importance = "Low"
)

// ValidImportances is the set of recognised importance weights.
var ValidImportances = map[Importance]bool{
	ImportanceHigh: true, ImportanceMedium: true, ImportanceLow: true,
}

// PageKind buckets a crawled page for rule evaluation.
type PageKind string

const (
	KindHome        PageKind = "home"
	KindContact     PageKind = "contact"
	KindService     PageKind = "service"
	KindLocation    PageKind = "location"
	KindServiceArea PageKind = "serviceArea"
	KindOther       PageKind = "other"
)

// Headings holds the page's heading texts by level.
type Headings struct {
	H1 []string `json:"h1,omitempty"`
	H2 []string `json:"h2,omitempty"`
	H3 []string `json:"h3,omitempty"`
}

// Links holds the page's outgoing links, split by destination.
type Links struct {
	Internal []string `json:"internal,omitempty"`
	External []string `json:"external,omitempty"`
	Broken   []string `json:"broken,omitempty"`
}

// ImageStats summarizes the page's images. LargeImages counts images whose
// declared width or height attribute exceeds 1000px, a proxy for
// optimization candidates rather than a byte-size measurement.
type ImageStats struct {
	Total       int `json:"total"`
	WithAlt     int `json:"with_alt"`
	WithoutAlt  int `json:"without_alt"`
	LargeImages int `json:"large_images"`
}

// ContentStructure flags structural content elements found on the page.
type ContentStructure struct {
	HasFAQs  bool `json:"has_faqs"`
	HasTable bool `json:"has_table"`
	HasLists bool `json:"has_lists"`
	HasVideo bool `json:"has_video"`
}

// PageLoadSpeed holds performance metrics for one page. When no measurement
// provider is configured the values are synthesized deterministically from
// the URL and must not be read as a ground-truth measurement.
type PageLoadSpeed struct {
	Score                  int     `json:"score"`
	FirstContentfulPaint   float64 `json:"first_contentful_paint"`
	TotalBlockingTime      float64 `json:"total_blocking_time"`
	LargestContentfulPaint float64 `json:"largest_contentful_paint"`
}

// PageCrawlResult is everything the fetcher extracted from one page.
// Immutable once created.
type PageCrawlResult struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	BodyText        string   `json:"body_text"`
	Headings        Headings `json:"headings"`
	Links           Links    `json:"links"`

	HasContactForm bool     `json:"has_contact_form"`
	HasPhoneNumber bool     `json:"has_phone_number"`
	HasAddress     bool     `json:"has_address"`
	HasSchema      bool     `json:"has_schema"`
	SchemaTypes    []string `json:"schema_types,omitempty"`
	MobileFriendly bool     `json:"mobile_friendly"`
	HasHTTPS       bool     `json:"has_https"`
	HasCanonical   bool     `json:"has_canonical"`
	HasSitemap     bool     `json:"has_sitemap"`
	HasHreflang    bool     `json:"has_hreflang"`
	HasAmpVersion  bool     `json:"has_amp_version"`
	HasSocialTags  bool     `json:"has_social_tags"`
	HasRobotsMeta  bool     `json:"has_robots_meta"`

	Images           ImageStats       `json:"images"`
	ContentStructure ContentStructure `json:"content_structure"`
	KeywordDensity   map[string]int   `json:"keyword_density,omitempty"`
	ReadabilityScore float64          `json:"readability_score"`
	PageLoadSpeed    PageLoadSpeed    `json:"page_load_speed"`
	WordCount        int              `json:"word_count"`
}

// SiteStructure is the classified outcome of one crawl session. It is
// finalized when the frontier is exhausted or the page cap is hit and is
// never mutated afterward.
type SiteStructure struct {
	Homepage         PageCrawlResult   `json:"homepage"`
	ContactPage      *PageCrawlResult  `json:"contact_page,omitempty"`
	ServicePages     []PageCrawlResult `json:"service_pages,omitempty"`
	LocationPages    []PageCrawlResult `json:"location_pages,omitempty"`
	ServiceAreaPages []PageCrawlResult `json:"service_area_pages,omitempty"`
	OtherPages       []PageCrawlResult `json:"other_pages,omitempty"`
	HasSitemapXML    bool              `json:"has_sitemap_xml"`
}

// AllPages returns every crawled page, homepage first.
func (s *SiteStructure) AllPages() []PageCrawlResult {
	out := make([]PageCrawlResult, 0, s.TotalPages())
	out = append(out, s.Homepage)
	if s.ContactPage != nil {
		out = append(out, *s.ContactPage)
	}
	out = append(out, s.ServicePages...)
	out = append(out, s.LocationPages...)
	out = append(out, s.ServiceAreaPages...)
	out = append(out, s.OtherPages...)
	return out
}

// TotalPages counts every crawled page including the homepage.
func (s *SiteStructure) TotalPages() int {
	n := 1 + len(s.ServicePages) + len(s.LocationPages) + len(s.ServiceAreaPages) + len(s.OtherPages)
	if s.ContactPage != nil {
		n++
	}
	return n
}

// AuditItem is one finding produced by a single rule check. Produced once
// per check per run; immutable.
type AuditItem struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Importance  Importance `json:"importance"`
	Notes       string     `json:"notes,omitempty"`
}

// AuditCategory groups the findings of one rule category.
type AuditCategory struct {
	Items []AuditItem `json:"items"`
}

// AuditSummary tallies finding statuses across all categories.
// Total always equals the sum of the four counts.
type AuditSummary struct {
	PriorityOFICount int `json:"priority_ofi_count"`
	OFICount         int `json:"ofi_count"`
	OKCount          int `json:"ok_count"`
	NACount          int `json:"na_count"`
	Total            int `json:"total"`
}

// RivalAudit is the terminal output of one audit run.
type RivalAudit struct {
	URL                 string        `json:"url"`
	Timestamp           time.Time     `json:"timestamp"`
	OnPage              AuditCategory `json:"on_page"`
	StructureNavigation AuditCategory `json:"structure_navigation"`
	ContactPage         AuditCategory `json:"contact_page"`
	ServicePages        AuditCategory `json:"service_pages"`
	LocationPages       AuditCategory `json:"location_pages"`
	ServiceAreaPages    AuditCategory `json:"service_area_pages"`
	Summary             AuditSummary  `json:"summary"`
}

// Categories returns the six audit categories in report order.
func (r *RivalAudit) Categories() []AuditCategory {
	return []AuditCategory{
		r.OnPage,
		r.StructureNavigation,
		r.ContactPage,
		r.ServicePages,
		r.LocationPages,
		r.ServiceAreaPages,
	}
}
