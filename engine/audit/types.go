package audit

import (
	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/engine/similarity"
)

// Crawled is the pipeline state after the crawl stage: the canonical seed
// plus everything the crawler saw.
type Crawled struct {
	SeedURL    string
	Structure  domain.SiteStructure
	FailedURLs []string
}

// Analyzed adds the duplicate-content reports for the two templated page
// buckets.
type Analyzed struct {
	Crawled
	LocationUniqueness    similarity.Report
	ServiceAreaUniqueness similarity.Report
}

// Result is the terminal output of one audit run.
type Result struct {
	Report     domain.RivalAudit    `json:"report"`
	Structure  domain.SiteStructure `json:"structure"`
	FailedURLs []string             `json:"failed_urls,omitempty"`
}

// Request asks a worker to audit one site.
type Request struct {
	RequestID string `json:"request_id,omitempty"`
	SeedURL   string `json:"seed_url"`
}

// Completed announces a finished audit run on the completed subject.
type Completed struct {
	RequestID  string            `json:"request_id,omitempty"`
	SeedURL    string            `json:"seed_url"`
	Report     domain.RivalAudit `json:"report"`
	FailedURLs []string          `json:"failed_urls,omitempty"`
}

// dlqMessage is published to the DLQ when a request keeps failing or is
// rejected outright.
type dlqMessage struct {
	Request Request `json:"request"`
	Error   string  `json:"error"`
	Retries int     `json:"retries"`
}
