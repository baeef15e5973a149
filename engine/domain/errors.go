package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the crawl layer.
var (
	// ErrRobotsDisallowed reports that robots.txt forbids fetching a URL.
	// Fatal for the seed URL, skippable for any discovered link.
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
)

// ErrorKind distinguishes crawl failures for retry decisions.
type ErrorKind string

const (
	// KindNetwork covers DNS, connect, TLS, and timeout failures. Retryable.
	KindNetwork ErrorKind = "network"
	// KindHTTP covers non-success status codes. Retryable.
	KindHTTP ErrorKind = "http"
	// KindParse covers malformed response bodies. Never retried.
	KindParse ErrorKind = "parse"
)

// CrawlError wraps a failure to fetch or parse one URL.
type CrawlError struct {
	URL        string
	Kind       ErrorKind
	StatusCode int
	Wrapped    error
}

func (e *CrawlError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("crawl %s: %s error (status %d): %v", e.URL, e.Kind, e.StatusCode, e.Wrapped)
	}
	return fmt.Sprintf("crawl %s: %s error: %v", e.URL, e.Kind, e.Wrapped)
}

func (e *CrawlError) Unwrap() error { return e.Wrapped }

// NewCrawlError creates a CrawlError.
func NewCrawlError(url string, kind ErrorKind, wrapped error) *CrawlError {
	return &CrawlError{URL: url, Kind: kind, Wrapped: wrapped}
}

// ConfigError reports an invalid audit configuration value, detected before
// any network activity.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}
