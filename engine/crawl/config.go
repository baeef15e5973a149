// Package crawl implements a polite, bounded site crawler: URL
// normalization, robots.txt gating, page fetching with retry, sitemap
// discovery, and a concurrent orchestrator that assembles the crawled
// pages into a domain.SiteStructure.
package crawl

import (
	"time"

	"github.com/OutrankHQ/siteaudit/engine/domain"
)

// Config holds the crawl session settings.
type Config struct {
	// MaxPages caps fetched pages per session, homepage included.
	MaxPages int
	// MaxConcurrency is the fetch worker pool size.
	MaxConcurrency int
	// RequestTimeout bounds each HTTP attempt.
	RequestTimeout time.Duration
	// RetryAttempts is the total tries per page on network/HTTP failures.
	RetryAttempts int
	// RequestDelay is the politeness delay between requests.
	RequestDelay time.Duration
	// UserAgent is sent on every request and matched against robots.txt.
	UserAgent string
	// RespectRobots disables the politeness gate when false.
	RespectRobots bool
}

// DefaultUserAgent identifies the crawler to origin servers.
const DefaultUserAgent = "SiteAuditBot/1.0 (+https://github.com/OutrankHQ/siteaudit)"

// DefaultConfig returns the stock crawl settings.
func DefaultConfig() Config {
	return Config{
		MaxPages:       25,
		MaxConcurrency: 4,
		RequestTimeout: 10 * time.Second,
		RetryAttempts:  3,
		RequestDelay:   1500 * time.Millisecond,
		UserAgent:      DefaultUserAgent,
		RespectRobots:  true,
	}
}

// withDefaults fills zero values from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxPages == 0 {
		c.MaxPages = d.MaxPages
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = d.MaxConcurrency
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	if c.RequestDelay == 0 {
		c.RequestDelay = d.RequestDelay
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	return c
}

// Validate rejects settings that cannot produce a crawl. Called before any
// network activity.
func (c Config) Validate() error {
	if c.MaxPages < 1 {
		return &domain.ConfigError{Field: "maxPages", Reason: "must be at least 1"}
	}
	if c.MaxConcurrency < 1 {
		return &domain.ConfigError{Field: "maxConcurrency", Reason: "must be at least 1"}
	}
	if c.RequestTimeout < 0 {
		return &domain.ConfigError{Field: "requestTimeout", Reason: "must not be negative"}
	}
	if c.RetryAttempts < 1 {
		return &domain.ConfigError{Field: "retryAttempts", Reason: "must be at least 1"}
	}
	if c.RequestDelay < 0 {
		return &domain.ConfigError{Field: "requestDelay", Reason: "must not be negative"}
	}
	return nil
}
