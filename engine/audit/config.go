package audit

import (
	"time"

	"github.com/OutrankHQ/siteaudit/engine/crawl"
	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/engine/similarity"
)

// Config holds everything one audit run can be tuned with. The crawl knobs
// mirror crawl.Config; SimilarityThreshold feeds the duplicate-content
// analysis.
type Config struct {
	MaxPages            int
	MaxConcurrency      int
	RequestTimeout      time.Duration
	RetryAttempts       int
	RequestDelay        time.Duration
	UserAgent           string
	RespectRobots       bool
	SimilarityThreshold float64
}

// DefaultConfig returns the stock audit settings.
func DefaultConfig() Config {
	cc := crawl.DefaultConfig()
	return Config{
		MaxPages:            cc.MaxPages,
		MaxConcurrency:      cc.MaxConcurrency,
		RequestTimeout:      cc.RequestTimeout,
		RetryAttempts:       cc.RetryAttempts,
		RequestDelay:        cc.RequestDelay,
		UserAgent:           cc.UserAgent,
		RespectRobots:       cc.RespectRobots,
		SimilarityThreshold: similarity.DefaultThreshold,
	}
}

// withDefaults fills zero values from DefaultConfig. RespectRobots stays
// as given; construct from DefaultConfig to get the polite default.
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
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = d.SimilarityThreshold
	}
	return c
}

// Validate rejects settings that cannot produce an audit.
func (c Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return &domain.ConfigError{Field: "similarityThreshold", Reason: "must be between 0 and 1"}
	}
	return c.crawlConfig().Validate()
}

// crawlConfig maps the audit settings onto the crawler's.
func (c Config) crawlConfig() crawl.Config {
	return crawl.Config{
		MaxPages:       c.MaxPages,
		MaxConcurrency: c.MaxConcurrency,
		RequestTimeout: c.RequestTimeout,
		RetryAttempts:  c.RetryAttempts,
		RequestDelay:   c.RequestDelay,
		UserAgent:      c.UserAgent,
		RespectRobots:  c.RespectRobots,
	}
}
