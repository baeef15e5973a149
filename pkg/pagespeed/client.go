// Package pagespeed provides a client for the PageSpeed Insights v5 API.
package pagespeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBaseURL is the public PageSpeed Insights endpoint.
const DefaultBaseURL = "https://www.googleapis.com/pagespeedonline/v5"

// Metrics is the subset of a Lighthouse run the audit consumes. Paint and
// blocking times are in milliseconds; Score is 0-100.
type Metrics struct {
	Score                  int
	FirstContentfulPaint   float64
	TotalBlockingTime      float64
	LargestContentfulPaint float64
}

// Client calls the PageSpeed Insights HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a PageSpeed Insights client. An empty baseURL uses the
// public endpoint; apiKey may be empty for unauthenticated quota.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

type runResponse struct {
	LighthouseResult struct {
		Categories struct {
			Performance struct {
				Score float64 `json:"score"`
			} `json:"performance"`
		} `json:"categories"`
		Audits map[string]struct {
			NumericValue float64 `json:"numericValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
}

// Measure runs a mobile Lighthouse analysis for pageURL.
func (c *Client) Measure(ctx context.Context, pageURL string) (Metrics, error) {
	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("strategy", "mobile")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/runPagespeed?"+q.Encode(), nil)
	if err != nil {
		return Metrics{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Metrics{}, fmt.Errorf("pagespeed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return Metrics{}, fmt.Errorf("pagespeed: status %d", resp.StatusCode)
	}

	var result runResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Metrics{}, fmt.Errorf("pagespeed decode: %w", err)
	}

	lr := result.LighthouseResult
	return Metrics{
		Score:                  int(lr.Categories.Performance.Score * 100),
		FirstContentfulPaint:   lr.Audits["first-contentful-paint"].NumericValue,
		TotalBlockingTime:      lr.Audits["total-blocking-time"].NumericValue,
		LargestContentfulPaint: lr.Audits["largest-contentful-paint"].NumericValue,
	}, nil
}
