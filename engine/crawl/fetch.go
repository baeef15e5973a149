package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
	"github.com/OutrankHQ/siteaudit/pkg/resilience"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a page is read for extraction.
const maxBodyBytes = 4 << 20

// fetched is the raw outcome of one successful GET.
type fetched struct {
	url      string // requested (normalized) URL
	finalURL *url.URL
	body     []byte
	https    bool
}

// fetcher retrieves single pages with politeness pacing, per-host circuit
// breaking, and retry with exponential backoff on transient failures.
type fetcher struct {
	client   *http.Client
	agent    string
	timeout  time.Duration
	retry    fn.RetryOpts
	limiter  *rate.Limiter
	breakers *resilience.HostBreakers
	speed    SpeedProvider
}

func newFetcher(cfg Config, client *http.Client, speed SpeedProvider) *fetcher {
	return &fetcher{
		client:  client,
		agent:   cfg.UserAgent,
		timeout: cfg.RequestTimeout,
		retry: fn.RetryOpts{
			MaxAttempts: cfg.RetryAttempts,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     8 * time.Second,
			Jitter:      true,
			RetryIf:     retryable,
		},
		limiter:  rate.NewLimiter(rate.Every(cfg.RequestDelay), cfg.MaxConcurrency),
		breakers: resilience.NewHostBreakers(resilience.DefaultBreakerOpts),
		speed:    speed,
	}
}

// retryable gates the retry loop: network and HTTP failures are worth
// another attempt, parse failures and open circuits are not.
func retryable(err error) bool {
	var ce *domain.CrawlError
	if errors.As(err, &ce) {
		return ce.Kind == domain.KindNetwork || ce.Kind == domain.KindHTTP
	}
	return false
}

// FetchPage retrieves pageURL and extracts it into a PageCrawlResult.
// Only the HTTP round trip is retried; extraction runs once on the final
// body, and a parse failure drops the page.
func (f *fetcher) FetchPage(ctx context.Context, pageURL string) fn.Result[domain.PageCrawlResult] {
	raw := fn.Retry(ctx, f.retry, func(ctx context.Context) fn.Result[*fetched] {
		return f.get(ctx, pageURL)
	})
	doc, err := raw.Unwrap()
	if err != nil {
		return fn.Err[domain.PageCrawlResult](err)
	}

	page, err := extractPage(doc)
	if err != nil {
		return fn.Err[domain.PageCrawlResult](err)
	}

	page.PageLoadSpeed = f.measure(ctx, page.URL)
	return fn.Ok(page)
}

// measure asks the injected provider for performance metrics, falling back
// to the synthesized estimate when absent or failing.
func (f *fetcher) measure(ctx context.Context, pageURL string) domain.PageLoadSpeed {
	if f.speed == nil {
		return SynthesizeSpeed(pageURL)
	}
	ps, err := f.speed.Measure(ctx, pageURL)
	if err != nil {
		return SynthesizeSpeed(pageURL)
	}
	return ps
}

// get performs one rate-limited, breaker-guarded GET attempt.
func (f *fetcher) get(ctx context.Context, pageURL string) fn.Result[*fetched] {
	if err := f.limiter.Wait(ctx); err != nil {
		return fn.Err[*fetched](err)
	}

	host := pageURL
	if u, err := url.Parse(pageURL); err == nil {
		host = u.Hostname()
	}
	return resilience.CallResult(f.breakers.For(host), ctx, func(ctx context.Context) fn.Result[*fetched] {
		return f.do(ctx, pageURL)
	})
}

func (f *fetcher) do(ctx context.Context, pageURL string) fn.Result[*fetched] {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fn.Err[*fetched](domain.NewCrawlError(pageURL, domain.KindParse, err))
	}
	req.Header.Set("User-Agent", f.agent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return fn.Err[*fetched](domain.NewCrawlError(pageURL, domain.KindNetwork, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fn.Err[*fetched](&domain.CrawlError{
			URL:        pageURL,
			Kind:       domain.KindHTTP,
			StatusCode: resp.StatusCode,
			Wrapped:    fmt.Errorf("unexpected status %s", resp.Status),
		})
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !htmlContentType(ct) {
		return fn.Err[*fetched](domain.NewCrawlError(pageURL, domain.KindParse,
			fmt.Errorf("unsupported content type %q", ct)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fn.Err[*fetched](domain.NewCrawlError(pageURL, domain.KindNetwork, err))
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}
	return fn.Ok(&fetched{
		url:      pageURL,
		finalURL: finalURL,
		body:     body,
		https:    finalURL.Scheme == "https",
	})
}

func htmlContentType(ct string) bool {
	mime := strings.TrimSpace(strings.Split(strings.ToLower(ct), ";")[0])
	switch mime {
	case "text/html", "application/xhtml+xml", "text/xml", "application/xml":
		return true
	}
	return false
}
