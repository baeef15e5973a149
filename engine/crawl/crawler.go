package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/OutrankHQ/siteaudit/engine/classify"
	"github.com/OutrankHQ/siteaudit/engine/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Crawler runs bounded crawl sessions. It holds no per-session state, so one
// Crawler may serve concurrent Run calls.
type Crawler struct {
	cfg    Config
	log    *slog.Logger
	client *http.Client
	speed  SpeedProvider
}

// Option customizes a Crawler.
type Option func(*Crawler)

// WithSpeedProvider injects a real page-speed source. Without one, every
// page gets a deterministic synthesized estimate.
func WithSpeedProvider(p SpeedProvider) Option {
	return func(c *Crawler) { c.speed = p }
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Crawler) { c.client = hc }
}

// WithLogger attaches a logger. The crawler is silent without one.
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) { c.log = l }
}

// New builds a Crawler. Zero-valued cfg fields take their defaults; invalid
// values are reported by Run before any network activity.
func New(cfg Config, opts ...Option) *Crawler {
	c := &Crawler{
		cfg:    cfg.withDefaults(),
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot is the outcome of one crawl session: the classified site plus the
// URLs dropped after exhausting retries.
type Snapshot struct {
	Structure  domain.SiteStructure
	FailedURLs []string
}

// outcome carries one worker's result back to the dispatcher.
type outcome struct {
	url  string
	page domain.PageCrawlResult
	err  error
}

// Run performs one crawl session. The homepage is fetched first and a
// failure there aborts the audit; any other page failure only drops that
// page. Cancelling ctx stops new fetches and returns whatever was gathered.
func (c *Crawler) Run(ctx context.Context, seedURL string) (*Snapshot, error) {
	if err := domain.ValidateSeedURL(seedURL); err != nil {
		return nil, err
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	seed := Normalize(seedURL)
	seedU, err := url.Parse(seed)
	if err != nil {
		return nil, &domain.ConfigError{Field: "url", Reason: "seed URL does not parse: " + err.Error()}
	}

	gate := newRobotsGate(c.client, c.cfg.UserAgent, c.cfg.RespectRobots)
	if !gate.allowed(ctx, seedU) {
		return nil, fmt.Errorf("seed %s: %w", seed, domain.ErrRobotsDisallowed)
	}

	f := newFetcher(c.cfg, c.client, c.speed)

	home, err := f.FetchPage(ctx, seed).Unwrap()
	if err != nil {
		return nil, err
	}
	c.log.Info("homepage fetched", "url", seed, "links", len(home.Links.Internal))

	structure := domain.SiteStructure{Homepage: home}

	frontier := NewFrontier()
	frontier.MarkSeen(seed)

	locs, found := discoverSitemap(ctx, c.client, c.cfg.UserAgent, seedU)
	structure.HasSitemapXML = found
	if n := frontier.AddAll(locs); n > 0 {
		c.log.Debug("sitemap seeded frontier", "urls", n)
	}
	frontier.AddAll(home.Links.Internal)

	snap := &Snapshot{}
	c.crawlFrontier(ctx, f, gate, frontier, &structure, snap)
	snap.Structure = structure

	c.log.Info("crawl finished",
		"url", seed,
		"pages", structure.TotalPages(),
		"failed", len(snap.FailedURLs),
		"sitemap", structure.HasSitemapXML)
	return snap, nil
}

// crawlFrontier drains the frontier through a worker pool until the page cap
// is reached or no URLs remain. On cancellation it stops issuing work and
// drains in-flight fetches so workers exit cleanly.
func (c *Crawler) crawlFrontier(ctx context.Context, f *fetcher, gate *robotsGate, frontier *Frontier, structure *domain.SiteStructure, snap *Snapshot) {
	work := make(chan string)
	out := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.MaxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range work {
				out <- c.fetchOne(ctx, f, gate, u)
			}
		}()
	}

	completed := 1 // homepage
	issued := 0
	var held string
	haveHeld := false
	done := ctx.Done()
	cancelled := false

	for {
		if !cancelled && !haveHeld && completed+issued < c.cfg.MaxPages {
			if u, ok := frontier.Next(); ok {
				held, haveHeld = u, true
			}
		}

		var sendCh chan string
		if !cancelled && haveHeld && completed+issued < c.cfg.MaxPages {
			sendCh = work
		}
		if sendCh == nil && issued == 0 {
			break
		}

		select {
		case sendCh <- held:
			haveHeld = false
			issued++
		case res := <-out:
			issued--
			if res.err != nil {
				c.recordFailure(res, snap)
				continue
			}
			completed++
			c.place(res.page, structure, frontier)
		case <-done:
			done = nil
			cancelled = true
			c.log.Warn("crawl cancelled, finishing in-flight fetches", "issued", issued)
		}
	}

	close(work)
	wg.Wait()
}

// fetchOne gates and fetches a single frontier URL.
func (c *Crawler) fetchOne(ctx context.Context, f *fetcher, gate *robotsGate, pageURL string) outcome {
	u, err := url.Parse(pageURL)
	if err != nil {
		return outcome{url: pageURL, err: domain.NewCrawlError(pageURL, domain.KindParse, err)}
	}
	if !gate.allowed(ctx, u) {
		return outcome{url: pageURL, err: fmt.Errorf("%s: %w", pageURL, domain.ErrRobotsDisallowed)}
	}
	page, err := f.FetchPage(ctx, pageURL).Unwrap()
	if err != nil {
		return outcome{url: pageURL, err: err}
	}
	return outcome{url: pageURL, page: page}
}

func (c *Crawler) recordFailure(res outcome, snap *Snapshot) {
	if errors.Is(res.err, domain.ErrRobotsDisallowed) {
		c.log.Debug("robots.txt disallows page, skipping", "url", res.url)
		return
	}
	snap.FailedURLs = append(snap.FailedURLs, res.url)
	c.log.Warn("page dropped", "url", res.url, "error", res.err)
}

// place buckets a completed page and feeds its internal links back to the
// frontier. The first contact page wins; later ones land in otherPages.
func (c *Crawler) place(page domain.PageCrawlResult, structure *domain.SiteStructure, frontier *Frontier) {
	frontier.AddAll(page.Links.Internal)

	kind := classify.Classify(page)
	switch kind {
	case domain.KindContact:
		if structure.ContactPage == nil {
			structure.ContactPage = &page
		} else {
			structure.OtherPages = append(structure.OtherPages, page)
		}
	case domain.KindService:
		structure.ServicePages = append(structure.ServicePages, page)
	case domain.KindLocation:
		structure.LocationPages = append(structure.LocationPages, page)
	case domain.KindServiceArea:
		structure.ServiceAreaPages = append(structure.ServiceAreaPages, page)
	default:
		structure.OtherPages = append(structure.OtherPages, page)
	}
	c.log.Debug("page classified", "url", page.URL, "kind", kind)
}
