package crawl

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsTimeout bounds the robots.txt fetch so the politeness check never
// holds up crawl workers for long.
const robotsTimeout = 5 * time.Second

// robotsGate fetches and caches robots.txt once per origin per session and
// answers fetch-permission questions for the configured user agent.
//
// Fail-open: when robots.txt cannot be fetched (any transport error or
// non-200 status, 404 included) or cannot be parsed, the origin is treated
// as fully allowed. Availability wins over strict compliance here.
type robotsGate struct {
	client  *http.Client
	agent   string
	respect bool

	mu       sync.Mutex
	byOrigin map[string]*robotstxt.RobotsData // nil entry = allow everything
}

func newRobotsGate(client *http.Client, agent string, respect bool) *robotsGate {
	return &robotsGate{
		client:   client,
		agent:    agent,
		respect:  respect,
		byOrigin: make(map[string]*robotstxt.RobotsData),
	}
}

// allowed reports whether u may be fetched.
func (g *robotsGate) allowed(ctx context.Context, u *url.URL) bool {
	if !g.respect {
		return true
	}
	origin := u.Scheme + "://" + u.Host

	g.mu.Lock()
	data, cached := g.byOrigin[origin]
	if !cached {
		data = g.fetch(ctx, origin)
		g.byOrigin[origin] = data
	}
	g.mu.Unlock()

	if data == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, g.agent)
}

// fetch retrieves and parses {origin}/robots.txt. A nil return means
// allow-all, covering every failure mode.
func (g *robotsGate) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	ctx, cancel := context.WithTimeout(ctx, robotsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", g.agent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data
}
