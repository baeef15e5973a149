// Command audit runs one site audit and writes the report as JSON to
// stdout or a file. Logs go to stderr so piped output stays clean.
// With -nats the crawl is handed to the worker fleet instead of running
// in-process.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/OutrankHQ/siteaudit/engine/audit"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

func main() {
	var (
		outPath   = flag.String("out", "", "write the report here instead of stdout")
		maxPages  = flag.Int("max-pages", 0, "crawl page cap; 0 keeps the default")
		userAgent = flag.String("user-agent", "", "crawler user agent override")
		delay     = flag.Duration("delay", 0, "per-request politeness delay; 0 keeps the default")
		noRobots  = flag.Bool("ignore-robots", false, "crawl without consulting robots.txt")
		compact   = flag.Bool("compact", false, "single-line JSON output")
		natsURL   = flag.String("nats", "", "submit to the audit worker fleet at this NATS URL instead of crawling locally")
		wait      = flag.Duration("wait", 5*time.Minute, "queued mode: how long to wait for the report")
	)
	flag.Parse()

	log := slog.Default()

	seed := flag.Arg(0)
	if seed == "" {
		fmt.Fprintln(os.Stderr, "usage: audit [flags] <seed-url>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		res *audit.Result
		err error
	)
	if *natsURL != "" {
		res, err = runQueued(ctx, *natsURL, seed, *wait)
	} else {
		auditor := audit.New(cliConfig(*maxPages, *userAgent, *delay, *noRobots), audit.Deps{Logger: log})
		res, err = auditor.Run(ctx, seed)
	}
	if err != nil {
		log.Error("audit failed", "seed", seed, "error", err)
		os.Exit(1)
	}

	for _, u := range res.FailedURLs {
		log.Warn("page not crawled", "url", u)
	}

	if err := emit(res, *outPath, *compact); err != nil {
		log.Error("write report failed", "error", err)
		os.Exit(1)
	}
}

// runQueued hands the audit to the worker fleet and waits for the matching
// completed event. Crawl tuning flags do not apply; the workers crawl with
// their own settings.
func runQueued(ctx context.Context, natsURL, seed string, wait time.Duration) (*audit.Result, error) {
	nc, err := nats.Connect(natsURL, nats.Name("siteaudit-cli"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	reqID := uuid.NewString()
	ch := make(chan audit.Completed, 1)
	sub, err := audit.SubscribeCompleted(nc, matchCompletion(reqID, ch))
	if err != nil {
		return nil, err
	}
	defer sub.Unsubscribe()

	if err := audit.Submit(ctx, nc, audit.Request{RequestID: reqID, SeedURL: seed}); err != nil {
		return nil, err
	}

	select {
	case c := <-ch:
		return &audit.Result{Report: c.Report, FailedURLs: c.FailedURLs}, nil
	case <-time.After(wait):
		return nil, fmt.Errorf("no report after %s", wait)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// matchCompletion forwards the completed event for one request ID, ignoring
// reports other requests published on the shared subject.
func matchCompletion(reqID string, ch chan<- audit.Completed) func(context.Context, audit.Completed) {
	return func(_ context.Context, c audit.Completed) {
		if c.RequestID != reqID {
			return
		}
		select {
		case ch <- c:
		default:
		}
	}
}

func cliConfig(maxPages int, userAgent string, delay time.Duration, noRobots bool) audit.Config {
	cfg := audit.DefaultConfig()
	if maxPages > 0 {
		cfg.MaxPages = maxPages
	}
	if userAgent != "" {
		cfg.UserAgent = userAgent
	}
	if delay > 0 {
		cfg.RequestDelay = delay
	}
	if noRobots {
		cfg.RespectRobots = false
	}
	return cfg
}

func emit(res *audit.Result, path string, compact bool) error {
	if path == "" {
		return writeReport(os.Stdout, res, compact)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeReport(f, res, compact); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeReport(w io.Writer, res *audit.Result, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res.Report)
}
