// Package audit orchestrates a complete site audit: crawl, duplicate
// content analysis, rule evaluation, and aggregation into a RivalAudit.
// It also hosts the NATS worker surface for queued audit requests.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/OutrankHQ/siteaudit/engine/crawl"
	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/engine/rules"
	"github.com/OutrankHQ/siteaudit/engine/similarity"
	"github.com/OutrankHQ/siteaudit/pkg/fn"
	"github.com/OutrankHQ/siteaudit/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

const (
	// RequestSubject is the NATS subject for incoming audit requests.
	RequestSubject = "audit.request"
	// CompletedSubject carries finished audit reports.
	CompletedSubject = "audit.completed"
	// DLQSubject is the dead letter queue for requests that keep failing.
	DLQSubject = "audit.request.dlq"
	// MaxRetries before a request goes to the DLQ.
	MaxRetries = 3
	// WorkerQueue is the queue group competing audit workers join.
	WorkerQueue = "audit-workers"
)

// Deps holds the external dependencies for the audit pipeline.
type Deps struct {
	HTTPClient *http.Client        // optional; forwarded to the crawler
	Speed      crawl.SpeedProvider // optional page speed source
	Logger     *slog.Logger
	Now        func() time.Time // report timestamp source, defaults to time.Now
}

// --- Pipeline stages ---

// ValidateSeed rejects unusable audit targets before any network activity.
var ValidateSeed fn.Stage[string, string] = func(_ context.Context, seedURL string) fn.Result[string] {
	if err := domain.ValidateSeedURL(seedURL); err != nil {
		return fn.Err[string](err)
	}
	return fn.Ok(seedURL)
}

// NewCrawlStage runs the bounded crawl for the seed.
func NewCrawlStage(c *crawl.Crawler) fn.Stage[string, Crawled] {
	return func(ctx context.Context, seedURL string) fn.Result[Crawled] {
		snap, err := c.Run(ctx, seedURL)
		if err != nil {
			return fn.Err[Crawled](fmt.Errorf("crawl %s: %w", seedURL, err))
		}
		return fn.Ok(Crawled{
			SeedURL:    snap.Structure.Homepage.URL,
			Structure:  snap.Structure,
			FailedURLs: snap.FailedURLs,
		})
	}
}

// NewAnalyzeStage scores the templated page buckets for duplicate copy.
func NewAnalyzeStage(threshold float64) fn.Stage[Crawled, Analyzed] {
	return fn.MapStage(func(c Crawled) Analyzed {
		return Analyzed{
			Crawled:               c,
			LocationUniqueness:    similarity.Analyze(c.Structure.LocationPages, threshold),
			ServiceAreaUniqueness: similarity.Analyze(c.Structure.ServiceAreaPages, threshold),
		}
	})
}

// NewReportStage evaluates the six rule categories and assembles the report.
func NewReportStage(now func() time.Time) fn.Stage[Analyzed, *Result] {
	return fn.MapStage(func(a Analyzed) *Result {
		facts := rules.Facts{
			Structure:             a.Structure,
			LocationUniqueness:    a.LocationUniqueness,
			ServiceAreaUniqueness: a.ServiceAreaUniqueness,
		}
		report := domain.RivalAudit{
			URL:                 a.SeedURL,
			Timestamp:           now().UTC(),
			OnPage:              domain.AuditCategory{Items: rules.RunChecks(rules.OnPage, facts)},
			StructureNavigation: domain.AuditCategory{Items: rules.RunChecks(rules.StructureNavigation, facts)},
			ContactPage:         domain.AuditCategory{Items: rules.RunChecks(rules.ContactPage, facts)},
			ServicePages:        domain.AuditCategory{Items: rules.RunChecks(rules.ServicePages, facts)},
			LocationPages:       domain.AuditCategory{Items: rules.RunChecks(rules.LocationPages, facts)},
			ServiceAreaPages:    domain.AuditCategory{Items: rules.RunChecks(rules.ServiceAreaPages, facts)},
		}
		report.Summary = Summarize(report.Categories())
		return &Result{Report: report, Structure: a.Structure, FailedURLs: a.FailedURLs}
	})
}

// timed wraps a stage with duration logging and an OTel span.
func timed[In, Out any](name string, log *slog.Logger, stage fn.Stage[In, Out]) fn.Stage[In, Out] {
	traced := fn.TracedStage(name, stage)
	return func(ctx context.Context, in In) fn.Result[Out] {
		start := time.Now()
		res := traced(ctx, in)
		if res.IsErr() {
			_, err := res.Unwrap()
			log.Warn("audit stage failed", "stage", name, "duration", time.Since(start), "error", err)
			return res
		}
		log.Debug("audit stage done", "stage", name, "duration", time.Since(start))
		return res
	}
}

// NewPipeline wires validate, crawl, analyze, report.
func NewPipeline(cfg Config, deps Deps) fn.Stage[string, *Result] {
	cfg = cfg.withDefaults()
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	crawler := newCrawler(cfg, deps, log)
	validated := timed("validate", log, ValidateSeed)
	crawled := fn.Then(validated, timed("crawl", log, NewCrawlStage(crawler)))
	analyzed := fn.Then(crawled, timed("analyze", log, NewAnalyzeStage(cfg.SimilarityThreshold)))
	return fn.Then(analyzed, timed("report", log, NewReportStage(nowFunc(deps))))
}

func newCrawler(cfg Config, deps Deps, log *slog.Logger) *crawl.Crawler {
	opts := []crawl.Option{crawl.WithLogger(log)}
	if deps.HTTPClient != nil {
		opts = append(opts, crawl.WithHTTPClient(deps.HTTPClient))
	}
	if deps.Speed != nil {
		opts = append(opts, crawl.WithSpeedProvider(deps.Speed))
	}
	return crawl.New(cfg.crawlConfig(), opts...)
}

func nowFunc(deps Deps) func() time.Time {
	if deps.Now != nil {
		return deps.Now
	}
	return time.Now
}

// Auditor runs complete audit sessions. Safe for concurrent use.
type Auditor struct {
	cfg      Config
	log      *slog.Logger
	pipeline fn.Stage[string, *Result]
}

// New builds an Auditor from settings and dependencies.
func New(cfg Config, deps Deps) *Auditor {
	cfg = cfg.withDefaults()
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Auditor{cfg: cfg, log: log, pipeline: NewPipeline(cfg, deps)}
}

// Run audits one site. Config problems surface as *domain.ConfigError
// before any network activity; a seed the crawler cannot start from (robots
// denial, unreachable homepage) fails the run as a whole.
func (a *Auditor) Run(ctx context.Context, seedURL string) (*Result, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := a.pipeline(ctx, seedURL).Unwrap()
	if err != nil {
		return nil, err
	}

	a.log.Info("audit complete",
		"url", res.Report.URL,
		"pages", res.Structure.TotalPages(),
		"failed", len(res.FailedURLs),
		"priority_ofi", res.Report.Summary.PriorityOFICount,
		"duration", time.Since(start),
	)
	return res, nil
}

// permanent reports errors that retrying cannot fix.
func permanent(err error) bool {
	var ce *domain.ConfigError
	return errors.As(err, &ce) || errors.Is(err, domain.ErrRobotsDisallowed)
}

// Submit enqueues an audit request for the worker fleet.
func Submit(ctx context.Context, nc *nats.Conn, req Request) error {
	return natsutil.Publish(ctx, nc, RequestSubject, req)
}

// SubscribeCompleted delivers every finished report to handler.
func SubscribeCompleted(nc *nats.Conn, handler func(context.Context, Completed)) (*nats.Subscription, error) {
	return natsutil.Subscribe(nc, CompletedSubject, handler)
}

// ConsumerOption adjusts the NATS consumer.
type ConsumerOption func(*consumerHooks)

type consumerHooks struct {
	onResult  func(context.Context, *Result)
	onFailure func(context.Context, Request, error)
}

// WithResultHook runs h after every successful audit, before the completed
// event is published. Workers hang persistence and metrics off this.
func WithResultHook(h func(context.Context, *Result)) ConsumerOption {
	return func(c *consumerHooks) { c.onResult = h }
}

// WithFailureHook runs h after every failed attempt, including attempts
// that will be retried.
func WithFailureHook(h func(context.Context, Request, error)) ConsumerOption {
	return func(c *consumerHooks) { c.onFailure = h }
}

// StartConsumer subscribes the auditor to the request subject as part of
// the worker queue group. Transient failures are re-published with a retry
// counter header; permanent rejections and exhausted retries go to the DLQ.
func StartConsumer(nc *nats.Conn, a *Auditor, opts ...ConsumerOption) (*nats.Subscription, error) {
	var hooks consumerHooks
	for _, opt := range opts {
		opt(&hooks)
	}

	return nc.QueueSubscribe(RequestSubject, WorkerQueue, func(msg *nats.Msg) {
		var req Request
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			a.log.Error("audit request unmarshal failed", "error", err)
			return
		}

		ctx := context.Background()
		res, err := a.Run(ctx, req.SeedURL)
		if err == nil {
			if hooks.onResult != nil {
				hooks.onResult(ctx, res)
			}
			done := Completed{
				RequestID:  req.RequestID,
				SeedURL:    res.Report.URL,
				Report:     res.Report,
				FailedURLs: res.FailedURLs,
			}
			if err := natsutil.Publish(ctx, nc, CompletedSubject, done); err != nil {
				a.log.Error("completed publish failed", "error", err, "request_id", req.RequestID)
			}
			return
		}

		if hooks.onFailure != nil {
			hooks.onFailure(ctx, req, err)
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get("X-Retry-Count"); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}
		retries++
		a.log.Error("audit failed", "error", err, "seed", req.SeedURL, "retry", retries)

		if permanent(err) || retries >= MaxRetries {
			dlq := dlqMessage{Request: req, Error: err.Error(), Retries: retries}
			data, _ := json.Marshal(dlq)
			if err := nc.Publish(DLQSubject, data); err != nil {
				a.log.Error("dlq publish failed", "error", err)
			}
			return
		}

		retryMsg := nats.NewMsg(RequestSubject)
		retryMsg.Data = msg.Data
		retryMsg.Header = nats.Header{}
		retryMsg.Header.Set("X-Retry-Count", fmt.Sprintf("%d", retries))
		if err := nc.PublishMsg(retryMsg); err != nil {
			a.log.Error("retry publish failed", "error", err)
		}
	})
}
