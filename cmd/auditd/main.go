// Command auditd runs site audits from the NATS request queue and publishes
// completed reports. With -neo4j set it also persists crawled structures and
// report summaries to the site graph.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OutrankHQ/siteaudit/engine/audit"
	"github.com/OutrankHQ/siteaudit/engine/crawl"
	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/engine/sitegraph"
	"github.com/OutrankHQ/siteaudit/pkg/metrics"
	"github.com/OutrankHQ/siteaudit/pkg/pagespeed"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var met = metrics.New()

// Worker metrics
var (
	mAuditsCompleted = met.Counter("siteaudit_worker_audits_completed_total", "Audits finished successfully")
	mAuditsFailed    = met.Counter("siteaudit_worker_audits_failed_total", "Audit attempts that failed")
	mPagesCrawled    = met.Counter("siteaudit_worker_pages_crawled_total", "Pages crawled across audits")
	mPriorityOFIs    = met.Counter("siteaudit_worker_priority_ofi_total", "Priority findings raised")
	mGraphWrites     = met.Counter("siteaudit_worker_graph_writes_total", "Site graph persistence writes")
	mGraphErrors     = met.Counter("siteaudit_worker_graph_write_errors_total", "Site graph persistence failures")
)

func main() {
	var (
		natsURL     = flag.String("nats", nats.DefaultURL, "NATS server URL")
		neo4jURL    = flag.String("neo4j", "", "Neo4j bolt URL; empty disables persistence")
		neo4jUser   = flag.String("neo4j-user", "neo4j", "Neo4j username")
		neo4jPass   = flag.String("neo4j-pass", "password", "Neo4j password")
		maxPages    = flag.Int("max-pages", 0, "crawl page cap; 0 keeps the default")
		userAgent   = flag.String("user-agent", "", "crawler user agent override")
		psiKey      = flag.String("pagespeed-key", "", "PageSpeed Insights API key; empty synthesizes speed estimates")
		metricsPort = flag.Int("metrics-port", 9092, "metrics server port")
	)
	flag.Parse()

	met.CollectRuntime("siteaudit_worker", 15*time.Second)
	met.ServeAsync(*metricsPort)

	log := slog.Default()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(*natsURL, nats.Name("siteaudit-worker"))
	if err != nil {
		log.Error("nats connect failed", "error", err)
		os.Exit(1)
	}
	defer nc.Drain()
	log.Info("connected to NATS", "url", *natsURL)

	var store graphStore
	if *neo4jURL != "" {
		driver, err := neo4j.NewDriverWithContext(*neo4jURL, neo4j.BasicAuth(*neo4jUser, *neo4jPass, ""))
		if err != nil {
			log.Error("neo4j connect failed", "error", err)
			os.Exit(1)
		}
		defer driver.Close(ctx)
		if err := driver.VerifyConnectivity(ctx); err != nil {
			log.Error("neo4j verify failed", "error", err)
			os.Exit(1)
		}
		store = sitegraph.New(driver)
		log.Info("connected to Neo4j, persisting audits")
	}

	cfg := audit.DefaultConfig()
	if *maxPages > 0 {
		cfg.MaxPages = *maxPages
	}
	if *userAgent != "" {
		cfg.UserAgent = *userAgent
	}

	deps := audit.Deps{Logger: log}
	if *psiKey != "" {
		deps.Speed = crawl.NewInsightsProvider(pagespeed.NewClient("", *psiKey))
		log.Info("pagespeed insights enabled")
	}

	auditor := audit.New(cfg, deps)

	sub, err := audit.StartConsumer(nc, auditor,
		audit.WithResultHook(recordResult(store, log)),
		audit.WithFailureHook(func(context.Context, audit.Request, error) {
			mAuditsFailed.Inc()
		}),
	)
	if err != nil {
		log.Error("consumer start failed", "error", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	log.Info("audit worker ready", "subject", audit.RequestSubject, "queue", audit.WorkerQueue)
	<-ctx.Done()
	log.Info("shutting down")
}

// graphStore is the slice of sitegraph.Store the worker needs.
type graphStore interface {
	SaveStructure(ctx context.Context, siteURL string, st domain.SiteStructure) error
	SaveAudit(ctx context.Context, r domain.RivalAudit) error
	RecentAudits(ctx context.Context, siteURL string, limit int) ([]sitegraph.AuditRecord, error)
}

// recordResult counts a finished audit and persists it when a store is
// configured.
func recordResult(store graphStore, log *slog.Logger) func(context.Context, *audit.Result) {
	return func(ctx context.Context, res *audit.Result) {
		mAuditsCompleted.Inc()
		mPagesCrawled.Add(int64(res.Structure.TotalPages()))
		mPriorityOFIs.Add(int64(res.Report.Summary.PriorityOFICount))

		if store == nil {
			return
		}
		if err := store.SaveStructure(ctx, res.Report.URL, res.Structure); err != nil {
			mGraphErrors.Inc()
			log.Error("structure persist failed", "url", res.Report.URL, "error", err)
			return
		}
		if err := store.SaveAudit(ctx, res.Report); err != nil {
			mGraphErrors.Inc()
			log.Error("audit persist failed", "url", res.Report.URL, "error", err)
			return
		}
		mGraphWrites.Inc()
		log.Info("audit persisted", "url", res.Report.URL)

		history, err := store.RecentAudits(ctx, res.Report.URL, 2)
		if err != nil || len(history) < 2 {
			return
		}
		log.Info("audit history",
			"url", res.Report.URL,
			"priority_ofi", history[0].PriorityOFI,
			"prev_priority_ofi", history[1].PriorityOFI)
	}
}
