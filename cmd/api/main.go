// Command api serves site audits over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/OutrankHQ/siteaudit/engine/audit"
	"github.com/OutrankHQ/siteaudit/engine/crawl"
	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/metrics"
	"github.com/OutrankHQ/siteaudit/pkg/mid"
	"github.com/OutrankHQ/siteaudit/pkg/pagespeed"
)

var met = metrics.New()

var (
	mAudits = func(outcome string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("siteaudit_api_audits_total", "outcome", outcome), "Audit requests by outcome")
	}
	mAuditDuration = met.Histogram("siteaudit_api_audit_duration_seconds", "End to end audit latency", nil)
	mActiveAudits  = met.Gauge("siteaudit_api_active_audits", "Audits currently running")
)

// Config holds all environment-based configuration.
type Config struct {
	Port         string
	CORSOrigin   string
	MaxPages     int
	UserAgent    string
	PageSpeedKey string
}

func loadConfig() Config {
	return Config{
		Port:         envOr("PORT", "8080"),
		CORSOrigin:   envOr("CORS_ORIGIN", "*"),
		MaxPages:     envOrInt("AUDIT_MAX_PAGES", 0),
		UserAgent:    envOr("AUDIT_USER_AGENT", ""),
		PageSpeedKey: envOr("PAGESPEED_API_KEY", ""),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// auditConfig maps server settings onto the audit defaults. Zero values
// leave the defaults untouched.
func auditConfig(cfg Config) audit.Config {
	ac := audit.DefaultConfig()
	if cfg.MaxPages > 0 {
		ac.MaxPages = cfg.MaxPages
	}
	if cfg.UserAgent != "" {
		ac.UserAgent = cfg.UserAgent
	}
	return ac
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := audit.Deps{Logger: logger}
	if cfg.PageSpeedKey != "" {
		deps.Speed = crawl.NewInsightsProvider(pagespeed.NewClient("", cfg.PageSpeedKey))
		logger.Info("pagespeed insights enabled")
	}

	auditor := audit.New(auditConfig(cfg), deps)
	handler := newHandler(auditor, logger, cfg.CORSOrigin)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// An audit crawls the whole site before responding.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// requireMethod restricts h to one HTTP method (GET also admits HEAD) and
// answers other methods with 405 plus an Allow header, matching how the
// Go 1.22+ ServeMux treats method-prefixed patterns.
func requireMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			allow := method
			if method == http.MethodGet {
				allow = http.MethodGet + ", " + http.MethodHead
			}
			w.Header().Set("Allow", allow)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// newHandler builds the routed and middleware-wrapped server handler.
func newHandler(runner auditRunner, logger *slog.Logger, corsOrigin string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", requireMethod(http.MethodGet, handleHealth))
	mux.HandleFunc("/api/audit", requireMethod(http.MethodPost, handleAudit(runner, logger)))
	mux.Handle("/metrics", requireMethod(http.MethodGet, met.Handler().ServeHTTP))

	return mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel("siteaudit-api"),
		mid.CORS(corsOrigin),
		mid.MaxBytes(1<<20),
	)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// AuditRequest is the JSON body for POST /api/audit.
type AuditRequest struct {
	URL string `json:"url"`
}

// auditRunner lets tests stand in for the real Auditor.
type auditRunner interface {
	Run(ctx context.Context, seedURL string) (*audit.Result, error)
}

func handleAudit(runner auditRunner, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AuditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			mAudits("bad_request").Inc()
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.URL == "" {
			mAudits("bad_request").Inc()
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		start := time.Now()
		mActiveAudits.Inc()
		res, err := runner.Run(r.Context(), req.URL)
		mActiveAudits.Dec()
		mAuditDuration.Since(start)

		if err != nil {
			var ce *domain.ConfigError
			switch {
			case errors.As(err, &ce):
				mAudits("bad_request").Inc()
				writeError(w, http.StatusBadRequest, ce.Error())
			case errors.Is(err, domain.ErrRobotsDisallowed):
				mAudits("failed").Inc()
				writeError(w, http.StatusBadGateway, "seed site disallows crawling via robots.txt")
			default:
				mAudits("failed").Inc()
				logger.Error("audit failed", "url", req.URL, "error", err)
				writeError(w, http.StatusBadGateway, "seed site could not be crawled")
			}
			return
		}

		mAudits("ok").Inc()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res.Report)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
