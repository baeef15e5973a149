package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OutrankHQ/siteaudit/engine/audit"
	"github.com/OutrankHQ/siteaudit/engine/domain"
)

type stubRunner struct {
	res *audit.Result
	err error
}

func (s *stubRunner) Run(context.Context, string) (*audit.Result, error) {
	return s.res, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// handleRoot registers h for exactly "/" — the Go 1.21 spelling of the
// Go 1.22+ "/{$}" mux pattern.
func handleRoot(mux *http.ServeMux, h http.HandlerFunc) {
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	})
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/health", nil)
	handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("expected status ok, got %s", resp["status"])
	}
}

func TestAuditEndpoint_InvalidJSON(t *testing.T) {
	handler := handleAudit(&stubRunner{}, quietLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/audit", bytes.NewBufferString("not json"))
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuditEndpoint_MissingURL(t *testing.T) {
	handler := handleAudit(&stubRunner{}, quietLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/audit", bytes.NewBufferString(`{"url":""}`))
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuditEndpoint_ConfigError(t *testing.T) {
	runner := &stubRunner{err: &domain.ConfigError{Field: "maxPages", Reason: "must be positive"}}
	handler := handleAudit(runner, quietLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/audit", bytes.NewBufferString(`{"url":"https://example.com"}`))
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "maxPages") {
		t.Fatalf("error body should name the field: %s", rec.Body.String())
	}
}

func TestAuditEndpoint_RobotsDenied(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("crawl https://example.com: %w", domain.ErrRobotsDisallowed)}
	handler := handleAudit(runner, quietLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/audit", bytes.NewBufferString(`{"url":"https://example.com"}`))
	handler(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "robots.txt") {
		t.Fatalf("error body should mention robots.txt: %s", rec.Body.String())
	}
}

func TestAuditEndpoint_UnreachableSeed(t *testing.T) {
	runner := &stubRunner{err: errors.New("crawl http://example.invalid: connection refused")}
	handler := handleAudit(runner, quietLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/audit", bytes.NewBufferString(`{"url":"http://example.invalid"}`))
	handler(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestAuditEndpoint_Success(t *testing.T) {
	runner := &stubRunner{res: &audit.Result{
		Report: domain.RivalAudit{
			URL:     "https://example.com",
			Summary: domain.AuditSummary{OKCount: 1, Total: 1},
		},
	}}
	handler := handleAudit(runner, quietLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/audit", bytes.NewBufferString(`{"url":"https://example.com"}`))
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report domain.RivalAudit
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.URL != "https://example.com" || report.Summary.Total != 1 {
		t.Fatalf("unexpected report: url=%q total=%d", report.URL, report.Summary.Total)
	}
}

func miniSite() http.Handler {
	page := func(title, body string) string {
		return `<!doctype html><html><head><meta name="viewport" content="width=device-width">` +
			`<title>` + title + `</title>` +
			`<meta name="description" content="Heating and cooling help for the greater metro area, seven days a week.">` +
			`</head><body><h1>` + title + `</h1><h2>Details</h2>` + body + `</body></html>`
	}
	mux := http.NewServeMux()
	handleRoot(mux, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page("Acme Heating", `<p>We fix furnaces fast and keep homes warm all winter.</p><a href="/contact">Contact</a>`))
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page("Contact Us", `<p>Call (512) 555-9999 or visit 1 Main St, Austin, TX 78701.</p><a href="/">Home</a>`))
	})
	return mux
}

// Drives a real auditor through the full middleware chain.
func TestServerWiring_AuditRoundTrip(t *testing.T) {
	site := httptest.NewServer(miniSite())
	defer site.Close()

	auditor := audit.New(audit.Config{
		MaxPages:       5,
		MaxConcurrency: 2,
		RequestTimeout: 2 * time.Second,
		RetryAttempts:  1,
		RequestDelay:   time.Millisecond,
		RespectRobots:  true,
	}, audit.Deps{Logger: quietLogger()})

	api := httptest.NewServer(newHandler(auditor, quietLogger(), "*"))
	defer api.Close()

	body, _ := json.Marshal(AuditRequest{URL: site.URL})
	resp, err := http.Post(api.URL+"/api/audit", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	var report domain.RivalAudit
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.URL != site.URL {
		t.Errorf("report url = %q, want %q", report.URL, site.URL)
	}
	if report.Summary.Total == 0 {
		t.Error("report carries no findings")
	}

	// The metrics endpoint reflects the audit that just ran.
	mresp, err := http.Get(api.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer mresp.Body.Close()
	raw, _ := io.ReadAll(mresp.Body)
	if !strings.Contains(string(raw), "siteaudit_api_audits_total") {
		t.Error("metrics output missing audit counter")
	}
}

func TestServerWiring_CORSPreflight(t *testing.T) {
	api := httptest.NewServer(newHandler(&stubRunner{}, quietLogger(), "https://app.example.com"))
	defer api.Close()

	req, _ := http.NewRequest(http.MethodOptions, api.URL+"/api/audit", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestServerWiring_RejectsOversizedBody(t *testing.T) {
	api := httptest.NewServer(newHandler(&stubRunner{}, quietLogger(), "*"))
	defer api.Close()

	big := `{"url":"` + strings.Repeat("a", 2<<20) + `"}`
	resp, err := http.Post(api.URL+"/api/audit", "application/json", strings.NewReader(big))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := loadConfig()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.CORSOrigin != "*" {
		t.Fatalf("expected default CORS *, got %s", cfg.CORSOrigin)
	}
	if cfg.MaxPages != 0 {
		t.Fatalf("expected max pages unset, got %d", cfg.MaxPages)
	}
}

func TestAuditConfig_Overrides(t *testing.T) {
	base := auditConfig(Config{})
	if base.MaxPages != audit.DefaultConfig().MaxPages {
		t.Fatalf("unset max pages should keep default, got %d", base.MaxPages)
	}

	tuned := auditConfig(Config{MaxPages: 5, UserAgent: "AcmeBot/2.0"})
	if tuned.MaxPages != 5 {
		t.Fatalf("max pages = %d, want 5", tuned.MaxPages)
	}
	if tuned.UserAgent != "AcmeBot/2.0" {
		t.Fatalf("user agent = %q", tuned.UserAgent)
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("TEST_ENV_VAR_XYZ", "custom")
	if v := envOr("TEST_ENV_VAR_XYZ", "default"); v != "custom" {
		t.Fatalf("expected custom, got %s", v)
	}
	if v := envOr("NONEXISTENT_VAR_ABC", "fallback"); v != "fallback" {
		t.Fatalf("expected fallback, got %s", v)
	}
}

func TestEnvOrInt(t *testing.T) {
	t.Setenv("TEST_ENV_INT_XYZ", "42")
	if v := envOrInt("TEST_ENV_INT_XYZ", 7); v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	t.Setenv("TEST_ENV_INT_BAD", "not-a-number")
	if v := envOrInt("TEST_ENV_INT_BAD", 7); v != 7 {
		t.Fatalf("expected fallback 7, got %d", v)
	}
}
