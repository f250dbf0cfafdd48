package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsExposure(t *testing.T) {
	DispatchRuns.Inc()
	DispatchErrors.Inc()
	IncAPIRetry("/chat/completions")
	IncCommandRun("generate")
	IncCommandError("generate")
	GenerationAttempts.WithLabelValues("SpecificObserver", "Initial").Inc()
	Replies.WithLabelValues("neutral").Inc()
	QualityScore.Observe(7)
	ObserveDispatchDuration(time.Now().Add(-1500 * time.Millisecond))
	ObserveLLMDuration(time.Now())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, m := range []string{
		"outreach_dispatch_runs_total",
		"outreach_dispatch_errors_total",
		"outreach_dispatch_duration_seconds",
		"outreach_api_retries_total",
		"outreach_command_runs_total",
		"outreach_generation_attempts_total",
		"outreach_replies_total",
		"outreach_quality_score",
		"outreach_llm_duration_seconds",
	} {
		if !strings.Contains(body, m) {
			t.Fatalf("expected metric %s in body", m)
		}
	}
}

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestCommandCounters(t *testing.T) {
	IncCommandRun("metrics_test")
	IncCommandRun("metrics_test")
	body := scrape(t)
	if !strings.Contains(body, `outreach_command_runs_total{command="metrics_test"} 2`) {
		t.Fatalf("command counter missing:\n%s", body)
	}
}
