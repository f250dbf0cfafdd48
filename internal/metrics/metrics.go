package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GenerationAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_generation_attempts_total",
		Help: "Generation attempts by variant and stage",
	}, []string{"variant", "stage"})
	GenerationRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_generation_rejections_total",
		Help: "Candidates rejected by the spam guard or as duplicates",
	}, []string{"variant", "reason"})
	GenerationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_generation_failures_total",
		Help: "Generations that exhausted all attempts",
	}, []string{"variant"})
	QualityScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outreach_quality_score",
		Help:    "Spam guard quality scores",
		Buckets: prometheus.LinearBuckets(1, 1, 10),
	})
	LLMCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_llm_calls_total",
		Help: "Calls to the generation service",
	}, []string{"outcome"})
	LLMDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outreach_llm_duration_seconds",
		Help:    "Generation service latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"endpoint"})
	FollowUpsScheduled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_followups_scheduled_total",
		Help: "Follow-ups scheduled by stage",
	}, []string{"stage"})
	MessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_messages_sent_total",
		Help: "Messages handed to the sender by stage",
	}, []string{"stage"})
	Replies = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_replies_total",
		Help: "Seller replies by sentiment",
	}, []string{"sentiment"})
	DispatchRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outreach_dispatch_runs_total",
		Help: "Total follow-up dispatch runs",
	})
	DispatchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outreach_dispatch_errors_total",
		Help: "Total follow-up dispatch errors",
	})
	DispatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outreach_dispatch_duration_seconds",
		Help:    "Dispatch run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_command_runs_total",
		Help: "CLI command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outreach_command_errors_total",
		Help: "CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(
		GenerationAttempts, GenerationRejections, GenerationFailures, QualityScore,
		LLMCalls, LLMDuration, APIRetries,
		FollowUpsScheduled, MessagesSent, Replies,
		DispatchRuns, DispatchErrors, DispatchDuration,
		CommandRuns, CommandErrors,
	)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// ObserveDispatchDuration records a run duration
func ObserveDispatchDuration(start time.Time) {
	DispatchDuration.Observe(time.Since(start).Seconds())
}

// ObserveLLMDuration records one generation service call.
func ObserveLLMDuration(start time.Time) {
	LLMDuration.Observe(time.Since(start).Seconds())
}

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
