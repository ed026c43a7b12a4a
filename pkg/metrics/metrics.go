// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMDuration tracks language model call duration.
	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Language model call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// ToolContextFetches tracks tool context lookups by kind and outcome.
	ToolContextFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_context_fetches_total",
			Help: "Tool context fetches by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// ProviderAttempts tracks image generation attempts per provider and model.
	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_provider_attempts_total",
			Help: "Image generation attempts by provider, model and outcome",
		},
		[]string{"provider", "model", "outcome"},
	)

	// TryOnTotal tracks try-on requests by outcome.
	TryOnTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tryon_requests_total",
			Help: "Try-on synthesis requests by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	// SessionsCreated tracks chat sessions created.
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Total chat sessions created",
		},
	)

	// PersistenceFailures tracks transcript writes that failed and were skipped.
	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transcript_persistence_failures_total",
			Help: "Transcript appends that failed; the reply was still returned",
		},
	)

	// MessagesTotal tracks total chat turns handled.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total chat turns handled",
		},
		[]string{"role"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMCall records metrics for a completed language model call.
func RecordLLMCall(provider, model, status string, duration float64, tokensIn, tokensOut int) {
	LLMDuration.WithLabelValues(provider, status).Observe(duration)
	if model == "" {
		return
	}
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordToolFetch records the outcome of a tool context fetch.
func RecordToolFetch(kind, outcome string) {
	ToolContextFetches.WithLabelValues(kind, outcome).Inc()
}

// RecordProviderAttempt records a single image provider attempt.
func RecordProviderAttempt(provider, model, outcome string) {
	ProviderAttempts.WithLabelValues(provider, model, outcome).Inc()
}
