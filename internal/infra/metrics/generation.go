package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		generationRequestsTotal,
		generationLatencyMs,
		copyTokensTotal,
	)
}

var (
	generationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_requests_total",
			Help: "Generation calls by kind (copy/video), provider and success.",
		},
		[]string{"kind", "provider", "success"},
	)

	generationLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_latency_ms",
			Help:    "Provider call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
		},
		[]string{"kind", "provider"},
	)

	copyTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copy_tokens_total",
			Help: "Prompt and completion tokens per copy provider.",
		},
		[]string{"provider", "direction"},
	)
)

func ObserveGeneration(kind, provider string, success bool, elapsed time.Duration) {
	generationRequestsTotal.WithLabelValues(norm(kind), norm(provider), strconv.FormatBool(success)).Inc()
	generationLatencyMs.WithLabelValues(norm(kind), norm(provider)).Observe(float64(elapsed.Milliseconds()))
}

func AddCopyTokens(provider string, promptTokens, completionTokens int) {
	copyTokensTotal.WithLabelValues(norm(provider), "prompt").Add(float64(promptTokens))
	copyTokensTotal.WithLabelValues(norm(provider), "completion").Add(float64(completionTokens))
}
