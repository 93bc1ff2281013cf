// Package obs holds the service's Prometheus instruments.
package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	consultLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "openhealth",
		Name:      "consult_latency_seconds",
		Help:      "End-to-end consultation latency including backend fallback.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	consultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openhealth",
		Name:      "consults_total",
		Help:      "Consultations by outcome (ok, degraded) and triage level.",
	}, []string{"outcome", "triage"})

	backendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openhealth",
		Name:      "backend_failures_total",
		Help:      "Model backend call failures by model and failure kind.",
	}, []string{"model", "kind"})

	alertsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "openhealth",
		Name:      "alerts_emitted_total",
		Help:      "Threshold alerts emitted by severity.",
	}, []string{"severity"})
)

// ObserveConsult records one finished consultation.
func ObserveConsult(outcome, triage string, d time.Duration) {
	consultLatency.Observe(d.Seconds())
	consultsTotal.WithLabelValues(outcome, triage).Inc()
}

// ObserveBackendFailure records one failed backend invocation.
func ObserveBackendFailure(modelID, kind string) {
	backendFailures.WithLabelValues(modelID, kind).Inc()
}

// ObserveAlert records one emitted alert.
func ObserveAlert(severity string) {
	alertsEmitted.WithLabelValues(severity).Inc()
}
