// Package metrics exposes the Prometheus metrics for the monitoring
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bridgeguard"

// Validation pipeline metrics
var (
	// ValidationsTotal counts validation requests by verdict.
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Validation requests by verdict",
		},
		[]string{"verdict"}, // valid, invalid, rejected, error
	)

	// ValidationDuration times the full validation path.
	ValidationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Validation request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// RateLimitRejections counts requests refused before any side effect.
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the sliding window limiter",
		},
	)
)

// Anomaly pipeline metrics
var (
	// AnomalyScore observes the distribution of scores, 0-1 scale.
	AnomalyScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "anomaly_score",
			Help:      "Anomaly score distribution",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	// DetectionsTotal counts detections by severity.
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Anomaly detections by severity",
		},
		[]string{"severity"}, // low, medium, high, critical
	)

	// AlertsTotal counts alerts by type and severity.
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts raised by type and severity",
		},
		[]string{"type", "severity"},
	)

	// AlertsDeduplicated counts alerts suppressed by the dedupe cache.
	AlertsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_deduplicated_total",
			Help:      "Alert notifications suppressed as duplicates",
		},
	)

	// NotificationsTotal counts outbound notifications by channel and outcome.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outbound alert notifications by channel and outcome",
		},
		[]string{"channel", "outcome"}, // outcome: success, failed
	)
)

// Node metrics
var (
	// NodeHealthChecks counts health checks by resulting state.
	NodeHealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_health_checks_total",
			Help:      "Node health checks by resulting state",
		},
		[]string{"state"}, // UNREACHABLE, SYNCING, HEALTHY
	)

	// NodeBlockHeight tracks the latest observed block height.
	NodeBlockHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_block_height",
			Help:      "Latest block height reported by the node",
		},
	)

	// RPCRequestsTotal counts RPC calls by method and outcome.
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Node RPC calls by method and outcome",
		},
		[]string{"method", "outcome"}, // outcome: success, failed
	)

	// RPCRequestDuration times RPC calls.
	RPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_request_duration_seconds",
			Help:      "Node RPC call duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)
)

// Helper functions

// RecordValidation records one validation outcome.
func RecordValidation(verdict string, durationSeconds float64) {
	ValidationsTotal.WithLabelValues(verdict).Inc()
	if durationSeconds > 0 {
		ValidationDuration.Observe(durationSeconds)
	}
}

// RecordDetection records one anomaly detection.
func RecordDetection(severity string, score float64) {
	DetectionsTotal.WithLabelValues(severity).Inc()
	AnomalyScore.Observe(score)
}

// RecordAlert records one raised alert.
func RecordAlert(alertType, severity string) {
	AlertsTotal.WithLabelValues(alertType, severity).Inc()
}

// RecordNotification records one outbound notification attempt.
func RecordNotification(channel string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failed"
	}
	NotificationsTotal.WithLabelValues(channel, outcome).Inc()
}

// RecordRPCRequest records one RPC call.
func RecordRPCRequest(method string, success bool, durationSeconds float64) {
	outcome := "success"
	if !success {
		outcome = "failed"
	}
	RPCRequestsTotal.WithLabelValues(method, outcome).Inc()
	RPCRequestDuration.WithLabelValues(method).Observe(durationSeconds)
}
