package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	VersionCreatedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_version_created_count",
			Help: "Total number of artifact versions created",
		},
		[]string{"category"},
	)

	ClosureValidationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "closure_validation_count",
			Help: "Total number of closure validations performed",
		},
		[]string{"outcome"}, // outcome: pass, fail
	)

	ProjectClosedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_closed_count",
			Help: "Total number of projects closed",
		},
		[]string{"forced"},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

func IncrementVersionCreated(category string) {
	VersionCreatedCount.WithLabelValues(category).Inc()
}

func IncrementClosureValidation(canClose bool) {
	outcome := "fail"
	if canClose {
		outcome = "pass"
	}
	ClosureValidationCount.WithLabelValues(outcome).Inc()
}

func IncrementProjectClosed(forced bool) {
	label := "false"
	if forced {
		label = "true"
	}
	ProjectClosedCount.WithLabelValues(label).Inc()
}
