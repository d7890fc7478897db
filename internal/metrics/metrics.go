// Package metrics defines the Prometheus instruments exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Document store
	DocstoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docstore_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DocstoreOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstore_operation_errors_total",
			Help: "Total number of failed document store operations",
		},
		[]string{"operation"},
	)

	DocstoreListeners = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docstore_active_listeners",
			Help: "Current number of collection listeners",
		},
	)

	DocstoreSnapshotsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docstore_snapshots_delivered_total",
			Help: "Total number of collection snapshots offered to listeners",
		},
	)

	// Catalog (TMDB)
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total number of catalog API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Duration of catalog API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	CatalogBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_circuit_breaker_state",
			Help: "Catalog circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Favorites
	FavoriteToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "favorites_toggles_total",
			Help: "Total number of favorites toggles by direction and result",
		},
		[]string{"direction", "result"},
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SSEClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connected_clients",
			Help: "Current number of connected SSE clients",
		},
	)
)

// RecordDocstoreOp records the duration and outcome of a document store operation.
func RecordDocstoreOp(operation string, duration time.Duration, err error) {
	DocstoreOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DocstoreOpErrors.WithLabelValues(operation).Inc()
	}
}

// RecordCatalogRequest records a catalog API request.
func RecordCatalogRequest(endpoint string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	CatalogRequests.WithLabelValues(endpoint, outcome).Inc()
	CatalogRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordToggle records a favorites toggle.
func RecordToggle(adding bool, err error) {
	direction := "remove"
	if adding {
		direction = "add"
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	FavoriteToggles.WithLabelValues(direction, result).Inc()
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
