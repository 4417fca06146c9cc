package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered with the default registry through promauto

var (
	// ==================== HTTP METRICS ====================

	// HTTPRequestDuration tracks the duration of HTTP requests
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestsTotal counts total HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestsInFlight tracks currently processing requests
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// ==================== BUSINESS METRICS ====================

	// LinksCreatedTotal counts links created
	LinksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "links_created_total",
			Help: "Total number of short links created",
		},
		[]string{"code_origin"}, // custom, generated
	)

	// CreateFailuresTotal counts rejected create requests by reason
	CreateFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_create_failures_total",
			Help: "Total number of rejected create requests",
		},
		[]string{"reason"},
	)

	// CodeGenerationRetriesTotal counts generated codes that collided with an existing link
	CodeGenerationRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "code_generation_retries_total",
			Help: "Total number of generated short codes discarded because of a collision",
		},
	)

	// RedirectsTotal counts successful resolutions
	RedirectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redirects_total",
			Help: "Total number of successful redirects",
		},
	)

	// ResolveRejectionsTotal counts resolutions that sent the visitor home
	ResolveRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolve_rejections_total",
			Help: "Total number of resolutions rejected",
		},
		[]string{"reason"}, // not_found, expired
	)

	// ClicksRecordedTotal counts analytics events
	ClicksRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clicks_recorded_total",
			Help: "Total number of click events recorded",
		},
	)

	// ==================== TELEMETRY METRICS ====================

	// TelemetryEventsTotal counts log events handed to the remote sink, by outcome
	TelemetryEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_events_total",
			Help: "Total number of telemetry events by outcome",
		},
		[]string{"outcome"}, // sent, failed, dropped, rejected
	)

	// ==================== STORAGE METRICS ====================

	// StoreOperationDuration tracks storage backend latency
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of storage operations in seconds",
			Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"backend", "operation"}, // insert, get, append_click, list
	)

	// StoreErrorsTotal counts storage backend errors
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Total number of storage backend errors",
		},
		[]string{"backend", "operation"},
	)
)

// RecordLinkCreated increments the link creation counter
func RecordLinkCreated(custom bool) {
	origin := "generated"
	if custom {
		origin = "custom"
	}
	LinksCreatedTotal.WithLabelValues(origin).Inc()
}

// RecordCreateFailure increments the create failure counter for reason
func RecordCreateFailure(reason string) {
	CreateFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordCodeRetry increments the generation retry counter
func RecordCodeRetry() {
	CodeGenerationRetriesTotal.Inc()
}

// RecordRedirect increments redirect counter
func RecordRedirect() {
	RedirectsTotal.Inc()
}

// RecordResolveRejected increments the rejection counter for reason
func RecordResolveRejected(reason string) {
	ResolveRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordClickRecorded increments click recording counter
func RecordClickRecorded() {
	ClicksRecordedTotal.Inc()
}

// RecordTelemetry increments the telemetry counter for outcome
func RecordTelemetry(outcome string) {
	TelemetryEventsTotal.WithLabelValues(outcome).Inc()
}

// RecordStoreError increments the storage error counter
func RecordStoreError(backend, operation string) {
	StoreErrorsTotal.WithLabelValues(backend, operation).Inc()
}
