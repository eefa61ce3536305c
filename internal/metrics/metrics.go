package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/felixgeelhaar/docreview/internal/document"
)

// Metrics holds all Prometheus metrics for docreview
type Metrics struct {
	// API client metrics
	APIRequests        *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIInFlight        prometheus.Gauge

	// Session lifecycle metrics
	AuthEvents *prometheus.CounterVec

	// Document query metrics
	QueriesBuilt  *prometheus.CounterVec
	QueryPageSize prometheus.Histogram

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docreview_api_requests_total",
				Help: "Total number of document API requests",
			},
			[]string{"method", "code"},
		),
		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docreview_api_request_duration_seconds",
				Help:    "Document API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method"},
		),
		APIInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "docreview_api_requests_in_flight",
				Help: "Document API requests currently in flight",
			},
		),

		AuthEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docreview_auth_events_total",
				Help: "Login, profile, logout and registration events",
			},
			[]string{"event", "outcome"},
		),

		QueriesBuilt: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docreview_queries_built_total",
				Help: "Document listing queries built, by caller role and scoping",
			},
			[]string{"reviewer", "scope"},
		),
		QueryPageSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docreview_query_page_size",
				Help:    "Requested page size of document listings",
				Buckets: []float64{5, 10, 25, 50, 100},
			},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docreview_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// InstrumentRoundTripper wraps next with request counters, latency and an
// in-flight gauge.
func (m *Metrics) InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperInFlight(m.APIInFlight,
		promhttp.InstrumentRoundTripperCounter(m.APIRequests,
			promhttp.InstrumentRoundTripperDuration(m.APIRequestDuration, next),
		),
	)
}

// RecordAuthEvent counts a session lifecycle event.
func (m *Metrics) RecordAuthEvent(event, outcome string) {
	m.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// QueryBuilt counts a built listing query by how it was scoped.
func (m *Metrics) QueryBuilt(reviewer bool, q document.Query) {
	scope := "all"
	switch {
	case q.CreatorID != "":
		scope = "creator_id"
	case q.CreatorEmail != "":
		scope = "creator_email"
	}
	m.QueriesBuilt.WithLabelValues(strconv.FormatBool(reviewer), scope).Inc()
	m.QueryPageSize.Observe(float64(q.Size))
}

// RecordError counts an error by its code.
func (m *Metrics) RecordError(code, component string) {
	m.Errors.WithLabelValues(code, component).Inc()
}
