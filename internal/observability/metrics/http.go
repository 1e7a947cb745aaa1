package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics contains Prometheus metrics for the HTTP API layer
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers new HTTP metrics
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_http_requests_total",
				Help: "Total number of HTTP requests by method, path and status code",
			},
			[]string{"method", "path", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	collectors := []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordRequest records a completed HTTP request. The path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func (m *HTTPMetrics) RecordRequest(method, path string, code int, durationSeconds float64) {
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}
