package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics contains Prometheus metrics for catalog service operations
type CatalogMetrics struct {
	recognitionsTotal *prometheus.CounterVec
	createsTotal      *prometheus.CounterVec
}

// NewCatalogMetrics creates and registers new catalog service metrics
func NewCatalogMetrics(registry *prometheus.Registry) (*CatalogMetrics, error) {
	m := &CatalogMetrics{
		recognitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_recognitions_total",
				Help: "Total number of recognition events by outcome",
			},
			[]string{"status"},
		),
		createsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_species_creates_total",
				Help: "Total number of species create operations by outcome",
			},
			[]string{"status"},
		),
	}

	collectors := []prometheus.Collector{
		m.recognitionsTotal,
		m.createsTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordRecognition records the outcome of a recognition event
func (m *CatalogMetrics) RecordRecognition(status string) {
	m.recognitionsTotal.WithLabelValues(status).Inc()
}

// RecordCreate records the outcome of a species create
func (m *CatalogMetrics) RecordCreate(status string) {
	m.createsTotal.WithLabelValues(status).Inc()
}
