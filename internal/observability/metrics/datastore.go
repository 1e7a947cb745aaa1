// Package metrics provides Prometheus metric collectors for the catalog service
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for datastore operations
type DatastoreMetrics struct {
	dbOperationsTotal      *prometheus.CounterVec
	dbOperationDuration    *prometheus.HistogramVec
	dbOperationErrorsTotal *prometheus.CounterVec
	speciesCountGauge      prometheus.Gauge
}

// NewDatastoreMetrics creates and registers new datastore metrics
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{
		dbOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_db_operations_total",
				Help: "Total number of database operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		dbOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		dbOperationErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_db_operation_errors_total",
				Help: "Total number of database operation errors by operation",
			},
			[]string{"operation"},
		),
		speciesCountGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_species_count",
				Help: "Number of species records currently in the store",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.dbOperationsTotal,
		m.dbOperationDuration,
		m.dbOperationErrorsTotal,
		m.speciesCountGauge,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordOperation records a completed database operation with its outcome
func (m *DatastoreMetrics) RecordOperation(operation, status string, durationSeconds float64) {
	m.dbOperationsTotal.WithLabelValues(operation, status).Inc()
	m.dbOperationDuration.WithLabelValues(operation).Observe(durationSeconds)
	if status == "error" {
		m.dbOperationErrorsTotal.WithLabelValues(operation).Inc()
	}
}

// SetSpeciesCount updates the species record count gauge
func (m *DatastoreMetrics) SetSpeciesCount(count int) {
	m.speciesCountGauge.Set(float64(count))
}
