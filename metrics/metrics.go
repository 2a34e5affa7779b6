// Package metrics instruments the worker pool and file ingestion with Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	itemsProcessed *prometheus.CounterVec
	itemDuration   *prometheus.HistogramVec
	workerRestarts *prometheus.CounterVec
	batchesTotal   *prometheus.CounterVec
	filesIngested  *prometheus.CounterVec
	registryFiles  *prometheus.GaugeVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		itemsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coderegistry_pool_items_total",
			Help: "Items processed by the worker pool by processor and result",
		}, []string{"processor", "result"}),
		itemDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coderegistry_pool_item_duration_seconds",
			Help:    "Per-item processing time",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"processor"}),
		workerRestarts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coderegistry_pool_worker_restarts_total",
			Help: "Workers replaced after a crash",
		}, []string{"processor"}),
		batchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coderegistry_pool_batches_total",
			Help: "Batches submitted to the worker pool",
		}, []string{"processor"}),
		filesIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coderegistry_ingest_files_total",
			Help: "Files seen during ingestion by outcome (indexed or the error kind)",
		}, []string{"outcome"}),
		registryFiles: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "coderegistry_registry_files",
			Help: "Records currently held per project",
		}, []string{"project"}),
	}
}

// ObserveItem records one processed item.
func (m *Metrics) ObserveItem(processor string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.itemsProcessed.WithLabelValues(processor, result).Inc()
	m.itemDuration.WithLabelValues(processor).Observe(elapsed.Seconds())
}

// WorkerRestarted records a crashed worker being replaced.
func (m *Metrics) WorkerRestarted(processor string) {
	if m == nil {
		return
	}
	m.workerRestarts.WithLabelValues(processor).Inc()
}

// BatchSubmitted records a submitted batch.
func (m *Metrics) BatchSubmitted(processor string) {
	if m == nil {
		return
	}
	m.batchesTotal.WithLabelValues(processor).Inc()
}

// FileIngested records an ingestion outcome; outcome is "indexed" or an error kind.
func (m *Metrics) FileIngested(outcome string) {
	if m == nil {
		return
	}
	m.filesIngested.WithLabelValues(outcome).Inc()
}

// SetRegistrySize records the number of records in a project's registry.
func (m *Metrics) SetRegistrySize(project string, files int) {
	if m == nil {
		return
	}
	m.registryFiles.WithLabelValues(project).Set(float64(files))
}

// Handler serves the collectors gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
