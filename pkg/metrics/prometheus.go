// Package metrics provides Prometheus metrics for the openCern converter.
package metrics

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dataset outcomes.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Manager manages all Prometheus metrics for the converter.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Conversion metrics
	rowsScanned        *prometheus.CounterVec
	eventsAccepted     *prometheus.CounterVec
	eventsRejected     *prometheus.CounterVec
	particlesExtracted *prometheus.CounterVec
	datasetsProcessed  *prometheus.CounterVec
	processingDuration *prometheus.HistogramVec
	eventsPerSecond    *prometheus.GaugeVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Stream metrics
	streamClients    prometheus.Gauge
	streamEventsSent prometheus.Counter

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "opencern",
		subsystem:        "converter",
		histogramBuckets: durationBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsScanned = m.counterVec("rows_scanned_total",
		"Source rows read, accepted or not", "experiment")
	m.eventsAccepted = m.counterVec("events_accepted_total",
		"Rows that passed the selection cuts", "experiment")
	m.eventsRejected = m.counterVec("events_rejected_total",
		"Rows rejected by a selection cut", "experiment", "reason")
	m.particlesExtracted = m.counterVec("particles_extracted_total",
		"Particle records built from accepted rows", "type")
	m.datasetsProcessed = m.counterVec("datasets_processed_total",
		"Input files handled, by outcome", "experiment", "status")
	m.errorsByComponent = m.counterVec("errors_total",
		"Errors by component and kind", "component", "kind")
	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")

	m.processingDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "processing_duration_seconds",
		Help:        "Wall time of one dataset conversion",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"experiment"})

	m.eventsPerSecond = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_per_second",
		Help:        "Scan throughput of the last conversion",
		ConstLabels: m.customLabels,
	}, []string{"experiment"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.streamClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stream_clients",
		Help:        "Connected event stream clients",
		ConstLabels: m.customLabels,
	})

	m.streamEventsSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stream_events_sent_total",
		Help:        "Events pushed to stream clients",
		ConstLabels: m.customLabels,
	})
}

// RecordRowsScanned adds n scanned rows.
func (m *Manager) RecordRowsScanned(experiment string, n int64) {
	if m.enabled && n > 0 {
		m.rowsScanned.WithLabelValues(experiment).Add(float64(n))
	}
}

// RecordEventAccepted counts one accepted row.
func (m *Manager) RecordEventAccepted(experiment string) {
	if m.enabled {
		m.eventsAccepted.WithLabelValues(experiment).Inc()
	}
}

// RecordEventRejected counts one row rejected for reason.
func (m *Manager) RecordEventRejected(experiment, reason string) {
	if m.enabled {
		m.eventsRejected.WithLabelValues(experiment, reason).Inc()
	}
}

// RecordParticles adds n particles of one type.
func (m *Manager) RecordParticles(particleType string, n int) {
	if m.enabled && n > 0 {
		m.particlesExtracted.WithLabelValues(particleType).Add(float64(n))
	}
}

// RecordDataset records one finished conversion.
func (m *Manager) RecordDataset(experiment, status string, seconds float64, eventsPerSec int64) {
	if !m.enabled {
		return
	}
	m.datasetsProcessed.WithLabelValues(experiment, status).Inc()
	if status == StatusOK {
		m.processingDuration.WithLabelValues(experiment).Observe(seconds)
		m.eventsPerSecond.WithLabelValues(experiment).Set(float64(eventsPerSec))
	}
}

// RecordHTTPRequest records one served request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// AddStreamClients moves the connected client gauge by delta.
func (m *Manager) AddStreamClients(delta int) {
	if m.enabled {
		m.streamClients.Add(float64(delta))
	}
}

// RecordStreamEvent counts one event pushed to a client.
func (m *Manager) RecordStreamEvent() {
	if m.enabled {
		m.streamEventsSent.Inc()
	}
}

// RecordError records an error with component and kind labels.
func (m *Manager) RecordError(component, kind string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, kind).Inc()
	}
}

// Package-level helpers backed by the global manager.

// RecordRowsScanned adds n scanned rows.
func RecordRowsScanned(experiment string, n int64) { globalManager.RecordRowsScanned(experiment, n) }

// RecordEventAccepted counts one accepted row.
func RecordEventAccepted(experiment string) { globalManager.RecordEventAccepted(experiment) }

// RecordEventRejected counts one row rejected for reason.
func RecordEventRejected(experiment, reason string) {
	globalManager.RecordEventRejected(experiment, reason)
}

// RecordParticles adds n particles of one type.
func RecordParticles(particleType string, n int) { globalManager.RecordParticles(particleType, n) }

// RecordDataset records one finished conversion.
func RecordDataset(experiment, status string, seconds float64, eventsPerSec int64) {
	globalManager.RecordDataset(experiment, status, seconds, eventsPerSec)
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// AddStreamClients moves the connected client gauge by delta.
func AddStreamClients(delta int) { globalManager.AddStreamClients(delta) }

// RecordStreamEvent counts one event pushed to a client.
func RecordStreamEvent() { globalManager.RecordStreamEvent() }

// RecordError records an error with component and kind labels.
func RecordError(component, kind string) { globalManager.RecordError(component, kind) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return errors.Mark(errors.Wrapf(err, "write %s", path), ErrExportFailed)
	}
	return nil
}
