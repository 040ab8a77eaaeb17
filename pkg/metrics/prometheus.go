// Package metrics provides Prometheus metrics for the gridcast pipeline.
package metrics

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets covers provider round trips and model fits, in milliseconds.
var latencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000} //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Provider boundary
	providerRequests *prometheus.CounterVec
	providerRetries  *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec

	// Table building
	sessionsAggregated *prometheus.CounterVec
	sessionsSkipped    *prometheus.CounterVec
	eventsBuilt        prometheus.Counter
	eventsSkipped      *prometheus.CounterVec

	// Build queue and workers
	buildQueueSize  prometheus.Gauge
	buildWorkers    prometheus.Gauge
	buildJobLatency prometheus.Histogram

	// Training
	trainingEvents prometheus.Gauge
	trainingRows   prometheus.Gauge
	fitDuration    prometheus.Histogram
	predictions    *prometheus.CounterVec
	lastMAE        prometheus.Gauge
	lastR2         prometheus.Gauge

	// HTTP serve mode
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "gridcast",
		subsystem:        "pipeline",
		histogramBuckets: latencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)

	m.providerRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "provider_requests_total",
			Help:      "Telemetry provider requests by endpoint and HTTP status",
		},
		[]string{"endpoint", "status_code"},
	)

	m.providerRetries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "provider_retries_total",
			Help:      "Requests retried after the provider answered 429",
		},
		[]string{"endpoint"},
	)

	m.providerLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "provider_latency_milliseconds",
			Help:      "Telemetry provider round trip in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint"},
	)

	m.sessionsAggregated = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sessions_aggregated_total",
			Help:      "Sessions reduced to per-driver metrics",
		},
		[]string{"session"},
	)

	m.sessionsSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sessions_skipped_total",
			Help:      "Sessions without usable data by reason",
		},
		[]string{"session", "reason"},
	)

	m.eventsBuilt = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_built_total",
		Help:      "Grand prix tables written to the table store",
	})

	m.eventsSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_skipped_total",
			Help:      "Events left out of a build or a training corpus by reason",
		},
		[]string{"reason"},
	)

	m.buildQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "build_queue_size",
		Help:      "Build jobs waiting for a worker",
	})

	m.buildWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "build_workers",
		Help:      "Workers of the running build pool",
	})

	m.buildJobLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "build_job_duration_milliseconds",
		Help:      "Time to fetch, merge and save one event in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.trainingEvents = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "training_events",
		Help:      "Events in the most recent training corpus",
	})

	m.trainingRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "training_rows",
		Help:      "Driver rows in the most recent training corpus",
	})

	m.fitDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fit_duration_milliseconds",
		Help:      "Model fit duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.predictions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "predictions_total",
			Help:      "Prediction runs by model kind and outcome",
		},
		[]string{"model", "outcome"},
	)

	m.lastMAE = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_mae",
		Help:      "Mean absolute error of the most recent evaluated prediction",
	})

	m.lastR2 = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_r2",
		Help:      "Coefficient of determination of the most recent evaluated prediction",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordProviderRequest counts a provider request by its final status code.
func RecordProviderRequest(endpoint, statusCode string) {
	globalManager.providerRequests.WithLabelValues(endpoint, statusCode).Inc()
}

// RecordProviderRetry counts a rate-limit retry.
func RecordProviderRetry(endpoint string) {
	globalManager.providerRetries.WithLabelValues(endpoint).Inc()
}

// RecordProviderLatency records a provider round trip in milliseconds.
func RecordProviderLatency(endpoint string, latencyMs float64) {
	globalManager.providerLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordSessionAggregated counts a session reduced to metrics.
func RecordSessionAggregated(session string) {
	globalManager.sessionsAggregated.WithLabelValues(session).Inc()
}

// RecordSessionSkipped counts a session without data.
func RecordSessionSkipped(session, reason string) {
	globalManager.sessionsSkipped.WithLabelValues(session, reason).Inc()
}

// RecordEventBuilt counts a persisted grand prix table.
func RecordEventBuilt() {
	globalManager.eventsBuilt.Inc()
}

// RecordEventSkipped counts an event skipped for the given reason.
func RecordEventSkipped(reason string) {
	globalManager.eventsSkipped.WithLabelValues(reason).Inc()
}

// UpdateBuildQueueSize sets the number of queued build jobs.
func UpdateBuildQueueSize(n int) {
	globalManager.buildQueueSize.Set(float64(n))
}

// UpdateBuildWorkers sets the size of the running build pool.
func UpdateBuildWorkers(n int) {
	globalManager.buildWorkers.Set(float64(n))
}

// RecordBuildJobLatency observes one build job.
func RecordBuildJobLatency(latencyMs float64) {
	globalManager.buildJobLatency.Observe(latencyMs)
}

// UpdateTrainingCorpus sets the size of the latest training corpus.
func UpdateTrainingCorpus(events, rows int) {
	globalManager.trainingEvents.Set(float64(events))
	globalManager.trainingRows.Set(float64(rows))
}

// RecordFitDuration records a model fit duration in milliseconds.
func RecordFitDuration(latencyMs float64) {
	globalManager.fitDuration.Observe(latencyMs)
}

// RecordPrediction counts a prediction run.
func RecordPrediction(model, outcome string) {
	globalManager.predictions.WithLabelValues(model, outcome).Inc()
}

// UpdateLastEvaluation sets the accuracy gauges of the latest evaluated run.
// A nil r2 is undefined and exported as NaN.
func UpdateLastEvaluation(mae float64, r2 *float64) {
	globalManager.lastMAE.Set(mae)
	if r2 == nil {
		globalManager.lastR2.Set(math.NaN())
		return
	}
	globalManager.lastR2.Set(*r2)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the registry in the text exposition format, for runs
// that end before anything could scrape them.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDumpFailed, path, err)
	}
	return nil
}
