// Package metrics provides Prometheus metrics for the xfpl service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBucketsMs spans sub-millisecond reads up to multi-second runs.
var defaultLatencyBucketsMs = []float64{0.05, 0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // read-only bucket layout

// Breaker state values exported on the provider_breaker_state gauge.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// Manager manages all Prometheus metrics for the xfpl service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	enabled        bool
	customLabels   map[string]string
	metricPrefix   string
	registry       prometheus.Registerer

	// Engine metrics
	engineRuns         *prometheus.CounterVec
	engineRunDuration  prometheus.Histogram
	playersEvaluated   prometheus.Counter
	validationFailures *prometheus.CounterVec
	populationSize     prometheus.Gauge
	rankedPopulation   prometheus.Gauge
	per90Percentile    prometheus.Gauge
	buyTargets         prometheus.Gauge
	sellCandidates     prometheus.Gauge
	lastRefreshUnix    prometheus.Gauge

	// Provider metrics
	providerFetchLatency prometheus.Histogram
	providerFetchErrors  *prometheus.CounterVec
	providerRecords      prometheus.Gauge
	providerBreakerState prometheus.Gauge

	// Snapshot metrics
	snapshotPublished      prometheus.Counter
	snapshotLastUnix       prometheus.Gauge
	snapshotRecords        prometheus.Gauge
	repositoryQueryLatency prometheus.Histogram

	// Queue metrics
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerActiveCount prometheus.Gauge
	workerJobs        prometheus.Counter
	workerErrors      prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "xfpl",
		subsystem:      "engine",
		latencyBuckets: defaultLatencyBucketsMs,
		enabled:        true,
		customLabels:   make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: m.latencyBuckets, ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.engineRuns = m.counterVec("runs_total", "Engine runs by outcome", "outcome")
	m.engineRunDuration = m.histogram("run_duration_milliseconds", "Engine run duration in milliseconds", m.latencyBuckets)
	m.playersEvaluated = m.counter("players_evaluated_total", "Player records evaluated successfully")
	m.validationFailures = m.counterVec("validation_failures_total", "Player records rejected by validation", "field")
	m.populationSize = m.gauge("population_size", "Players in the latest result")
	m.rankedPopulation = m.gauge("ranked_population_size", "Players with minutes used for the per-90 percentile")
	m.per90Percentile = m.gauge("per90_percentile", "Buy-target xFPL90 percentile threshold of the latest run")
	m.buyTargets = m.gauge("buy_targets", "Buy targets in the latest result")
	m.sellCandidates = m.gauge("sell_candidates", "Sell candidates in the latest result")
	m.lastRefreshUnix = m.gauge("last_refresh_unix", "Unix timestamp of the last successful refresh")

	m.providerFetchLatency = m.histogram("provider_fetch_latency_milliseconds", "Raw stat fetch latency in milliseconds",
		[]float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000})
	m.providerFetchErrors = m.counterVec("provider_fetch_errors_total", "Raw stat fetch failures", "reason")
	m.providerRecords = m.gauge("provider_records", "Records returned by the last fetch")
	m.providerBreakerState = m.gauge("provider_breaker_state", "Provider circuit breaker state (0 closed, 1 half-open, 2 open)")

	m.snapshotPublished = m.counter("snapshot_published_total", "Result snapshots published")
	m.snapshotLastUnix = m.gauge("snapshot_last_unix", "Unix timestamp of the last snapshot publish")
	m.snapshotRecords = m.gauge("snapshot_records", "Records in the published snapshot")
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Snapshot query latency in milliseconds", m.latencyBuckets)

	m.queueEnqueue = m.counter("queue_enqueue_total", "Jobs enqueued for evaluation")
	m.queueDequeue = m.counter("queue_dequeue_total", "Jobs dequeued for evaluation")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected by the evaluation queue")

	m.workerActiveCount = m.gauge("worker_active_count", "Evaluation workers configured per run")
	m.workerJobs = m.counter("worker_jobs_total", "Jobs handled by evaluation workers")
	m.workerErrors = m.counter("worker_errors_total", "Jobs that failed evaluation")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that resulted in errors", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordEngineRun records one engine run and its duration.
func RecordEngineRun(outcome string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.engineRuns.WithLabelValues(outcome).Inc()
	globalManager.engineRunDuration.Observe(durationMs)
}

// RecordPlayersEvaluated adds n successfully evaluated players.
func RecordPlayersEvaluated(n int) {
	globalManager.playersEvaluated.Add(float64(n))
}

// RecordValidationFailure counts a rejected record by offending field.
func RecordValidationFailure(field string) {
	globalManager.validationFailures.WithLabelValues(field).Inc()
}

// UpdatePopulation sets the population gauges of the latest result.
func UpdatePopulation(total, ranked int) {
	globalManager.populationSize.Set(float64(total))
	globalManager.rankedPopulation.Set(float64(ranked))
}

// UpdatePer90Percentile sets the buy-target percentile threshold.
func UpdatePer90Percentile(v float64) {
	globalManager.per90Percentile.Set(v)
}

// UpdateRecommendations sets buy and sell counts.
func UpdateRecommendations(buy, sell int) {
	globalManager.buyTargets.Set(float64(buy))
	globalManager.sellCandidates.Set(float64(sell))
}

// UpdateLastRefresh stamps the last successful refresh.
func UpdateLastRefresh(t time.Time) {
	globalManager.lastRefreshUnix.Set(float64(t.Unix()))
}

// RecordProviderFetch records fetch latency and the number of records returned.
func RecordProviderFetch(latencyMs float64, records int) {
	globalManager.providerFetchLatency.Observe(latencyMs)
	globalManager.providerRecords.Set(float64(records))
}

// RecordProviderError counts a fetch failure.
func RecordProviderError(reason string) {
	globalManager.providerFetchErrors.WithLabelValues(reason).Inc()
}

// UpdateProviderBreakerState sets the breaker gauge (BreakerClosed, BreakerHalfOpen, BreakerOpen).
func UpdateProviderBreakerState(state int) {
	globalManager.providerBreakerState.Set(float64(state))
}

// RecordSnapshotPublished records a snapshot publish.
func RecordSnapshotPublished(records int, at time.Time) {
	globalManager.snapshotPublished.Inc()
	globalManager.snapshotRecords.Set(float64(records))
	globalManager.snapshotLastUnix.Set(float64(at.Unix()))
}

// RecordRepositoryQueryLatency records a snapshot query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the worker count gauge.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerJob counts a handled job.
func RecordWorkerJob() {
	globalManager.workerJobs.Inc()
}

// RecordWorkerError counts a job that failed evaluation.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records latency for operations that resulted in errors.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage updates memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
