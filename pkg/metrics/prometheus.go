// Package metrics provides Prometheus metrics for the huddle formation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the huddle service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Business Metrics - formation search outcomes
	formationRequests *prometheus.CounterVec
	formationLatency  prometheus.Histogram
	trialsEvaluated   prometheus.Counter
	trialFitness      prometheus.Histogram
	bestFitness       prometheus.Histogram
	teamScores        prometheus.Histogram
	evaluations       prometheus.Counter

	// Feedback Learner Metrics
	feedbackRowsAccepted prometheus.Counter
	feedbackRowsDropped  *prometheus.CounterVec
	learnedPairs         prometheus.Gauge

	// Oracle Metrics - base compatibility scoring
	oracleCalls        prometheus.Counter
	oracleErrors       prometheus.Counter
	oracleLatency      prometheus.Histogram
	bundleSourceErrors prometheus.Counter

	// Roster Metrics - actors, catalog, selections
	rosterActors     prometheus.Gauge
	rosterPersonas   prometheus.Gauge
	rosterSelections prometheus.Gauge

	// Repository Metrics - shard and latency tracking
	repositoryShardCount    prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Trial Queue Metrics
	trialQueueCapacity      prometheus.Gauge
	trialQueueSize          prometheus.Gauge
	trialQueueEnqueues      prometheus.Counter
	trialQueueDequeues      prometheus.Counter
	trialQueueEnqueueErrors prometheus.Counter
	trialQueueLatency       prometheus.Histogram

	// Worker Metrics - trial evaluation performance
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "huddle",
		subsystem:        "formation",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core Business Metrics
	m.formationRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_total",
		Help:      "Total number of formation requests by scoring method",
	}, []string{"method"})

	m.formationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "request_duration_milliseconds",
		Help:      "End-to-end formation search latency in milliseconds",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	m.trialsEvaluated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trials_evaluated_total",
		Help:      "Total number of partition trials evaluated",
	})

	m.trialFitness = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trial_fitness",
		Help:      "Fitness (mean group score) of evaluated trials",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	m.bestFitness = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "best_fitness",
		Help:      "Fitness of the winning trial per formation request",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	m.teamScores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "team_score",
		Help:      "Final clamped team scores produced by the scorer",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	m.evaluations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "evaluations_total",
		Help:      "Total number of fixed-group evaluation requests",
	})

	// Feedback Learner Metrics
	m.feedbackRowsAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feedback_rows_accepted_total",
		Help:      "Total number of feedback rows that survived sanitization",
	})

	m.feedbackRowsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feedback_rows_dropped_total",
		Help:      "Total number of feedback rows dropped during sanitization",
	}, []string{"reason"})

	m.learnedPairs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "learned_pairs",
		Help:      "Number of persona pairs in the most recently learned delta",
	})

	// Oracle Metrics
	m.oracleCalls = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "oracle_calls_total",
		Help:      "Total number of base-score oracle invocations",
	})

	m.oracleErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "oracle_errors_total",
		Help:      "Total number of oracle failures degraded to a zero base score",
	})

	m.oracleLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "oracle_latency_milliseconds",
		Help:      "Oracle scoring latency in milliseconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
	})

	m.bundleSourceErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bundle_source_errors_total",
		Help:      "Total number of persona-bundle lookups that failed",
	})

	// Roster Metrics
	m.rosterActors = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_actors",
		Help:      "Number of actors currently on the roster",
	})

	m.rosterPersonas = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_personas",
		Help:      "Number of personas in the catalog",
	})

	m.rosterSelections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_selections",
		Help:      "Number of active persona selections",
	})

	// Repository Metrics
	m.repositoryShardCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_shard_count",
		Help:      "Number of shards in the roster store",
	})

	m.repositoryUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_update_latency_milliseconds",
		Help:      "Roster store update latency in milliseconds",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
	})

	m.repositoryQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_query_latency_milliseconds",
		Help:      "Roster store query latency in milliseconds",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
	})

	// Trial Queue Metrics
	m.trialQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trial_queue_capacity",
		Help:      "Configured capacity of the trial queue",
	})

	m.trialQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trial_queue_size",
		Help:      "Current number of queued trials",
	})

	m.trialQueueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trial_queue_enqueues_total",
		Help:      "Total number of trials enqueued",
	})

	m.trialQueueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trial_queue_dequeues_total",
		Help:      "Total number of trials dequeued",
	})

	m.trialQueueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trial_queue_enqueue_errors_total",
		Help:      "Total number of rejected enqueues",
	})

	m.trialQueueLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trial_queue_latency_milliseconds",
		Help:      "Trial enqueue latency in milliseconds",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
	})

	// Worker Metrics
	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of active trial evaluation workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Per-trial evaluation latency in milliseconds",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 50, 100},
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of trial evaluation failures",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	// Enhanced Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_component_total",
		Help:      "Total errors by component and error type",
	}, []string{"component", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "Total errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Total errors by endpoint, method, and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "error_latency_milliseconds",
		Help:      "Latency of operations that resulted in an error",
		Buckets:   m.histogramBuckets,
	}, []string{"component", "error_type"})

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Core Business Metrics Functions.

// RecordFormationRequest increments the formation request counter for a method.
func RecordFormationRequest(method string) {
	globalManager.formationRequests.WithLabelValues(method).Inc()
}

// RecordFormationLatency records end-to-end formation latency in milliseconds.
func RecordFormationLatency(latencyMs float64) {
	globalManager.formationLatency.Observe(latencyMs)
}

// RecordTrialEvaluated increments the evaluated trials counter.
func RecordTrialEvaluated() {
	globalManager.trialsEvaluated.Inc()
}

// RecordTrialFitness records the fitness of an evaluated trial.
func RecordTrialFitness(fitness float64) {
	globalManager.trialFitness.Observe(fitness)
}

// RecordBestFitness records the winning fitness of a formation request.
func RecordBestFitness(fitness float64) {
	globalManager.bestFitness.Observe(fitness)
}

// RecordTeamScore records a final clamped team score.
func RecordTeamScore(score float64) {
	globalManager.teamScores.Observe(score)
}

// RecordEvaluationRequest increments the fixed-group evaluation counter.
func RecordEvaluationRequest() {
	globalManager.evaluations.Inc()
}

// Feedback Learner Metrics Functions.

// RecordFeedbackRowAccepted increments the accepted feedback rows counter.
func RecordFeedbackRowAccepted() {
	globalManager.feedbackRowsAccepted.Inc()
}

// RecordFeedbackRowDropped increments the dropped feedback rows counter.
func RecordFeedbackRowDropped(reason string) {
	globalManager.feedbackRowsDropped.WithLabelValues(reason).Inc()
}

// UpdateLearnedPairs sets the size of the most recently learned delta.
func UpdateLearnedPairs(count int) {
	globalManager.learnedPairs.Set(float64(count))
}

// Oracle Metrics Functions.

// RecordOracleCall increments the oracle call counter.
func RecordOracleCall() {
	globalManager.oracleCalls.Inc()
}

// RecordOracleError increments the oracle error counter.
func RecordOracleError() {
	globalManager.oracleErrors.Inc()
}

// RecordOracleLatency records oracle scoring latency in milliseconds.
func RecordOracleLatency(latencyMs float64) {
	globalManager.oracleLatency.Observe(latencyMs)
}

// RecordBundleSourceError increments the bundle lookup error counter.
func RecordBundleSourceError() {
	globalManager.bundleSourceErrors.Inc()
}

// Roster Metrics Functions.

// UpdateRosterActors sets the current actor count.
func UpdateRosterActors(count int) {
	globalManager.rosterActors.Set(float64(count))
}

// UpdateRosterPersonas sets the current persona catalog size.
func UpdateRosterPersonas(count int) {
	globalManager.rosterPersonas.Set(float64(count))
}

// UpdateRosterSelections sets the current selection count.
func UpdateRosterSelections(count int) {
	globalManager.rosterSelections.Set(float64(count))
}

// Repository Metrics Functions.

// UpdateRepositoryShardCount sets the total number of repository shards.
func UpdateRepositoryShardCount(count int) {
	globalManager.repositoryShardCount.Set(float64(count))
}

// RecordRepositoryUpdateLatency records repository update operation latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository query operation latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// Trial Queue Metrics Functions.

// UpdateTrialQueueCapacity sets the maximum trial queue capacity.
func UpdateTrialQueueCapacity(capacity int) {
	globalManager.trialQueueCapacity.Set(float64(capacity))
}

// UpdateTrialQueueSize sets the current trial queue size.
func UpdateTrialQueueSize(size int) {
	globalManager.trialQueueSize.Set(float64(size))
}

// RecordTrialQueueEnqueue increments the enqueue counter.
func RecordTrialQueueEnqueue() {
	globalManager.trialQueueEnqueues.Inc()
}

// RecordTrialQueueDequeue increments the dequeue counter.
func RecordTrialQueueDequeue() {
	globalManager.trialQueueDequeues.Inc()
}

// RecordTrialQueueEnqueueError increments the enqueue error counter.
func RecordTrialQueueEnqueueError() {
	globalManager.trialQueueEnqueueErrors.Inc()
}

// RecordTrialQueueLatency records trial enqueue latency.
func RecordTrialQueueLatency(latencyMs float64) {
	globalManager.trialQueueLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records per-trial evaluation latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
