// Package metrics provides Prometheus metrics for the gameplay
// verification engine.
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

// Manager manages all Prometheus metrics for the verification service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Telemetry ingestion
	snapshotsProcessed prometheus.Counter
	snapshotsDuplicate prometheus.Counter
	snapshotsStale     prometheus.Counter

	// Session state machine
	stateTransitions prometheus.CounterVec
	sessionsErrored  prometheus.Counter
	activeSessions   prometheus.Gauge
	archivedSessions prometheus.Gauge

	// Guardrail
	guardrailDecisions prometheus.CounterVec
	guardrailScore     prometheus.Histogram

	// Match verification
	claims        prometheus.CounterVec
	oracleCalls   prometheus.CounterVec
	oracleLatency prometheus.Histogram

	// Awards
	awardsIssued prometheus.Counter
	awardPoints  prometheus.Histogram

	// Audit pipeline
	auditQueueSize        prometheus.Gauge
	auditQueueCapacity    prometheus.Gauge
	auditQueueUtilization prometheus.Gauge
	auditEnqueues         prometheus.Counter
	auditDequeues         prometheus.Counter
	auditEnqueueErrors    prometheus.Counter
	workerActiveCount     prometheus.Gauge
	workerLatency         prometheus.Histogram
	workerErrors          prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "ggloop",
		subsystem:        "verification",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // metric registration is inherently long
	auto := promauto.With(m.registry)

	m.snapshotsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_processed_total",
		Help:      "Total number of telemetry snapshots applied to sessions",
	})

	m.snapshotsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_duplicate_total",
		Help:      "Total number of duplicate telemetry snapshots dropped",
	})

	m.snapshotsStale = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_stale_total",
		Help:      "Total number of out-of-order telemetry snapshots dropped",
	})

	m.stateTransitions = *auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "state_transitions_total",
			Help:      "Total number of verification state machine transitions",
		},
		[]string{"from", "to"},
	)

	m.sessionsErrored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_errored_total",
		Help:      "Total number of sessions escalated to the error state",
	})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sessions",
		Help:      "Number of live verification sessions",
	})

	m.archivedSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "archived_sessions",
		Help:      "Number of archived verification records",
	})

	m.guardrailDecisions = *auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "guardrail_decisions_total",
			Help:      "Total number of guardrail evaluations by decision",
		},
		[]string{"decision"},
	)

	m.guardrailScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "guardrail_confidence_score",
		Help:      "Distribution of guardrail confidence scores",
		Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	m.claims = *auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "match_claims_total",
			Help:      "Total number of match claims by outcome",
		},
		[]string{"outcome"},
	)

	m.oracleCalls = *auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "oracle_requests_total",
			Help:      "Total number of match oracle requests by result class",
		},
		[]string{"result"},
	)

	m.oracleLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "oracle_latency_milliseconds",
		Help:      "Histogram of match oracle round-trip latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.awardsIssued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "awards_issued_total",
		Help:      "Total number of point awards forwarded to the coordinator",
	})

	m.awardPoints = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "award_points",
		Help:      "Distribution of points per issued award",
		Buckets:   []float64{10, 25, 50, 75, 100, 150, 200},
	})

	m.auditQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_queue_size",
		Help:      "Current number of queued audit entries",
	})

	m.auditQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_queue_capacity",
		Help:      "Capacity of the audit entry queue",
	})

	m.auditQueueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_queue_utilization",
		Help:      "Audit queue utilization ratio (0-1)",
	})

	m.auditEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_enqueues_total",
		Help:      "Total number of audit entries enqueued",
	})

	m.auditDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_dequeues_total",
		Help:      "Total number of audit entries dequeued",
	})

	m.auditEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_enqueue_errors_total",
		Help:      "Total number of failed audit enqueues",
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of active audit workers",
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Histogram of audit worker processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of audit worker processing errors",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "Histogram of HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total number of errors by type",
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)

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
}

// RecordSnapshotProcessed increments the processed snapshots counter.
func RecordSnapshotProcessed() {
	globalManager.snapshotsProcessed.Inc()
}

// RecordSnapshotDuplicate increments the duplicate snapshots counter.
func RecordSnapshotDuplicate() {
	globalManager.snapshotsDuplicate.Inc()
}

// RecordSnapshotStale increments the out-of-order snapshots counter.
func RecordSnapshotStale() {
	globalManager.snapshotsStale.Inc()
}

// RecordStateTransition records a state machine transition.
func RecordStateTransition(from, to string) {
	globalManager.stateTransitions.WithLabelValues(from, to).Inc()
}

// RecordSessionError increments the errored sessions counter.
func RecordSessionError() {
	globalManager.sessionsErrored.Inc()
}

// UpdateActiveSessions sets the live session gauge.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// UpdateArchivedSessions sets the archived session gauge.
func UpdateArchivedSessions(count int) {
	globalManager.archivedSessions.Set(float64(count))
}

// RecordGuardrailDecision records a guardrail evaluation decision.
func RecordGuardrailDecision(decision string) {
	globalManager.guardrailDecisions.WithLabelValues(decision).Inc()
}

// RecordGuardrailScore observes a guardrail confidence score.
func RecordGuardrailScore(score float64) {
	globalManager.guardrailScore.Observe(score)
}

// RecordClaim records a match claim outcome.
func RecordClaim(outcome string) {
	globalManager.claims.WithLabelValues(outcome).Inc()
}

// RecordOracleRequest records an oracle request result class.
func RecordOracleRequest(result string) {
	globalManager.oracleCalls.WithLabelValues(result).Inc()
}

// RecordOracleLatency observes oracle round-trip latency in milliseconds.
func RecordOracleLatency(latencyMs float64) {
	globalManager.oracleLatency.Observe(latencyMs)
}

// RecordAwardIssued records an award and its point value.
func RecordAwardIssued(points int) {
	globalManager.awardsIssued.Inc()
	globalManager.awardPoints.Observe(float64(points))
}

// UpdateAuditQueueSize sets the current audit queue size.
func UpdateAuditQueueSize(size int) {
	globalManager.auditQueueSize.Set(float64(size))
}

// UpdateAuditQueueCapacity sets the audit queue capacity.
func UpdateAuditQueueCapacity(capacity int) {
	globalManager.auditQueueCapacity.Set(float64(capacity))
}

// UpdateAuditQueueUtilization sets the audit queue utilization ratio.
func UpdateAuditQueueUtilization(utilization float64) {
	globalManager.auditQueueUtilization.Set(utilization)
}

// RecordAuditEnqueue increments the audit enqueue counter.
func RecordAuditEnqueue() {
	globalManager.auditEnqueues.Inc()
}

// RecordAuditDequeue increments the audit dequeue counter.
func RecordAuditDequeue() {
	globalManager.auditDequeues.Inc()
}

// RecordAuditEnqueueError increments the audit enqueue error counter.
func RecordAuditEnqueueError() {
	globalManager.auditEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the active worker gauge.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency observes worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry for the /metrics
// endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
