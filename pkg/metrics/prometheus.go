// Package metrics provides Prometheus metrics for the scorekeeper replay and its read API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Replay
	messagesFetched    prometheus.Counter
	messagesSkipped    *prometheus.CounterVec
	messagesDuplicate  prometheus.Counter
	messagesAttributed prometheus.Counter
	actionsRecorded    *prometheus.CounterVec
	reactionLatency    prometheus.Histogram
	collaboratorErrors *prometheus.CounterVec

	// Fold and run
	foldUnresolved prometheus.Counter
	players        prometheus.Gauge
	days           prometheus.Gauge
	runDuration    prometheus.Histogram
	runs           *prometheus.CounterVec
	storeSaves     *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scorekeeper",
		subsystem:        "replay",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.messagesFetched = m.counter("messages_fetched_total", "Messages returned by history fetches")
	m.messagesSkipped = m.counterVec("messages_skipped_total", "Messages excluded from attribution", "reason")
	m.messagesDuplicate = m.counter("messages_duplicate_total", "Messages already attributed in this run")
	m.messagesAttributed = m.counter("messages_attributed_total", "Messages attributed to the scoreboard")
	m.actionsRecorded = m.counterVec("actions_recorded_total", "Actions appended to day ledgers", "kind")
	m.reactionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reaction_fetch_latency_milliseconds",
		Help:      "Latency of reacting-user fetches in milliseconds",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})
	m.collaboratorErrors = m.counterVec("collaborator_errors_total", "Failed platform calls", "op")

	m.foldUnresolved = m.counter("fold_unresolved_total", "Player scores skipped by the fold for lack of a registry entry")
	m.players = m.gauge("players", "Players in the registry after the last fold")
	m.days = m.gauge("days", "Days in the score history after the last fold")
	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Wall time of full replay runs",
		Buckets:   m.histogramBuckets,
	})
	m.runs = m.counterVec("runs_total", "Replay runs by outcome", "outcome")
	m.storeSaves = m.counterVec("store_saves_total", "Run persistence attempts by store and outcome", "store", "outcome")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "errors_total",
		Help:      "HTTP error responses by endpoint and error type",
	}, []string{"endpoint", "method", "error_type"})
}

// RecordMessageFetched counts one fetched history message.
func RecordMessageFetched() { globalManager.messagesFetched.Inc() }

// RecordMessageSkipped counts a message excluded for reason.
func RecordMessageSkipped(reason string) { globalManager.messagesSkipped.WithLabelValues(reason).Inc() }

// RecordMessageDuplicate counts a message already seen in this run.
func RecordMessageDuplicate() { globalManager.messagesDuplicate.Inc() }

// RecordMessageAttributed counts a message fed to the scoreboard.
func RecordMessageAttributed() { globalManager.messagesAttributed.Inc() }

// RecordAction counts one appended action of kind.
func RecordAction(kind string) { globalManager.actionsRecorded.WithLabelValues(kind).Inc() }

// RecordReactionFetchLatency observes one reacting-user fetch.
func RecordReactionFetchLatency(latencyMs float64) { globalManager.reactionLatency.Observe(latencyMs) }

// RecordCollaboratorError counts a failed platform call.
func RecordCollaboratorError(op string) { globalManager.collaboratorErrors.WithLabelValues(op).Inc() }

// RecordFoldUnresolved adds n unresolved names from a fold.
func RecordFoldUnresolved(n int) { globalManager.foldUnresolved.Add(float64(n)) }

// UpdatePlayers sets the registry size.
func UpdatePlayers(n int) { globalManager.players.Set(float64(n)) }

// UpdateDays sets the history size.
func UpdateDays(n int) { globalManager.days.Set(float64(n)) }

// RecordRun observes a finished run. outcome is "done" or "failed".
func RecordRun(outcome string, seconds float64) {
	globalManager.runs.WithLabelValues(outcome).Inc()
	globalManager.runDuration.Observe(seconds)
}

// RecordStoreSave counts a persistence attempt.
func RecordStoreSave(store, outcome string) {
	globalManager.storeSaves.WithLabelValues(store, outcome).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError records an error response of errorType.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
