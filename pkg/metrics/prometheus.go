// Package metrics provides Prometheus metrics for the matchgate scoring gateway.
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

// Upstream latencies are measured in whole seconds of LLM work, so the
// default sub-second buckets are a poor fit.
var defaultLatencyBuckets = []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000, 40000, 80000}

// Manager manages all Prometheus metrics for the gateway.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Scoring requests
	scoreRequests *prometheus.CounterVec
	promptSize    *prometheus.HistogramVec

	// Upstream calls
	upstreamAttempts  *prometheus.CounterVec
	upstreamLatency   *prometheus.HistogramVec
	upstreamRetries   *prometheus.CounterVec
	retriesExhausted  *prometheus.CounterVec
	backoffWait       prometheus.Histogram
	upstreamTransport *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
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
		namespace:        "matchgate",
		subsystem:        "gateway",
		histogramBuckets: defaultLatencyBuckets,
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

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.scoreRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("score_requests_total"),
		Help:        "Scoring requests by match type and outcome",
		ConstLabels: constLabels,
	}, []string{"match_type", "outcome"})

	m.promptSize = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("prompt_size_chars"),
		Help:        "Size of the built user prompt in characters",
		Buckets:     prometheus.ExponentialBuckets(256, 2, 10),
		ConstLabels: constLabels,
	}, []string{"match_type"})

	m.upstreamAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("upstream_attempts_total"),
		Help:        "Upstream completion attempts by provider and status code",
		ConstLabels: constLabels,
	}, []string{"provider", "status_code"})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("upstream_latency_milliseconds"),
		Help:        "Latency of a single upstream attempt in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"provider"})

	m.upstreamRetries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("upstream_retries_total"),
		Help:        "Retries scheduled after an upstream 429",
		ConstLabels: constLabels,
	}, []string{"provider"})

	m.retriesExhausted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("upstream_retries_exhausted_total"),
		Help:        "Calls that ended with every attempt rate limited",
		ConstLabels: constLabels,
	}, []string{"provider"})

	m.backoffWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("backoff_wait_milliseconds"),
		Help:        "Backoff wait computed before a retry",
		Buckets:     []float64{500, 1000, 1500, 2000, 3000, 4500, 8000, 16000},
		ConstLabels: constLabels,
	})

	m.upstreamTransport = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("upstream_transport_errors_total"),
		Help:        "Upstream attempts that failed without an HTTP response",
		ConstLabels: constLabels,
	}, []string{"provider"})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_type_total"),
			Help:        "Total number of errors by type",
			ConstLabels: constLabels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Total number of errors by endpoint",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("error_latency_milliseconds"),
			Help:        "Latency of operations that resulted in errors",
			Buckets:     m.histogramBuckets,
			ConstLabels: constLabels,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: constLabels,
	})
}

// RecordScoreRequest counts a finished scoring request.
// outcome is one of: success, rate_limited, payment_required, upstream_error,
// config_error, malformed_request, unknown.
func RecordScoreRequest(matchType, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.scoreRequests.WithLabelValues(matchType, outcome).Inc()
}

// RecordPromptSize observes the size of a built user prompt.
func RecordPromptSize(matchType string, chars int) {
	if !globalManager.enabled {
		return
	}
	globalManager.promptSize.WithLabelValues(matchType).Observe(float64(chars))
}

// RecordUpstreamAttempt records one upstream attempt and its latency.
func RecordUpstreamAttempt(provider, statusCode string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamAttempts.WithLabelValues(provider, statusCode).Inc()
	globalManager.upstreamLatency.WithLabelValues(provider).Observe(latencyMs)
}

// RecordUpstreamRetry records a scheduled retry and its computed wait.
func RecordUpstreamRetry(provider string, waitMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamRetries.WithLabelValues(provider).Inc()
	globalManager.backoffWait.Observe(waitMs)
}

// RecordRetriesExhausted records a call whose every attempt was rate limited.
func RecordRetriesExhausted(provider string) {
	if !globalManager.enabled {
		return
	}
	globalManager.retriesExhausted.WithLabelValues(provider).Inc()
}

// RecordUpstreamTransportError records an attempt that produced no response.
func RecordUpstreamTransportError(provider string) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamTransport.WithLabelValues(provider).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
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

// RefreshInterval reports how often callers should refresh gauge metrics.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
