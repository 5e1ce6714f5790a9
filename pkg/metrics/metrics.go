package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	registry           *prometheus.Registry
	registryOnce       sync.Once
	defaultMetricsPath = "/metrics"
	metricsEnabled     = true

	// Pipeline metrics
	PhaseDuration  *prometheus.HistogramVec
	PhaseFailures  *prometheus.CounterVec
	Assessments    *prometheus.CounterVec
	ActiveRequests prometheus.Gauge

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec

	// STT metrics
	STTRequestsTotal *prometheus.CounterVec
	STTLatency       *prometheus.HistogramVec

	// AMQP metrics
	AMQPPublishedMessages *prometheus.CounterVec
	AMQPConnectionErrors  *prometheus.CounterVec
	AMQPReconnectAttempts *prometheus.CounterVec
	AMQPConnectionStatus  prometheus.Gauge
)

// Init initializes all metrics and registers them with Prometheus
func Init(logger *logrus.Logger) {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		PhaseDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voiceops_phase_duration_seconds",
				Help:    "Duration of each pipeline phase",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // From 1ms to ~16s
			},
			[]string{"phase"},
		)

		PhaseFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceops_phase_failures_total",
				Help: "Total number of pipeline phase failures",
			},
			[]string{"phase"},
		)

		Assessments = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceops_assessments_total",
				Help: "Total number of completed risk assessments",
			},
			[]string{"fraud_likelihood"},
		)

		ActiveRequests = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "voiceops_active_requests",
				Help: "Number of analysis requests currently in flight",
			},
		)

		RequestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voiceops_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		)

		RequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceops_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		)

		STTRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceops_stt_requests_total",
				Help: "Total number of speech-to-text requests",
			},
			[]string{"provider", "status"},
		)

		STTLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voiceops_stt_latency_seconds",
				Help:    "Latency of speech-to-text requests",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // From 50ms to ~25s
			},
			[]string{"provider"},
		)

		AMQPPublishedMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceops_amqp_published_messages_total",
				Help: "Total number of messages published to AMQP",
			},
			[]string{"queue", "status"},
		)

		AMQPConnectionErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceops_amqp_connection_errors_total",
				Help: "Total number of AMQP connection errors",
			},
			[]string{"error_type"},
		)

		AMQPReconnectAttempts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voiceops_amqp_reconnect_attempts_total",
				Help: "Total number of AMQP reconnection attempts",
			},
			[]string{"status"},
		)

		AMQPConnectionStatus = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "voiceops_amqp_connection_status",
				Help: "AMQP connection status (1 = connected, 0 = disconnected)",
			},
		)

		registry.MustRegister(
			PhaseDuration,
			PhaseFailures,
			Assessments,
			ActiveRequests,
			RequestDuration,
			RequestsTotal,
			STTRequestsTotal,
			STTLatency,
			AMQPPublishedMessages,
			AMQPConnectionErrors,
			AMQPReconnectAttempts,
			AMQPConnectionStatus,
		)

		logger.Info("Prometheus metrics initialized")
	})
}

// GetRegistry returns the prometheus registry
func GetRegistry() *prometheus.Registry {
	return registry
}

// SetMetricsPath sets the HTTP path for metrics endpoint
func SetMetricsPath(path string) {
	defaultMetricsPath = path
}

// EnableMetrics enables or disables metrics collection
func EnableMetrics(enabled bool) {
	metricsEnabled = enabled
}

// IsMetricsEnabled returns whether metrics are enabled
func IsMetricsEnabled() bool {
	return metricsEnabled
}

// RegisterHandler registers the metrics HTTP handler
func RegisterHandler(mux *http.ServeMux) {
	if metricsEnabled && registry != nil {
		handler := promhttp.HandlerFor(
			registry,
			promhttp.HandlerOpts{
				EnableOpenMetrics: true,
				Registry:          registry,
			},
		)
		mux.Handle(defaultMetricsPath, handler)
	}
}

// StartMetrics initializes the metrics service
func StartMetrics(logger *logrus.Logger, enabled bool) {
	if !enabled {
		EnableMetrics(false)
		logger.Info("Metrics collection is disabled")
		return
	}

	Init(logger)
	EnableMetrics(true)
	logger.WithField("metrics_path", defaultMetricsPath).Info("Metrics endpoint initialized")
}

// ObservePhaseDuration records how long a pipeline phase took
func ObservePhaseDuration(phase string, seconds float64) {
	if metricsEnabled && PhaseDuration != nil {
		PhaseDuration.WithLabelValues(phase).Observe(seconds)
	}
}

// RecordPhaseFailure increments the failure counter for a phase
func RecordPhaseFailure(phase string) {
	if metricsEnabled && PhaseFailures != nil {
		PhaseFailures.WithLabelValues(phase).Inc()
	}
}

// RecordAssessment counts a completed assessment by fraud likelihood
func RecordAssessment(fraudLikelihood string) {
	if metricsEnabled && Assessments != nil {
		Assessments.WithLabelValues(fraudLikelihood).Inc()
	}
}

// TrackRequest marks a request in flight and returns a completion callback
func TrackRequest(path, method string) func(status string) {
	if !metricsEnabled || ActiveRequests == nil {
		return func(string) {}
	}
	ActiveRequests.Inc()
	start := time.Now()
	return func(status string) {
		ActiveRequests.Dec()
		RequestDuration.WithLabelValues(path, method).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(path, method, status).Inc()
	}
}

// RecordSTTRequest counts a transcription request by provider and outcome
func RecordSTTRequest(provider, status string) {
	if metricsEnabled && STTRequestsTotal != nil {
		STTRequestsTotal.WithLabelValues(provider, status).Inc()
	}
}

// ObserveSTTLatency returns a function that records latency when called
func ObserveSTTLatency(provider string) func() {
	if !metricsEnabled || STTLatency == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		STTLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	}
}

// RecordAMQPPublish counts a message published to a queue
func RecordAMQPPublish(queue, status string) {
	if metricsEnabled && AMQPPublishedMessages != nil {
		AMQPPublishedMessages.WithLabelValues(queue, status).Inc()
	}
}

// SetAMQPConnectionStatus sets the AMQP connection gauge
func SetAMQPConnectionStatus(connected bool) {
	if metricsEnabled && AMQPConnectionStatus != nil {
		if connected {
			AMQPConnectionStatus.Set(1)
		} else {
			AMQPConnectionStatus.Set(0)
		}
	}
}

// RecordAMQPConnectionError counts an AMQP connection error
func RecordAMQPConnectionError(errorType string) {
	if metricsEnabled && AMQPConnectionErrors != nil {
		AMQPConnectionErrors.WithLabelValues(errorType).Inc()
	}
}

// RecordAMQPReconnectAttempt counts an AMQP reconnection attempt
func RecordAMQPReconnectAttempt(status string) {
	if metricsEnabled && AMQPReconnectAttempts != nil {
		AMQPReconnectAttempts.WithLabelValues(status).Inc()
	}
}
