package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"voiceops-server/pkg/config"
	"voiceops-server/pkg/messaging"
	"voiceops-server/pkg/metrics"
	"voiceops-server/pkg/pipeline"
	"voiceops-server/pkg/version"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Server exposes the analysis endpoint plus health, metrics and the
// WebSocket event stream.
type Server struct {
	config       *config.HTTPConfig
	logger       *logrus.Logger
	httpServer   *http.Server
	mux          *http.ServeMux
	orchestrator *pipeline.Orchestrator
	amqpClient   *messaging.AMQPClient
	eventHub     *EventHub
	startTime    time.Time
	maxUpload    int64
	timeout      time.Duration
}

// NewServer creates a new HTTP server instance
func NewServer(logger *logrus.Logger, cfg *config.HTTPConfig, orchestrator *pipeline.Orchestrator, maxUpload int64, requestTimeout time.Duration) *Server {
	server := &Server{
		config:       cfg,
		logger:       logger,
		orchestrator: orchestrator,
		startTime:    time.Now(),
		maxUpload:    maxUpload,
		timeout:      requestTimeout,
	}

	mux := http.NewServeMux()
	server.mux = mux

	mux.HandleFunc("/analyze-call", server.withCommon(server.AnalyzeCallHandler))
	mux.HandleFunc("/health", server.withCommon(server.HealthHandler))
	mux.HandleFunc("/health/live", server.withCommon(server.LivenessHandler))
	mux.HandleFunc("/health/ready", server.withCommon(server.ReadinessHandler))
	mux.HandleFunc("/status", server.withCommon(server.statusHandler))

	if cfg.EnableMetrics {
		if registry := metrics.GetRegistry(); registry != nil {
			promHandler := promhttp.HandlerFor(
				registry,
				promhttp.HandlerOpts{
					EnableOpenMetrics: true,
					Registry:          registry,
				},
			)
			mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Server", version.ServerHeader())
				promHandler.ServeHTTP(w, r)
			})
			logger.Info("Prometheus metrics endpoint enabled at /metrics")
		}
	} else {
		logger.Info("Metrics endpoint disabled")
	}

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server
}

// SetAMQPClient sets the AMQP client used to publish completed assessments
func (s *Server) SetAMQPClient(client *messaging.AMQPClient) {
	s.amqpClient = client
}

// SetEventHub sets the WebSocket event hub and registers its endpoint
func (s *Server) SetEventHub(hub *EventHub) {
	s.eventHub = hub
	if s.mux != nil && s.config.EnableWebSocket {
		s.mux.HandleFunc("/ws/events", hub.ServeWs)
		s.logger.Info("Pipeline event WebSocket endpoint registered at /ws/events")
	}
}

// withCommon assigns a request ID, sets the Server header and tracks
// request metrics.
func (s *Server) withCommon(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)

		w.Header().Set("Server", version.ServerHeader())
		w.Header().Set("X-Request-ID", requestID)

		done := metrics.TrackRequest(r.URL.Path, r.Method)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r.WithContext(ctx))
		done(fmt.Sprintf("%d", rec.status))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestID extracts the request's correlation ID from its context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Start starts the HTTP server in a goroutine
func (s *Server) Start() {
	s.logger.WithField("port", s.config.Port).Info("Starting HTTP server")

	go func() {
		s.logger.Infof("HTTP server listening on port %d", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server failed")
		}
	}()

	// Verify that we can actually bind to the port
	go func() {
		time.Sleep(500 * time.Millisecond)
		conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", s.config.Port), 2*time.Second)
		if err != nil {
			s.logger.WithError(err).Error("Could not connect to HTTP server")
		} else {
			s.logger.Info("HTTP server is running correctly")
			conn.Close()
		}
	}()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}

// statusHandler handles the /status endpoint
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.WithField("endpoint", "/status").Debug("Status endpoint accessed")

	status := map[string]interface{}{
		"status":     "ok",
		"uptime":     time.Since(s.startTime).String(),
		"version":    version.Version,
		"started_at": s.startTime.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}
