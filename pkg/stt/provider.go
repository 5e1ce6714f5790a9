package stt

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/metrics"
	"voiceops-server/pkg/phase"
)

var (
	// ErrNoProviderAvailable indicates no transcription provider could serve
	// the request.
	ErrNoProviderAvailable = errors.New("no speech-to-text provider available")

	// ErrInitializationFailed indicates the provider was used before its
	// client was initialized.
	ErrInitializationFailed = errors.New("speech-to-text provider not initialized")
)

// Transcriber converts recorded call audio into transcript segments. A
// transcriber produces text and timestamps only, never speaker labels;
// phase.TranscriptSegment has no field for them.
type Transcriber interface {
	// Initialize prepares the provider (client construction, credential
	// checks). Called once at registration.
	Initialize() error

	// Name returns the provider name used for selection.
	Name() string

	// Transcribe converts the full recording into ordered segments.
	Transcribe(ctx context.Context, audio []byte, filename string) ([]phase.TranscriptSegment, error)
}

// Manager holds the registered transcription providers and routes requests
// to the selected one, falling back to the default when the selection is
// unknown.
type Manager struct {
	logger          *logrus.Logger
	providers       map[string]Transcriber
	defaultProvider string
}

// NewManager creates a provider manager.
func NewManager(logger *logrus.Logger, defaultProvider string) *Manager {
	return &Manager{
		logger:          logger,
		providers:       make(map[string]Transcriber),
		defaultProvider: defaultProvider,
	}
}

// Register initializes and registers a provider.
func (m *Manager) Register(provider Transcriber) error {
	if err := provider.Initialize(); err != nil {
		m.logger.WithFields(logrus.Fields{
			"provider": provider.Name(),
			"error":    err,
		}).Error("Failed to initialize speech-to-text provider")
		return err
	}
	m.providers[provider.Name()] = provider
	m.logger.WithField("provider", provider.Name()).Info("Registered speech-to-text provider")
	return nil
}

// Get returns a provider by name.
func (m *Manager) Get(name string) (Transcriber, bool) {
	provider, exists := m.providers[name]
	return provider, exists
}

// Transcribe routes audio to the named provider, or to the default when the
// name is unknown.
func (m *Manager) Transcribe(ctx context.Context, providerName string, audio []byte, filename string) ([]phase.TranscriptSegment, error) {
	start := time.Now()

	provider, exists := m.Get(providerName)
	if !exists {
		m.logger.WithFields(logrus.Fields{
			"provider":         providerName,
			"default_provider": m.defaultProvider,
		}).Warn("Provider not found, falling back to default")
		provider, exists = m.Get(m.defaultProvider)
		if !exists {
			return nil, ErrNoProviderAvailable
		}
	}

	stopTimer := metrics.ObserveSTTLatency(provider.Name())
	segments, err := provider.Transcribe(ctx, audio, filename)
	stopTimer()
	if err != nil {
		metrics.RecordSTTRequest(provider.Name(), "error")
		m.logger.WithFields(logrus.Fields{
			"provider": provider.Name(),
			"error":    err,
		}).Error("Transcription failed")
		return nil, err
	}
	metrics.RecordSTTRequest(provider.Name(), "success")

	m.logger.WithFields(logrus.Fields{
		"provider":   provider.Name(),
		"segments":   len(segments),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Info("Transcription complete")
	return segments, nil
}
