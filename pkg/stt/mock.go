package stt

import (
	"context"

	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/phase"
)

// MockProvider returns a canned debt-collection conversation. It exists for
// local development and tests where no cloud credentials are available.
type MockProvider struct {
	logger *logrus.Logger
}

// NewMockProvider creates a mock transcription provider.
func NewMockProvider(logger *logrus.Logger) *MockProvider {
	return &MockProvider{logger: logger}
}

// Name implements Transcriber.
func (p *MockProvider) Name() string {
	return "mock"
}

// Initialize implements Transcriber.
func (p *MockProvider) Initialize() error {
	p.logger.Info("Initialized mock transcription provider")
	return nil
}

// Transcribe implements Transcriber. The output is deterministic so tests
// can assert on downstream behavior.
func (p *MockProvider) Transcribe(ctx context.Context, audio []byte, filename string) ([]phase.TranscriptSegment, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p.logger.WithFields(logrus.Fields{
		"filename": filename,
		"bytes":    len(audio),
	}).Debug("Mock transcription requested")

	return []phase.TranscriptSegment{
		{Text: "Hello, this is a call regarding your outstanding balance.", StartTime: 0.0, EndTime: 4.2},
		{Text: "I understand, I was planning to pay this week.", StartTime: 4.2, EndTime: 7.8},
		{Text: "Can you confirm the payment will be made by Friday?", StartTime: 7.8, EndTime: 11.0},
		{Text: "Yes, I promise I will pay by Friday.", StartTime: 11.0, EndTime: 14.5},
	}, nil
}
