package stt

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestManagerFallsBackToDefault(t *testing.T) {
	logger := testLogger()
	manager := NewManager(logger, "mock")
	require.NoError(t, manager.Register(NewMockProvider(logger)))

	segments, err := manager.Transcribe(context.Background(), "nonexistent", []byte("audio"), "call.wav")
	require.NoError(t, err)
	assert.NotEmpty(t, segments)
}

func TestManagerNoProviderAvailable(t *testing.T) {
	manager := NewManager(testLogger(), "mock")

	_, err := manager.Transcribe(context.Background(), "aws", []byte("audio"), "call.wav")
	assert.ErrorIs(t, err, ErrNoProviderAvailable)
}

func TestMockProviderSegmentsAreOrdered(t *testing.T) {
	provider := NewMockProvider(testLogger())
	require.NoError(t, provider.Initialize())

	segments, err := provider.Transcribe(context.Background(), []byte("audio"), "call.wav")
	require.NoError(t, err)
	require.NotEmpty(t, segments)

	for i, seg := range segments {
		assert.NotEmpty(t, seg.Text)
		assert.Greater(t, seg.EndTime, seg.StartTime)
		if i > 0 {
			assert.GreaterOrEqual(t, seg.StartTime, segments[i-1].EndTime)
		}
	}
}

func TestMockProviderHonorsContextCancellation(t *testing.T) {
	provider := NewMockProvider(testLogger())
	require.NoError(t, provider.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Transcribe(ctx, []byte("audio"), "call.wav")
	assert.ErrorIs(t, err, context.Canceled)
}
