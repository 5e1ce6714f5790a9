package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceops-server/pkg/phase"
)

func TestAnalyzeUndecodableAudioFallsBackToDefaults(t *testing.T) {
	a := NewQualityAnalyzer(testLogger())

	quality := a.Analyze([]byte("compressed opus payload, not wav"))
	assert.Equal(t, phase.LevelMedium, quality.NoiseLevel)
	assert.Equal(t, phase.LevelMedium, quality.CallStability)
	assert.Equal(t, phase.NaturalnessNormal, quality.SpeechNaturalness)
}

func TestAnalyzeProducesValidSignals(t *testing.T) {
	a := NewQualityAnalyzer(testLogger())
	wav := buildWAV(t, 16000, 3.0)

	quality := a.Analyze(wav)
	assert.True(t, quality.NoiseLevel.Valid())
	assert.True(t, quality.CallStability.Valid())
	assert.True(t, quality.SpeechNaturalness.Valid())
	require.NoError(t, phase.VerifyAudioQuality(quality))
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := NewQualityAnalyzer(testLogger())
	wav := buildWAV(t, 16000, 3.0)

	first := a.Analyze(wav)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, a.Analyze(wav))
	}
}

func TestEstimateNoiseLevelSilenceIsLow(t *testing.T) {
	samples := make([]float64, 16000*2)
	assert.Equal(t, phase.LevelLow, estimateNoiseLevel(samples, 16000))
}

func TestEstimateNoiseLevelShortClipDefaultsToMedium(t *testing.T) {
	samples := make([]float64, 100)
	assert.Equal(t, phase.LevelMedium, estimateNoiseLevel(samples, 16000))
}
