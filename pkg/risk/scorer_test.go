package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceops-server/pkg/phase"
)

func calmBundle() SignalBundle {
	return SignalBundle{
		SentimentLabel:         phase.SentimentCalm,
		SentimentConfidence:    0.9,
		IntentLabel:            phase.IntentRepaymentPromise,
		IntentConfidence:       0.9,
		Conditionality:         phase.ConditionalityLow,
		ObligationStrength:     phase.ObligationStrong,
		ContradictionsDetected: false,
		NoiseLevel:             phase.LevelLow,
		CallStability:          phase.LevelHigh,
		SpeechNaturalness:      phase.NaturalnessNormal,
	}
}

func evasiveBundle() SignalBundle {
	return SignalBundle{
		SentimentLabel:         phase.SentimentEvasive,
		SentimentConfidence:    0.9,
		IntentLabel:            phase.IntentDeflection,
		IntentConfidence:       0.8,
		Conditionality:         phase.ConditionalityHigh,
		ObligationStrength:     phase.ObligationNone,
		ContradictionsDetected: true,
		NoiseLevel:             phase.LevelHigh,
		CallStability:          phase.LevelLow,
		SpeechNaturalness:      phase.NaturalnessSuspicious,
	}
}

func TestComputeRiskCalmPromiseIsLow(t *testing.T) {
	assessment, err := ComputeRisk(calmBundle(), Options{})
	require.NoError(t, err)

	assert.Equal(t, LikelihoodLow, assessment.FraudLikelihood)
	assert.Less(t, assessment.RiskScore, 35)
	assert.Empty(t, assessment.KeyRiskFactors)
	assert.Equal(t, 0.92, assessment.Confidence)
}

func TestComputeRiskEvasiveContradictoryIsHigh(t *testing.T) {
	assessment, err := ComputeRisk(evasiveBundle(), Options{})
	require.NoError(t, err)

	assert.Equal(t, LikelihoodHigh, assessment.FraudLikelihood)
	assert.GreaterOrEqual(t, assessment.RiskScore, 65)
	assert.Equal(t, 0.88, assessment.Confidence)

	assert.Contains(t, assessment.KeyRiskFactors, FactorContradictions)
	assert.GreaterOrEqual(t, len(assessment.KeyRiskFactors), 3)
}

func TestComputeRiskIsDeterministic(t *testing.T) {
	bundle := evasiveBundle()
	first, err := ComputeRisk(bundle, Options{})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again, err := ComputeRisk(bundle, Options{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComputeRiskFactorsFollowDimensionOrder(t *testing.T) {
	assessment, err := ComputeRisk(evasiveBundle(), Options{})
	require.NoError(t, err)

	rank := make(map[Factor]int, len(Dimensions))
	for i, dim := range Dimensions {
		rank[factorForDimension[dim]] = i
	}
	for i := 1; i < len(assessment.KeyRiskFactors); i++ {
		assert.Less(t, rank[assessment.KeyRiskFactors[i-1]], rank[assessment.KeyRiskFactors[i]])
	}
}

func TestComputeRiskForcesContradictionFactor(t *testing.T) {
	bundle := calmBundle()
	bundle.ContradictionsDetected = true

	// A factor threshold above every sub-score suppresses all threshold
	// factors; the contradiction factor must still be reported.
	assessment, err := ComputeRisk(bundle, Options{FactorThreshold: 95})
	require.NoError(t, err)
	assert.Equal(t, []Factor{FactorContradictions}, assessment.KeyRiskFactors)
}

func TestComputeRiskRejectsInvalidWeights(t *testing.T) {
	weights := DefaultWeights()
	weights[DimSentiment] = 0.5

	_, err := ComputeRisk(calmBundle(), Options{Weights: weights})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestValidateWeights(t *testing.T) {
	require.NoError(t, ValidateWeights(DefaultWeights()))

	missing := DefaultWeights()
	delete(missing, DimAudioTrust)
	err := ValidateWeights(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio_trust")

	extra := DefaultWeights()
	extra[DimAudioTrust] = 0.05
	extra["velocity"] = 0.10
	err = ValidateWeights(extra)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "velocity")
}

func TestComputeRiskCustomThresholds(t *testing.T) {
	assessment, err := ComputeRisk(calmBundle(), Options{
		HighThreshold:   90,
		MediumThreshold: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, LikelihoodMedium, assessment.FraudLikelihood)
}
