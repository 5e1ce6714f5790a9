package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAudioQuality(t *testing.T) {
	good := AudioQuality{
		NoiseLevel:        LevelLow,
		CallStability:     LevelHigh,
		SpeechNaturalness: NaturalnessNormal,
	}
	require.NoError(t, VerifyAudioQuality(good))

	bad := good
	bad.SpeechNaturalness = "robotic"
	err := VerifyAudioQuality(bad)
	require.Error(t, err)
	verr, ok := AsVerification(err)
	require.True(t, ok)
	assert.Equal(t, "1", verr.Phase)
}

func TestVerifyTranscript(t *testing.T) {
	require.Error(t, VerifyTranscript(nil))
	require.Error(t, VerifyTranscript([]TranscriptSegment{}))

	ordered := []TranscriptSegment{
		{Text: "hello", StartTime: 0.0, EndTime: 2.0},
		{Text: "hi there", StartTime: 2.0, EndTime: 3.5},
	}
	require.NoError(t, VerifyTranscript(ordered))

	err := VerifyTranscript([]TranscriptSegment{{Text: "hello", StartTime: 2.0, EndTime: 2.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end_time")

	err = VerifyTranscript([]TranscriptSegment{{Text: "   ", StartTime: 0.0, EndTime: 1.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty text")
}

func TestVerifyStructured(t *testing.T) {
	require.Error(t, VerifyStructured(nil))

	good := []StructuredUtterance{
		{Speaker: SpeakerAgent, Text: "hello", Confidence: 0.7},
		{Speaker: SpeakerCustomer, Text: "hi", Confidence: 0.5},
		{Speaker: SpeakerUnknown, Text: "inaudible", Confidence: 0.1},
	}
	require.NoError(t, VerifyStructured(good))

	err := VerifyStructured([]StructuredUtterance{{Speaker: "caller", Text: "hi", Confidence: 0.5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "speaker")

	err = VerifyStructured([]StructuredUtterance{{Speaker: SpeakerAgent, Text: "hi", Confidence: 1.5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confidence")
}

func TestVerifyNormalizedAllowsEmptyText(t *testing.T) {
	// Redaction may legitimately strip an utterance down to nothing.
	utterances := []NormalizedUtterance{
		{Speaker: SpeakerCustomer, Text: "", StartTime: 0.0, EndTime: 2.0},
	}
	require.NoError(t, VerifyNormalized(utterances))

	reversed := []NormalizedUtterance{
		{Speaker: SpeakerCustomer, Text: "hi", StartTime: 3.0, EndTime: 1.0},
	}
	require.Error(t, VerifyNormalized(reversed))
}

func TestVerifySentiment(t *testing.T) {
	require.NoError(t, VerifySentiment(SentimentResult{Label: SentimentStressed, Confidence: 0.66}))

	err := VerifySentiment(SentimentResult{Label: "angry", Confidence: 0.5})
	require.Error(t, err)
	verr, ok := AsVerification(err)
	require.True(t, ok)
	assert.Equal(t, "5", verr.Phase)

	require.Error(t, VerifySentiment(SentimentResult{Label: SentimentCalm, Confidence: -0.1}))
}

func TestVerifyIntentGroup(t *testing.T) {
	commitment := CommitmentTomorrow
	amount := 2500.0
	intent := IntentResult{Label: IntentRepaymentPromise, Confidence: 0.8, Conditionality: ConditionalityLow}

	require.NoError(t, VerifyIntentGroup(intent, ObligationStrong, EntityExtraction{
		PaymentCommitment: &commitment,
		AmountMentioned:   &amount,
	}))
	require.NoError(t, VerifyIntentGroup(intent, ObligationNone, EntityExtraction{}))

	badCommitment := PaymentCommitment("someday")
	err := VerifyIntentGroup(intent, ObligationStrong, EntityExtraction{PaymentCommitment: &badCommitment})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment_commitment")

	negative := -10.0
	err = VerifyIntentGroup(intent, ObligationStrong, EntityExtraction{AmountMentioned: &negative})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func TestVerifyAssessment(t *testing.T) {
	require.NoError(t, VerifyAssessment(42, "medium", 0.8, []string{"weak_obligation"}))
	require.NoError(t, VerifyAssessment(0, "low", 0.0, nil))

	require.Error(t, VerifyAssessment(101, "high", 0.8, nil))
	require.Error(t, VerifyAssessment(-1, "low", 0.8, nil))
	require.Error(t, VerifyAssessment(50, "certain", 0.8, nil))
	require.Error(t, VerifyAssessment(50, "medium", 1.1, nil))

	err := VerifyAssessment(50, "medium", 0.8, []string{"risky_intent", "risky_intent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestVerifySummary(t *testing.T) {
	require.NoError(t, VerifySummary("Customer expressed a repayment promise with strong commitment."))

	require.Error(t, VerifySummary(""))
	require.Error(t, VerifySummary("   "))
	require.Error(t, VerifySummary("No trailing period"))

	err := VerifySummary("Customer appears to be running a scam.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scam")

	// Banned terms match whole words only.
	require.NoError(t, VerifySummary("Signals may indicate an attempt to defraud."))
}
