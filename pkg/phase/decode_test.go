package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTranscript(t *testing.T) {
	payload := `[
		{"text": "Hello, am I speaking with the account holder?", "start_time": 0.0, "end_time": 3.1},
		{"text": "Yes, speaking.", "start_time": 3.1, "end_time": 4.4}
	]`

	segments, err := DecodeTranscript([]byte(payload))
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "Yes, speaking.", segments[1].Text)
	assert.Equal(t, 3.1, segments[1].StartTime)
	assert.Equal(t, 4.4, segments[1].EndTime)
}

func TestDecodeTranscriptRejectsSpeakerKey(t *testing.T) {
	payload := `[{"speaker": "CUSTOMER", "text": "hi", "start_time": 0.0, "end_time": 1.0}]`

	_, err := DecodeTranscript([]byte(payload))
	require.Error(t, err)

	verr, ok := AsVerification(err)
	require.True(t, ok)
	assert.Equal(t, "2", verr.Phase)
	assert.Contains(t, verr.Cause, "speaker")
}

func TestDecodeTranscriptRejectsMissingKeys(t *testing.T) {
	payload := `[{"text": "hi", "start_time": 0.0}]`

	_, err := DecodeTranscript([]byte(payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end_time")
}

func TestDecodeSentiment(t *testing.T) {
	result, err := DecodeSentiment([]byte(`{"label": "anxious", "confidence": 0.82}`))
	require.NoError(t, err)
	assert.Equal(t, SentimentAnxious, result.Label)
	assert.Equal(t, 0.82, result.Confidence)
}

func TestDecodeSentimentRejectsRiskFields(t *testing.T) {
	for _, forbidden := range []string{"risk_score", "fraud_likelihood", "intent"} {
		payload := `{"label": "calm", "confidence": 0.9, "` + forbidden + `": 77}`

		_, err := DecodeSentiment([]byte(payload))
		require.Error(t, err, "key %q must be rejected", forbidden)

		verr, ok := AsVerification(err)
		require.True(t, ok)
		assert.Equal(t, "5", verr.Phase)
		assert.Contains(t, verr.Cause, forbidden)
	}
}

func TestDecodeIntent(t *testing.T) {
	payload := `{"label": "repayment_delay", "confidence": 0.7, "conditionality": "medium"}`

	result, err := DecodeIntent([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, IntentRepaymentDelay, result.Label)
	assert.Equal(t, ConditionalityMedium, result.Conditionality)
}

func TestDecodeIntentRejectsRiskFields(t *testing.T) {
	payload := `{"label": "refusal", "confidence": 0.8, "conditionality": "low", "risk_score": 90}`

	_, err := DecodeIntent([]byte(payload))
	require.Error(t, err)

	verr, ok := AsVerification(err)
	require.True(t, ok)
	assert.Equal(t, "6", verr.Phase)
	assert.Contains(t, verr.Cause, "risk_score")
}

func TestDecodeEntities(t *testing.T) {
	entities, err := DecodeEntities([]byte(`{"payment_commitment": "this_week", "amount_mentioned": 5000}`))
	require.NoError(t, err)
	require.NotNil(t, entities.PaymentCommitment)
	assert.Equal(t, CommitmentThisWeek, *entities.PaymentCommitment)
	require.NotNil(t, entities.AmountMentioned)
	assert.Equal(t, 5000.0, *entities.AmountMentioned)
}

func TestDecodeEntitiesNullValues(t *testing.T) {
	entities, err := DecodeEntities([]byte(`{"payment_commitment": null, "amount_mentioned": null}`))
	require.NoError(t, err)
	assert.Nil(t, entities.PaymentCommitment)
	assert.Nil(t, entities.AmountMentioned)
}

func TestDecodeEntitiesRequiresBothKeys(t *testing.T) {
	_, err := DecodeEntities([]byte(`{"payment_commitment": null}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount_mentioned")
}
