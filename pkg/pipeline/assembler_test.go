package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceops-server/pkg/phase"
	"voiceops-server/pkg/risk"
)

func completeInputs() assemblyInputs {
	commitment := phase.CommitmentThisWeek
	return assemblyInputs{
		callLanguage: "english",
		audioQuality: phase.AudioQuality{
			NoiseLevel:        phase.LevelMedium,
			CallStability:     phase.LevelHigh,
			SpeechNaturalness: phase.NaturalnessNormal,
		},
		speakerAnalysis: SpeakerAnalysis{CustomerOnlyAnalysis: true},
		sentiment:       phase.SentimentResult{Label: phase.SentimentAnxious, Confidence: 0.72},
		intent: phase.IntentResult{
			Label:          phase.IntentRepaymentDelay,
			Confidence:     0.65,
			Conditionality: phase.ConditionalityMedium,
		},
		obligationStrength:     phase.ObligationConditional,
		entities:               phase.EntityExtraction{PaymentCommitment: &commitment},
		contradictionsDetected: false,
		audioTrustFlags:        []string{"moderate_noise"},
		behavioralFlags:        []string{"conditional_commitment"},
		assessment: risk.Assessment{
			RiskScore:       48,
			FraudLikelihood: risk.LikelihoodMedium,
			Confidence:      0.75,
		},
		summary: "Customer requested a repayment delay with conditional commitment.",
		conversation: []phase.NormalizedUtterance{
			{Speaker: phase.SpeakerAgent, Text: "Your payment is overdue.", StartTime: 0.0, EndTime: 2.0},
			{Speaker: phase.SpeakerCustomer, Text: "I need until next week.", StartTime: 2.0, EndTime: 4.0},
		},
	}
}

func TestAssemblePlacesValuesWithoutComputing(t *testing.T) {
	in := completeInputs()

	output, err := assemble(in)
	require.NoError(t, err)

	assert.Equal(t, "english", output.CallContext.CallLanguage)
	assert.Equal(t, phase.LevelMedium, output.CallContext.CallQuality.NoiseLevel)
	assert.Equal(t, phase.SentimentAnxious, output.NLPInsights.Sentiment.Label)
	assert.Equal(t, 0.72, output.NLPInsights.Sentiment.Confidence)
	assert.Equal(t, phase.ObligationConditional, output.NLPInsights.ObligationStrength)
	assert.Equal(t, 48, output.RiskAssessment.RiskScore)
	assert.Equal(t, risk.LikelihoodMedium, output.RiskAssessment.FraudLikelihood)
	assert.Equal(t, in.summary, output.SummaryForRAG)

	require.Len(t, output.Conversation, 2)
	assert.Equal(t, phase.SpeakerCustomer, output.Conversation[1].Speaker)
	assert.Equal(t, "I need until next week.", output.Conversation[1].Text)
}

func TestAssembleMissingValueFails(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*assemblyInputs)
		want   string
	}{
		{"missing language", func(in *assemblyInputs) { in.callLanguage = "" }, "call language"},
		{"missing quality", func(in *assemblyInputs) { in.audioQuality.NoiseLevel = "" }, "audio quality"},
		{"missing sentiment", func(in *assemblyInputs) { in.sentiment = phase.SentimentResult{} }, "sentiment"},
		{"missing intent", func(in *assemblyInputs) { in.intent = phase.IntentResult{} }, "intent"},
		{"missing obligation", func(in *assemblyInputs) { in.obligationStrength = "" }, "obligation"},
		{"missing assessment", func(in *assemblyInputs) { in.assessment = risk.Assessment{} }, "risk assessment"},
		{"missing summary", func(in *assemblyInputs) { in.summary = "" }, "summary"},
		{"nil audio flags", func(in *assemblyInputs) { in.audioTrustFlags = nil }, "flags"},
		{"nil behavioral flags", func(in *assemblyInputs) { in.behavioralFlags = nil }, "flags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := completeInputs()
			tt.mutate(&in)
			_, err := assemble(in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFinalOutputSchemaIsLocked(t *testing.T) {
	output, err := assemble(completeInputs())
	require.NoError(t, err)

	data, err := json.Marshal(output)
	require.NoError(t, err)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &top))

	wantKeys := []string{
		"call_context", "speaker_analysis", "nlp_insights",
		"risk_signals", "risk_assessment", "summary_for_rag", "conversation",
	}
	require.Len(t, top, len(wantKeys))
	for _, key := range wantKeys {
		assert.Contains(t, top, key)
	}

	var assessment map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(top["risk_assessment"], &assessment))
	require.Len(t, assessment, 3)
	assert.Contains(t, assessment, "risk_score")
	assert.Contains(t, assessment, "fraud_likelihood")
	assert.Contains(t, assessment, "confidence")

	// No identifiers anywhere in the serialized record.
	for _, forbidden := range []string{"call_id", "customer_id", "loan_id", "request_id", "account_id"} {
		assert.NotContains(t, string(data), forbidden)
	}
}

func TestFinalOutputNullableEntities(t *testing.T) {
	in := completeInputs()
	in.entities = phase.EntityExtraction{}

	output, err := assemble(in)
	require.NoError(t, err)

	data, err := json.Marshal(output)
	require.NoError(t, err)

	// Absent entities serialize as explicit nulls, never disappear.
	assert.Contains(t, string(data), `"payment_commitment":null`)
	assert.Contains(t, string(data), `"amount_mentioned":null`)
}
