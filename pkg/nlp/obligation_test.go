package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"voiceops-server/pkg/phase"
)

func TestDeriveObligationStrength(t *testing.T) {
	logger := testLogger()

	tests := []struct {
		name           string
		label          phase.IntentLabel
		conditionality phase.Conditionality
		customerText   string
		want           phase.ObligationStrength
	}{
		{
			name:           "refusal carries no obligation",
			label:          phase.IntentRefusal,
			conditionality: phase.ConditionalityLow,
			customerText:   "I promise I will pay",
			want:           phase.ObligationNone,
		},
		{
			name:           "deflection carries no obligation",
			label:          phase.IntentDeflection,
			conditionality: phase.ConditionalityLow,
			customerText:   "call me back later",
			want:           phase.ObligationNone,
		},
		{
			name:           "high conditionality dominates strong markers",
			label:          phase.IntentRepaymentPromise,
			conditionality: phase.ConditionalityHigh,
			customerText:   "I promise, absolutely, without fail",
			want:           phase.ObligationConditional,
		},
		{
			name:           "firm promise with strong markers",
			label:          phase.IntentRepaymentPromise,
			conditionality: phase.ConditionalityLow,
			customerText:   "I will pay tomorrow, I promise, definitely",
			want:           phase.ObligationStrong,
		},
		{
			name:           "promise without strong markers",
			label:          phase.IntentRepaymentPromise,
			conditionality: phase.ConditionalityLow,
			customerText:   "okay fine, payment happens soon",
			want:           phase.ObligationWeak,
		},
		{
			name:           "hedged promise with conditional markers",
			label:          phase.IntentRepaymentPromise,
			conditionality: phase.ConditionalityMedium,
			customerText:   "I will pay once the salary arrives",
			want:           phase.ObligationConditional,
		},
		{
			name:           "direct delay request",
			label:          phase.IntentRepaymentDelay,
			conditionality: phase.ConditionalityLow,
			customerText:   "I need a few more days",
			want:           phase.ObligationWeak,
		},
		{
			name:           "hedged delay request",
			label:          phase.IntentRepaymentDelay,
			conditionality: phase.ConditionalityMedium,
			customerText:   "maybe next month if things improve",
			want:           phase.ObligationConditional,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := phase.IntentResult{
				Label:          tt.label,
				Confidence:     0.8,
				Conditionality: tt.conditionality,
			}
			utterances := []phase.NormalizedUtterance{customerUtterance(tt.customerText)}
			got := DeriveObligationStrength(logger, intent, utterances)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveObligationStrengthUsesCustomerSpeechOnly(t *testing.T) {
	logger := testLogger()
	intent := phase.IntentResult{
		Label:          phase.IntentRepaymentPromise,
		Confidence:     0.8,
		Conditionality: phase.ConditionalityLow,
	}

	// Strong commitment language from the agent must not upgrade the
	// customer's obligation.
	utterances := []phase.NormalizedUtterance{
		{Speaker: phase.SpeakerAgent, Text: "You must promise to pay, guarantee it today", StartTime: 0, EndTime: 2},
		customerUtterance("okay fine, payment happens soon"),
	}
	got := DeriveObligationStrength(logger, intent, utterances)
	assert.Equal(t, phase.ObligationWeak, got)
}
