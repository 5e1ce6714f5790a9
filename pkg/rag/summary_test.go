package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceops-server/pkg/phase"
	"voiceops-server/pkg/risk"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func validInputs() Inputs {
	return Inputs{
		IntentLabel:            phase.IntentRepaymentDelay,
		Conditionality:         phase.ConditionalityMedium,
		ObligationStrength:     phase.ObligationConditional,
		ContradictionsDetected: true,
		RiskScore:              58,
		FraudLikelihood:        risk.LikelihoodMedium,
		KeyRiskFactors:         []risk.Factor{risk.FactorContradictions, risk.FactorWeakObligation},
	}
}

type stubDrafter struct {
	summary string
	err     error
}

func (s stubDrafter) Draft(ctx context.Context, inputs Inputs) (string, error) {
	return s.summary, s.err
}

func TestGenerateTemplateSummary(t *testing.T) {
	g := NewGenerator(testLogger(), nil)

	summary, err := g.Generate(context.Background(), validInputs())
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(summary, "."))
	assert.Equal(t, 1, strings.Count(summary, "."))
	assert.Contains(t, summary, "request to delay repayment")
	assert.Contains(t, summary, "conditional commitment")
	assert.Contains(t, summary, "contradictions")
	assert.Contains(t, summary, "moderate risk")
	require.NoError(t, phase.VerifySummary(summary))
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := NewGenerator(testLogger(), nil)

	first, err := g.Generate(context.Background(), validInputs())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := g.Generate(context.Background(), validInputs())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGenerateNeverEmitsNumbersOrIdentifiers(t *testing.T) {
	inputs := validInputs()
	inputs.RiskScore = 97
	g := NewGenerator(testLogger(), nil)

	summary, err := g.Generate(context.Background(), inputs)
	require.NoError(t, err)
	assert.NotContains(t, summary, "97")
}

func TestGenerateRejectsInvalidInputs(t *testing.T) {
	g := NewGenerator(testLogger(), nil)

	bad := validInputs()
	bad.RiskScore = 150
	_, err := g.Generate(context.Background(), bad)
	require.Error(t, err)

	bad = validInputs()
	bad.FraudLikelihood = "certain"
	_, err = g.Generate(context.Background(), bad)
	require.Error(t, err)

	bad = validInputs()
	bad.KeyRiskFactors = []risk.Factor{"made_up_factor"}
	_, err = g.Generate(context.Background(), bad)
	require.Error(t, err)
}

func TestGenerateAcceptsValidDraft(t *testing.T) {
	drafted := "Customer offered a hedged repayment plan with contradictory commitments, warranting closer review."
	g := NewGenerator(testLogger(), stubDrafter{summary: drafted})

	summary, err := g.Generate(context.Background(), validInputs())
	require.NoError(t, err)
	assert.Equal(t, drafted, summary)
}

func TestGenerateFallsBackWhenDraftingFails(t *testing.T) {
	g := NewGenerator(testLogger(), stubDrafter{err: errors.New("provider unavailable")})

	summary, err := g.Generate(context.Background(), validInputs())
	require.NoError(t, err)
	assert.Equal(t, templateSummary(validInputs()), summary)
}

func TestGenerateFallsBackOnBadDraft(t *testing.T) {
	tests := []struct {
		name  string
		draft string
	}{
		{"empty draft", ""},
		{"missing period", "Customer offered a hedged repayment plan"},
		{"multiple sentences", "Customer hedged. Review advised."},
		{"numeric leak", "Customer scored 58 on the risk scale."},
		{"accusatory language", "Customer is lying about the repayment."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(testLogger(), stubDrafter{summary: tt.draft})
			summary, err := g.Generate(context.Background(), validInputs())
			require.NoError(t, err)
			assert.Equal(t, templateSummary(validInputs()), summary)
		})
	}
}
