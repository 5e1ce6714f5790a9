package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/phase"
	"voiceops-server/pkg/risk"
)

// Drafter produces a natural-language summary sentence from structured
// signals. Implementations are untrusted: whatever they return is validated,
// and any failure falls back to the deterministic template.
type Drafter interface {
	Draft(ctx context.Context, inputs Inputs) (string, error)
}

// Inputs are the only data a summary may be built from: structured signals,
// never raw transcript.
type Inputs struct {
	IntentLabel            phase.IntentLabel
	Conditionality         phase.Conditionality
	ObligationStrength     phase.ObligationStrength
	ContradictionsDetected bool
	RiskScore              int
	FraudLikelihood        risk.Likelihood
	KeyRiskFactors         []risk.Factor
}

func (in Inputs) validate() error {
	if !in.IntentLabel.Valid() {
		return fmt.Errorf("invalid intent label: %q", in.IntentLabel)
	}
	if !in.Conditionality.Valid() {
		return fmt.Errorf("invalid conditionality: %q", in.Conditionality)
	}
	if !in.ObligationStrength.Valid() {
		return fmt.Errorf("invalid obligation strength: %q", in.ObligationStrength)
	}
	if in.RiskScore < 0 || in.RiskScore > 100 {
		return fmt.Errorf("risk score out of range [0, 100]: %d", in.RiskScore)
	}
	switch in.FraudLikelihood {
	case risk.LikelihoodLow, risk.LikelihoodMedium, risk.LikelihoodHigh:
	default:
		return fmt.Errorf("invalid fraud likelihood: %q", in.FraudLikelihood)
	}
	for _, factor := range in.KeyRiskFactors {
		if _, ok := factorPhrases[factor]; !ok {
			return fmt.Errorf("invalid risk factor: %q", factor)
		}
	}
	return nil
}

// Generator produces the single-sentence RAG summary. A nil drafter means
// template-only operation.
type Generator struct {
	logger  *logrus.Logger
	drafter Drafter
}

// NewGenerator creates a summary generator.
func NewGenerator(logger *logrus.Logger, drafter Drafter) *Generator {
	return &Generator{logger: logger, drafter: drafter}
}

// Generate validates the inputs, tries the drafter if one is configured,
// and falls back to the deterministic template when drafting fails or the
// drafted sentence violates the summary constraints.
func (g *Generator) Generate(ctx context.Context, inputs Inputs) (string, error) {
	if err := inputs.validate(); err != nil {
		return "", err
	}

	if g.drafter != nil {
		drafted, err := g.drafter.Draft(ctx, inputs)
		if err == nil {
			if summary, verr := validateSummary(drafted); verr == nil {
				g.logger.Debug("Drafted summary accepted")
				return summary, nil
			} else {
				g.logger.WithError(verr).Warn("Drafted summary rejected, using template fallback")
			}
		} else {
			g.logger.WithError(err).Warn("Summary drafting failed, using template fallback")
		}
	}

	return templateSummary(inputs), nil
}

// Phrase tables for the template summary. Every phrase is neutral and
// non-accusatory; the sentence never carries numbers or identifiers.

var intentPhrases = map[phase.IntentLabel]string{
	phase.IntentRepaymentPromise:   "a repayment promise",
	phase.IntentRepaymentDelay:     "a request to delay repayment",
	phase.IntentRefusal:            "a refusal to pay",
	phase.IntentDeflection:         "deflective responses",
	phase.IntentInformationSeeking: "information-seeking behavior",
	phase.IntentDispute:            "a dispute regarding the obligation",
	phase.IntentUnknown:            "unclear intent",
}

var obligationPhrases = map[phase.ObligationStrength]string{
	phase.ObligationStrong:      "strong commitment",
	phase.ObligationWeak:        "weak commitment",
	phase.ObligationConditional: "conditional commitment",
	phase.ObligationNone:        "no discernible commitment",
}

var conditionalityPhrases = map[phase.Conditionality]string{
	phase.ConditionalityLow:    "low conditionality",
	phase.ConditionalityMedium: "moderate conditionality",
	phase.ConditionalityHigh:   "high conditionality",
}

var fraudPhrases = map[risk.Likelihood]string{
	risk.LikelihoodLow:    "low risk",
	risk.LikelihoodMedium: "moderate risk",
	risk.LikelihoodHigh:   "elevated risk",
}

var factorPhrases = map[risk.Factor]string{
	risk.FactorEmotionalStress: "elevated stress",
	risk.FactorRiskyIntent:     "risky intent signals",
	risk.FactorConditional:     "conditional commitment patterns",
	risk.FactorWeakObligation:  "unreliable commitment",
	risk.FactorContradictions:  "contradictions",
	risk.FactorSuspiciousAudio: "suspicious audio characteristics",
}

// templateSummary renders the deterministic fallback sentence. Identical
// inputs always produce the identical sentence.
func templateSummary(in Inputs) string {
	qualifiers := []string{conditionalityPhrases[in.Conditionality]}

	if in.ContradictionsDetected {
		qualifiers = append(qualifiers, "contradictions in statements")
	}

	// At most two factor phrases keeps the sentence embeddable.
	added := 0
	for _, factor := range in.KeyRiskFactors {
		if added == 2 {
			break
		}
		phrase := factorPhrases[factor]
		if !containsString(qualifiers, phrase) {
			qualifiers = append(qualifiers, phrase)
			added++
		}
	}

	var action string
	switch in.FraudLikelihood {
	case risk.LikelihoodHigh:
		action = "requiring further review"
	case risk.LikelihoodMedium:
		action = "warranting closer attention"
	default:
		action = "within normal parameters"
	}

	return fmt.Sprintf("Customer expressed %s with %s, showing %s, indicating %s and %s.",
		intentPhrases[in.IntentLabel],
		obligationPhrases[in.ObligationStrength],
		strings.Join(qualifiers, " and "),
		fraudPhrases[in.FraudLikelihood],
		action,
	)
}

var numericPattern = regexp.MustCompile(`\b\d{1,3}\b`)

// validateSummary enforces the summary constraints on drafted text:
// non-empty, one sentence, no banned words, no numeric values.
func validateSummary(summary string) (string, error) {
	trimmed := strings.TrimSpace(summary)
	if trimmed == "" {
		return "", fmt.Errorf("summary is empty")
	}
	if err := phase.VerifySummary(trimmed); err != nil {
		return "", err
	}
	if numericPattern.MatchString(trimmed) {
		return "", fmt.Errorf("summary contains numeric values")
	}
	if strings.Count(trimmed, ".") > 1 {
		return "", fmt.Errorf("summary must be exactly one sentence")
	}
	return trimmed, nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
