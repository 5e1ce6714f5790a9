package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"voiceops-server/pkg/phase"
)

// Dimension names one of the six independent signal dimensions the scorer
// evaluates. Dimensions carries them in evaluation order; that order also
// fixes the order of key risk factors in the output.
type Dimension string

const (
	DimSentiment      Dimension = "sentiment"
	DimIntent         Dimension = "intent"
	DimConditionality Dimension = "conditionality"
	DimObligation     Dimension = "obligation"
	DimContradictions Dimension = "contradictions"
	DimAudioTrust     Dimension = "audio_trust"
)

// Dimensions is the fixed evaluation order of the six signal dimensions.
var Dimensions = []Dimension{
	DimSentiment, DimIntent, DimConditionality,
	DimObligation, DimContradictions, DimAudioTrust,
}

// Likelihood is the three-valued fraud classification.
type Likelihood string

const (
	LikelihoodLow    Likelihood = "low"
	LikelihoodMedium Likelihood = "medium"
	LikelihoodHigh   Likelihood = "high"
)

// Factor is a named key risk factor, drawn from a fixed six-label
// vocabulary, identifying which dimension drove an elevated score.
type Factor string

const (
	FactorEmotionalStress Factor = "high_emotional_stress"
	FactorRiskyIntent     Factor = "risky_intent"
	FactorConditional     Factor = "conditional_commitment"
	FactorWeakObligation  Factor = "weak_obligation"
	FactorContradictions  Factor = "contradictory_statements"
	FactorSuspiciousAudio Factor = "suspicious_audio_signals"
)

// factorForDimension maps each dimension to its factor label.
var factorForDimension = map[Dimension]Factor{
	DimSentiment:      FactorEmotionalStress,
	DimIntent:         FactorRiskyIntent,
	DimConditionality: FactorConditional,
	DimObligation:     FactorWeakObligation,
	DimContradictions: FactorContradictions,
	DimAudioTrust:     FactorSuspiciousAudio,
}

// Default weights and thresholds. Weights must always sum to 1.0 across the
// six dimensions; overrides are validated, never renormalized.
const (
	DefaultHighThreshold   = 65.0
	DefaultMediumThreshold = 35.0
	DefaultFactorThreshold = 50.0
)

// DefaultWeights returns the default dimension weighting.
func DefaultWeights() map[Dimension]float64 {
	return map[Dimension]float64{
		DimSentiment:      0.20,
		DimIntent:         0.20,
		DimConditionality: 0.15,
		DimObligation:     0.15,
		DimContradictions: 0.15,
		DimAudioTrust:     0.15,
	}
}

// Options tunes the scorer without changing its algorithm. The zero value
// selects all defaults.
type Options struct {
	// Weights overrides the dimension weighting. Nil means defaults.
	Weights map[Dimension]float64
	// HighThreshold and MediumThreshold classify fraud likelihood from the
	// aggregate score. Zero means default.
	HighThreshold   float64
	MediumThreshold float64
	// FactorThreshold is the sub-score at or above which a dimension is
	// reported as a key risk factor. Zero means default.
	FactorThreshold float64
}

// Assessment is the scorer's output record.
type Assessment struct {
	RiskScore       int        `json:"risk_score"`
	FraudLikelihood Likelihood `json:"fraud_likelihood"`
	Confidence      float64    `json:"confidence"`
	KeyRiskFactors  []Factor   `json:"key_risk_factors"`
}

// ComputeRisk maps a validated bundle to a risk assessment. The computation
// is a pure function of the bundle and options: lookup-table sub-scores per
// dimension, a validated weighted sum clamped to [0, 100], threshold
// classification, and a linear confidence combination. No randomness, no
// clock.
func ComputeRisk(bundle SignalBundle, opts Options) (Assessment, error) {
	weights := opts.Weights
	if weights == nil {
		weights = DefaultWeights()
	}
	if err := ValidateWeights(weights); err != nil {
		return Assessment{}, err
	}

	highThreshold := opts.HighThreshold
	if highThreshold == 0 {
		highThreshold = DefaultHighThreshold
	}
	mediumThreshold := opts.MediumThreshold
	if mediumThreshold == 0 {
		mediumThreshold = DefaultMediumThreshold
	}
	factorThreshold := opts.FactorThreshold
	if factorThreshold == 0 {
		factorThreshold = DefaultFactorThreshold
	}

	subScores := map[Dimension]float64{
		DimSentiment:      scoreSentiment(bundle),
		DimIntent:         scoreIntent(bundle),
		DimConditionality: scoreConditionality(bundle),
		DimObligation:     scoreObligation(bundle),
		DimContradictions: scoreContradictions(bundle),
		DimAudioTrust:     scoreAudioTrust(bundle),
	}

	var raw float64
	for _, dim := range Dimensions {
		raw += subScores[dim] * weights[dim]
	}
	riskScore := int(math.Round(clamp(raw, 0.0, 100.0)))

	var likelihood Likelihood
	switch {
	case float64(riskScore) >= highThreshold:
		likelihood = LikelihoodHigh
	case float64(riskScore) >= mediumThreshold:
		likelihood = LikelihoodMedium
	default:
		likelihood = LikelihoodLow
	}

	// Sentiment and intent carry upstream confidence; the remaining
	// dimensions are categorical and contribute a fixed floor, so confidence
	// stays above zero even when upstream confidence collapses.
	confidence := bundle.SentimentConfidence*0.40 + bundle.IntentConfidence*0.40 + 0.20
	confidence = round2(clamp(confidence, 0.0, 1.0))

	factors := make([]Factor, 0, len(Dimensions))
	for _, dim := range Dimensions {
		if subScores[dim] >= factorThreshold {
			factors = append(factors, factorForDimension[dim])
		}
	}
	// A detected contradiction is always material, whatever the weights say.
	if bundle.ContradictionsDetected && !containsFactor(factors, FactorContradictions) {
		factors = insertInDimensionOrder(factors, FactorContradictions)
	}

	return Assessment{
		RiskScore:       riskScore,
		FraudLikelihood: likelihood,
		Confidence:      confidence,
		KeyRiskFactors:  factors,
	}, nil
}

// ValidateWeights checks that a weight mapping covers exactly the six
// dimensions and sums to 1.0 within tolerance. Invalid weights are an error,
// never silently corrected.
func ValidateWeights(weights map[Dimension]float64) error {
	var missing, extra []string
	for _, dim := range Dimensions {
		if _, ok := weights[dim]; !ok {
			missing = append(missing, string(dim))
		}
	}
	for dim := range weights {
		if _, ok := factorForDimension[dim]; !ok {
			extra = append(extra, string(dim))
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(extra)
		return fmt.Errorf("invalid weight keys: missing [%s], extra [%s]",
			strings.Join(missing, " "), strings.Join(extra, " "))
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	if math.Abs(total-1.0) > 0.001 {
		return fmt.Errorf("weights must sum to 1.0, got %.4f", total)
	}
	return nil
}

// Sub-score tables. Each returns a value in [0, 100]; sentiment and intent
// are scaled by their upstream confidence, the rest are purely categorical.

func scoreSentiment(b SignalBundle) float64 {
	base := map[phase.SentimentLabel]float64{
		phase.SentimentCalm:       0.0,
		phase.SentimentNeutral:    10.0,
		phase.SentimentAnxious:    55.0,
		phase.SentimentStressed:   70.0,
		phase.SentimentFrustrated: 60.0,
		phase.SentimentEvasive:    85.0,
	}[b.SentimentLabel]
	return round2(base * b.SentimentConfidence)
}

func scoreIntent(b SignalBundle) float64 {
	base := map[phase.IntentLabel]float64{
		phase.IntentRepaymentPromise:   5.0,
		phase.IntentRepaymentDelay:     40.0,
		phase.IntentRefusal:            80.0,
		phase.IntentDeflection:         75.0,
		phase.IntentInformationSeeking: 15.0,
		phase.IntentDispute:            65.0,
		phase.IntentUnknown:            50.0,
	}[b.IntentLabel]
	return round2(base * b.IntentConfidence)
}

func scoreConditionality(b SignalBundle) float64 {
	return map[phase.Conditionality]float64{
		phase.ConditionalityLow:    10.0,
		phase.ConditionalityMedium: 50.0,
		phase.ConditionalityHigh:   85.0,
	}[b.Conditionality]
}

func scoreObligation(b SignalBundle) float64 {
	return map[phase.ObligationStrength]float64{
		phase.ObligationStrong:      5.0,
		phase.ObligationWeak:        45.0,
		phase.ObligationConditional: 65.0,
		phase.ObligationNone:        80.0,
	}[b.ObligationStrength]
}

func scoreContradictions(b SignalBundle) float64 {
	if b.ContradictionsDetected {
		return 90.0
	}
	return 5.0
}

// scoreAudioTrust combines the three audio sub-dimensions. Unnatural speech
// is the single strongest acoustic fraud indicator, so naturalness carries
// half the weight; noise and stability split the rest.
func scoreAudioTrust(b SignalBundle) float64 {
	noise := map[phase.Level]float64{
		phase.LevelLow:    0.0,
		phase.LevelMedium: 25.0,
		phase.LevelHigh:   55.0,
	}[b.NoiseLevel]

	stability := map[phase.Level]float64{
		phase.LevelHigh:   0.0,
		phase.LevelMedium: 25.0,
		phase.LevelLow:    55.0,
	}[b.CallStability]

	naturalness := map[phase.Naturalness]float64{
		phase.NaturalnessNormal:     0.0,
		phase.NaturalnessSuspicious: 80.0,
	}[b.SpeechNaturalness]

	return round2(naturalness*0.50 + noise*0.25 + stability*0.25)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func containsFactor(factors []Factor, target Factor) bool {
	for _, f := range factors {
		if f == target {
			return true
		}
	}
	return false
}

// insertInDimensionOrder places factor into factors while keeping the slice
// in dimension-evaluation order.
func insertInDimensionOrder(factors []Factor, factor Factor) []Factor {
	rank := make(map[Factor]int, len(Dimensions))
	for i, dim := range Dimensions {
		rank[factorForDimension[dim]] = i
	}
	out := make([]Factor, 0, len(factors)+1)
	inserted := false
	for _, f := range factors {
		if !inserted && rank[factor] < rank[f] {
			out = append(out, factor)
			inserted = true
		}
		out = append(out, f)
	}
	if !inserted {
		out = append(out, factor)
	}
	return out
}
