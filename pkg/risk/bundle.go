package risk

import (
	"fmt"

	"voiceops-server/pkg/phase"
)

// SignalBundle is the validated, immutable input to the risk scorer. Build
// one through BuildBundle; a bundle that exists is internally consistent and
// needs no further checking downstream.
type SignalBundle struct {
	SentimentLabel         phase.SentimentLabel
	SentimentConfidence    float64
	IntentLabel            phase.IntentLabel
	IntentConfidence       float64
	Conditionality         phase.Conditionality
	ObligationStrength     phase.ObligationStrength
	ContradictionsDetected bool
	NoiseLevel             phase.Level
	CallStability          phase.Level
	SpeechNaturalness      phase.Naturalness
}

// BuildBundle validates the five upstream signal groups and assembles them
// into one SignalBundle. Checking order is fixed (sentiment, intent,
// obligation, contradiction, audio quality) and the first invalid field
// wins, so identical inputs always produce the identical error.
func BuildBundle(
	sentiment phase.SentimentResult,
	intent phase.IntentResult,
	obligation phase.ObligationStrength,
	contradictionsDetected bool,
	quality phase.AudioQuality,
) (SignalBundle, error) {
	if !sentiment.Label.Valid() {
		return SignalBundle{}, fmt.Errorf("invalid sentiment label: %q", sentiment.Label)
	}
	if sentiment.Confidence < 0.0 || sentiment.Confidence > 1.0 {
		return SignalBundle{}, fmt.Errorf("sentiment confidence out of range: %v", sentiment.Confidence)
	}
	if !intent.Label.Valid() {
		return SignalBundle{}, fmt.Errorf("invalid intent label: %q", intent.Label)
	}
	if intent.Confidence < 0.0 || intent.Confidence > 1.0 {
		return SignalBundle{}, fmt.Errorf("intent confidence out of range: %v", intent.Confidence)
	}
	if !intent.Conditionality.Valid() {
		return SignalBundle{}, fmt.Errorf("invalid conditionality: %q", intent.Conditionality)
	}
	if !obligation.Valid() {
		return SignalBundle{}, fmt.Errorf("invalid obligation strength: %q", obligation)
	}
	if !quality.NoiseLevel.Valid() {
		return SignalBundle{}, fmt.Errorf("invalid noise_level: %q", quality.NoiseLevel)
	}
	if !quality.CallStability.Valid() {
		return SignalBundle{}, fmt.Errorf("invalid call_stability: %q", quality.CallStability)
	}
	if !quality.SpeechNaturalness.Valid() {
		return SignalBundle{}, fmt.Errorf("invalid speech_naturalness: %q", quality.SpeechNaturalness)
	}

	return SignalBundle{
		SentimentLabel:         sentiment.Label,
		SentimentConfidence:    sentiment.Confidence,
		IntentLabel:            intent.Label,
		IntentConfidence:       intent.Confidence,
		Conditionality:         intent.Conditionality,
		ObligationStrength:     obligation,
		ContradictionsDetected: contradictionsDetected,
		NoiseLevel:             quality.NoiseLevel,
		CallStability:          quality.CallStability,
		SpeechNaturalness:      quality.SpeechNaturalness,
	}, nil
}
