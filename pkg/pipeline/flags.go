package pipeline

import (
	"strings"

	"voiceops-server/pkg/phase"
	"voiceops-server/pkg/risk"
)

// Flag strings surfaced in the risk_signals group. Kept separate from risk
// factor labels: factors describe scoring dimensions, flags describe what a
// downstream consumer should look at.
const (
	flagModerateNoise       = "moderate_noise"
	flagHighBackgroundNoise = "high_background_noise"
	flagLowCallStability    = "low_call_stability"
	flagUnnaturalSpeech     = "unnatural_speech_pattern"

	flagStatementContradiction = "statement_contradiction"
)

var behavioralFlagMap = map[risk.Factor]string{
	risk.FactorConditional:     "conditional_commitment",
	risk.FactorContradictions:  flagStatementContradiction,
	risk.FactorEmotionalStress: "emotional_distress",
	risk.FactorRiskyIntent:     "evasive_responses",
	risk.FactorWeakObligation:  "weak_commitment",
}

// Leading-question phrases in agent speech that suggest the customer's
// responses may have been steered.
var leadingPatterns = []string{
	"wouldn't you agree",
	"you have to admit",
	"surely you",
	"you must agree",
	"don't you think",
	"obviously",
	"clearly you",
	"as you know",
}

// deriveAudioTrustFlags maps audio quality signals to trust flags. A clean
// recording produces an empty (non-nil) slice.
func deriveAudioTrustFlags(quality phase.AudioQuality) []string {
	flags := []string{}
	switch quality.NoiseLevel {
	case phase.LevelMedium:
		flags = append(flags, flagModerateNoise)
	case phase.LevelHigh:
		flags = append(flags, flagHighBackgroundNoise)
	}
	if quality.CallStability == phase.LevelLow {
		flags = append(flags, flagLowCallStability)
	}
	if quality.SpeechNaturalness == phase.NaturalnessSuspicious {
		flags = append(flags, flagUnnaturalSpeech)
	}
	return flags
}

// deriveBehavioralFlags maps key risk factors to behavioral flags. The
// contradiction flag is always present when contradictions were detected,
// even if the contradiction factor did not clear the factor threshold.
func deriveBehavioralFlags(factors []risk.Factor, contradictionsDetected bool) []string {
	flags := []string{}
	for _, factor := range factors {
		flag, ok := behavioralFlagMap[factor]
		if !ok {
			continue
		}
		if !containsString(flags, flag) {
			flags = append(flags, flag)
		}
	}
	if contradictionsDetected && !containsString(flags, flagStatementContradiction) {
		flags = append(flags, flagStatementContradiction)
	}
	return flags
}

// SpeakerAnalysis reports how speaker roles were treated during analysis.
type SpeakerAnalysis struct {
	CustomerOnlyAnalysis   bool `json:"customer_only_analysis"`
	AgentInfluenceDetected bool `json:"agent_influence_detected"`
}

// deriveSpeakerAnalysis inspects agent utterances for leading language.
// Sentiment and intent are computed from customer speech only, so
// CustomerOnlyAnalysis is unconditionally true.
func deriveSpeakerAnalysis(utterances []phase.StructuredUtterance) SpeakerAnalysis {
	analysis := SpeakerAnalysis{CustomerOnlyAnalysis: true}
	for _, utt := range utterances {
		if utt.Speaker != phase.SpeakerAgent {
			continue
		}
		lower := strings.ToLower(utt.Text)
		for _, pattern := range leadingPatterns {
			if strings.Contains(lower, pattern) {
				analysis.AgentInfluenceDetected = true
				return analysis
			}
		}
	}
	return analysis
}

// bridgeTimestamps converts role-attributed utterances into timestamped
// ones. Structuring may merge or split transcript segments, so per-segment
// timestamps cannot be carried over directly; utterances get evenly spaced
// slots across the recording's total duration instead.
func bridgeTimestamps(structured []phase.StructuredUtterance, transcript []phase.TranscriptSegment) []phase.NormalizedUtterance {
	if len(structured) == 0 {
		return []phase.NormalizedUtterance{}
	}

	totalDuration := 0.0
	for _, seg := range transcript {
		if seg.EndTime > totalDuration {
			totalDuration = seg.EndTime
		}
	}

	segmentDuration := 1.0
	if totalDuration > 0 {
		segmentDuration = totalDuration / float64(len(structured))
	}

	bridged := make([]phase.NormalizedUtterance, 0, len(structured))
	for i, utt := range structured {
		bridged = append(bridged, phase.NormalizedUtterance{
			Speaker:   utt.Speaker,
			Text:      utt.Text,
			StartTime: round2(float64(i) * segmentDuration),
			EndTime:   round2(float64(i+1) * segmentDuration),
		})
	}
	return bridged
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
