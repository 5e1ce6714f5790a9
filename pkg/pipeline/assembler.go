package pipeline

import (
	"fmt"
	"math"

	"voiceops-server/pkg/phase"
	"voiceops-server/pkg/risk"
)

// FinalOutput is the locked shape of a completed analysis. Exactly seven
// top-level keys, no identifier fields anywhere, optional values serialized
// as null rather than omitted. Consumers depend on this shape not changing.
type FinalOutput struct {
	CallContext     CallContext     `json:"call_context"`
	SpeakerAnalysis SpeakerAnalysis `json:"speaker_analysis"`
	NLPInsights     NLPInsights     `json:"nlp_insights"`
	RiskSignals     RiskSignals     `json:"risk_signals"`
	RiskAssessment  RiskAssessment  `json:"risk_assessment"`
	SummaryForRAG   string          `json:"summary_for_rag"`
	Conversation    []Turn          `json:"conversation"`
}

// CallContext describes the recording itself.
type CallContext struct {
	CallLanguage string      `json:"call_language"`
	CallQuality  CallQuality `json:"call_quality"`
}

// CallQuality mirrors the audio quality signals.
type CallQuality struct {
	NoiseLevel        phase.Level       `json:"noise_level"`
	CallStability     phase.Level       `json:"call_stability"`
	SpeechNaturalness phase.Naturalness `json:"speech_naturalness"`
}

// NLPInsights carries the language-analysis signals.
type NLPInsights struct {
	Intent                 IntentInsight            `json:"intent"`
	Sentiment              SentimentInsight         `json:"sentiment"`
	ObligationStrength     phase.ObligationStrength `json:"obligation_strength"`
	Entities               EntityInsight            `json:"entities"`
	ContradictionsDetected bool                     `json:"contradictions_detected"`
}

// IntentInsight is the reported intent classification.
type IntentInsight struct {
	Label          phase.IntentLabel    `json:"label"`
	Confidence     float64              `json:"confidence"`
	Conditionality phase.Conditionality `json:"conditionality"`
}

// SentimentInsight is the reported sentiment classification.
type SentimentInsight struct {
	Label      phase.SentimentLabel `json:"label"`
	Confidence float64              `json:"confidence"`
}

// EntityInsight reports extracted payment entities; both may be null.
type EntityInsight struct {
	PaymentCommitment *phase.PaymentCommitment `json:"payment_commitment"`
	AmountMentioned   *float64                 `json:"amount_mentioned"`
}

// RiskSignals lists the derived flag sets. Always arrays, never null.
type RiskSignals struct {
	AudioTrustFlags []string `json:"audio_trust_flags"`
	BehavioralFlags []string `json:"behavioral_flags"`
}

// RiskAssessment is the scored outcome.
type RiskAssessment struct {
	RiskScore       int             `json:"risk_score"`
	FraudLikelihood risk.Likelihood `json:"fraud_likelihood"`
	Confidence      float64         `json:"confidence"`
}

// Turn is one redacted conversation utterance. Timestamps and confidence
// stay internal.
type Turn struct {
	Speaker phase.Speaker `json:"speaker"`
	Text    string        `json:"text"`
}

// assemblyInputs are the verified values the assembler places into the
// output. Every field is required.
type assemblyInputs struct {
	callLanguage           string
	audioQuality           phase.AudioQuality
	speakerAnalysis        SpeakerAnalysis
	sentiment              phase.SentimentResult
	intent                 phase.IntentResult
	obligationStrength     phase.ObligationStrength
	entities               phase.EntityExtraction
	contradictionsDetected bool
	audioTrustFlags        []string
	behavioralFlags        []string
	assessment             risk.Assessment
	summary                string
	conversation           []phase.NormalizedUtterance
}

// assemble places verified values into the locked shape. It computes
// nothing and substitutes nothing: a missing value is an error, not a
// default.
func assemble(in assemblyInputs) (*FinalOutput, error) {
	if in.callLanguage == "" {
		return nil, fmt.Errorf("assembly requires a call language")
	}
	if in.audioQuality.NoiseLevel == "" || in.audioQuality.CallStability == "" || in.audioQuality.SpeechNaturalness == "" {
		return nil, fmt.Errorf("assembly requires complete audio quality signals")
	}
	if in.sentiment.Label == "" {
		return nil, fmt.Errorf("assembly requires a sentiment result")
	}
	if in.intent.Label == "" || in.intent.Conditionality == "" {
		return nil, fmt.Errorf("assembly requires an intent result")
	}
	if in.obligationStrength == "" {
		return nil, fmt.Errorf("assembly requires an obligation strength")
	}
	if in.assessment.FraudLikelihood == "" {
		return nil, fmt.Errorf("assembly requires a risk assessment")
	}
	if in.summary == "" {
		return nil, fmt.Errorf("assembly requires a summary")
	}
	if in.audioTrustFlags == nil || in.behavioralFlags == nil {
		return nil, fmt.Errorf("assembly requires derived risk flags")
	}

	conversation := make([]Turn, 0, len(in.conversation))
	for _, utt := range in.conversation {
		conversation = append(conversation, Turn{Speaker: utt.Speaker, Text: utt.Text})
	}

	return &FinalOutput{
		CallContext: CallContext{
			CallLanguage: in.callLanguage,
			CallQuality: CallQuality{
				NoiseLevel:        in.audioQuality.NoiseLevel,
				CallStability:     in.audioQuality.CallStability,
				SpeechNaturalness: in.audioQuality.SpeechNaturalness,
			},
		},
		SpeakerAnalysis: in.speakerAnalysis,
		NLPInsights: NLPInsights{
			Intent: IntentInsight{
				Label:          in.intent.Label,
				Confidence:     in.intent.Confidence,
				Conditionality: in.intent.Conditionality,
			},
			Sentiment: SentimentInsight{
				Label:      in.sentiment.Label,
				Confidence: in.sentiment.Confidence,
			},
			ObligationStrength: in.obligationStrength,
			Entities: EntityInsight{
				PaymentCommitment: in.entities.PaymentCommitment,
				AmountMentioned:   in.entities.AmountMentioned,
			},
			ContradictionsDetected: in.contradictionsDetected,
		},
		RiskSignals: RiskSignals{
			AudioTrustFlags: in.audioTrustFlags,
			BehavioralFlags: in.behavioralFlags,
		},
		RiskAssessment: RiskAssessment{
			RiskScore:       in.assessment.RiskScore,
			FraudLikelihood: in.assessment.FraudLikelihood,
			Confidence:      in.assessment.Confidence,
		},
		SummaryForRAG: in.summary,
		Conversation:  conversation,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
