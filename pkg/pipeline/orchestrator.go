package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/audio"
	"voiceops-server/pkg/metrics"
	"voiceops-server/pkg/nlp"
	"voiceops-server/pkg/phase"
	"voiceops-server/pkg/rag"
	"voiceops-server/pkg/risk"
	"voiceops-server/pkg/stt"
)

// Stage identifies a pipeline phase for logging, metrics and events.
type Stage string

const (
	StageAudio         Stage = "1"
	StageTranscription Stage = "2"
	StageStructuring   Stage = "3"
	StageNormalization Stage = "4"
	StageSentiment     Stage = "5"
	StageIntent        Stage = "6"
	StageRiskScoring   Stage = "7"
	StageSummary       Stage = "8"
	StageAssembly      Stage = "assembly"
)

// Event is a progress notification published while a request moves through
// the pipeline. Events carry the server-generated request ID only, never
// call or customer identifiers.
type Event struct {
	RequestID string `json:"request_id"`
	Stage     Stage  `json:"stage"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

// EventSink receives pipeline progress events. Publish must not block the
// pipeline; implementations drop events under backpressure.
type EventSink interface {
	Publish(event Event)
}

type noopSink struct{}

func (noopSink) Publish(Event) {}

// Deps are the collaborators an Orchestrator drives. All fields are
// required except Events.
type Deps struct {
	Normalizer      *audio.Normalizer
	Quality         *audio.QualityAnalyzer
	Transcriber     *stt.Manager
	Structurer      nlp.Structurer
	Sentiment       nlp.SentimentAnalyzer
	Intent          nlp.IntentClassifier
	Contradictions  nlp.ContradictionDetector
	Entities        nlp.EntityExtractor
	Summarizer      *rag.Generator
	RiskOptions     risk.Options
	CallLanguage    string
	DefaultProvider string
	Events          EventSink
}

// Orchestrator runs the eight analysis phases in strict order, verifies
// every phase output before the next phase may consume it, and assembles
// the final record. It performs no analysis of its own.
type Orchestrator struct {
	logger *logrus.Logger
	deps   Deps
}

// New creates a pipeline orchestrator.
func New(logger *logrus.Logger, deps Deps) *Orchestrator {
	if deps.Events == nil {
		deps.Events = noopSink{}
	}
	if deps.CallLanguage == "" {
		deps.CallLanguage = "english"
	}
	return &Orchestrator{logger: logger, deps: deps}
}

// Run executes the full pipeline for one uploaded recording. The returned
// error is an *audio.ValidationError for rejected uploads, a
// *phase.VerificationError when a phase output fails its contract, or a
// plain error for infrastructure failures.
func (o *Orchestrator) Run(ctx context.Context, requestID string, audioBytes []byte, filename, providerName string) (*FinalOutput, error) {
	log := o.logger.WithField("request_id", requestID)

	// Phase 1: audio normalization and quality analysis.
	o.begin(requestID, StageAudio)
	start := time.Now()
	normalized, err := o.deps.Normalizer.Normalize(audioBytes, filename)
	if err != nil {
		return nil, o.fail(requestID, StageAudio, err)
	}
	quality := o.deps.Quality.Analyze(normalized)
	if err := phase.VerifyAudioQuality(quality); err != nil {
		return nil, o.fail(requestID, StageAudio, err)
	}
	o.complete(requestID, StageAudio, start)
	log.WithFields(logrus.Fields{
		"noise_level":        quality.NoiseLevel,
		"call_stability":     quality.CallStability,
		"speech_naturalness": quality.SpeechNaturalness,
	}).Info("Audio normalized and quality analyzed")

	// Phase 2: speech-to-text. Output is plain timestamped text; any
	// speaker attribution here is a contract breach caught by the decoder.
	o.begin(requestID, StageTranscription)
	start = time.Now()
	if providerName == "" {
		providerName = o.deps.DefaultProvider
	}
	transcript, err := o.deps.Transcriber.Transcribe(ctx, providerName, normalized, filename)
	if err != nil {
		return nil, o.fail(requestID, StageTranscription, err)
	}
	if err := phase.VerifyTranscript(transcript); err != nil {
		return nil, o.fail(requestID, StageTranscription, err)
	}
	o.complete(requestID, StageTranscription, start)
	log.WithField("segments", len(transcript)).Info("Transcription verified")

	// Phase 3: role attribution.
	o.begin(requestID, StageStructuring)
	start = time.Now()
	structured, err := o.deps.Structurer.Structure(ctx, transcript)
	if err != nil {
		return nil, o.fail(requestID, StageStructuring, err)
	}
	if err := phase.VerifyStructured(structured); err != nil {
		return nil, o.fail(requestID, StageStructuring, err)
	}
	speakerAnalysis := deriveSpeakerAnalysis(structured)
	o.complete(requestID, StageStructuring, start)
	log.WithFields(logrus.Fields{
		"utterances":      len(structured),
		"agent_influence": speakerAnalysis.AgentInfluenceDetected,
	}).Info("Utterances structured")

	// Phase 4: text normalization and PII redaction.
	o.begin(requestID, StageNormalization)
	start = time.Now()
	bridged := bridgeTimestamps(structured, transcript)
	cleaned := nlp.NormalizeUtterances(o.logger, bridged)
	redacted := nlp.RedactUtterances(o.logger, cleaned)
	if err := phase.VerifyNormalized(redacted); err != nil {
		return nil, o.fail(requestID, StageNormalization, err)
	}
	o.complete(requestID, StageNormalization, start)
	log.WithField("utterances", len(redacted)).Info("Text normalized and redacted")

	// Phase 5: sentiment, customer speech only.
	o.begin(requestID, StageSentiment)
	start = time.Now()
	sentiment, err := o.deps.Sentiment.AnalyzeSentiment(ctx, redacted)
	if err != nil {
		return nil, o.fail(requestID, StageSentiment, err)
	}
	if err := phase.VerifySentiment(sentiment); err != nil {
		return nil, o.fail(requestID, StageSentiment, err)
	}
	o.complete(requestID, StageSentiment, start)
	log.WithFields(logrus.Fields{
		"sentiment":  sentiment.Label,
		"confidence": sentiment.Confidence,
	}).Info("Sentiment analyzed")

	// Phase 6: intent, obligation, contradictions, entities.
	o.begin(requestID, StageIntent)
	start = time.Now()
	intent, err := o.deps.Intent.ClassifyIntent(ctx, redacted)
	if err != nil {
		return nil, o.fail(requestID, StageIntent, err)
	}
	obligation := nlp.DeriveObligationStrength(o.logger, intent, redacted)
	contradictions, err := o.deps.Contradictions.DetectContradictions(ctx, redacted)
	if err != nil {
		return nil, o.fail(requestID, StageIntent, err)
	}
	entities, err := o.deps.Entities.ExtractEntities(ctx, redacted)
	if err != nil {
		return nil, o.fail(requestID, StageIntent, err)
	}
	if err := phase.VerifyIntentGroup(intent, obligation, entities); err != nil {
		return nil, o.fail(requestID, StageIntent, err)
	}
	o.complete(requestID, StageIntent, start)
	log.WithFields(logrus.Fields{
		"intent":         intent.Label,
		"obligation":     obligation,
		"contradictions": contradictions,
	}).Info("Intent group analyzed")

	// Phase 7: deterministic risk scoring.
	o.begin(requestID, StageRiskScoring)
	start = time.Now()
	bundle, err := risk.BuildBundle(sentiment, intent, obligation, contradictions, quality)
	if err != nil {
		return nil, o.fail(requestID, StageRiskScoring, err)
	}
	assessment, err := risk.ComputeRisk(bundle, o.deps.RiskOptions)
	if err != nil {
		return nil, o.fail(requestID, StageRiskScoring, err)
	}
	factorLabels := make([]string, 0, len(assessment.KeyRiskFactors))
	for _, factor := range assessment.KeyRiskFactors {
		factorLabels = append(factorLabels, string(factor))
	}
	if err := phase.VerifyAssessment(assessment.RiskScore, string(assessment.FraudLikelihood), assessment.Confidence, factorLabels); err != nil {
		return nil, o.fail(requestID, StageRiskScoring, err)
	}
	audioTrustFlags := deriveAudioTrustFlags(quality)
	behavioralFlags := deriveBehavioralFlags(assessment.KeyRiskFactors, contradictions)
	o.complete(requestID, StageRiskScoring, start)
	metrics.RecordAssessment(string(assessment.FraudLikelihood))
	log.WithFields(logrus.Fields{
		"risk_score":       assessment.RiskScore,
		"fraud_likelihood": assessment.FraudLikelihood,
		"confidence":       assessment.Confidence,
	}).Info("Risk assessment computed")

	// Phase 8: summary generation.
	o.begin(requestID, StageSummary)
	start = time.Now()
	summary, err := o.deps.Summarizer.Generate(ctx, rag.Inputs{
		IntentLabel:            intent.Label,
		Conditionality:         intent.Conditionality,
		ObligationStrength:     obligation,
		ContradictionsDetected: contradictions,
		RiskScore:              assessment.RiskScore,
		FraudLikelihood:        assessment.FraudLikelihood,
		KeyRiskFactors:         assessment.KeyRiskFactors,
	})
	if err != nil {
		return nil, o.fail(requestID, StageSummary, err)
	}
	if err := phase.VerifySummary(summary); err != nil {
		return nil, o.fail(requestID, StageSummary, err)
	}
	o.complete(requestID, StageSummary, start)
	log.Info("Summary generated")

	// Final assembly: placement only, no computation.
	o.begin(requestID, StageAssembly)
	start = time.Now()
	output, err := assemble(assemblyInputs{
		callLanguage:           o.deps.CallLanguage,
		audioQuality:           quality,
		speakerAnalysis:        speakerAnalysis,
		sentiment:              sentiment,
		intent:                 intent,
		obligationStrength:     obligation,
		entities:               entities,
		contradictionsDetected: contradictions,
		audioTrustFlags:        audioTrustFlags,
		behavioralFlags:        behavioralFlags,
		assessment:             assessment,
		summary:                summary,
		conversation:           redacted,
	})
	if err != nil {
		return nil, o.fail(requestID, StageAssembly, err)
	}
	o.complete(requestID, StageAssembly, start)
	log.Info("Pipeline complete")
	return output, nil
}

func (o *Orchestrator) begin(requestID string, stage Stage) {
	o.deps.Events.Publish(Event{RequestID: requestID, Stage: stage, Status: "started"})
}

func (o *Orchestrator) complete(requestID string, stage Stage, start time.Time) {
	elapsed := time.Since(start)
	metrics.ObservePhaseDuration(string(stage), elapsed.Seconds())
	o.deps.Events.Publish(Event{RequestID: requestID, Stage: stage, Status: "completed"})
}

func (o *Orchestrator) fail(requestID string, stage Stage, err error) error {
	metrics.RecordPhaseFailure(string(stage))
	o.deps.Events.Publish(Event{
		RequestID: requestID,
		Stage:     stage,
		Status:    "failed",
		Detail:    err.Error(),
	})
	o.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"stage":      stage,
		"error":      err,
	}).Error("Pipeline phase failed")
	return err
}
