package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voiceops-server/pkg/audio"
	"voiceops-server/pkg/nlp"
	"voiceops-server/pkg/phase"
	"voiceops-server/pkg/rag"
	"voiceops-server/pkg/risk"
	"voiceops-server/pkg/stt"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type recordingSink struct {
	events []Event
}

func (s *recordingSink) Publish(event Event) {
	s.events = append(s.events, event)
}

func (s *recordingSink) byStatus(stage Stage, status string) int {
	count := 0
	for _, e := range s.events {
		if e.Stage == stage && e.Status == status {
			count++
		}
	}
	return count
}

func newTestOrchestrator(t *testing.T, sink EventSink) *Orchestrator {
	t.Helper()
	logger := testLogger()

	manager := stt.NewManager(logger, "mock")
	require.NoError(t, manager.Register(stt.NewMockProvider(logger)))

	heuristic := nlp.NewHeuristic(logger)
	return New(logger, Deps{
		Normalizer:      audio.NewNormalizer(logger),
		Quality:         audio.NewQualityAnalyzer(logger),
		Transcriber:     manager,
		Structurer:      heuristic,
		Sentiment:       heuristic,
		Intent:          heuristic,
		Contradictions:  heuristic,
		Entities:        heuristic,
		Summarizer:      rag.NewGenerator(logger, nil),
		DefaultProvider: "mock",
		Events:          sink,
	})
}

func TestRunFullPipeline(t *testing.T) {
	sink := &recordingSink{}
	o := newTestOrchestrator(t, sink)

	// Non-WAV bytes are passed through intake; quality analysis degrades to
	// neutral defaults rather than failing.
	output, err := o.Run(context.Background(), "req-1", []byte("mp3 payload"), "call.mp3", "")
	require.NoError(t, err)
	require.NotNil(t, output)

	assert.Equal(t, "english", output.CallContext.CallLanguage)
	assert.Equal(t, phase.LevelMedium, output.CallContext.CallQuality.NoiseLevel)

	assert.True(t, output.SpeakerAnalysis.CustomerOnlyAnalysis)
	assert.False(t, output.SpeakerAnalysis.AgentInfluenceDetected)

	assert.Equal(t, phase.IntentRepaymentPromise, output.NLPInsights.Intent.Label)
	assert.Equal(t, phase.ObligationStrong, output.NLPInsights.ObligationStrength)
	assert.False(t, output.NLPInsights.ContradictionsDetected)

	assert.Equal(t, risk.LikelihoodLow, output.RiskAssessment.FraudLikelihood)
	assert.Less(t, output.RiskAssessment.RiskScore, 35)
	assert.InDelta(t, 0.72, output.RiskAssessment.Confidence, 0.001)

	assert.Contains(t, output.RiskSignals.AudioTrustFlags, "moderate_noise")
	assert.Empty(t, output.RiskSignals.BehavioralFlags)

	require.NoError(t, phase.VerifySummary(output.SummaryForRAG))
	require.Len(t, output.Conversation, 4)
	assert.Equal(t, phase.SpeakerAgent, output.Conversation[0].Speaker)
	assert.Equal(t, phase.SpeakerCustomer, output.Conversation[3].Speaker)
}

func TestRunPublishesStageEvents(t *testing.T) {
	sink := &recordingSink{}
	o := newTestOrchestrator(t, sink)

	_, err := o.Run(context.Background(), "req-2", []byte("mp3 payload"), "call.mp3", "")
	require.NoError(t, err)

	stages := []Stage{
		StageAudio, StageTranscription, StageStructuring, StageNormalization,
		StageSentiment, StageIntent, StageRiskScoring, StageSummary, StageAssembly,
	}
	for _, stage := range stages {
		assert.Equal(t, 1, sink.byStatus(stage, "started"), "stage %s started", stage)
		assert.Equal(t, 1, sink.byStatus(stage, "completed"), "stage %s completed", stage)
		assert.Equal(t, 0, sink.byStatus(stage, "failed"), "stage %s failed", stage)
	}

	for _, e := range sink.events {
		assert.Equal(t, "req-2", e.RequestID)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	first, err := o.Run(context.Background(), "req-3", []byte("mp3 payload"), "call.mp3", "")
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := o.Run(context.Background(), "req-3", []byte("mp3 payload"), "call.mp3", "")
		require.NoError(t, err)
		againJSON, err := json.Marshal(again)
		require.NoError(t, err)
		assert.JSONEq(t, string(firstJSON), string(againJSON))
	}
}

func TestRunRejectsInvalidUpload(t *testing.T) {
	sink := &recordingSink{}
	o := newTestOrchestrator(t, sink)

	_, err := o.Run(context.Background(), "req-4", []byte("payload"), "call.flac", "")
	require.Error(t, err)

	var verr *audio.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "unsupported file type")

	assert.Equal(t, 1, sink.byStatus(StageAudio, "failed"))
	assert.Equal(t, 0, sink.byStatus(StageTranscription, "started"))
}

func TestRunUnknownProviderFails(t *testing.T) {
	logger := testLogger()
	manager := stt.NewManager(logger, "none")

	heuristic := nlp.NewHeuristic(logger)
	o := New(logger, Deps{
		Normalizer:      audio.NewNormalizer(logger),
		Quality:         audio.NewQualityAnalyzer(logger),
		Transcriber:     manager,
		Structurer:      heuristic,
		Sentiment:       heuristic,
		Intent:          heuristic,
		Contradictions:  heuristic,
		Entities:        heuristic,
		Summarizer:      rag.NewGenerator(logger, nil),
		DefaultProvider: "none",
	})

	_, err := o.Run(context.Background(), "req-5", []byte("payload"), "call.mp3", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, stt.ErrNoProviderAvailable)
}
