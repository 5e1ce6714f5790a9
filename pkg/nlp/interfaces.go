package nlp

import (
	"context"

	"voiceops-server/pkg/phase"
)

// Collaborator interfaces for the language-analysis phases. Implementations
// may be model-backed or rule-based; the pipeline only sees the phase
// records they return, which are verified before use.

// Structurer performs phase 3: translation and role attribution over raw
// transcript segments.
type Structurer interface {
	Structure(ctx context.Context, segments []phase.TranscriptSegment) ([]phase.StructuredUtterance, error)
}

// SentimentAnalyzer performs phase 5 over customer utterances only.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, utterances []phase.NormalizedUtterance) (phase.SentimentResult, error)
}

// IntentClassifier performs the phase 6 intent classification.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, utterances []phase.NormalizedUtterance) (phase.IntentResult, error)
}

// ContradictionDetector performs the phase 6 within-call contradiction scan.
type ContradictionDetector interface {
	DetectContradictions(ctx context.Context, utterances []phase.NormalizedUtterance) (bool, error)
}

// EntityExtractor performs the phase 6 entity extraction.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, utterances []phase.NormalizedUtterance) (phase.EntityExtraction, error)
}
