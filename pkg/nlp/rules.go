package nlp

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/phase"
)

// Heuristic implements every language-analysis collaborator with
// deterministic keyword rules. It is the fallback when no model provider is
// configured, and the fixture engine for tests: same call, same answer,
// every time.
type Heuristic struct {
	logger *logrus.Logger
}

// NewHeuristic creates the rule-based analyzer.
func NewHeuristic(logger *logrus.Logger) *Heuristic {
	return &Heuristic{logger: logger}
}

var agentCuePattern = regexp.MustCompile(
	`(?i)\b(?:calling from|this is .* regarding|our records|payment is due|outstanding balance|on behalf of|this call may be recorded|am I speaking (?:with|to))\b`)

// Structure assigns speaker roles by conversational cues, alternating from
// AGENT when no cue is present. Collection calls open with the agent.
func (h *Heuristic) Structure(ctx context.Context, segments []phase.TranscriptSegment) ([]phase.StructuredUtterance, error) {
	utterances := make([]phase.StructuredUtterance, 0, len(segments))
	next := phase.SpeakerAgent
	for _, seg := range segments {
		speaker := next
		confidence := 0.5
		if agentCuePattern.MatchString(seg.Text) {
			speaker = phase.SpeakerAgent
			confidence = 0.7
		}
		utterances = append(utterances, phase.StructuredUtterance{
			Speaker:    speaker,
			Text:       seg.Text,
			Confidence: confidence,
		})
		if speaker == phase.SpeakerAgent {
			next = phase.SpeakerCustomer
		} else {
			next = phase.SpeakerAgent
		}
	}
	h.logger.WithField("utterances", len(utterances)).Debug("Rule-based role attribution complete")
	return utterances, nil
}

var sentimentCues = []struct {
	label   phase.SentimentLabel
	pattern *regexp.Regexp
}{
	{phase.SentimentEvasive, regexp.MustCompile(`(?i)\b(?:call (?:me )?back later|not a good time|talk later|why do you need|none of your|can'?t talk)\b`)},
	{phase.SentimentFrustrated, regexp.MustCompile(`(?i)\b(?:stop calling|fed up|ridiculous|harassing|again and again|leave me alone)\b`)},
	{phase.SentimentStressed, regexp.MustCompile(`(?i)\b(?:lost my job|hospital|emergency|struggling|no money|desperate|too much pressure)\b`)},
	{phase.SentimentAnxious, regexp.MustCompile(`(?i)\b(?:worried|scared|afraid|what happens if|will you report|penalty)\b`)},
	{phase.SentimentCalm, regexp.MustCompile(`(?i)\b(?:no problem|sure|of course|understood|thank you|happy to)\b`)},
}

// AnalyzeSentiment scans customer utterances for emotional cues; the bucket
// with the most hits wins, neutral when nothing matches.
func (h *Heuristic) AnalyzeSentiment(ctx context.Context, utterances []phase.NormalizedUtterance) (phase.SentimentResult, error) {
	text := customerText(utterances)

	bestLabel := phase.SentimentNeutral
	bestHits := 0
	for _, cue := range sentimentCues {
		hits := len(cue.pattern.FindAllString(text, -1))
		if hits > bestHits {
			bestHits = hits
			bestLabel = cue.label
		}
	}

	confidence := 0.6
	if bestHits > 0 {
		confidence = 0.5 + 0.1*float64(bestHits)
		if confidence > 0.9 {
			confidence = 0.9
		}
	}
	return phase.SentimentResult{Label: bestLabel, Confidence: confidence}, nil
}

var intentCues = []struct {
	label   phase.IntentLabel
	pattern *regexp.Regexp
}{
	{phase.IntentRefusal, regexp.MustCompile(`(?i)\b(?:won'?t pay|not paying|refuse|never paying|you can'?t make me)\b`)},
	{phase.IntentDispute, regexp.MustCompile(`(?i)\b(?:not my loan|never took|already paid|wrong person|dispute|incorrect)\b`)},
	{phase.IntentRepaymentDelay, regexp.MustCompile(`(?i)\b(?:need (?:more )?time|next month|extension|delay|few more days|little longer)\b`)},
	{phase.IntentRepaymentPromise, regexp.MustCompile(`(?i)\b(?:will pay|going to pay|promise|settle|clear (?:the|my)|transfer the)\b`)},
	{phase.IntentInformationSeeking, regexp.MustCompile(`(?i)\b(?:how much|what is (?:the|my)|balance|due date|interest|statement)\b`)},
	{phase.IntentDeflection, regexp.MustCompile(`(?i)\b(?:call (?:me )?back|busy right now|talk to my|not now|some other time)\b`)},
}

// ClassifyIntent picks the first cue bucket with the most matches in
// customer text; unknown when nothing matches. Conditionality comes from the
// density of conditional markers.
func (h *Heuristic) ClassifyIntent(ctx context.Context, utterances []phase.NormalizedUtterance) (phase.IntentResult, error) {
	text := customerText(utterances)

	bestLabel := phase.IntentUnknown
	bestHits := 0
	for _, cue := range intentCues {
		hits := len(cue.pattern.FindAllString(text, -1))
		if hits > bestHits {
			bestHits = hits
			bestLabel = cue.label
		}
	}

	confidence := 0.4
	if bestHits > 0 {
		confidence = 0.5 + 0.1*float64(bestHits)
		if confidence > 0.9 {
			confidence = 0.9
		}
	}

	conditionality := phase.ConditionalityLow
	switch markers := len(conditionalMarkers.FindAllString(text, -1)); {
	case markers >= 3:
		conditionality = phase.ConditionalityHigh
	case markers >= 1:
		conditionality = phase.ConditionalityMedium
	}

	return phase.IntentResult{
		Label:          bestLabel,
		Confidence:     confidence,
		Conditionality: conditionality,
	}, nil
}

var (
	commitPattern  = regexp.MustCompile(`(?i)\b(?:will pay|going to pay|promise|settle)\b`)
	refusePattern  = regexp.MustCompile(`(?i)\b(?:won'?t pay|can'?t pay|not paying|refuse|no money)\b`)
	retractPattern = regexp.MustCompile(`(?i)\b(?:never said|didn'?t say|that'?s not what I|I did not say)\b`)
)

// DetectContradictions flags a call in which the customer both commits and
// refuses, or retracts an earlier statement.
func (h *Heuristic) DetectContradictions(ctx context.Context, utterances []phase.NormalizedUtterance) (bool, error) {
	text := customerText(utterances)
	if retractPattern.MatchString(text) {
		return true, nil
	}
	return commitPattern.MatchString(text) && refusePattern.MatchString(text), nil
}

var (
	amountPattern = regexp.MustCompile(`(?i)(?:\$|rs\.?\s*|rupees\s+|dollars?\s+)?(\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?\s*(?:rupees|dollars|bucks)?`)
	amountContext = regexp.MustCompile(`(?i)\b(?:pay|amount|owe|due|balance|transfer|settle)\b`)

	commitmentCues = []struct {
		value   phase.PaymentCommitment
		pattern *regexp.Regexp
	}{
		{phase.CommitmentToday, regexp.MustCompile(`(?i)\btoday\b|\bby tonight\b|\bthis evening\b`)},
		{phase.CommitmentTomorrow, regexp.MustCompile(`(?i)\btomorrow\b`)},
		{phase.CommitmentThisWeek, regexp.MustCompile(`(?i)\bthis week\b|\bby (?:friday|the weekend)\b`)},
		{phase.CommitmentNextWeek, regexp.MustCompile(`(?i)\bnext week\b`)},
		{phase.CommitmentThisMonth, regexp.MustCompile(`(?i)\bthis month\b|\bmonth[\s\-]?end\b`)},
		{phase.CommitmentNextMonth, regexp.MustCompile(`(?i)\bnext month\b`)},
		{phase.CommitmentSpecificDate, regexp.MustCompile(`(?i)\bon the \d{1,2}(?:st|nd|rd|th)?\b`)},
	}
)

// ExtractEntities pulls a payment commitment window and a mentioned amount
// from customer text. Absent values stay nil.
func (h *Heuristic) ExtractEntities(ctx context.Context, utterances []phase.NormalizedUtterance) (phase.EntityExtraction, error) {
	text := customerText(utterances)
	var entities phase.EntityExtraction

	hasCommitmentLanguage := commitPattern.MatchString(text)
	for _, cue := range commitmentCues {
		if cue.pattern.MatchString(text) {
			value := cue.value
			entities.PaymentCommitment = &value
			break
		}
	}
	if entities.PaymentCommitment == nil && hasCommitmentLanguage {
		value := phase.CommitmentUnspecified
		entities.PaymentCommitment = &value
	}

	if amountContext.MatchString(text) {
		if m := amountPattern.FindStringSubmatch(text); m != nil {
			digits := strings.ReplaceAll(m[1], ",", "")
			if amount, err := strconv.ParseFloat(digits, 64); err == nil && amount > 0 {
				entities.AmountMentioned = &amount
			}
		}
	}

	return entities, nil
}

func customerText(utterances []phase.NormalizedUtterance) string {
	var parts []string
	for _, utt := range utterances {
		if utt.Speaker == phase.SpeakerCustomer {
			if text := strings.TrimSpace(utt.Text); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " ")
}
