package nlp

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/phase"
)

// Phase 4 text normalization: fillers out, spoken contractions to written
// form, whitespace collapsed. Only meaning-preserving substitutions.

var fillerPattern = regexp.MustCompile(
	`(?i)\b(?:uh|uhh|uhhh|um|umm|ummm|hmm|hmmm|hmmmm|er|err|ah|ahh|mhm|uh-huh|uh huh)\b`)

var spokenForms = map[string]string{
	"gonna":   "going to",
	"gotta":   "got to",
	"wanna":   "want to",
	"kinda":   "kind of",
	"sorta":   "sort of",
	"dunno":   "do not know",
	"lemme":   "let me",
	"gimme":   "give me",
	"coulda":  "could have",
	"shoulda": "should have",
	"woulda":  "would have",
	"ain't":   "is not",
	"y'all":   "you all",
	"ima":     "I am going to",
	"tryna":   "trying to",
	"outta":   "out of",
}

var spokenFormPattern = regexp.MustCompile(
	`(?i)\b(gonna|gotta|wanna|kinda|sorta|dunno|lemme|gimme|coulda|shoulda|woulda|ain't|y'all|ima|tryna|outta)\b`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// NormalizeText normalizes a single utterance text.
func NormalizeText(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	result := fillerPattern.ReplaceAllString(text, "")
	result = spokenFormPattern.ReplaceAllStringFunc(result, func(m string) string {
		return spokenForms[strings.ToLower(m)]
	})
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(result, " "))
}

// NormalizeUtterances normalizes text across all utterances. Speaker labels
// and timestamps pass through unchanged; no utterances are added or dropped.
func NormalizeUtterances(logger *logrus.Logger, utterances []phase.NormalizedUtterance) []phase.NormalizedUtterance {
	if len(utterances) == 0 {
		logger.Warn("Received empty utterance list, nothing to normalize")
		return nil
	}
	normalized := make([]phase.NormalizedUtterance, 0, len(utterances))
	for _, utt := range utterances {
		utt.Text = NormalizeText(utt.Text)
		normalized = append(normalized, utt)
	}
	logger.WithField("utterances", len(normalized)).Debug("Text normalization complete")
	return normalized
}
