package nlp

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/phase"
)

// Phase 4 PII redaction. Patterns run in a fixed order, most specific
// first, so broad digit patterns never clip a longer match. Redaction is
// deterministic: same input, same output.

var (
	// Emails first: they contain digits that could trip phone patterns.
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Card numbers: 13-19 digits with optional separators.
	creditCardPattern = regexp.MustCompile(`\b(?:\d[\s\-]?){12,18}\d\b`)

	// National ID formats: XXX-XX-XXXX and 12 digits in groups of four.
	ssnPattern     = regexp.MustCompile(`\b\d{3}[\s\-]\d{2}[\s\-]\d{4}\b`)
	aadhaarPattern = regexp.MustCompile(`\b\d{4}[\s\-]?\d{4}[\s\-]?\d{4}\b`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+\d{1,3}[\s\-]?\(?\d{1,5}\)?[\s\-]?\d{1,5}[\s\-]?\d{1,5}`),
		regexp.MustCompile(`\(\d{3,5}\)[\s\-]?\d{3,5}[\s\-]?\d{3,5}`),
		regexp.MustCompile(`\b[6-9]\d{4}[\s\-]?\d{5}\b`),
		regexp.MustCompile(`\b\d{3}[\s\-]\d{3}[\s\-]\d{4}\b`),
	}

	// Context-dependent digit patterns: the keyword prefix is kept, only the
	// number itself is replaced.
	bankAccountPattern = regexp.MustCompile(
		`(?i)((?:account|a/c|acct|acc)[\s\-.:;#]*(?:number|no|num|#)?[\s\-.:;#]*(?:is|was|:)?\s*)(\d[\d\s\-]{7,17}\d)`)
	otpContextPattern = regexp.MustCompile(
		`(?i)((?:otp|one[\s\-]?time[\s\-]?password|verification[\s\-]?code|pin|code|cvv)[\s\-.:;#]*(?:is|was|:)?\s*)(\d{4,6})\b`)
	otpReversePattern = regexp.MustCompile(
		`(?i)\b(\d{4,6})(\s+(?:is|was)\s+(?:the\s+)?(?:otp|one[\s\-]?time[\s\-]?password|verification[\s\-]?code|pin|code)\b)`)
)

// RedactPII replaces detected PII in text with redaction tokens.
func RedactPII(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	result := emailPattern.ReplaceAllString(text, "<EMAIL>")
	result = otpContextPattern.ReplaceAllString(result, "${1}<OTP>")
	result = otpReversePattern.ReplaceAllString(result, "<OTP>${2}")
	result = bankAccountPattern.ReplaceAllString(result, "${1}<BANK_ACCOUNT>")
	result = creditCardPattern.ReplaceAllString(result, "<CREDIT_CARD>")
	result = ssnPattern.ReplaceAllString(result, "<GOVT_ID>")
	result = aadhaarPattern.ReplaceAllString(result, "<GOVT_ID>")
	for _, pattern := range phonePatterns {
		result = pattern.ReplaceAllString(result, "<PHONE_NUMBER>")
	}
	return result
}

// RedactUtterances applies PII redaction to every utterance text. Speaker
// labels and timestamps pass through unchanged.
func RedactUtterances(logger *logrus.Logger, utterances []phase.NormalizedUtterance) []phase.NormalizedUtterance {
	redacted := make([]phase.NormalizedUtterance, 0, len(utterances))
	changed := 0
	for _, utt := range utterances {
		clean := RedactPII(utt.Text)
		if clean != utt.Text {
			changed++
		}
		utt.Text = clean
		redacted = append(redacted, utt)
	}
	logger.WithFields(logrus.Fields{
		"utterances": len(redacted),
		"redacted":   changed,
	}).Debug("PII redaction complete")
	return redacted
}
