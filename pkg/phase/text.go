package phase

import "strings"

// bannedSummaryWords are accusatory terms that must never appear in a
// summary destined for embedding. Matched as whole words only, so terms like
// "defraud" do not trip the "fraud" family.
var bannedSummaryWords = map[string]bool{
	"fraudster": true, "lied": true, "lying": true, "scam": true,
	"scammer": true, "criminal": true, "guilty": true, "dishonest": true,
	"cheat": true, "thief": true, "steal": true, "deceive": true,
	"deceptive": true, "malicious": true,
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}

// firstBannedWord returns the first banned word found in s, or "".
func firstBannedWord(s string) string {
	for _, field := range strings.Fields(strings.ToLower(s)) {
		word := strings.Trim(field, ".,;:!?\"'()")
		if bannedSummaryWords[word] {
			return word
		}
	}
	return ""
}
