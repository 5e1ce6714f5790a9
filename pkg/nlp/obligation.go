package nlp

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"voiceops-server/pkg/phase"
)

// Obligation strength is derived without any model call: the intent label
// fixes the base category, conditionality adjusts within commitment-bearing
// intents, and linguistic markers in customer text settle borderline cases.
// Marker tables are tuned empirically, not contractual.

var strongMarkers = compileMarkers([]string{
	`\bI will pay\b`,
	`\bI am going to pay\b`,
	`\bI promise\b`,
	`\bguarantee\b`,
	`\bfor sure\b`,
	`\bdefinitely\b`,
	`\bcertainly\b`,
	`\babsolutely\b`,
	`\bwithout fail\b`,
	`\bI commit\b`,
	`\bI assure\b`,
	`\byou have my word\b`,
	`\bcount on it\b`,
	`\btomorrow I will\b`,
	`\bI will clear\b`,
	`\bI will settle\b`,
	`\bI will transfer\b`,
})

var weakMarkers = compileMarkers([]string{
	`\bI think I can\b`,
	`\bmaybe\b`,
	`\bprobably\b`,
	`\bpossibly\b`,
	`\bI might\b`,
	`\bI may\b`,
	`\bnot sure\b`,
	`\bI hope\b`,
	`\bI will try\b`,
	`\bI should be able\b`,
	`\blet me see\b`,
	`\blet me check\b`,
	`\bI need to check\b`,
	`\bI am not sure\b`,
	`\bI do not know\b`,
	`\bhard to say\b`,
})

var conditionalMarkers = compileMarkers([]string{
	`\bif\b`,
	`\bonce\b`,
	`\bwhen\b.*\b(?:comes|arrives|gets|receive|cleared)\b`,
	`\bdepends on\b`,
	`\bsubject to\b`,
	`\bprovided that\b`,
	`\bas soon as\b`,
	`\bafter\b.*\b(?:salary|money|payment|funds|cheque|check)\b`,
	`\bonly if\b`,
	`\bin case\b`,
	`\bassuming\b`,
	`\bcondition\b`,
})

func compileMarkers(patterns []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + strings.Join(patterns, "|"))
}

// Intents that inherently carry no obligation.
var noObligationIntents = map[phase.IntentLabel]bool{
	phase.IntentRefusal:            true,
	phase.IntentDeflection:         true,
	phase.IntentInformationSeeking: true,
	phase.IntentDispute:            true,
	phase.IntentUnknown:            true,
}

// DeriveObligationStrength maps an intent result and customer utterances to
// an obligation strength. The derivation is rule-based and deterministic.
func DeriveObligationStrength(logger *logrus.Logger, intent phase.IntentResult, utterances []phase.NormalizedUtterance) phase.ObligationStrength {
	if noObligationIntents[intent.Label] {
		logger.WithField("intent", intent.Label).Debug("Intent carries no obligation")
		return phase.ObligationNone
	}

	var customerTexts []string
	for _, utt := range utterances {
		if utt.Speaker == phase.SpeakerCustomer {
			if text := strings.TrimSpace(utt.Text); text != "" {
				customerTexts = append(customerTexts, text)
			}
		}
	}
	combined := strings.Join(customerTexts, " ")

	strength := deriveFromCommitmentIntent(intent.Label, intent.Conditionality, combined)
	logger.WithFields(logrus.Fields{
		"intent":         intent.Label,
		"conditionality": intent.Conditionality,
		"obligation":     strength,
	}).Info("Obligation strength derived")
	return strength
}

func deriveFromCommitmentIntent(label phase.IntentLabel, conditionality phase.Conditionality, customerText string) phase.ObligationStrength {
	strongCount := len(strongMarkers.FindAllString(customerText, -1))
	weakCount := len(weakMarkers.FindAllString(customerText, -1))
	conditionalCount := len(conditionalMarkers.FindAllString(customerText, -1))

	// High conditionality dominates any marker evidence.
	if conditionality == phase.ConditionalityHigh {
		return phase.ObligationConditional
	}

	if label == phase.IntentRepaymentPromise {
		if conditionality == phase.ConditionalityLow {
			if strongCount > 0 {
				return phase.ObligationStrong
			}
			return phase.ObligationWeak
		}
		// Medium conditionality: markers decide.
		if conditionalCount > 0 {
			return phase.ObligationConditional
		}
		if strongCount > weakCount {
			return phase.ObligationWeak
		}
		return phase.ObligationConditional
	}

	if label == phase.IntentRepaymentDelay {
		if conditionality == phase.ConditionalityLow {
			return phase.ObligationWeak
		}
		return phase.ObligationConditional
	}

	return phase.ObligationNone
}
