package phase

// Per-phase structural verifiers. Each one either returns nil or a
// *VerificationError tagged with the phase identifier. Verifiers never
// repair input: a missing or malformed value fails the phase outright.

// VerifyAudioQuality checks the phase 1 quality signals.
func VerifyAudioQuality(q AudioQuality) error {
	if !q.NoiseLevel.Valid() {
		return Errorf("1", "invalid noise_level: %q", q.NoiseLevel)
	}
	if !q.CallStability.Valid() {
		return Errorf("1", "invalid call_stability: %q", q.CallStability)
	}
	if !q.SpeechNaturalness.Valid() {
		return Errorf("1", "invalid speech_naturalness: %q", q.SpeechNaturalness)
	}
	return nil
}

// VerifyTranscript checks the phase 2 STT output: non-empty, ordered
// timestamps, non-empty text. Speaker absence is enforced at the decode
// boundary (DecodeTranscript) and by the TranscriptSegment type itself.
func VerifyTranscript(segments []TranscriptSegment) error {
	if len(segments) == 0 {
		return Errorf("2", "transcript is empty — no STT output")
	}
	for i, seg := range segments {
		if !hasText(seg.Text) {
			return Errorf("2", "segment %d has empty text", i)
		}
		if seg.EndTime <= seg.StartTime {
			return Errorf("2", "segment %d has end_time %.2f <= start_time %.2f",
				i, seg.EndTime, seg.StartTime)
		}
	}
	return nil
}

// VerifyStructured checks the phase 3 role-attribution output.
func VerifyStructured(utterances []StructuredUtterance) error {
	if len(utterances) == 0 {
		return Errorf("3", "structured utterances are empty — no phase 3 output")
	}
	for i, utt := range utterances {
		if !utt.Speaker.Valid() {
			return Errorf("3", "utterance %d has invalid speaker: %q", i, utt.Speaker)
		}
		if !hasText(utt.Text) {
			return Errorf("3", "utterance %d has empty text", i)
		}
		if utt.Confidence < 0.0 || utt.Confidence > 1.0 {
			return Errorf("3", "utterance %d confidence out of range: %v", i, utt.Confidence)
		}
	}
	return nil
}

// VerifyNormalized checks the phase 4 output. Redaction may legitimately
// empty an utterance's text, so only speaker and timestamps are validated.
func VerifyNormalized(utterances []NormalizedUtterance) error {
	if len(utterances) == 0 {
		return Errorf("4", "utterances are empty — no phase 4 output")
	}
	for i, utt := range utterances {
		if !utt.Speaker.Valid() {
			return Errorf("4", "utterance %d has invalid speaker: %q", i, utt.Speaker)
		}
		if utt.EndTime < utt.StartTime {
			return Errorf("4", "utterance %d has end_time before start_time", i)
		}
	}
	return nil
}

// VerifySentiment checks the phase 5 output. The absence of risk and intent
// fields is enforced at the decode boundary (DecodeSentiment).
func VerifySentiment(s SentimentResult) error {
	if !s.Label.Valid() {
		return Errorf("5", "invalid sentiment label: %q", s.Label)
	}
	if s.Confidence < 0.0 || s.Confidence > 1.0 {
		return Errorf("5", "confidence out of range: %v", s.Confidence)
	}
	return nil
}

// VerifyIntentGroup checks the four phase 6 outputs together: intent,
// obligation strength, contradiction flag (any bool is well-formed, so it is
// accepted as-is), and extracted entities.
func VerifyIntentGroup(intent IntentResult, obligation ObligationStrength, entities EntityExtraction) error {
	if !intent.Label.Valid() {
		return Errorf("6", "invalid intent label: %q", intent.Label)
	}
	if intent.Confidence < 0.0 || intent.Confidence > 1.0 {
		return Errorf("6", "intent confidence out of range: %v", intent.Confidence)
	}
	if !intent.Conditionality.Valid() {
		return Errorf("6", "invalid conditionality: %q", intent.Conditionality)
	}
	if !obligation.Valid() {
		return Errorf("6", "invalid obligation strength: %q", obligation)
	}
	if entities.PaymentCommitment != nil && !entities.PaymentCommitment.Valid() {
		return Errorf("6", "invalid payment_commitment: %q", *entities.PaymentCommitment)
	}
	if entities.AmountMentioned != nil && *entities.AmountMentioned < 0 {
		return Errorf("6", "amount_mentioned is negative: %v", *entities.AmountMentioned)
	}
	return nil
}

// VerifyAssessment checks the phase 7 risk assessment fields. It takes
// primitives rather than the scorer's types so the verifier stays a leaf.
func VerifyAssessment(riskScore int, fraudLikelihood string, confidence float64, factors []string) error {
	if riskScore < 0 || riskScore > 100 {
		return Errorf("7", "risk_score out of range [0, 100]: %d", riskScore)
	}
	switch fraudLikelihood {
	case "low", "medium", "high":
	default:
		return Errorf("7", "invalid fraud_likelihood: %q", fraudLikelihood)
	}
	if confidence < 0.0 || confidence > 1.0 {
		return Errorf("7", "confidence out of range: %v", confidence)
	}
	seen := make(map[string]bool, len(factors))
	for _, f := range factors {
		if seen[f] {
			return Errorf("7", "duplicate risk factor: %q", f)
		}
		seen[f] = true
	}
	return nil
}

// VerifySummary checks the phase 8 summary string: non-empty, one sentence,
// free of accusatory language.
func VerifySummary(summary string) error {
	trimmed := trimSpace(summary)
	if trimmed == "" {
		return Errorf("8", "summary is empty")
	}
	if trimmed[len(trimmed)-1] != '.' {
		return Errorf("8", "summary must end with a period (one sentence requirement)")
	}
	if word := firstBannedWord(trimmed); word != "" {
		return Errorf("8", "summary contains banned word: %q", word)
	}
	return nil
}
