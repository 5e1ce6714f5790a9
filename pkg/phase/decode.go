package phase

import (
	"encoding/json"
)

// Boundary decoders for collaborator payloads that arrive as JSON (model
// providers mostly). Decoding and the negative contract are enforced
// together: a payload carrying a field its phase is forbidden to produce is
// rejected before any typed record is built. Collaborators that construct
// records natively in Go cannot express the forbidden fields at all.

// DecodeTranscript parses a phase 2 payload: an array of segments with
// exactly text, start_time and end_time. A speaker field anywhere in the
// payload fails the phase — diarization must not leak into STT output.
func DecodeTranscript(data []byte) ([]TranscriptSegment, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Errorf("2", "transcript payload is not a JSON array: %v", err)
	}
	segments := make([]TranscriptSegment, 0, len(raw))
	for i, rec := range raw {
		if _, ok := rec["speaker"]; ok {
			return nil, Errorf("2", "segment %d contains 'speaker' key — diarization is FORBIDDEN in phase 2", i)
		}
		for _, key := range []string{"text", "start_time", "end_time"} {
			if _, ok := rec[key]; !ok {
				return nil, Errorf("2", "segment %d missing required key %q", i, key)
			}
		}
		var seg TranscriptSegment
		if err := unmarshalField(rec, "text", &seg.Text); err != nil {
			return nil, Errorf("2", "segment %d text is not a string", i)
		}
		if err := unmarshalField(rec, "start_time", &seg.StartTime); err != nil {
			return nil, Errorf("2", "segment %d start_time is not numeric", i)
		}
		if err := unmarshalField(rec, "end_time", &seg.EndTime); err != nil {
			return nil, Errorf("2", "segment %d end_time is not numeric", i)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// DecodeSentiment parses a phase 5 payload. Risk and intent fields are
// forbidden: sentiment analysis must not bleed into downstream phases.
func DecodeSentiment(data []byte) (SentimentResult, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return SentimentResult{}, Errorf("5", "sentiment payload is not a JSON object: %v", err)
	}
	for _, forbidden := range []string{"risk_score", "fraud_likelihood", "intent"} {
		if _, ok := raw[forbidden]; ok {
			return SentimentResult{}, Errorf("5",
				"sentiment contains forbidden key %q — phase 5 must NOT contain risk or intent data", forbidden)
		}
	}
	for _, key := range []string{"label", "confidence"} {
		if _, ok := raw[key]; !ok {
			return SentimentResult{}, Errorf("5", "missing %q key", key)
		}
	}
	var result SentimentResult
	if err := unmarshalField(raw, "label", &result.Label); err != nil {
		return SentimentResult{}, Errorf("5", "label is not a string")
	}
	if err := unmarshalField(raw, "confidence", &result.Confidence); err != nil {
		return SentimentResult{}, Errorf("5", "confidence is not numeric")
	}
	return result, nil
}

// DecodeIntent parses a phase 6 intent payload. Risk fields are forbidden.
func DecodeIntent(data []byte) (IntentResult, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return IntentResult{}, Errorf("6", "intent payload is not a JSON object: %v", err)
	}
	for _, forbidden := range []string{"risk_score", "fraud_likelihood"} {
		if _, ok := raw[forbidden]; ok {
			return IntentResult{}, Errorf("6",
				"intent contains forbidden key %q — phase 6 must NOT contain risk data", forbidden)
		}
	}
	for _, key := range []string{"label", "confidence", "conditionality"} {
		if _, ok := raw[key]; !ok {
			return IntentResult{}, Errorf("6", "intent missing required key %q", key)
		}
	}
	var result IntentResult
	if err := unmarshalField(raw, "label", &result.Label); err != nil {
		return IntentResult{}, Errorf("6", "intent label is not a string")
	}
	if err := unmarshalField(raw, "confidence", &result.Confidence); err != nil {
		return IntentResult{}, Errorf("6", "intent confidence is not numeric")
	}
	if err := unmarshalField(raw, "conditionality", &result.Conditionality); err != nil {
		return IntentResult{}, Errorf("6", "intent conditionality is not a string")
	}
	return result, nil
}

// DecodeEntities parses a phase 6 entity payload. Both keys must be present
// even when null.
func DecodeEntities(data []byte) (EntityExtraction, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return EntityExtraction{}, Errorf("6", "entities payload is not a JSON object: %v", err)
	}
	if _, ok := raw["payment_commitment"]; !ok {
		return EntityExtraction{}, Errorf("6", "entities missing 'payment_commitment'")
	}
	if _, ok := raw["amount_mentioned"]; !ok {
		return EntityExtraction{}, Errorf("6", "entities missing 'amount_mentioned'")
	}
	var entities EntityExtraction
	if err := unmarshalField(raw, "payment_commitment", &entities.PaymentCommitment); err != nil {
		return EntityExtraction{}, Errorf("6", "payment_commitment is not a string or null")
	}
	if err := unmarshalField(raw, "amount_mentioned", &entities.AmountMentioned); err != nil {
		return EntityExtraction{}, Errorf("6", "amount_mentioned is not numeric or null")
	}
	return entities, nil
}

func unmarshalField(rec map[string]json.RawMessage, key string, dst interface{}) error {
	return json.Unmarshal(rec[key], dst)
}
