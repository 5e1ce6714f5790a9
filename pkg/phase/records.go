package phase

// Speaker identifies who produced an utterance. Role attribution happens in
// phase 3; earlier phases must never carry a speaker.
type Speaker string

const (
	SpeakerAgent    Speaker = "AGENT"
	SpeakerCustomer Speaker = "CUSTOMER"
	SpeakerUnknown  Speaker = "unknown"
)

// Valid reports whether the speaker is one of the three allowed values.
func (s Speaker) Valid() bool {
	return s == SpeakerAgent || s == SpeakerCustomer || s == SpeakerUnknown
}

// TranscriptSegment is the phase 2 (STT) output unit. It carries no speaker
// field by construction.
type TranscriptSegment struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// StructuredUtterance is the phase 3 (role attribution) output unit.
type StructuredUtterance struct {
	Speaker    Speaker `json:"speaker"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// NormalizedUtterance is the phase 4 output unit: text normalized and PII
// redacted, speaker and timestamps untouched.
type NormalizedUtterance struct {
	Speaker   Speaker `json:"speaker"`
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// SentimentLabel is the closed set of phase 5 sentiment classifications.
type SentimentLabel string

const (
	SentimentCalm       SentimentLabel = "calm"
	SentimentNeutral    SentimentLabel = "neutral"
	SentimentStressed   SentimentLabel = "stressed"
	SentimentAnxious    SentimentLabel = "anxious"
	SentimentFrustrated SentimentLabel = "frustrated"
	SentimentEvasive    SentimentLabel = "evasive"
)

// SentimentLabels lists all valid sentiment labels in stable order.
var SentimentLabels = []SentimentLabel{
	SentimentCalm, SentimentNeutral, SentimentStressed,
	SentimentAnxious, SentimentFrustrated, SentimentEvasive,
}

func (l SentimentLabel) Valid() bool {
	for _, v := range SentimentLabels {
		if l == v {
			return true
		}
	}
	return false
}

// SentimentResult is the phase 5 output.
type SentimentResult struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
}

// IntentLabel is the closed set of phase 6 intent classifications.
type IntentLabel string

const (
	IntentRepaymentPromise   IntentLabel = "repayment_promise"
	IntentRepaymentDelay     IntentLabel = "repayment_delay"
	IntentRefusal            IntentLabel = "refusal"
	IntentDeflection         IntentLabel = "deflection"
	IntentInformationSeeking IntentLabel = "information_seeking"
	IntentDispute            IntentLabel = "dispute"
	IntentUnknown            IntentLabel = "unknown"
)

// IntentLabels lists all valid intent labels in stable order.
var IntentLabels = []IntentLabel{
	IntentRepaymentPromise, IntentRepaymentDelay, IntentRefusal,
	IntentDeflection, IntentInformationSeeking, IntentDispute, IntentUnknown,
}

func (l IntentLabel) Valid() bool {
	for _, v := range IntentLabels {
		if l == v {
			return true
		}
	}
	return false
}

// Conditionality grades how hedged the customer's statements are.
type Conditionality string

const (
	ConditionalityLow    Conditionality = "low"
	ConditionalityMedium Conditionality = "medium"
	ConditionalityHigh   Conditionality = "high"
)

func (c Conditionality) Valid() bool {
	return c == ConditionalityLow || c == ConditionalityMedium || c == ConditionalityHigh
}

// IntentResult is the phase 6 intent output.
type IntentResult struct {
	Label          IntentLabel    `json:"label"`
	Confidence     float64        `json:"confidence"`
	Conditionality Conditionality `json:"conditionality"`
}

// ObligationStrength grades the reliability of a payment commitment.
type ObligationStrength string

const (
	ObligationStrong      ObligationStrength = "strong"
	ObligationWeak        ObligationStrength = "weak"
	ObligationConditional ObligationStrength = "conditional"
	ObligationNone        ObligationStrength = "none"
)

func (o ObligationStrength) Valid() bool {
	switch o {
	case ObligationStrong, ObligationWeak, ObligationConditional, ObligationNone:
		return true
	}
	return false
}

// PaymentCommitment is the closed set of phase 6 entity commitment values.
type PaymentCommitment string

const (
	CommitmentToday        PaymentCommitment = "today"
	CommitmentTomorrow     PaymentCommitment = "tomorrow"
	CommitmentThisWeek     PaymentCommitment = "this_week"
	CommitmentNextWeek     PaymentCommitment = "next_week"
	CommitmentThisMonth    PaymentCommitment = "this_month"
	CommitmentNextMonth    PaymentCommitment = "next_month"
	CommitmentSpecificDate PaymentCommitment = "specific_date"
	CommitmentUnspecified  PaymentCommitment = "unspecified"
)

func (p PaymentCommitment) Valid() bool {
	switch p {
	case CommitmentToday, CommitmentTomorrow, CommitmentThisWeek,
		CommitmentNextWeek, CommitmentThisMonth, CommitmentNextMonth,
		CommitmentSpecificDate, CommitmentUnspecified:
		return true
	}
	return false
}

// EntityExtraction is the phase 6 entity output. Absent values are nil, not
// zero — the final output serializes them as JSON null.
type EntityExtraction struct {
	PaymentCommitment *PaymentCommitment `json:"payment_commitment"`
	AmountMentioned   *float64           `json:"amount_mentioned"`
}

// Level is a three-point rating used by the audio quality signals.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

func (l Level) Valid() bool {
	return l == LevelLow || l == LevelMedium || l == LevelHigh
}

// Naturalness classifies whether speech sounds organic or synthetic.
type Naturalness string

const (
	NaturalnessNormal     Naturalness = "normal"
	NaturalnessSuspicious Naturalness = "suspicious"
)

func (n Naturalness) Valid() bool {
	return n == NaturalnessNormal || n == NaturalnessSuspicious
}

// AudioQuality is the phase 1 quality signal record.
type AudioQuality struct {
	NoiseLevel        Level       `json:"noise_level"`
	CallStability     Level       `json:"call_stability"`
	SpeechNaturalness Naturalness `json:"speech_naturalness"`
}
