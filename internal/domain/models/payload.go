package models

// PayloadKind tags the typed agent-output union.
type PayloadKind string

const (
	PayloadSentiment  PayloadKind = "sentiment"
	PayloadKeywords   PayloadKind = "keywords"
	PayloadValidation PayloadKind = "validation"
	PayloadEntities   PayloadKind = "entities"
	PayloadPrediction PayloadKind = "prediction"
)

// SentimentPayload is a polarity score in [-1,1] with a label and confidence.
type SentimentPayload struct {
	Polarity   float64
	Label      string // "positive", "negative", "neutral"
	Confidence float64
}

// KeywordPayload lists keywords found in the input text.
type KeywordPayload struct {
	Found []string
	Count int
}

// ValidationPayload reports whether the input passed baseline checks.
type ValidationPayload struct {
	Valid      bool
	Issues     []string
	Confidence float64
}

// EntityPayload lists symbols and organizations extracted from the text.
type EntityPayload struct {
	Symbols       []string
	Organizations []string
	Confidence    float64
}

// PredictionPayload is a directional forecast with magnitude.
type PredictionPayload struct {
	Direction  string // "up", "down", "flat"
	Magnitude  float64
	Confidence float64
}

// AgentPayload is the typed union an agent's raw output is mapped into
// during result validation. Exactly one branch is non-nil, matching Kind.
type AgentPayload struct {
	Kind       PayloadKind
	Sentiment  *SentimentPayload
	Keywords   *KeywordPayload
	Validation *ValidationPayload
	Entities   *EntityPayload
	Prediction *PredictionPayload
}

// Confidence returns the branch confidence, 0 if the branch carries none.
func (p *AgentPayload) Confidence() float64 {
	if p == nil {
		return 0
	}
	switch p.Kind {
	case PayloadSentiment:
		if p.Sentiment != nil {
			return p.Sentiment.Confidence
		}
	case PayloadValidation:
		if p.Validation != nil {
			return p.Validation.Confidence
		}
	case PayloadEntities:
		if p.Entities != nil {
			return p.Entities.Confidence
		}
	case PayloadPrediction:
		if p.Prediction != nil {
			return p.Prediction.Confidence
		}
	}
	return 0
}
