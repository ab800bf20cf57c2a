package model

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// StructuredAnswer is the JSON shape the generation model is asked to
// produce. A response that fails structured parsing degrades to plain text.
type StructuredAnswer struct {
	Answer            string   `json:"answer"`
	Confidence        string   `json:"confidence"`
	SourcesUsed       []string `json:"sources_used"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// Answer is the tagged variant over the two response shapes the generation
// step may return. Structured is nil for a plain-text answer.
type Answer struct {
	Text       string
	Structured *StructuredAnswer
}

func PlainAnswer(text string) Answer {
	return Answer{Text: text}
}

func (a Answer) IsStructured() bool {
	return a.Structured != nil
}
