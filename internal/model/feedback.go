package model

// Feedback is accepted and forwarded, never stored.
type Feedback struct {
	Score   *float64 `json:"score" validate:"required,gte=0,lte=10"`
	Comment string   `json:"comment,omitempty"`
}
