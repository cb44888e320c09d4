package model

const (
	AnalysisTypeURL  = "url"
	AnalysisTypeFile = "file"
)

// AnalysisRequest is the body of POST /api/analyze.
type AnalysisRequest struct {
	Type     string `json:"type" validate:"required,oneof=url file"`
	Content  string `json:"content" validate:"required"`
	FileName string `json:"fileName,omitempty"`

	// Attachment is set for binary uploads (PDF) from the HTML form.
	Attachment *Attachment `json:"-"`
}

type Attachment struct {
	Name     string
	MimeType string
	Data     []byte
}

// AnalysisResult is the JSON the model is asked to return.
type AnalysisResult struct {
	Summary  string    `json:"summary"`
	Problems []Problem `json:"problems"`
	Issues   []Issue   `json:"issues"`
}

type Problem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact,omitempty"`
}

type Issue struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Severity       string `json:"severity,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Normalize replaces nil slices so clients always receive arrays.
func (r *AnalysisResult) Normalize() {
	if r.Problems == nil {
		r.Problems = []Problem{}
	}
	if r.Issues == nil {
		r.Issues = []Issue{}
	}
}
