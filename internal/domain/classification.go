package domain

import "time"

// Sentinel department and keyword values written when the model output
// could not be used as-is.
const (
	DepartmentNeedsReview  = "needs-review"
	DepartmentUndetermined = "undetermined"
	KeywordFormatError     = "format-error"
	ReasonFormatError      = "format-error"
)

type ClassificationRecord struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Input           string    `json:"input"`
	Summary         string    `json:"summary"`
	Keywords        []string  `json:"keywords"`
	FinalDepartment string    `json:"final_department"`
}

type FeedbackEntry struct {
	Input      string `json:"input"`
	Department string `json:"department"`
}

type Prediction struct {
	Rank       int    `json:"rank"`
	Department string `json:"department"`
	Reason     string `json:"reason"`
}

type PredictionResult struct {
	Summary     string       `json:"summary"`
	Keywords    []string     `json:"keywords"`
	Predictions []Prediction `json:"predictions"`
}

// TopDepartment returns the rank-1 department, falling back to the first
// prediction when no entry claims rank 1.
func (r PredictionResult) TopDepartment() string {
	for _, p := range r.Predictions {
		if p.Rank == 1 && p.Department != "" {
			return p.Department
		}
	}
	if len(r.Predictions) > 0 && r.Predictions[0].Department != "" {
		return r.Predictions[0].Department
	}
	return DepartmentUndetermined
}
