package models

import "fmt"

// Well-known classification labels. The label vocabulary is owned by the
// external model's labels file; only "defective" has special meaning to
// the UI.
const (
	LabelDefective = "defective"
	LabelGood      = "good"
)

// Classification is the parsed output of one classifier invocation
type Classification struct {
	Label      string             `json:"class"`
	Confidence float64            `json:"confidence"`
	Probs      map[string]float64 `json:"probs,omitempty"`
}

// Validate checks that the classification is well-formed before it is
// shown to a user or republished over HTTP
func (c *Classification) Validate() error {
	if c.Label == "" {
		return fmt.Errorf("classification has empty label")
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", c.Confidence)
	}
	for label, p := range c.Probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("probability %v for label %q outside [0,1]", p, label)
		}
	}
	return nil
}

// IsDefective reports whether the classifier flagged the tire as defective
func (c *Classification) IsDefective() bool {
	return c.Label == LabelDefective
}

// APIError is the structured error object returned on every relay
// failure path
type APIError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AnalyzeResult is the discriminated result crossing the HTTP boundary:
// either a classification or an error, never both meaningfully set.
// It mirrors the relay's /analyze response body.
type AnalyzeResult struct {
	Classification
	Err     string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// OK reports whether the result carries a classification rather than an
// embedded error field
func (r *AnalyzeResult) OK() bool {
	return r.Err == ""
}

// ErrResult builds a failed AnalyzeResult
func ErrResult(message, details string) *AnalyzeResult {
	return &AnalyzeResult{Err: message, Details: details}
}

// OkResult builds a successful AnalyzeResult
func OkResult(c Classification) *AnalyzeResult {
	return &AnalyzeResult{Classification: c}
}
