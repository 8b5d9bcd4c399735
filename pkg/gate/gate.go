// Package gate provides deterministic shape validation for oracle output.
// Gates check structure and syntax against fixed checklists; semantic
// correctness is out of their reach.
package gate

// Result contains the outcome of a gate evaluation.
type Result struct {
	Passed      bool        `json:"passed"`
	Violations  []Violation `json:"violations,omitempty"`
	RepairHints []string    `json:"repair_hints,omitempty"`
}

// Violation describes a specific shape issue.
type Violation struct {
	Rule       string `json:"rule"`
	Severity   string `json:"severity"` // "error", "warning", "info"
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// NewPassingResult creates a result indicating the gate passed.
func NewPassingResult() *Result {
	return &Result{Passed: true}
}

// NewFailingResult creates a result indicating the gate failed.
func NewFailingResult(violations []Violation, hints []string) *Result {
	return &Result{
		Passed:      false,
		Violations:  violations,
		RepairHints: hints,
	}
}
