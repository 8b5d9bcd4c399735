// Package plan defines the ordered step plan produced from an objective and
// its schema validation.
package plan

import (
	"encoding/json"
	"fmt"
)

// Kind is the closed set of step types a plan may contain.
type Kind string

const (
	KindBrowserStep Kind = "browser_step"
	KindLogicStep   Kind = "logic_step"
)

// IsValid reports whether k is one of the enumerated step kinds.
func (k Kind) IsValid() bool {
	return k == KindBrowserStep || k == KindLogicStep
}

// Step is one unit of a plan. All four fields are required; IDs must be
// unique within a plan but need not be contiguous.
type Step struct {
	ID               int    `json:"id"`
	Kind             Kind   `json:"type"`
	Description      string `json:"step"`
	SuccessCriterion string `json:"success_criteria"`
}

// Plan is an ordered sequence of steps. An empty plan is only ever a terminal
// failure marker, never a valid deliverable to downstream stages.
type Plan []Step

// JSON renders the plan as indented JSON for prompts and evidence.
func (p Plan) JSON() string {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Fallback builds the deterministic single-step plan used when generation is
// exhausted. The description restates the objective verbatim.
func Fallback(objective string) Plan {
	return Plan{
		{
			ID:               1,
			Kind:             KindBrowserStep,
			Description:      fmt.Sprintf("Execute objective: %s", objective),
			SuccessCriterion: "pipeline completes",
		},
	}
}
