package plan

import (
	"encoding/json"
	"fmt"
)

// ViolationKind classifies a schema violation.
type ViolationKind string

const (
	ViolationNotSequence  ViolationKind = "not_sequence"
	ViolationNotRecord    ViolationKind = "not_record"
	ViolationMissingField ViolationKind = "missing_field"
	ViolationInvalidKind  ViolationKind = "invalid_kind"
	ViolationInvalidID    ViolationKind = "invalid_id"
	ViolationDuplicateID  ViolationKind = "duplicate_id"
)

// Violation identifies the first schema problem found in a candidate plan.
// StepIndex is -1 when the candidate is not a sequence at all. Violations are
// ordinary values consumed by the retry harness, not control flow.
type Violation struct {
	StepIndex int
	Kind      ViolationKind
	Field     string
}

func (v *Violation) String() string {
	switch v.Kind {
	case ViolationNotSequence:
		return "plan must be a JSON array of steps"
	case ViolationNotRecord:
		return fmt.Sprintf("step %d must be an object", v.StepIndex)
	case ViolationMissingField:
		return fmt.Sprintf("step %d missing required field: %s", v.StepIndex, v.Field)
	case ViolationInvalidKind:
		return fmt.Sprintf("step %d type must be %q or %q", v.StepIndex, KindBrowserStep, KindLogicStep)
	case ViolationInvalidID:
		return fmt.Sprintf("step %d id must be a positive integer", v.StepIndex)
	case ViolationDuplicateID:
		return fmt.Sprintf("step %d reuses an earlier step id", v.StepIndex)
	}
	return "plan schema violation"
}

// requiredFields in check order. The validator fails fast on the first
// violation so the retry harness can feed a single localized error back to
// the oracle.
var requiredFields = []string{"id", "type", "step", "success_criteria"}

// ParseSteps decodes and validates a candidate plan. It returns the typed
// plan on success, or the first violation found.
func ParseSteps(candidate string) (Plan, *Violation) {
	var rawSteps []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &rawSteps); err != nil {
		// Distinguish "not an array" from "array of non-objects".
		var anyItems []any
		if json.Unmarshal([]byte(candidate), &anyItems) != nil {
			return nil, &Violation{StepIndex: -1, Kind: ViolationNotSequence}
		}
		for i, item := range anyItems {
			if _, ok := item.(map[string]any); !ok {
				return nil, &Violation{StepIndex: i, Kind: ViolationNotRecord}
			}
		}
		return nil, &Violation{StepIndex: -1, Kind: ViolationNotSequence}
	}

	result := make(Plan, 0, len(rawSteps))
	seen := make(map[int]bool, len(rawSteps))

	for i, raw := range rawSteps {
		for _, field := range requiredFields {
			if _, ok := raw[field]; !ok {
				return nil, &Violation{StepIndex: i, Kind: ViolationMissingField, Field: field}
			}
		}

		var step Step
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, &Violation{StepIndex: i, Kind: ViolationNotRecord}
		}
		if err := json.Unmarshal(data, &step); err != nil {
			return nil, &Violation{StepIndex: i, Kind: ViolationNotRecord}
		}

		if !step.Kind.IsValid() {
			return nil, &Violation{StepIndex: i, Kind: ViolationInvalidKind}
		}
		if step.ID < 1 {
			return nil, &Violation{StepIndex: i, Kind: ViolationInvalidID, Field: "id"}
		}
		if seen[step.ID] {
			return nil, &Violation{StepIndex: i, Kind: ViolationDuplicateID}
		}
		seen[step.ID] = true

		result = append(result, step)
	}

	return result, nil
}

// Validate checks an already-typed plan against the same schema rules.
func Validate(p Plan) *Violation {
	seen := make(map[int]bool, len(p))
	for i, step := range p {
		if !step.Kind.IsValid() {
			return &Violation{StepIndex: i, Kind: ViolationInvalidKind}
		}
		if step.Description == "" {
			return &Violation{StepIndex: i, Kind: ViolationMissingField, Field: "step"}
		}
		if step.SuccessCriterion == "" {
			return &Violation{StepIndex: i, Kind: ViolationMissingField, Field: "success_criteria"}
		}
		if step.ID < 1 {
			return &Violation{StepIndex: i, Kind: ViolationInvalidID, Field: "id"}
		}
		if seen[step.ID] {
			return &Violation{StepIndex: i, Kind: ViolationDuplicateID}
		}
		seen[step.ID] = true
	}
	return nil
}
