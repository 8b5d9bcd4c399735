package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/zen-systems/scriptflow/pkg/evidence"
	"github.com/zen-systems/scriptflow/pkg/extract"
	"github.com/zen-systems/scriptflow/pkg/gate"
	"github.com/zen-systems/scriptflow/pkg/plan"
)

// PlanStage produces an ordered plan from the objective. It always returns a
// non-empty, schema-valid plan (a deterministic single-step fallback on
// exhaustion) and never raises to its caller. The one exception is an empty
// objective, which yields the empty-plan terminal marker.
type PlanStage struct {
	Runner *StageRunner
}

// Run executes the plan stage against the state.
func (s *PlanStage) Run(ctx context.Context, st *State) evidence.StageRecord {
	start := time.Now()
	record := evidence.StageRecord{Name: "plan", Adapter: s.Runner.Oracle.Name(), Model: s.Runner.Model}

	if st.Objective == "" {
		st.Plan = plan.Plan{}
		record.DurationMillis = time.Since(start).Milliseconds()
		return record
	}

	outcome := s.Runner.Run(ctx,
		planPrompt(st.Objective),
		extract.Array,
		validatePlanCandidate,
		func() string { return plan.Fallback(st.Objective).JSON() },
	)

	steps, violation := plan.ParseSteps(outcome.Content)
	if violation != nil {
		// Only reachable if the fallback itself were malformed; guard anyway.
		steps = plan.Fallback(st.Objective)
		outcome.Fallback = true
	}

	st.Plan = steps
	st.PlanFallback = outcome.Fallback

	record.Attempts = outcome.Attempts
	record.Fallback = outcome.Fallback
	record.Output = steps.JSON()
	record.Violations = toEvidenceViolations(outcome.Violations)
	record.DurationMillis = time.Since(start).Milliseconds()
	return record
}

func validatePlanCandidate(candidate string) *gate.Result {
	steps, violation := plan.ParseSteps(candidate)
	if violation != nil {
		return gate.NewFailingResult([]gate.Violation{{
			Rule:     "plan_schema",
			Severity: "error",
			Message:  violation.String(),
		}}, []string{"Return ONLY the JSON array - no markdown, no explanations"})
	}
	if len(steps) == 0 {
		return gate.NewFailingResult([]gate.Violation{{
			Rule:     "empty_plan",
			Severity: "error",
			Message:  "plan must contain at least one step",
		}}, nil)
	}
	return gate.NewPassingResult()
}

func planPrompt(objective string) string {
	return fmt.Sprintf(`You are a planner that decomposes user objectives into executable browser automation steps.

OBJECTIVE: %s

Create a step-by-step plan to accomplish EXACTLY this objective using browser automation.

Return ONLY valid JSON in this exact format with ALL required fields:
[{"id": 1, "type": "browser_step", "step": "[specific action]", "success_criteria": "[how to verify success]"}]

Requirements:
- every step has all four fields: id (number), type, step, success_criteria
- type is either "browser_step" or "logic_step"
- break the objective into 2-4 concrete steps
- return ONLY the JSON array, no markdown and no extra text`, objective)
}

func toEvidenceViolations(violations []gate.Violation) []evidence.Violation {
	if len(violations) == 0 {
		return nil
	}
	out := make([]evidence.Violation, 0, len(violations))
	for _, v := range violations {
		out = append(out, evidence.Violation{
			Rule:       v.Rule,
			Severity:   v.Severity,
			Message:    v.Message,
			Suggestion: v.Suggestion,
		})
	}
	return out
}
