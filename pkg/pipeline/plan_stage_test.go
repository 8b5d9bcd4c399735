package pipeline

import (
	"context"
	"testing"

	"github.com/zen-systems/scriptflow/pkg/adapter"
	"github.com/zen-systems/scriptflow/pkg/plan"
)

const planReply = "Here is the plan:\n```json\n" +
	`[{"id": 1, "type": "browser_step", "step": "Open https://example.com", "success_criteria": "page loads"},
	 {"id": 2, "type": "logic_step", "step": "Verify the title", "success_criteria": "title matches"}]` +
	"\n```"

func TestPlanStageValidFirstAttempt(t *testing.T) {
	oracle := adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: planReply})
	stage := &PlanStage{Runner: &StageRunner{Oracle: oracle, Model: "mock-1", MaxAttempts: 3}}
	st := NewState("check the example page", false)

	record := stage.Run(context.Background(), st)

	if len(st.Plan) != 2 {
		t.Fatalf("plan has %d steps, want 2", len(st.Plan))
	}
	if st.PlanFallback {
		t.Error("a generated plan must not be tagged as fallback")
	}
	if oracle.Calls() != 1 {
		t.Errorf("oracle called %d times, want 1", oracle.Calls())
	}
	if record.Attempts != 1 || record.Fallback {
		t.Errorf("record = attempts %d fallback %t, want 1/false", record.Attempts, record.Fallback)
	}
	if st.Plan[1].Kind != plan.KindLogicStep {
		t.Errorf("step 2 kind = %q, want logic_step", st.Plan[1].Kind)
	}
}

func TestPlanStageFallbackIsSchemaValid(t *testing.T) {
	oracle := adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "I cannot produce JSON today."})
	stage := &PlanStage{Runner: &StageRunner{Oracle: oracle, Model: "mock-1", MaxAttempts: 2}}
	st := NewState("buy a train ticket", false)

	record := stage.Run(context.Background(), st)

	if !st.PlanFallback || !record.Fallback {
		t.Fatal("exhaustion must surface the fallback plan")
	}
	if len(st.Plan) == 0 {
		t.Fatal("fallback plan must not be empty")
	}
	if violation := plan.Validate(st.Plan); violation != nil {
		t.Errorf("fallback plan has a schema violation: %s", violation)
	}
	if oracle.Calls() != 2 {
		t.Errorf("oracle called %d times, want 2", oracle.Calls())
	}
}

func TestPlanStageEmptyObjective(t *testing.T) {
	oracle := adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: planReply})
	stage := &PlanStage{Runner: &StageRunner{Oracle: oracle, Model: "mock-1", MaxAttempts: 3}}
	st := NewState("", false)

	stage.Run(context.Background(), st)

	if len(st.Plan) != 0 {
		t.Errorf("empty objective produced %d steps, want the empty terminal marker", len(st.Plan))
	}
	if oracle.Calls() != 0 {
		t.Errorf("oracle called %d times on an empty objective, want 0", oracle.Calls())
	}
}
