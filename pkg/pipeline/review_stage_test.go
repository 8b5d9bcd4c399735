package pipeline

import (
	"context"
	"testing"

	"github.com/zen-systems/scriptflow/pkg/adapter"
	"github.com/zen-systems/scriptflow/pkg/plan"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantOK    bool
		wantValid bool
	}{
		{"valid with feedback", "VALID\nThe plan covers the objective.", true, true},
		{"invalid with feedback", "INVALID\nStep 2 has no measurable criteria.", true, false},
		{"lowercase valid", "valid - looks good", true, true},
		{"invalid not misread as valid", "INVALID", true, false},
		{"leading whitespace", "  VALID", true, true},
		{"ambiguous prose", "The plan seems mostly fine to me.", false, false},
		{"empty", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, ok := parseVerdict(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("parseVerdict(%q) ok = %t, want %t", tt.raw, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if verdict.Valid != tt.wantValid {
				t.Errorf("Valid = %t, want %t", verdict.Valid, tt.wantValid)
			}
			if verdict.Rationale == "" {
				t.Error("rationale must never be empty")
			}
		})
	}
}

func TestReviewStageRecordsVerdict(t *testing.T) {
	oracle := adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "INVALID\nSuccess criteria are vague."})
	stage := &ReviewStage{Oracle: oracle, Model: "mock-1", MaxAttempts: 2}
	st := NewState("check the example page", false)
	st.Plan = plan.Fallback(st.Objective)

	record := stage.Run(context.Background(), st)

	if st.Review == nil {
		t.Fatal("review verdict not recorded")
	}
	if st.Review.Valid {
		t.Error("verdict should be invalid")
	}
	if st.Review.Rationale != "Success criteria are vague." {
		t.Errorf("rationale = %q", st.Review.Rationale)
	}
	if record.Fallback {
		t.Error("a parsed verdict is not a fallback")
	}
}

func TestReviewStageAmbiguityFallsBackToInvalid(t *testing.T) {
	oracle := adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "well, it depends"})
	stage := &ReviewStage{Oracle: oracle, Model: "mock-1", MaxAttempts: 2}
	st := NewState("check the example page", false)
	st.Plan = plan.Fallback(st.Objective)

	record := stage.Run(context.Background(), st)

	if oracle.Calls() != 2 {
		t.Errorf("oracle called %d times, want 2", oracle.Calls())
	}
	if st.Review == nil || st.Review.Valid {
		t.Fatal("exhausted review must record an invalid verdict")
	}
	if !record.Fallback {
		t.Error("exhausted review must be tagged as fallback")
	}
}

func TestReviewStageSkipsWithoutPlan(t *testing.T) {
	oracle := adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "VALID"})
	stage := &ReviewStage{Oracle: oracle, Model: "mock-1", MaxAttempts: 2}
	st := NewState("check the example page", false)

	stage.Run(context.Background(), st)

	if oracle.Calls() != 0 {
		t.Errorf("oracle called %d times without a plan, want 0", oracle.Calls())
	}
	if st.Review != nil {
		t.Error("no verdict should be recorded without a plan")
	}
}
