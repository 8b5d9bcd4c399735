package pipeline

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/zen-systems/scriptflow/pkg/adapter"
	"github.com/zen-systems/scriptflow/pkg/execute"
	"github.com/zen-systems/scriptflow/pkg/script"
)

// testPipeline wires every stage against scripted oracles. The exec runner
// uses /bin/true standing in for pytest, so the run exercises the real
// process-execution path.
func testPipeline(t *testing.T, planOracle, reviewOracle, synthOracle, repairOracle adapter.Adapter) *Pipeline {
	t.Helper()
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true binary not available")
	}
	return &Pipeline{
		Plan:      &PlanStage{Runner: &StageRunner{Oracle: planOracle, Model: "mock-1", MaxAttempts: 3}},
		Review:    &ReviewStage{Oracle: reviewOracle, Model: "mock-1", MaxAttempts: 2},
		Synthesis: &SynthesisStage{Runner: &StageRunner{Oracle: synthOracle, Model: "mock-1", MaxAttempts: 3}},
		Repair:    &RepairStage{Runner: &StageRunner{Oracle: repairOracle, Model: "mock-1", MaxAttempts: 3}},
		Exec:      &ExecStage{Runner: &execute.Runner{Command: "true", Timeout: time.Minute}},

		ArtifactsRoot: t.TempDir(),
		Logger:        t.Logf,
	}
}

func TestPipelineGenerativeEndToEnd(t *testing.T) {
	p := testPipeline(t,
		adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: planReply}),
		adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "VALID\nPlan covers the objective."}),
		adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "```python\n" + shapeValidScript + "```"}),
		adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "```python\n" + cleanTestScript + "```"}),
	)

	st, err := p.Run(context.Background(), "check the example page", false)
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if len(st.Plan) != 2 {
		t.Errorf("plan has %d steps, want 2", len(st.Plan))
	}
	if st.Review == nil || !st.Review.Valid {
		t.Error("review verdict should be valid")
	}
	if st.Script == nil {
		t.Fatal("no script produced")
	}
	if st.Script.Source != cleanTestScript {
		t.Error("final script should be the repaired version")
	}
	if st.ScriptVersion != 2 {
		t.Errorf("script version = %d, want 2 (synthesized then repaired)", st.ScriptVersion)
	}
	if st.Result == nil || !st.Result.Passed {
		t.Errorf("execution result = %+v, want passed", st.Result)
	}

	// The evidence bundle covers the whole run.
	for _, rel := range []string{
		"run.json",
		filepath.Join("stages", "plan.json"),
		filepath.Join("stages", "review.json"),
		filepath.Join("stages", "synthesize.json"),
		filepath.Join("stages", "repair.json"),
		filepath.Join("stages", "execute.json"),
		filepath.Join("scripts", "automation_script.v1.py"),
		filepath.Join("scripts", "automation_script.v2.py"),
	} {
		if _, err := os.Stat(filepath.Join(st.RunDir, rel)); err != nil {
			t.Errorf("missing evidence file %s: %v", rel, err)
		}
	}
}

func TestPipelineEmptyObjectiveStopsAfterPlan(t *testing.T) {
	review := adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "VALID"})
	p := testPipeline(t,
		adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: planReply}),
		review,
		adapter.NewMockAdapter(),
		adapter.NewMockAdapter(),
	)

	st, err := p.Run(context.Background(), "", false)
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if len(st.Plan) != 0 {
		t.Error("empty objective must yield the empty terminal plan")
	}
	if st.Review != nil || st.Script != nil || st.Result != nil {
		t.Error("no stage past planning may run on an empty plan")
	}
	if review.Calls() != 0 {
		t.Errorf("review oracle called %d times, want 0", review.Calls())
	}
	if _, err := os.Stat(filepath.Join(st.RunDir, "run.json")); err != nil {
		t.Errorf("run metadata should still be recorded: %v", err)
	}
}

func TestPipelineGenerationFailureIsHardStop(t *testing.T) {
	repairOracle := adapter.NewMockAdapter()
	p := testPipeline(t,
		adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: planReply}),
		adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "VALID"}),
		adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "print('nope')"}),
		repairOracle,
	)

	st, err := p.Run(context.Background(), "check the example page", false)

	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
	if st.Generation == nil || !st.Generation.NeedsDemonstration {
		t.Error("the failure must direct the operator to demonstrative mode")
	}
	if st.Script != nil || st.Result != nil {
		t.Error("no script or execution may exist after the hard stop")
	}
	if repairOracle.Calls() != 0 {
		t.Errorf("repair oracle called %d times after the hard stop, want 0", repairOracle.Calls())
	}
}

func TestPipelineDemonstrativeTemplateRun(t *testing.T) {
	p := testPipeline(t,
		adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: planReply}),
		adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "VALID"}),
		adapter.NewMockAdapter(),
		adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "```python\n" + cleanTestScript + "```"}),
	)

	st, err := p.Run(context.Background(), "check the example page", true)
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if st.Script == nil {
		t.Fatal("demonstrative mode must always produce a script")
	}
	if st.Script.Origin != script.OriginDemonstrated {
		t.Errorf("origin = %q, want demonstrated", st.Script.Origin)
	}
	if st.Result == nil || !st.Result.Passed {
		t.Errorf("execution result = %+v, want passed", st.Result)
	}
}
