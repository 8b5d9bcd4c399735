package pipeline

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/zen-systems/scriptflow/pkg/adapter"
	"github.com/zen-systems/scriptflow/pkg/gate"
	"github.com/zen-systems/scriptflow/pkg/plan"
	"github.com/zen-systems/scriptflow/pkg/script"
)

const shapeValidScript = `from playwright.sync_api import sync_playwright

with sync_playwright() as p:
    browser = p.chromium.launch(headless=False, slow_mo=1500)
    page = browser.new_page()
    page.goto('https://example.com', timeout=60000)
    browser.close()
`

func newScriptState(t *testing.T, demonstrate bool) *State {
	t.Helper()
	st := NewState("check the example page", demonstrate)
	st.Plan = plan.Plan{{
		ID:               1,
		Kind:             plan.KindBrowserStep,
		Description:      "Open https://example.com",
		SuccessCriterion: "page loads",
	}}
	st.RunDir = t.TempDir()
	return st
}

func TestSynthesisGenerativeSuccess(t *testing.T) {
	oracle := adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "```python\n" + shapeValidScript + "```"})
	stage := &SynthesisStage{Runner: &StageRunner{Oracle: oracle, Model: "mock-1", MaxAttempts: 3}}
	st := newScriptState(t, false)

	record := stage.Run(context.Background(), st)

	if st.Script == nil {
		t.Fatal("no script produced")
	}
	if st.Script.Origin != script.OriginGenerated {
		t.Errorf("origin = %q, want generated", st.Script.Origin)
	}
	if st.ScriptVersion != 1 {
		t.Errorf("script version = %d, want 1", st.ScriptVersion)
	}
	if st.Generation != nil {
		t.Error("successful synthesis must not record a generation failure")
	}
	if record.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", record.Attempts)
	}
	if data, err := os.ReadFile(st.Script.Path); err != nil || string(data) != st.Script.Source {
		t.Errorf("script file does not match state (err %v)", err)
	}
	if st.ScriptTrace == nil {
		t.Fatal("synthesis must start the script's artifact lineage")
	}
	if st.ScriptTrace.Version != 1 || st.ScriptTrace.Hash == "" {
		t.Errorf("trace = v%d hash %q, want v1 with a hash", st.ScriptTrace.Version, st.ScriptTrace.Hash)
	}
	if st.ScriptTrace.Metadata["origin"] != string(script.OriginGenerated) {
		t.Errorf("trace origin = %q, want generated", st.ScriptTrace.Metadata["origin"])
	}
}

func TestSynthesisGenerativeExhaustionEscalates(t *testing.T) {
	oracle := adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: "print('not a playwright script')"})
	stage := &SynthesisStage{Runner: &StageRunner{Oracle: oracle, Model: "mock-1", MaxAttempts: 2}}
	st := newScriptState(t, false)

	record := stage.Run(context.Background(), st)

	if st.Generation == nil || !st.Generation.Failed {
		t.Fatal("exhaustion must record a generation failure")
	}
	if !st.Generation.NeedsDemonstration {
		t.Error("the failure must direct the operator to demonstrative mode")
	}
	if st.Script != nil {
		t.Error("no script artifact may exist after generative exhaustion")
	}
	if !record.Fallback {
		t.Error("record must be tagged as fallback")
	}
	if oracle.Calls() != 2 {
		t.Errorf("oracle called %d times, want 2", oracle.Calls())
	}
}

func TestSynthesisDemonstrativeTemplateFallback(t *testing.T) {
	stage := &SynthesisStage{
		Runner: &StageRunner{Oracle: adapter.NewMockAdapter(), Model: "mock-1", MaxAttempts: 1},
	}
	st := newScriptState(t, true)

	stage.Run(context.Background(), st)

	if st.Script == nil {
		t.Fatal("demonstrative mode must always produce a script")
	}
	if st.Script.Origin != script.OriginDemonstrated {
		t.Errorf("origin = %q, want demonstrated", st.Script.Origin)
	}
	if result := gate.CheckShape(st.Script.Source); !result.Passed {
		t.Errorf("template must pass the shape gate: %v", result.Violations)
	}
	if !strings.Contains(st.Script.Source, "https://example.com") {
		t.Error("template should target the URL found in the plan")
	}
}

func TestSynthesisDemonstrativeEmptyRecordingFallsBack(t *testing.T) {
	// A recorder that exits cleanly without writing an output file is a
	// valid "captured nothing" outcome, not an error.
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true binary not available")
	}
	stage := &SynthesisStage{
		Runner:   &StageRunner{Oracle: adapter.NewMockAdapter(), Model: "mock-1", MaxAttempts: 1},
		Recorder: &script.Recorder{Command: "true"},
	}
	st := newScriptState(t, true)

	stage.Run(context.Background(), st)

	if st.Script == nil {
		t.Fatal("an empty recording must still yield a script")
	}
	if st.Script.Origin != script.OriginDemonstrated {
		t.Errorf("origin = %q, want demonstrated", st.Script.Origin)
	}
	if !strings.Contains(st.Script.Source, "Replace this section") {
		t.Error("an empty recording should fall back to the placeholder template")
	}
	if result := gate.CheckShape(st.Script.Source); !result.Passed {
		t.Errorf("fallback template must pass the shape gate: %v", result.Violations)
	}
}

func TestSynthesisDemonstrativeRecorderFailureFallsBack(t *testing.T) {
	stage := &SynthesisStage{
		Runner:   &StageRunner{Oracle: adapter.NewMockAdapter(), Model: "mock-1", MaxAttempts: 1},
		Recorder: &script.Recorder{Command: "scriptflow-no-such-recorder"},
	}
	st := newScriptState(t, true)

	stage.Run(context.Background(), st)

	if st.Script == nil {
		t.Fatal("recorder failure must still yield the template")
	}
	if result := gate.CheckShape(st.Script.Source); !result.Passed {
		t.Errorf("fallback template must pass the shape gate: %v", result.Violations)
	}
}

func TestSynthesisSkipsWithoutPlan(t *testing.T) {
	oracle := adapter.NewScriptedAdapter(adapter.ScriptedReply{Content: shapeValidScript})
	stage := &SynthesisStage{Runner: &StageRunner{Oracle: oracle, Model: "mock-1", MaxAttempts: 3}}
	st := NewState("check the example page", false)
	st.RunDir = t.TempDir()

	stage.Run(context.Background(), st)

	if oracle.Calls() != 0 {
		t.Errorf("oracle called %d times without a plan, want 0", oracle.Calls())
	}
	if st.Script != nil {
		t.Error("no script may be produced without a plan")
	}
}
