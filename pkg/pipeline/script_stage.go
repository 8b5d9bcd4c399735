package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/zen-systems/scriptflow/pkg/artifact"
	"github.com/zen-systems/scriptflow/pkg/evidence"
	"github.com/zen-systems/scriptflow/pkg/extract"
	"github.com/zen-systems/scriptflow/pkg/gate"
	"github.com/zen-systems/scriptflow/pkg/probe"
	"github.com/zen-systems/scriptflow/pkg/script"
)

// SynthesisStage produces an automation script from a validated plan in one
// of two mutually exclusive modes chosen by the state's mode flag: generative
// (the oracle writes code, validated by the shape gate) or demonstrative (an
// external recorder supplies code, recomposed into the wrapper shape).
type SynthesisStage struct {
	Runner   *StageRunner
	Recorder *script.Recorder
	// Prober is optional; when set, demonstrative mode preflights the
	// target endpoint before recording.
	Prober *probe.Prober
	Logger func(format string, args ...any)
}

// Run executes synthesis. Generative exhaustion escalates through
// State.Generation rather than degrading: an actions-free template is not a
// useful deliverable there, unlike in demonstrative mode where the operator
// is told to complete it by hand.
func (s *SynthesisStage) Run(ctx context.Context, st *State) evidence.StageRecord {
	start := time.Now()
	record := evidence.StageRecord{Name: "synthesize"}

	if len(st.Plan) == 0 {
		record.DurationMillis = time.Since(start).Milliseconds()
		return record
	}

	var (
		source string
		origin script.Origin
	)

	if st.Demonstrate {
		source = s.runDemonstrative(ctx, st)
		origin = script.OriginDemonstrated
		record.Adapter = "recorder"
	} else {
		record.Adapter = s.Runner.Oracle.Name()
		record.Model = s.Runner.Model

		outcome := s.Runner.Run(ctx,
			generatePrompt(st.Plan.JSON()),
			extract.Code,
			func(candidate string) *gate.Result { return gate.CheckShape(candidate) },
			func() string { return "" },
		)
		record.Attempts = outcome.Attempts
		record.Violations = toEvidenceViolations(outcome.Violations)

		if outcome.Fallback {
			st.Generation = &GenerationFailure{
				Failed:             true,
				NeedsDemonstration: true,
				Reason:             fmt.Sprintf("failed to generate a shape-valid script after %d attempts", outcome.Attempts),
			}
			record.Fallback = true
			record.Output = st.Generation.Reason
			record.DurationMillis = time.Since(start).Milliseconds()
			return record
		}
		source = outcome.Content
		origin = script.OriginGenerated
	}

	path, err := script.Write(st.RunDir, source)
	if err != nil {
		st.Generation = &GenerationFailure{
			Failed: true,
			Reason: fmt.Sprintf("write script: %v", err),
		}
		record.Fallback = true
		record.Output = st.Generation.Reason
		record.DurationMillis = time.Since(start).Milliseconds()
		return record
	}

	st.Script = &ScriptArtifact{Source: source, Origin: origin, Path: path}
	st.ScriptVersion = 1
	st.ScriptTrace = artifact.New(source, record.Adapter, record.Model, "").
		WithMetadata("origin", string(origin))

	record.Output = source
	record.DurationMillis = time.Since(start).Milliseconds()
	return record
}

// runDemonstrative drives the recorder and recomposes its output, falling
// back to the deterministic placeholder template when nothing usable was
// captured. The template itself passes the generative shape gate.
func (s *SynthesisStage) runDemonstrative(ctx context.Context, st *State) string {
	target := script.TargetURL(st.Plan)

	if s.Prober != nil {
		report := s.Prober.Check(ctx, target)
		if report.Reachable {
			s.logf("preflight: %s reachable, title %q", report.URL, report.Title)
		} else {
			s.logf("preflight: %s", report.Err)
		}
	}

	if s.Recorder == nil {
		s.logf("no recorder configured, using template")
		return script.Template(st.Plan)
	}

	recorded, err := s.Recorder.Record(ctx, target, st.RunDir)
	if err != nil {
		s.logf("recording failed: %v", err)
		return script.Template(st.Plan)
	}
	if recorded == "" {
		s.logf("recorder captured nothing, using template")
		return script.Template(st.Plan)
	}

	source, ok := script.Recompose(recorded, st.Plan)
	if !ok {
		s.logf("no recognizable action block in recording, using template")
		return script.Template(st.Plan)
	}
	return source
}

func generatePrompt(planJSON string) string {
	return fmt.Sprintf(`You are an assistant that generates Python scripts using Playwright's sync_playwright context manager.

Given this plan:
%s

Generate a Python script using sync_playwright.
Rules:
- Start with: from playwright.sync_api import sync_playwright
- Use: with sync_playwright() as p:
- Launch browser with: browser = p.chromium.launch(headless=False, slow_mo=1500)
- Create page with: page = browser.new_page()
- For navigation: page.goto('https://example.com', timeout=60000)
- Use AgentQL natural language queries: page.query('button: Submit form')
- Never use raw assert on page state; use wait_for_url or expect helpers
- Close with: browser.close()
- Return ONLY valid Python code (no markdown, no explanations)`, planJSON)
}

func (s *SynthesisStage) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger(format, args...)
	}
}
