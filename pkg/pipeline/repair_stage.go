package pipeline

import (
	"context"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/zen-systems/scriptflow/pkg/evidence"
	"github.com/zen-systems/scriptflow/pkg/extract"
	"github.com/zen-systems/scriptflow/pkg/gate"
	"github.com/zen-systems/scriptflow/pkg/repair"
	"github.com/zen-systems/scriptflow/pkg/script"
)

// RepairStage statically inspects the script for shape violations, attempts
// oracle-driven repair with the issue list as guidance, and falls back to
// deterministic line rewrites. It always returns some script: forward
// progress wins over strict correctness here, with residual issues logged
// rather than escalated.
type RepairStage struct {
	Runner *StageRunner
	Logger func(format string, args ...any)
}

// Run executes the repair stage. It is a no-op when no script exists.
func (s *RepairStage) Run(ctx context.Context, st *State) evidence.StageRecord {
	start := time.Now()
	record := evidence.StageRecord{Name: "repair", Adapter: s.Runner.Oracle.Name(), Model: s.Runner.Model}

	if st.Script == nil {
		record.DurationMillis = time.Since(start).Milliseconds()
		return record
	}

	original := st.Script.Source
	issues := gate.Inspect(original)

	var repaired string
	if len(issues) == 0 {
		repaired = s.polish(ctx, original)
		record.Attempts = 1
	} else {
		s.logf("inspection found %d issue(s), attempting repair", len(issues))
		outcome := s.Runner.Run(ctx,
			repair.IssuePrompt(original, issues),
			extract.Code,
			func(candidate string) *gate.Result { return gate.InspectResult(candidate) },
			func() string { return repair.Rewrite(original) },
		)
		repaired = outcome.Content
		record.Attempts = outcome.Attempts
		record.Fallback = outcome.Fallback
		st.RepairFallback = outcome.Fallback
	}

	st.RepairResidual = gate.Inspect(repaired)
	for _, v := range st.RepairResidual {
		s.logf("residual issue after repair: %s", v.Message)
	}
	record.Violations = toEvidenceViolations(st.RepairResidual)

	if repaired != original {
		st.RepairDiff = unifiedDiff(original, repaired)

		path := st.Script.Path
		if st.RunDir != "" {
			if written, err := script.Write(st.RunDir, repaired); err == nil {
				path = written
			} else {
				s.logf("rewrite script file: %v", err)
			}
		}

		st.Script = &ScriptArtifact{Source: repaired, Origin: st.Script.Origin, Path: path}
		st.ScriptVersion++
		if st.ScriptTrace != nil {
			st.ScriptTrace = st.ScriptTrace.NewVersion(repaired)
		}
	}

	record.Output = st.Script.Source
	record.DurationMillis = time.Since(start).Milliseconds()
	return record
}

// polish runs the single unconditioned review pass on an already-valid
// script. The reviewed output is adopted only when it introduces no new
// issues; a valid script is never discarded because the reviewer failed.
func (s *RepairStage) polish(ctx context.Context, original string) string {
	art, err := s.Runner.Oracle.Generate(ctx, s.Runner.Model, repair.PolishPrompt(original))
	if err != nil {
		s.logf("polish pass failed, keeping original: %v", err)
		return original
	}

	candidate := extract.Code(art.Content)
	if candidate == "" {
		return original
	}
	if len(gate.Inspect(candidate)) > 0 {
		s.logf("polish pass introduced issues, keeping original")
		return original
	}
	return candidate
}

func unifiedDiff(before, after string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: script.ScriptFileName + " (before repair)",
		ToFile:   script.ScriptFileName + " (after repair)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

func (s *RepairStage) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger(format, args...)
	}
}
