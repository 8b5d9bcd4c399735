// Package pipeline orchestrates the linear stage machine that turns an
// objective into an executed automation script: plan, advisory review,
// synthesis, repair, execution. Stages are total. Each returns by mutating
// the append-only state, never by raising, with one deliberate exception:
// generative synthesis exhausting its attempts is a hard stop that requires
// switching to demonstrative mode.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/zen-systems/scriptflow/pkg/evidence"
	"github.com/zen-systems/scriptflow/pkg/script"
)

// ErrGenerationFailed signals that generative synthesis exhausted its
// attempts with no safe fallback. The caller must switch to demonstrative
// mode; the pipeline does not mask this.
var ErrGenerationFailed = errors.New("script generation failed; demonstrative mode required")

// Pipeline wires the five stages together with an evidence trail.
type Pipeline struct {
	Plan      *PlanStage
	Review    *ReviewStage
	Synthesis *SynthesisStage
	Repair    *RepairStage
	Exec      *ExecStage

	// ArtifactsRoot is where execution-scoped run directories are created.
	ArtifactsRoot string
	Logger        func(format string, args ...any)
}

// Run executes the pipeline for one objective. The returned state is always
// complete up to the point the run reached; the error is non-nil only for
// the generation-failure hard stop or a broken artifacts root.
func (p *Pipeline) Run(ctx context.Context, objective string, demonstrate bool) (*State, error) {
	st := NewState(objective, demonstrate)
	start := time.Now()

	runDir, err := script.ExecutionDir(p.ArtifactsRoot, objective, start)
	if err != nil {
		return st, err
	}
	st.RunDir = runDir
	st.RunID = filepath.Base(runDir)

	writer, err := evidence.NewWriter(runDir)
	if err != nil {
		return st, err
	}
	mode := "generative"
	if demonstrate {
		mode = "demonstrative"
	}
	if err := writer.WriteRun(evidence.RunRecord{
		ID:        st.RunID,
		Timestamp: start.UTC(),
		Objective: objective,
		Mode:      mode,
	}); err != nil {
		return st, err
	}

	p.logf("stage: plan")
	p.writeStage(writer, p.Plan.Run(ctx, st))
	if len(st.Plan) == 0 {
		// Terminal marker: no further stage mutates the state.
		p.logf("empty plan, stopping")
		return st, nil
	}

	p.logf("stage: review")
	p.writeStage(writer, p.Review.Run(ctx, st))
	if st.Review != nil && !st.Review.Valid {
		// Advisory only: annotate and proceed.
		p.logf("plan review flagged issues: %s", st.Review.Rationale)
	}

	p.logf("stage: synthesize (%s)", mode)
	p.writeStage(writer, p.Synthesis.Run(ctx, st))
	if st.Generation != nil && st.Generation.Failed {
		return st, fmt.Errorf("%w: %s", ErrGenerationFailed, st.Generation.Reason)
	}
	if st.Script != nil {
		p.writeScriptVersion(writer, st)
	}

	p.logf("stage: repair")
	versionBefore := st.ScriptVersion
	p.writeStage(writer, p.Repair.Run(ctx, st))
	if st.Script != nil && st.ScriptVersion != versionBefore {
		p.writeScriptVersion(writer, st)
	}

	p.logf("stage: execute")
	p.writeStage(writer, p.Exec.Run(ctx, st))

	return st, nil
}

func (p *Pipeline) writeStage(writer *evidence.Writer, record evidence.StageRecord) {
	if err := writer.WriteStage(record); err != nil {
		p.logf("write evidence for stage %s: %v", record.Name, err)
	}
}

func (p *Pipeline) writeScriptVersion(writer *evidence.Writer, st *State) {
	if err := writer.WriteScriptVersion(st.ScriptVersion, st.Script.Source); err != nil {
		p.logf("write script version %d: %v", st.ScriptVersion, err)
	}
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger(format, args...)
	}
}
