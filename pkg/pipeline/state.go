package pipeline

import (
	"github.com/zen-systems/scriptflow/pkg/artifact"
	"github.com/zen-systems/scriptflow/pkg/execute"
	"github.com/zen-systems/scriptflow/pkg/gate"
	"github.com/zen-systems/scriptflow/pkg/plan"
	"github.com/zen-systems/scriptflow/pkg/script"
)

// ReviewVerdict is the advisory annotation the review stage attaches to a
// plan. It never alters control flow.
type ReviewVerdict struct {
	Valid     bool   `json:"valid"`
	Rationale string `json:"rationale"`
}

// ScriptArtifact is the finalized script a run produced. Source is never
// empty once the artifact exists.
type ScriptArtifact struct {
	Source string        `json:"source"`
	Origin script.Origin `json:"origin"`
	Path   string        `json:"path"`
}

// GenerationFailure is the distinguished outcome of generative synthesis
// exhausting its attempts: the stage escalates instead of degrading to a
// useless template.
type GenerationFailure struct {
	Failed             bool   `json:"generation_failed"`
	NeedsDemonstration bool   `json:"needs_alternate_mode"`
	Reason             string `json:"reason"`
}

// State is the record threaded through all stages. It is append-only: each
// stage adds fields and never removes what a predecessor wrote, so any
// stage's success or fallback output stays inspectable downstream.
type State struct {
	Objective   string
	Demonstrate bool

	RunID  string
	RunDir string

	Plan         plan.Plan
	PlanFallback bool

	Review *ReviewVerdict

	// Script holds the latest version; prior versions are retained in the
	// evidence scripts log.
	Script        *ScriptArtifact
	ScriptVersion int
	// ScriptTrace is the hashed artifact lineage of the script: synthesis
	// creates version 1, each repair rewrite appends the next version under
	// the same artifact identity.
	ScriptTrace *artifact.Artifact
	Generation  *GenerationFailure

	RepairFallback bool
	RepairResidual []gate.Violation
	RepairDiff     string

	Result *execute.Result
}

// NewState creates the pipeline entry state with only the objective and mode
// flag set.
func NewState(objective string, demonstrate bool) *State {
	return &State{
		Objective:   objective,
		Demonstrate: demonstrate,
		Plan:        plan.Plan{},
	}
}
