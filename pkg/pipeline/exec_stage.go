package pipeline

import (
	"context"
	"time"

	"github.com/zen-systems/scriptflow/pkg/evidence"
	"github.com/zen-systems/scriptflow/pkg/execute"
)

// ExecStage runs the finalized script through the external runner. Execution
// failure is terminal for the pipeline run: it is reported, never retried.
type ExecStage struct {
	Runner *execute.Runner
	Logger func(format string, args ...any)
}

// Run executes the script referenced by the state. It is a no-op when no
// script exists.
func (s *ExecStage) Run(ctx context.Context, st *State) evidence.StageRecord {
	start := time.Now()
	record := evidence.StageRecord{Name: "execute"}

	if st.Script == nil {
		record.DurationMillis = time.Since(start).Milliseconds()
		return record
	}

	result, err := s.Runner.Run(ctx, st.Script.Path)
	if err != nil {
		// The runner itself could not start; fold into a failed result so
		// the stage stays total.
		result = &execute.Result{Passed: false, ExitCode: -1, Stderr: err.Error()}
	}

	st.Result = result

	switch {
	case result.TimedOut:
		record.Output = "timed out"
	case result.Passed:
		record.Output = "passed"
	default:
		record.Output = "failed"
	}
	s.logf("execution %s (exit %d)", record.Output, result.ExitCode)
	record.DurationMillis = time.Since(start).Milliseconds()
	return record
}

func (s *ExecStage) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger(format, args...)
	}
}
