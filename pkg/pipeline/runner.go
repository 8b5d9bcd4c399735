package pipeline

import (
	"context"

	"github.com/zen-systems/scriptflow/pkg/adapter"
	"github.com/zen-systems/scriptflow/pkg/gate"
	"github.com/zen-systems/scriptflow/pkg/repair"
)

// ExtractFunc recovers a structured candidate from raw oracle output. It
// never fails; garbage flows on to validation.
type ExtractFunc func(raw string) string

// ValidateFunc checks an extracted candidate against a stage's gate.
type ValidateFunc func(candidate string) *gate.Result

// FallbackFunc produces the deterministic, oracle-free default used when
// attempts are exhausted.
type FallbackFunc func() string

// Outcome is the result of a stage-runner invocation. Fallback distinguishes
// a degraded default from genuinely generated output.
type Outcome struct {
	Content    string
	Fallback   bool
	Attempts   int
	Violations []gate.Violation
}

// StageRunner is the shared retry harness used by every generative stage: it
// invokes the oracle, passes output through extraction and validation, and on
// failure retries with accumulated failure context up to MaxAttempts before
// falling back.
type StageRunner struct {
	Oracle adapter.Adapter
	Model  string
	// MaxAttempts bounds oracle calls; values below 1 are treated as 1, so
	// no configuration can produce an unbounded loop.
	MaxAttempts int
	Logger      func(format string, args ...any)
}

// Run executes the attempt loop. Oracle transport failures consume an
// attempt exactly like validation failures; the stage never crashes on them.
// Success returns immediately without spending remaining attempts.
func (r *StageRunner) Run(ctx context.Context, prompt string, extractFn ExtractFunc, validateFn ValidateFunc, fallbackFn FallbackFunc) Outcome {
	maxAttempts := r.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastViolations []gate.Violation

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		art, err := r.Oracle.Generate(ctx, r.Model, prompt)
		if err != nil {
			lastViolations = []gate.Violation{{
				Rule:     "oracle_error",
				Severity: "error",
				Message:  err.Error(),
			}}
			r.logf("oracle attempt %d/%d failed: %v", attempt, maxAttempts, err)
			// Transport failure leaves nothing to enrich with; retry the
			// same prompt.
			continue
		}

		candidate := extractFn(art.Content)
		result := validateFn(candidate)
		if result.Passed {
			return Outcome{Content: candidate, Attempts: attempt}
		}

		lastViolations = result.Violations
		r.logf("attempt %d/%d rejected: %d violation(s)", attempt, maxAttempts, len(result.Violations))

		if attempt < maxAttempts {
			prompt = repair.Prompt(candidate, result)
		}
	}

	r.logf("attempts exhausted, using deterministic fallback")
	return Outcome{
		Content:    fallbackFn(),
		Fallback:   true,
		Attempts:   maxAttempts,
		Violations: lastViolations,
	}
}

func (r *StageRunner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger(format, args...)
	}
}
