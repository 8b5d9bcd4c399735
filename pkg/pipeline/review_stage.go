package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zen-systems/scriptflow/pkg/adapter"
	"github.com/zen-systems/scriptflow/pkg/evidence"
)

// ReviewStage judges a plan against its objective with the oracle acting as
// a binary classifier. The verdict is advisory only: it annotates the state
// and downstream stages proceed unconditionally either way.
type ReviewStage struct {
	Oracle      adapter.Adapter
	Model       string
	MaxAttempts int
	Logger      func(format string, args ...any)
}

// Run executes the review stage. It is a no-op when objective or plan is
// absent.
func (s *ReviewStage) Run(ctx context.Context, st *State) evidence.StageRecord {
	start := time.Now()
	record := evidence.StageRecord{Name: "review", Adapter: s.Oracle.Name(), Model: s.Model}

	if st.Objective == "" || len(st.Plan) == 0 {
		record.DurationMillis = time.Since(start).Milliseconds()
		return record
	}

	maxAttempts := s.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	prompt := reviewPrompt(st.Objective, st.Plan.JSON())

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		record.Attempts = attempt

		art, err := s.Oracle.Generate(ctx, s.Model, prompt)
		if err != nil {
			s.logf("review attempt %d/%d failed: %v", attempt, maxAttempts, err)
			continue
		}

		verdict, ok := parseVerdict(art.Content)
		if ok {
			st.Review = verdict
			record.Output = fmt.Sprintf("valid=%t: %s", verdict.Valid, verdict.Rationale)
			record.DurationMillis = time.Since(start).Milliseconds()
			return record
		}
		s.logf("review attempt %d/%d returned an ambiguous verdict", attempt, maxAttempts)
	}

	st.Review = &ReviewVerdict{
		Valid:     false,
		Rationale: "could not validate plan against objective",
	}
	record.Fallback = true
	record.Output = st.Review.Rationale
	record.DurationMillis = time.Since(start).Milliseconds()
	return record
}

// parseVerdict reads the leading VALID/INVALID token case-insensitively.
// INVALID is checked first because VALID is its suffix.
func parseVerdict(raw string) (*ReviewVerdict, bool) {
	trimmed := strings.TrimSpace(raw)
	upper := strings.ToUpper(trimmed)

	switch {
	case strings.HasPrefix(upper, "INVALID"):
		rationale := strings.TrimSpace(trimmed[len("INVALID"):])
		if rationale == "" {
			rationale = "plan needs improvement"
		}
		return &ReviewVerdict{Valid: false, Rationale: rationale}, true
	case strings.HasPrefix(upper, "VALID"):
		rationale := strings.TrimSpace(trimmed[len("VALID"):])
		if rationale == "" {
			rationale = "plan review passed"
		}
		return &ReviewVerdict{Valid: true, Rationale: rationale}, true
	}
	return nil, false
}

func reviewPrompt(objective, planJSON string) string {
	return fmt.Sprintf(`You are a senior QA engineer reviewing automation test plans.

OBJECTIVE: %s

GENERATED PLAN:
%s

Review whether the plan directly accomplishes the objective, the steps follow
a logical sequence, and the success criteria are measurable.

If the plan is good, respond with: VALID
If the plan needs improvement, respond with: INVALID

Then provide specific feedback. Format: VALID/INVALID on the first line,
followed by your feedback.`, objective, planJSON)
}

func (s *ReviewStage) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger(format, args...)
	}
}
