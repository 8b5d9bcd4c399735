package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestStoreRecordAndRecent(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	passed := true
	exitCode := 0
	reviewValid := false

	runs := []Run{
		{
			ID:        "run-1",
			StartedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			Objective: "first objective",
			Mode:      "generative",
			PlanSteps: 3,
		},
		{
			ID:           "run-2",
			StartedAt:    time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
			Objective:    "second objective",
			Mode:         "demonstrative",
			PlanSteps:    1,
			PlanFallback: true,
			ReviewValid:  &reviewValid,
			ScriptOrigin: "demonstrated",
			ScriptPath:   "/tmp/s.py",
			Passed:       &passed,
			ExitCode:     &exitCode,
		},
	}
	for _, run := range runs {
		if err := store.Record(run); err != nil {
			t.Fatalf("record %s: %v", run.ID, err)
		}
	}

	recent, err := store.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(recent))
	}
	if recent[0].ID != "run-2" {
		t.Fatalf("expected newest first, got %s", recent[0].ID)
	}

	got := recent[0]
	if got.ReviewValid == nil || *got.ReviewValid {
		t.Fatalf("review verdict not preserved: %+v", got.ReviewValid)
	}
	if got.Passed == nil || !*got.Passed || got.ExitCode == nil || *got.ExitCode != 0 {
		t.Fatalf("execution outcome not preserved: %+v", got)
	}
	if !got.PlanFallback {
		t.Fatal("plan fallback flag lost")
	}

	older := recent[1]
	if older.ReviewValid != nil || older.Passed != nil || older.ExitCode != nil {
		t.Fatalf("null fields should stay nil: %+v", older)
	}
}
