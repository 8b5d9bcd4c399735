// Package evidence persists a per-run audit trail: run metadata, per-stage
// records with attempt counts and fallback flags, and an append-only log of
// every script version the run produced.
package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunRecord captures run-level metadata.
type RunRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Objective string    `json:"objective"`
	Mode      string    `json:"mode"`
}

// StageRecord captures evidence for a single stage.
type StageRecord struct {
	Name           string      `json:"name"`
	Adapter        string      `json:"adapter,omitempty"`
	Model          string      `json:"model,omitempty"`
	Attempts       int         `json:"attempts"`
	Fallback       bool        `json:"fallback"`
	Output         string      `json:"output,omitempty"`
	Violations     []Violation `json:"violations,omitempty"`
	DurationMillis int64       `json:"duration_ms"`
}

// Violation mirrors gate violation details.
type Violation struct {
	Rule       string `json:"rule"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Writer writes evidence bundles under a run directory.
type Writer struct {
	runDir string
}

// NewWriter creates an evidence writer rooted at runDir.
func NewWriter(runDir string) (*Writer, error) {
	if runDir == "" {
		return nil, fmt.Errorf("run directory is required")
	}
	for _, sub := range []string{"stages", "scripts"} {
		if err := os.MkdirAll(filepath.Join(runDir, sub), 0o755); err != nil {
			return nil, err
		}
	}
	return &Writer{runDir: runDir}, nil
}

// RunDir returns the run directory path.
func (w *Writer) RunDir() string {
	return w.runDir
}

// WriteRun writes run metadata to run.json.
func (w *Writer) WriteRun(record RunRecord) error {
	return writeJSON(filepath.Join(w.runDir, "run.json"), record)
}

// WriteStage writes a stage record to stages/<stage>.json.
func (w *Writer) WriteStage(record StageRecord) error {
	path := filepath.Join(w.runDir, "stages", fmt.Sprintf("%s.json", record.Name))
	return writeJSON(path, record)
}

// WriteScriptVersion appends a script version to the scripts log. Versions
// are never overwritten; prior repair attempts stay inspectable.
func (w *Writer) WriteScriptVersion(version int, source string) error {
	path := filepath.Join(w.runDir, "scripts", fmt.Sprintf("automation_script.v%d.py", version))
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("script version %d already recorded", version)
	}
	return os.WriteFile(path, []byte(source), 0o644)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
