package script

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ScriptFileName is the single finalized script file inside an execution
// directory.
const ScriptFileName = "automation_script.py"

var slugInvalid = regexp.MustCompile(`[^\w\-.]`)

// Slug sanitizes an objective into a filesystem-safe directory component,
// capped at 30 characters.
func Slug(objective string) string {
	s := strings.ReplaceAll(objective, " ", "_")
	s = slugInvalid.ReplaceAllString(s, "_")
	if s == "" {
		s = "unknown"
	}
	if len(s) > 30 {
		s = s[:30]
	}
	return s
}

// ExecutionDir creates the unique execution-scoped directory for one pipeline
// run: <root>/executions/<slug>_<timestamp>. Concurrent and repeated runs
// never collide because the timestamp participates in the name.
func ExecutionDir(root, objective string, now time.Time) (string, error) {
	id := fmt.Sprintf("%s_%s", Slug(objective), now.UTC().Format("20060102_150405"))
	dir := filepath.Join(root, "executions", id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create execution dir: %w", err)
	}
	return dir, nil
}

// Write saves script source into the execution directory and returns the
// script path.
func Write(dir, source string) (string, error) {
	path := filepath.Join(dir, ScriptFileName)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}
	return path, nil
}
