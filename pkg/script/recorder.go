package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// DefaultRecorderTimeout bounds an interactive recording session.
const DefaultRecorderTimeout = 5 * time.Minute

// Recorder invokes the external interactive capture tool and collects the
// code it emits.
type Recorder struct {
	// Command is the recorder binary, normally "playwright".
	Command string
	Timeout time.Duration
}

// NewRecorder creates a recorder with defaults.
func NewRecorder() *Recorder {
	return &Recorder{Command: "playwright", Timeout: DefaultRecorderTimeout}
}

// Record launches the recorder against targetURL and returns the recorded
// code. An empty return with nil error means the recorder exited cleanly but
// captured nothing usable; the caller falls back to the template.
func (r *Recorder) Record(ctx context.Context, targetURL, workDir string) (string, error) {
	command := r.Command
	if command == "" {
		command = "playwright"
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultRecorderTimeout
	}

	outPath := filepath.Join(workDir, "recorded_script.py")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, command, "codegen", "--target", "python", "--output", outPath, targetURL)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("recorder timed out after %s", timeout)
		}
		return "", fmt.Errorf("recorder failed: %w: %s", err, stderr.String())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		// Clean exit without an output file is a valid outcome.
		return "", nil
	}
	_ = os.Remove(outPath)

	return string(data), nil
}
