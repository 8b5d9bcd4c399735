// Package execute runs a finalized automation script as an external process
// and classifies the outcome. No retry happens at this layer: execution
// failure is terminal for a pipeline run and is reported, not recovered.
package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultTimeout bounds one script execution.
const DefaultTimeout = 10 * time.Minute

// Result captures the outcome of running a script.
type Result struct {
	Passed   bool   `json:"passed"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	TimedOut bool   `json:"timed_out"`
}

// Runner executes scripts through an external test-runner command.
type Runner struct {
	// Command is the runner binary, normally "pytest".
	Command string
	// Args are inserted between the command and the script path.
	Args    []string
	Timeout time.Duration
}

// NewRunner creates a runner with the defaults used by the pipeline.
func NewRunner() *Runner {
	return &Runner{
		Command: "pytest",
		Args:    []string{"--maxfail=1", "--disable-warnings", "-q"},
		Timeout: DefaultTimeout,
	}
}

// Run executes the script at scriptPath and returns a classified result.
// Both output streams are captured verbatim for diagnostics. A timeout is a
// distinct terminal state, not a crash.
func (r *Runner) Run(ctx context.Context, scriptPath string) (*Result, error) {
	if scriptPath == "" {
		return nil, fmt.Errorf("script path is required")
	}

	command := r.Command
	if command == "" {
		command = "pytest"
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, r.Args...), scriptPath)
	cmd := exec.CommandContext(runCtx, command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("run script: %w", err)
	}

	result.Passed = true
	return result, nil
}
