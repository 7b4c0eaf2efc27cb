package systemctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner runs an external program to completion.
//
// Implementations return nil on a zero exit status, a *LaunchError when the
// program could not be started, and an *ExitError on a non-zero exit status.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// LaunchError means the program never ran.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExitError means the program ran and reported failure.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

// ExecRunner runs programs with os/exec. Output goes to Stdout and Stderr,
// which default to the process's own streams. There is no timeout; ctx only
// carries cancellation.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates an ExecRunner attached to os.Stdout and os.Stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes name with args and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	line := strings.Join(append([]string{name}, args...), " ")
	slog.Debug("exec", "command", line)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", line, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: line, Code: exitErr.ExitCode()}
		}
		return &LaunchError{Command: line, Err: err}
	}
	return nil
}

var _ CommandRunner = (*ExecRunner)(nil)
