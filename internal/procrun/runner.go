package procrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/vk/confprobe/internal/ctxlog"
)

// DefaultTimeout bounds a single subprocess when the caller configures none.
const DefaultTimeout = 2 * time.Minute

// waitDelay is how long Wait keeps draining pipes after the child was killed.
const waitDelay = 2 * time.Second

// Result is the captured outcome of one child process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
}

// Success reports whether the child exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// SpawnError means the operating system could not start the child process.
type SpawnError struct {
	Argv []string
	Err  error
}

// Error implements the error interface for SpawnError.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", strings.Join(e.Argv, " "), e.Err)
}

// Unwrap returns the underlying exec error.
func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsSpawnError reports whether err (or anything it wraps) is a *SpawnError.
func IsSpawnError(err error) bool {
	var spawnErr *SpawnError
	return errors.As(err, &spawnErr)
}

// Runner executes commands. It is safe for concurrent use.
type Runner interface {
	Run(ctx context.Context, argv []string) (Result, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	// Timeout bounds each invocation. Zero means DefaultTimeout.
	Timeout time.Duration
	// Dir is the working directory of the child. Empty inherits ours.
	Dir string
	// Env, when non-nil, replaces the child's environment.
	Env []string
}

// NewExecRunner returns an ExecRunner bounded by timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run starts argv[0] with the remaining arguments and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, &SpawnError{Argv: argv, Err: errors.New("empty command")}
	}
	logger := ctxlog.FromContext(ctx).With("command", argv[0])

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Starting subprocess.", "argv", argv, "timeout", timeout)
	start := time.Now()
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("running %s: %w", argv[0], ctx.Err())
		}
		return Result{}, &SpawnError{Argv: argv, Err: err}
	}
	waitErr := cmd.Wait()

	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case runCtx.Err() != nil && ctx.Err() == nil:
		result.TimedOut = true
		result.ExitCode = -1
		logger.Warn("Subprocess exceeded its time limit and was killed.", "timeout", timeout)
	case ctx.Err() != nil:
		return result, fmt.Errorf("running %s: %w", argv[0], ctx.Err())
	case waitErr != nil:
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, fmt.Errorf("waiting for %s: %w", argv[0], waitErr)
		}
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	logger.Debug("Subprocess finished.", "exit_code", result.ExitCode, "duration", result.Duration)
	return result, nil
}
