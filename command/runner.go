package command

import (
	"bytes"
	"context"
	stderrors "errors"
	"time"

	"github.com/grovetools/hspdebug/errors"
)

const (
	// DefaultTimeout is the ceiling for a single external tool invocation.
	DefaultTimeout = 15 * time.Second

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 10 * time.Minute

	// waitDelay bounds how long Wait blocks on pipes held open by
	// grandchildren after the tool itself has exited or been killed.
	waitDelay = 2 * time.Second
)

// Output is the captured result of one tool invocation.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Runner runs external tools to completion under a timeout.
type Runner struct {
	executor Executor
	timeout  time.Duration
}

// NewRunner creates a Runner backed by OSExecutor.
func NewRunner(timeout time.Duration) *Runner {
	return NewRunnerWithExecutor(OSExecutor, timeout)
}

// NewRunnerWithExecutor creates a Runner with a custom Executor.
func NewRunnerWithExecutor(exec Executor, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	return &Runner{executor: exec, timeout: timeout}
}

// Timeout returns the per-invocation ceiling.
func (r *Runner) Timeout() time.Duration {
	return r.timeout
}

// Run executes name with args in dir and waits for it.
//
// The returned Output is non-nil whenever the tool was started, including on
// timeout and non-zero exit; the error then carries COMMAND_TIMEOUT or
// COMMAND_FAILED. A tool that cannot be started yields COMMAND_NOT_FOUND and
// a nil Output.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) (*Output, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := r.executor.Command(runCtx, Invocation{Name: name, Args: args, Dir: dir})
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, errors.CommandNotFound(name, err)
	}
	err := cmd.Wait()

	out := &Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if stderrors.Is(runCtx.Err(), context.DeadlineExceeded) {
		out.TimedOut = true
		return out, errors.CommandTimeout(name, r.timeout)
	}
	if err != nil {
		return out, errors.CommandFailed(name, err)
	}
	return out, nil
}
