package command

import (
	"context"
	"os"
	"os/exec"
)

// Invocation describes one external tool run.
type Invocation struct {
	Name string
	Args []string
	// Dir is the working directory. Empty means the adapter's own.
	Dir string
	// Env is appended to the adapter's environment.
	Env []string
}

// Executor turns an Invocation into an exec.Cmd. Tests inject an implementation
// that records invocations or points at fake toolchain binaries.
type Executor interface {
	Command(ctx context.Context, inv Invocation) *exec.Cmd
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, inv Invocation) *exec.Cmd

// Command calls f.
func (f ExecutorFunc) Command(ctx context.Context, inv Invocation) *exec.Cmd {
	return f(ctx, inv)
}

// OSExecutor builds commands with os/exec. The context kills the tool when
// it is done.
var OSExecutor Executor = ExecutorFunc(func(ctx context.Context, inv Invocation) *exec.Cmd {
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...) //nolint:gosec // tool paths come from the install root
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	return cmd
})
