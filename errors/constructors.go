package errors

import (
	"fmt"
	"os/exec"
	"time"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *AdapterError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *AdapterError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// LaunchInvalid reports launch arguments that failed validation.
func LaunchInvalid(reason string) *AdapterError {
	return New(ErrCodeLaunchInvalid, fmt.Sprintf("invalid launch arguments: %s", reason)).
		WithDetail("reason", reason)
}

// InstallRootInvalid reports an install directory that has no compiler in it.
func InstallRootInvalid(root, compiler string) *AdapterError {
	return New(ErrCodeInstallRootInvalid,
		fmt.Sprintf("compiler %s not found in install directory %s", compiler, root)).
		WithDetail("installRoot", root).
		WithDetail("compiler", compiler)
}

// BuildFailed creates a build failure error carrying the raw tool output
func BuildFailed(stage string, output string) *AdapterError {
	return New(ErrCodeBuildFailed, fmt.Sprintf("build stage %s failed", stage)).
		WithDetail("stage", stage).
		WithDetail("output", output)
}

// CommandTimeout creates a command timeout error
func CommandTimeout(cmd string, timeout time.Duration) *AdapterError {
	return New(ErrCodeCommandTimeout,
		fmt.Sprintf("command %s did not finish within %s", cmd, timeout)).
		WithDetail("command", cmd).
		WithDetail("timeout", timeout.String())
}

// CommandNotFound creates a missing executable error
func CommandNotFound(cmd string, err error) *AdapterError {
	return Wrap(err, ErrCodeCommandNotFound, fmt.Sprintf("command not found: %s", cmd)).
		WithDetail("command", cmd)
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *AdapterError {
	adapterErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		adapterErr = adapterErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return adapterErr
}

// ChannelListen creates an error for a debuggee endpoint that could not be bound
func ChannelListen(addr string, err error) *AdapterError {
	return Wrap(err, ErrCodeChannelListen, fmt.Sprintf("cannot listen for the debuggee on %s", addr)).
		WithDetail("addr", addr)
}

// ProcessSpawn creates a debuggee spawn failure error
func ProcessSpawn(binary string, err error) *AdapterError {
	return Wrap(err, ErrCodeProcessSpawn, fmt.Sprintf("failed to start %s", binary)).
		WithDetail("binary", binary)
}

// ProtocolViolation reports a debuggee message the adapter does not understand
func ProtocolViolation(reason string, raw string) *AdapterError {
	return New(ErrCodeProtocolViolation, reason).
		WithDetail("message", raw)
}

// SessionState reports a request that is not valid in the current session state
func SessionState(request, state string) *AdapterError {
	return New(ErrCodeSessionState,
		fmt.Sprintf("%s is not allowed while the session is %s", request, state)).
		WithDetail("request", request).
		WithDetail("state", state)
}
