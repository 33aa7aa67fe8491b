package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Adapter configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// Launch configuration errors. Fatal to one launch attempt only.
	ErrCodeLaunchInvalid      ErrorCode = "LAUNCH_INVALID"
	ErrCodeInstallRootInvalid ErrorCode = "INSTALL_ROOT_INVALID"

	// Build errors
	ErrCodeBuildFailed  ErrorCode = "BUILD_FAILED"
	ErrCodeBuildTimeout ErrorCode = "BUILD_TIMEOUT"

	// Command execution errors
	ErrCodeCommandTimeout  ErrorCode = "COMMAND_TIMEOUT"
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"

	// Debuggee channel errors
	ErrCodeChannelOrigin ErrorCode = "CHANNEL_ORIGIN"
	ErrCodeChannelFrame  ErrorCode = "CHANNEL_FRAME"
	ErrCodeChannelListen ErrorCode = "CHANNEL_LISTEN"

	// Debuggee process errors
	ErrCodeProcessSpawn   ErrorCode = "PROCESS_SPAWN"
	ErrCodeProcessCrashed ErrorCode = "PROCESS_CRASHED"

	// Protocol errors
	ErrCodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
	ErrCodeSessionState      ErrorCode = "SESSION_STATE"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// AdapterError represents a structured error with context
type AdapterError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *AdapterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AdapterError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *AdapterError) WithDetail(key string, value interface{}) *AdapterError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *AdapterError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new AdapterError
func New(code ErrorCode, message string) *AdapterError {
	return &AdapterError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AdapterError
func Wrap(err error, code ErrorCode, message string) *AdapterError {
	return &AdapterError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific AdapterError code
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	adapterErr, ok := err.(*AdapterError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return adapterErr.Code
}

// As returns the first AdapterError in the chain, if any.
func As(err error) (*AdapterError, bool) {
	for err != nil {
		if adapterErr, ok := err.(*AdapterError); ok {
			return adapterErr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}
