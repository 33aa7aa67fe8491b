package errors

import (
	"fmt"
	"testing"
	"time"
)

func TestAdapterError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeLaunchInvalid, "program is required")
	if err.Code != ErrCodeLaunchInvalid {
		t.Errorf("expected code %s, got %s", ErrCodeLaunchInvalid, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeCommandFailed, "command failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeCommandFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeLaunchInvalid) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("field", "program").WithDetail("port", 8089)
	if detailed.Details["field"] != "program" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := InstallRootInvalid("/opt/hsp", "hspcmp.exe")
	if err.Code != ErrCodeInstallRootInvalid {
		t.Errorf("expected code %s, got %s", ErrCodeInstallRootInvalid, err.Code)
	}
	if err.Details["installRoot"] != "/opt/hsp" {
		t.Error("InstallRootInvalid should include installRoot detail")
	}

	err = CommandTimeout("hspcmp.exe", 15*time.Second)
	if err.Code != ErrCodeCommandTimeout {
		t.Errorf("expected code %s, got %s", ErrCodeCommandTimeout, err.Code)
	}
	if err.Details["timeout"] != "15s" {
		t.Errorf("unexpected timeout detail: %v", err.Details["timeout"])
	}

	err = SessionState("launch", "running")
	if err.Code != ErrCodeSessionState {
		t.Errorf("expected code %s, got %s", ErrCodeSessionState, err.Code)
	}
}

func TestGetCodeThroughWrapping(t *testing.T) {
	inner := ProcessSpawn("hsp3.exe", fmt.Errorf("no such file"))
	outer := fmt.Errorf("launch: %w", inner)

	if GetCode(outer) != ErrCodeProcessSpawn {
		t.Errorf("expected %s, got %s", ErrCodeProcessSpawn, GetCode(outer))
	}

	found, ok := As(outer)
	if !ok || found != inner {
		t.Error("As should find the wrapped AdapterError")
	}

	if _, ok := As(fmt.Errorf("plain")); ok {
		t.Error("As should not find an AdapterError in a plain error")
	}

	if GetCode(nil) != "" {
		t.Error("GetCode(nil) should be empty")
	}
}
