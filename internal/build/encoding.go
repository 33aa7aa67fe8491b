package build

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// EncodingMode selects how the helper treats source and output text.
type EncodingMode string

const (
	// EncodingAuto is resolved from the program text before compiling.
	EncodingAuto EncodingMode = "auto"
	// EncodingEnabled reads and writes UTF-8.
	EncodingEnabled EncodingMode = "enabled"
	// EncodingInput reads UTF-8 source only.
	EncodingInput EncodingMode = "input"
	// EncodingOutput writes UTF-8 output only.
	EncodingOutput EncodingMode = "output"
	// EncodingDisabled uses the legacy code page for both.
	EncodingDisabled EncodingMode = "disabled"
)

const (
	flagNoUTF8Input  = "--no-utf8-input"
	flagNoUTF8Output = "--no-utf8-output"
)

// utf8Includes are the runtime headers that imply a UTF-8 program.
var utf8Includes = [][]byte{
	[]byte(`#include "hsp3utf.as"`),
	[]byte(`#include "hsp3_64.as"`),
}

// ParseEncodingMode parses a mode name. The empty string means auto.
func ParseEncodingMode(s string) (EncodingMode, error) {
	switch m := EncodingMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return EncodingAuto, nil
	case EncodingAuto, EncodingEnabled, EncodingInput, EncodingOutput, EncodingDisabled:
		return m, nil
	default:
		return "", fmt.Errorf("unknown encoding mode %q (want auto, enabled, input, output or disabled)", s)
	}
}

// Flags returns the helper flags for a resolved mode.
// EncodingAuto must be resolved first; it yields no flags.
func (m EncodingMode) Flags() []string {
	switch m {
	case EncodingInput:
		return []string{flagNoUTF8Output}
	case EncodingOutput:
		return []string{flagNoUTF8Input}
	case EncodingDisabled:
		return []string{flagNoUTF8Input, flagNoUTF8Output}
	default:
		return nil
	}
}

// ResolveEncoding turns EncodingAuto into enabled or disabled by scanning
// the program for a UTF-8 runtime include. Other modes pass through.
func ResolveEncoding(mode EncodingMode, program string) (EncodingMode, error) {
	if mode != EncodingAuto && mode != "" {
		return mode, nil
	}

	data, err := os.ReadFile(program)
	if err != nil {
		return "", err
	}
	if DetectUTF8Program(data) {
		return EncodingEnabled, nil
	}
	return EncodingDisabled, nil
}

// DetectUTF8Program reports whether source includes a UTF-8 runtime header.
func DetectUTF8Program(source []byte) bool {
	for _, include := range utf8Includes {
		if bytes.Contains(source, include) {
			return true
		}
	}
	return false
}
