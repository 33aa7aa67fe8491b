package build

import (
	"unicode/utf8"

	"github.com/grovetools/hspdebug/command"
	"golang.org/x/text/encoding/japanese"
)

// decodeToolText converts tool output to UTF-8. The Windows toolchain
// writes Shift_JIS unless told otherwise.
func decodeToolText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return decoded
}

// rawOutput joins stdout and stderr the way editors display build output.
func rawOutput(out *command.Output) string {
	if out == nil {
		return ""
	}
	text := decodeToolText(out.Stdout)
	if out.Stderr != "" {
		text += "\r\nERROR: " + decodeToolText(out.Stderr)
	}
	return text
}
