package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequirePOSIXShell skips the test when fake tools cannot be written as
// /bin/sh scripts.
func RequirePOSIXShell(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake toolchain scripts need a POSIX shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

// WriteScript writes an executable shell script named name into dir and
// returns its path. The name may carry a Windows extension; the kernel
// dispatches on the shebang.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	RequirePOSIXShell(t)

	path := filepath.Join(dir, name)
	content := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0755))
	return path
}

// RandomString generates a random string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}

// FakeToolchain is an HSP3 install directory populated with shell scripts
// that mimic the compiler, the console runtime and the build helper.
//
// Every tool appends "<name> <args>" to calls.log in the install root.
// The helper's compile command echoes any "#Use runtime" line of the
// program, fails when the program contains FAIL, hangs when it contains
// HANG and otherwise writes start.ax next to the program.
type FakeToolchain struct {
	Root    string
	WorkDir string
}

// NewFakeToolchain creates an install root and a work directory holding
// the helper source.
func NewFakeToolchain(t *testing.T) *FakeToolchain {
	t.Helper()
	RequirePOSIXShell(t)

	base := t.TempDir()
	ft := &FakeToolchain{
		Root:    filepath.Join(base, "hsp3"),
		WorkDir: filepath.Join(base, "work"),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(ft.Root, "common"), 0755))
	require.NoError(t, os.MkdirAll(ft.WorkDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ft.Root, "hspcmp.dll"), []byte("dll"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(ft.WorkDir, "hsp3_build_cli.hsp"), []byte("; helper\n"), 0644))

	logCall := `echo "$(basename "$0") $*" >> "` + ft.callsLog() + `"`

	// hspcmp.exe --compath=<root>/common/ <hsp>
	WriteScript(t, ft.Root, "hspcmp.exe", logCall+`
hsp="$2"
ax="${hsp%.hsp}.ax"
if [ -f "`+filepath.Join(ft.Root, "delay_ax")+`" ]; then
  (sleep 0.3; : > "$ax") >/dev/null 2>&1 &
else
  : > "$ax"
fi
echo "compiled $hsp"`)

	// hsp3cl.exe <ax> make --hsp <root> <hsp>
	WriteScript(t, ft.Root, "hsp3cl.exe", logCall+`
out="$(dirname "$5")/hsp3_build_cli.exe"
cp "`+filepath.Join(ft.Root, "helper.sh")+`" "$out"
chmod +x "$out"
echo "made $out"`)

	// <helper> --hsp <root> compile <program> [flags]
	WriteScript(t, ft.Root, "helper.sh", logCall+`
prog="$4"
shift 4
echo "compile $(basename "$prog") $*"
grep '#Use runtime' "$prog" || true
if grep -q FAIL "$prog"; then
  echo "syntax error" >&2
  exit 1
fi
if grep -q HANG "$prog"; then
  exec sleep 30
fi
: > start.ax`)

	WriteScript(t, ft.Root, "hsp3.exe", logCall+`
echo "running $1"
exit 0`)

	return ft
}

func (ft *FakeToolchain) callsLog() string {
	return filepath.Join(ft.Root, "calls.log")
}

// DelayObjectFile makes hspcmp.exe write the helper object file in the
// background shortly after it exits.
func (ft *FakeToolchain) DelayObjectFile(t *testing.T) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(ft.Root, "delay_ax"), nil, 0644))
}

// WriteProgram writes an HSP script into a fresh directory and returns its path.
func (ft *FakeToolchain) WriteProgram(t *testing.T, name, content string) string {
	t.Helper()
	dir := filepath.Join(filepath.Dir(ft.Root), "src-"+RandomString(6))
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Calls returns the recorded tool invocations in order.
func (ft *FakeToolchain) Calls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(ft.callsLog())
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
