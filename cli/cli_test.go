package cli

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/hspdebug/errors"
	"github.com/grovetools/hspdebug/logging"
	"github.com/grovetools/hspdebug/pkg/paths"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree() (*cobra.Command, *cobra.Command) {
	root := NewStandardCommand("hspdebug", "Debug adapter for HSP3 programs")
	build := &cobra.Command{
		Use:   "build <program>",
		Short: "Compile a script",
		Long: `Compile a script without starting a session.

Examples:
  # Compile with the default encoding
  hspdebug build main.hsp --root /opt/hsp3`,
		RunE: func(*cobra.Command, []string) error { return nil },
	}
	build.Flags().String("encoding", "auto", "UTF-8 handling")
	root.AddCommand(build)
	ApplyStyledHelpRecursive(root)
	return root, build
}

func TestRenderHelpRoot(t *testing.T) {
	root, _ := newTestTree()
	help := RenderHelp(root, 60)

	assert.Contains(t, help, "HSPDEBUG")
	assert.Contains(t, help, "COMMANDS")
	assert.Contains(t, help, "build")
	assert.Contains(t, help, "--verbose")
	assert.Contains(t, help, `Use "hspdebug [command] --help"`)
}

func TestRenderHelpLeafSplitsExamples(t *testing.T) {
	_, build := newTestTree()
	help := RenderHelp(build, 60)

	assert.Contains(t, help, "FLAGS")
	assert.Contains(t, help, "GLOBAL FLAGS")
	assert.Contains(t, help, "--encoding")
	assert.Contains(t, help, "(default: auto)")
	assert.Contains(t, help, "EXAMPLES")
	assert.Contains(t, help, "hspdebug build main.hsp --root /opt/hsp3")
	assert.NotContains(t, help, "Examples:")
	assert.NotContains(t, help, "--help")
}

func TestHelpGoesToCommandOutput(t *testing.T) {
	root, _ := newTestTree()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"build", "--help"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "HSPDEBUG BUILD")
}

func TestConfigFlagConfiguresLogging(t *testing.T) {
	t.Setenv(paths.HomeEnv, t.TempDir())
	path := filepath.Join(t.TempDir(), "debug-settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\n"), 0644))
	t.Cleanup(func() { logging.SetConfigFile("") })

	root, _ := newTestTree()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"build", "--config", path, "main.hsp"})
	require.NoError(t, root.Execute())

	assert.Equal(t, logrus.ErrorLevel, logging.NewLogger("cli-config").Logger.Level)
}

func TestErrorHandlerMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "missing compiler",
			err:  errors.InstallRootInvalid("/opt/hsp3", "hspcmp.exe"),
			want: []string{"hspcmp.exe not found in /opt/hsp3", "--root"},
		},
		{
			name: "busy channel port",
			err:  errors.ChannelListen("127.0.0.1:8089", stderrors.New("address in use")),
			want: []string{"cannot listen on 127.0.0.1:8089"},
		},
		{
			name: "plain error",
			err:  stderrors.New("boom"),
			want: []string{"boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			h := &ErrorHandler{Out: &out}
			assert.Equal(t, tt.err, h.Handle(tt.err))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestErrorHandlerVerboseDetails(t *testing.T) {
	var out bytes.Buffer
	h := &ErrorHandler{Verbose: true, Out: &out}
	_ = h.Handle(errors.ConfigInvalid("channel.port out of range"))

	assert.Contains(t, out.String(), "channel.port out of range")
	assert.Contains(t, out.String(), "Error details:")
}

func TestErrorHandlerNil(t *testing.T) {
	h := &ErrorHandler{Out: &bytes.Buffer{}}
	assert.NoError(t, h.Handle(nil))
}
