package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/hspdebug/pkg/paths"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLoggers(t *testing.T) {
	t.Helper()
	loggersMu.Lock()
	loggers = make(map[string]*logrus.Entry)
	loggersMu.Unlock()
	t.Cleanup(func() {
		loggersMu.Lock()
		loggers = make(map[string]*logrus.Entry)
		loggersMu.Unlock()
	})
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(paths.HomeEnv, home)
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	resetLoggers(t)
	return home
}

func TestNewLoggerIsCachedPerComponent(t *testing.T) {
	isolate(t)

	a := NewLogger("session")
	b := NewLogger("session")
	c := NewLogger("channel")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "session", a.Data["component"])
}

func TestNewLoggerWritesComponentFile(t *testing.T) {
	isolate(t)
	t.Setenv("HSPDEBUG_LOG_LEVEL", "debug")

	var stderr bytes.Buffer
	SetGlobalOutput(&stderr)
	t.Cleanup(func() { SetGlobalOutput(os.Stderr) })

	NewLogger("build").WithField("stage", "compile").Debug("starting")

	data, err := os.ReadFile(LogFilePath("build", time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "starting")
	assert.Contains(t, string(data), "stage=compile")
	assert.Contains(t, stderr.String(), "starting", "debug level enables the stderr sink")
}

func TestNewLoggerReadsConfigSection(t *testing.T) {
	isolate(t)
	logPath := filepath.Join(t.TempDir(), "custom.log")
	cwd, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "hspdebug.yml"), []byte(
		"logging:\n  level: warn\n  format:\n    preset: json\n    structured_to_stderr: never\n  file:\n    path: "+logPath+"\n"), 0644))

	log := NewLogger("adapter")
	assert.Equal(t, logrus.WarnLevel, log.Logger.Level)
	_, isJSON := log.Logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	log.Info("hidden")
	log.Warn("visible")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"msg":"visible"`)
}

func TestSetConfigFileOverridesProjectConfig(t *testing.T) {
	isolate(t)
	cwd, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "hspdebug.yml"), []byte("logging:\n  level: debug\n"), 0644))
	explicit := filepath.Join(t.TempDir(), "debug-settings.yml")
	require.NoError(t, os.WriteFile(explicit, []byte("logging:\n  level: warn\n"), 0644))

	before := NewLogger("adapter")
	assert.Equal(t, logrus.DebugLevel, before.Logger.Level)

	SetConfigFile(explicit)
	t.Cleanup(func() { SetConfigFile("") })

	after := NewLogger("adapter")
	assert.NotSame(t, before, after, "the cache is dropped")
	assert.Equal(t, logrus.WarnLevel, after.Logger.Level)
}

func TestEnvironmentVariables(t *testing.T) {
	isolate(t)
	t.Setenv("HSPDEBUG_LOG_LEVEL", "debug")
	t.Setenv("HSPDEBUG_LOG_CALLER", "true")

	logger := NewLogger("env-test")
	assert.Equal(t, logrus.DebugLevel, logger.Logger.Level)
	assert.True(t, logger.Logger.ReportCaller)
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name    string
		config  FormatConfig
		entry   *logrus.Entry
		want    []string
		notWant []string
	}{
		{
			name:   "default format",
			config: FormatConfig{},
			entry: &logrus.Entry{
				Level:   logrus.InfoLevel,
				Message: "test message",
				Data:    logrus.Fields{"component": "session", "seq": 3},
			},
			want: []string{"[INFO]", "session", "test message", "seq=3"},
		},
		{
			name:   "simple format",
			config: FormatConfig{DisableTimestamp: true, DisableComponent: true},
			entry: &logrus.Entry{
				Level:   logrus.WarnLevel,
				Message: "warning message",
				Data:    logrus.Fields{"component": "session"},
			},
			want:    []string{"[WARN]", "warning message"},
			notWant: []string{"session"},
		},
		{
			name:   "caller information",
			config: FormatConfig{},
			entry: func() *logrus.Entry {
				logger := logrus.New()
				logger.SetReportCaller(true)
				return &logrus.Entry{
					Logger:  logger,
					Level:   logrus.InfoLevel,
					Message: "with caller",
					Data:    logrus.Fields{},
					Caller: &runtime.Frame{
						File:     "/path/to/file.go",
						Line:     42,
						Function: "github.com/example/package.TestFunction",
					},
				}
			}(),
			want: []string{"[file.go:42 package.TestFunction]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &TextFormatter{Config: tt.config}
			output, err := formatter.Format(tt.entry)
			require.NoError(t, err)

			for _, want := range tt.want {
				assert.Contains(t, string(output), want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, string(output), notWant)
			}
		})
	}
}

func TestTextFormatterSortsFields(t *testing.T) {
	formatter := &TextFormatter{Config: FormatConfig{DisableTimestamp: true}}
	output, err := formatter.Format(&logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "m",
		Data:    logrus.Fields{"zeta": 1, "alpha": 2, "mid": 3},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(output), "alpha=2 mid=3 zeta=1\n"))
}

func TestTextFormatterQuotesAndOrdersError(t *testing.T) {
	formatter := &TextFormatter{Config: FormatConfig{DisableTimestamp: true}}
	output, err := formatter.Format(&logrus.Entry{
		Level:   logrus.ErrorLevel,
		Message: "launch failed",
		Data: logrus.Fields{
			logrus.ErrorKey: errors.New("exit status 1"),
			"program":       "C:/My Games/main.hsp",
			"attempt":       2,
		},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(output), `attempt=2 program="C:/My Games/main.hsp" error="exit status 1"`+"\n"))
}

func TestPrettyLogger(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrettyLogger().WithWriter(&buf)

	p.Success("Build succeeded")
	p.Field("runtime", "hsp3.exe")
	p.Code("line one\r\nline two\r\n")
	p.ErrorPretty("Build failed", errors.New("exit status 1"))

	out := buf.String()
	assert.Contains(t, out, "Build succeeded")
	assert.Contains(t, out, "hsp3.exe")
	assert.Contains(t, out, "  line one\n")
	assert.Contains(t, out, "  line two\n")
	assert.Contains(t, out, "exit status 1")
}

func TestIsDiagnostic(t *testing.T) {
	assert.True(t, isDiagnostic("hsptmp(3) : error 2 : syntax"))
	assert.True(t, isDiagnostic("#Error in line 3"))
	assert.True(t, isDiagnostic("#スクリプトエラー"))
	assert.False(t, isDiagnostic("#HSP script preprocessor ver3.6"))
}
