package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/hspdebug/cli"
	"github.com/grovetools/hspdebug/logging"
	"github.com/grovetools/hspdebug/pkg/paths"
	"github.com/grovetools/hspdebug/util/pathutil"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	logErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C34043", Dark: "#E82424"})
	logWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#77713F", Dark: "#E6C384"})
	logDebugStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8A8980", Dark: "#727169"})
)

type logsOptions struct {
	follow    bool
	lines     int
	component string
	file      string
}

// NewLogsCmd returns the command that prints and follows adapter log files.
func NewLogsCmd() *cobra.Command {
	opts := &logsOptions{}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show adapter logs",
		Long: `Print the most recent lines of today's log file for a component.

Components: session, build, channel, process, adapter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Keep printing lines as they are written")
	cmd.Flags().IntVarP(&opts.lines, "tail", "n", 50, "Number of trailing lines to print (0 for all)")
	cmd.Flags().StringVar(&opts.component, "component", "session", "Component whose log to show")
	cmd.Flags().StringVar(&opts.file, "file", "", "Log file to read instead of the component's default")

	return cmd
}

func runLogs(cmd *cobra.Command, opts *logsOptions) error {
	path, err := resolveLogFile(cmd, opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	lines, err := lastLines(path, opts.lines)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if os.IsNotExist(err) && !opts.follow {
		return fmt.Errorf("no log file at %s", path)
	}
	for _, line := range lines {
		fmt.Fprintln(out, renderLogLine(line))
	}

	if !opts.follow {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return followLog(ctx, path, out)
}

// resolveLogFile picks --file, then the configured logging.file.path, then
// the newest file of the component in the log directory.
func resolveLogFile(cmd *cobra.Command, opts *logsOptions) (string, error) {
	if opts.file != "" {
		return opts.file, nil
	}

	if cfg, err := cli.LoadConfig(cmd); err == nil {
		var logCfg logging.Config
		if err := cfg.UnmarshalExtension("logging", &logCfg); err == nil && logCfg.File.Path != "" {
			return pathutil.Expand(logCfg.File.Path)
		}
	}

	today := logging.LogFilePath(opts.component, time.Now())
	if _, err := os.Stat(today); err == nil {
		return today, nil
	}

	matches, err := filepath.Glob(filepath.Join(paths.LogDir(), opts.component+"-*.log"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return today, nil
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// lastLines returns the final n lines of path, or all of them when n <= 0.
func lastLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, scanner.Err()
}

func followLog(ctx context.Context, path string, out io.Writer) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:    stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return fmt.Errorf("failed to follow %s: %w", path, err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				continue
			}
			fmt.Fprintln(out, renderLogLine(line.Text))
		}
	}
}

// renderLogLine colors a log line by level. JSON lines are flattened to
// "time level [component] msg".
func renderLogLine(line string) string {
	level := ""
	text := line
	if gjson.Valid(line) {
		parsed := gjson.Parse(line)
		level = parsed.Get("level").String()
		text = strings.TrimSpace(fmt.Sprintf("%s %s [%s] %s",
			parsed.Get("time").String(),
			strings.ToUpper(level),
			parsed.Get("component").String(),
			parsed.Get("msg").String()))
	} else {
		upper := strings.ToUpper(line)
		for _, l := range []string{"ERROR", "FATAL", "PANIC", "WARN", "DEBUG", "TRACE"} {
			if strings.Contains(upper, "["+l+"]") {
				level = strings.ToLower(l)
				break
			}
		}
	}

	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		return logErrorStyle.Render(text)
	case "warn", "warning":
		return logWarnStyle.Render(text)
	case "debug", "trace":
		return logDebugStyle.Render(text)
	default:
		return text
	}
}
