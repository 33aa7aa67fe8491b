package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	maxHelpWidth = 72
	minHelpWidth = 40
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colors.Orange)
	sectionStyle = lipgloss.NewStyle().Italic(true).Foreground(colors.Orange)
	commandStyle = lipgloss.NewStyle().Bold(true).Foreground(colors.Blue)
	flagStyle    = lipgloss.NewStyle().Foreground(colors.Violet)
	exampleStyle = lipgloss.NewStyle().Foreground(colors.Cyan)
)

// helpWidth is the width help text wraps at. Help goes to stdout, which is
// not a terminal when an editor runs the adapter.
func helpWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return maxHelpWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < minHelpWidth {
		return maxHelpWidth
	}
	return min(width, maxHelpWidth)
}

// SetStyledHelp applies the hspdebug help layout to a single command.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

// ApplyStyledHelpRecursive applies styled help to a command and all its
// subcommands and silences cobra's usage dump on errors.
// Call it after every subcommand has been added.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
	cmd.SetUsageFunc(func(*cobra.Command) error { return nil })
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

func styledHelpFunc(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, RenderHelp(cmd, helpWidth(out)))
}

// RenderHelp renders the help page of cmd wrapped at width.
func RenderHelp(cmd *cobra.Command, width int) string {
	var b strings.Builder
	body := lipgloss.NewStyle().Width(width - 1)

	b.WriteString(" " + titleStyle.Render(strings.ToUpper(cmd.CommandPath())) + "\n")

	description, examples := splitExamples(cmd.Long)
	if cmd.Short != "" {
		writeIndented(&b, italicStyle.Render(body.Render(cmd.Short)))
	}
	if description != "" && description != cmd.Short {
		b.WriteString("\n")
		writeIndented(&b, body.Render(description))
	}

	if cmd.Runnable() || cmd.HasSubCommands() {
		b.WriteString("\n " + sectionStyle.Render("USAGE") + "\n")
		if cmd.Runnable() {
			b.WriteString(" " + cmd.UseLine() + "\n")
		}
		if cmd.HasSubCommands() {
			b.WriteString(" " + cmd.CommandPath() + " [command]\n")
		}
	}

	if cmd.HasAvailableSubCommands() {
		b.WriteString("\n " + sectionStyle.Render("COMMANDS") + "\n")
		var subs []*cobra.Command
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				subs = append(subs, sub)
			}
		}
		pad := 0
		for _, sub := range subs {
			pad = max(pad, len(sub.Name()))
		}
		for _, sub := range subs {
			fmt.Fprintf(&b, " %s%s  %s\n", commandStyle.Render(sub.Name()), strings.Repeat(" ", pad-len(sub.Name())), sub.Short)
		}
	}

	writeFlags(&b, "FLAGS", cmd.LocalFlags())
	writeFlags(&b, "GLOBAL FLAGS", cmd.InheritedFlags())

	if cmd.Example != "" {
		examples = cmd.Example
	}
	if examples != "" {
		b.WriteString("\n " + sectionStyle.Render("EXAMPLES") + "\n")
		for _, line := range strings.Split(examples, "\n") {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
				b.WriteString("\n")
			case strings.HasPrefix(trimmed, "#"):
				b.WriteString("  " + mutedStyle.Render(trimmed) + "\n")
			default:
				b.WriteString("  " + exampleStyle.Render(trimmed) + "\n")
			}
		}
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(&b, "\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
	return b.String()
}

func writeFlags(b *strings.Builder, title string, set *pflag.FlagSet) {
	var flags []*pflag.Flag
	set.VisitAll(func(f *pflag.Flag) {
		if !f.Hidden && f.Name != "help" {
			flags = append(flags, f)
		}
	})
	if len(flags) == 0 {
		return
	}

	pad := 0
	for _, f := range flags {
		pad = max(pad, len(flagName(f)))
	}

	b.WriteString("\n " + sectionStyle.Render(title) + "\n")
	for _, f := range flags {
		name := flagName(f)
		usage := f.Usage
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" && f.DefValue != "0" {
			usage += mutedStyle.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
		}
		fmt.Fprintf(b, " %s%s  %s\n", flagStyle.Render(name), strings.Repeat(" ", pad-len(name)), usage)
	}
}

// flagName formats a flag as "-f, --flag" or "    --flag".
func flagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return "    --" + f.Name
}

// splitExamples splits a long description at its "Examples:" heading.
func splitExamples(long string) (description, examples string) {
	for _, marker := range []string{"\nExamples:\n", "\nExample:\n"} {
		if idx := strings.Index(long, marker); idx != -1 {
			return strings.TrimSpace(long[:idx]), strings.TrimSpace(long[idx+len(marker):])
		}
	}
	return strings.TrimSpace(long), ""
}

func writeIndented(b *strings.Builder, text string) {
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(" " + strings.TrimRight(line, " ") + "\n")
	}
}
