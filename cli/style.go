package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// palette holds the colors used by help and error output. Each color adapts
// to light and dark terminals.
type palette struct {
	Red    lipgloss.TerminalColor
	Orange lipgloss.TerminalColor
	Cyan   lipgloss.TerminalColor
	Blue   lipgloss.TerminalColor
	Violet lipgloss.TerminalColor
	Muted  lipgloss.TerminalColor
}

var colors = palette{
	Red:    lipgloss.AdaptiveColor{Light: "#C34043", Dark: "#FF5D62"},
	Orange: lipgloss.AdaptiveColor{Light: "#CC6B4E", Dark: "#FFA066"},
	Cyan:   lipgloss.AdaptiveColor{Light: "#5B8BBE", Dark: "#7E9CD8"},
	Blue:   lipgloss.AdaptiveColor{Light: "#4F7CAC", Dark: "#7FB4CA"},
	Violet: lipgloss.AdaptiveColor{Light: "#674D7A", Dark: "#957FB8"},
	Muted:  lipgloss.AdaptiveColor{Light: "#8A8980", Dark: "#727169"},
}

var (
	mutedStyle  = lipgloss.NewStyle().Foreground(colors.Muted)
	italicStyle = lipgloss.NewStyle().Italic(true)
)

// Honor NO_COLOR and CLICOLOR=0 in help, errors and the logs command.
func init() {
	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}
