package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/hspdebug/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message for err based on its code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	red := lipgloss.NewStyle().Bold(true).Foreground(colors.Red)
	prefix := red.Render("Error:")
	adapterErr, _ := errors.As(err)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "%s configuration not found\n", prefix)
		fmt.Fprintln(h.Out, mutedStyle.Render("Create hspdebug.yml in the project or run 'hspdebug schema config' for the format."))

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(h.Out, "%s %s\n", prefix, adapterErr.Message)
		if adapterErr.Cause != nil {
			fmt.Fprintf(h.Out, "%v\n", adapterErr.Cause)
		}

	case errors.ErrCodeInstallRootInvalid:
		fmt.Fprintf(h.Out, "%s %s not found in %s\n", prefix,
			adapterErr.Details["compiler"], adapterErr.Details["installRoot"])
		fmt.Fprintln(h.Out, mutedStyle.Render("Pass the HSP3 install directory with --root."))

	case errors.ErrCodeChannelListen:
		fmt.Fprintf(h.Out, "%s cannot listen on %s\n", prefix, adapterErr.Details["addr"])
		fmt.Fprintln(h.Out, mutedStyle.Render("Another debug session may be running. Stop it or change channel.port."))

	case errors.ErrCodeCommandNotFound:
		fmt.Fprintf(h.Out, "%s required tool not found: %v\n", prefix, adapterErr.Details["command"])

	case errors.ErrCodeCommandTimeout:
		fmt.Fprintf(h.Out, "%s %s\n", prefix, adapterErr.Message)
		fmt.Fprintln(h.Out, mutedStyle.Render("Raise build.timeout in hspdebug.yml if the compiler is slow."))

	default:
		fmt.Fprintf(h.Out, "%s %v\n", prefix, err)
	}

	if h.Verbose && adapterErr != nil {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", adapterErr.ToJSON())
	}
	return err
}
