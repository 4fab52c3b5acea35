package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// palette styles the parts of an error report.
type palette struct {
	label, category, message, fix, bullet, usage, warning func(a ...any) string
}

var (
	colored = palette{
		label:    color.New(color.FgRed, color.Bold).SprintFunc(),
		category: color.New(color.FgYellow).SprintFunc(),
		message:  color.New(color.FgRed).SprintFunc(),
		fix:      color.New(color.FgGreen, color.Bold).SprintFunc(),
		bullet:   color.New(color.FgGreen).SprintFunc(),
		usage:    color.New(color.FgCyan).SprintFunc(),
		warning:  color.New(color.FgYellow, color.Bold).SprintFunc(),
	}
	plain = palette{
		label: fmt.Sprint, category: fmt.Sprint, message: fmt.Sprint,
		fix: fmt.Sprint, bullet: fmt.Sprint, usage: fmt.Sprint, warning: fmt.Sprint,
	}
)

func currentPalette() palette {
	if color.NoColor {
		return plain
	}
	return colored
}

// FormatError renders err for a terminal. fatih/color detection decides
// whether colors are used, so NO_COLOR and pipes get plain text.
func FormatError(err *CLIError) string {
	return render(err, currentPalette())
}

// FormatErrorPlain renders err without colors.
func FormatErrorPlain(err *CLIError) string {
	return render(err, plain)
}

// render lays out:
//
//	Error [Category]: message
//
//	Usage: syntax
//
//	To fix this:
//	  • step
func render(err *CLIError, p palette) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s]: %s\n", p.label("Error"), p.category(err.Category.String()), p.message(err.Message))

	if err.Usage != "" {
		fmt.Fprintf(&sb, "\n%s %s\n", p.usage("Usage:"), p.usage(err.Usage))
	}

	if len(err.Remediation) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", p.fix("To fix this:"))
		for _, step := range err.Remediation {
			fmt.Fprintf(&sb, "  %s %s\n", p.bullet("•"), step)
		}
	}
	return sb.String()
}

// FprintError writes the rendered err to w.
func FprintError(w io.Writer, err *CLIError) {
	if err != nil {
		fmt.Fprint(w, FormatError(err))
	}
}

// FormatWarning renders a one-line "Warning: msg".
func FormatWarning(msg string) string {
	return currentPalette().warning("Warning:") + " " + msg + "\n"
}

// FprintWarnings writes each warning on its own line.
func FprintWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprint(w, FormatWarning(msg))
	}
}
