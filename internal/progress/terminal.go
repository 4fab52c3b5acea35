package progress

import (
	"os"

	"golang.org/x/term"
)

var (
	unicodeSymbols = ProgressSymbols{Checkmark: "✓", Failure: "✗", Skipped: "-", SpinnerSet: 14}
	asciiSymbols   = ProgressSymbols{Checkmark: "[OK]", Failure: "[FAIL]", Skipped: "[SKIP]", SpinnerSet: 9}
)

// DetectTerminalCapabilities inspects stdout and the environment.
func DetectTerminalCapabilities() TerminalCapabilities {
	fd := int(os.Stdout.Fd())
	width := 0
	tty := term.IsTerminal(fd)
	if tty {
		if w, _, err := term.GetSize(fd); err == nil {
			width = w
		}
	}
	return capabilitiesFor(tty, width, os.Getenv)
}

// capabilitiesFor applies the environment to the detected terminal. CI logs are
// never treated as a terminal. NO_COLOR and TERM=dumb drop color;
// CHANGESET_ASCII=1 and TERM=dumb drop Unicode glyphs.
func capabilitiesFor(tty bool, width int, getenv func(string) string) TerminalCapabilities {
	if getenv("CI") != "" {
		tty = false
	}
	if !tty {
		return TerminalCapabilities{}
	}
	dumb := getenv("TERM") == "dumb"
	return TerminalCapabilities{
		IsTTY:           true,
		SupportsColor:   getenv("NO_COLOR") == "" && !dumb,
		SupportsUnicode: getenv("CHANGESET_ASCII") != "1" && !dumb,
		Width:           width,
	}
}

// SelectSymbols returns the symbol set for caps: ✓/✗ with the braille
// spinner, or [OK]/[FAIL] with |/-\.
func SelectSymbols(caps TerminalCapabilities) ProgressSymbols {
	if caps.SupportsUnicode {
		return unicodeSymbols
	}
	return asciiSymbols
}
