package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// CategoryStyle is the color and icon of a bump classification.
type CategoryStyle struct {
	Color *color.Color
	Icon  string
}

var categoryStyles = map[changeset.Type]CategoryStyle{
	changeset.Major: {Color: color.New(color.FgRed), Icon: "⚠"},
	changeset.Minor: {Color: color.New(color.FgGreen), Icon: "✓"},
	changeset.Patch: {Color: color.New(color.FgYellow), Icon: "⚡"},
}

// FormatOptions controls terminal previews.
type FormatOptions struct {
	Plain    bool // markdown-like text without colors or icons
	MaxWidth int  // 0 detects the terminal width
}

const summaryPreviewLength = 60

// styler applies FormatOptions to the pieces of a preview.
type styler struct {
	plain bool
	width int
}

func newStyler(opts FormatOptions) styler {
	return styler{plain: opts.Plain, width: resolveWidth(opts.MaxWidth)}
}

func (s styler) paint(t changeset.Type, text string) string {
	if s.plain {
		return text
	}
	return categoryStyles[t].Color.Sprint(text)
}

func (s styler) bold(text string) string {
	if s.plain {
		return text
	}
	return color.New(color.Bold).Sprint(text)
}

func (s styler) dim(text string) string {
	if s.plain {
		return text
	}
	return color.New(color.Faint).Sprint(text)
}

// FormatEntry writes a preview of the changelog section for e.
func FormatEntry(e Entry, w io.Writer, opts FormatOptions) error {
	s := newStyler(opts)
	var sb strings.Builder

	fmt.Fprintf(&sb, "## %s\n", s.bold(fmt.Sprintf("v%s (%s)", e.Version, e.Date)))
	for _, sec := range e.Changes.Sections() {
		if s.plain {
			fmt.Fprintf(&sb, "\n### %s\n", sec.Title)
		} else {
			fmt.Fprintf(&sb, "\n%s %s\n", s.paint(sec.Kind, categoryStyles[sec.Kind].Icon), s.paint(sec.Kind, sec.Title))
		}
		for _, it := range sec.Items {
			sb.WriteString("  - " + s.paint(sec.Kind, wrapText(previewLine(it), s.width-4, "    ")) + "\n")
		}
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("writing changelog preview: %w", err)
	}
	return nil
}

// previewLine is an item's summary followed by its PR and author, if known.
func previewLine(it Item) string {
	line := it.Summary
	if it.PR > 0 {
		line += fmt.Sprintf(" (#%d)", it.PR)
	}
	if it.Author != "" {
		line += " @" + it.Author
	}
	return line
}

// FormatChangeset returns a one-line summary of a pending changeset.
func FormatChangeset(c changeset.Changeset, opts FormatOptions) string {
	text := truncateText(c.Summary, summaryPreviewLength)
	if opts.Plain {
		return fmt.Sprintf("[%s] %s (%s)", c.Type, text, c.ID)
	}
	s := styler{}
	return fmt.Sprintf("%s %s %s", s.paint(c.Type, categoryStyles[c.Type].Icon), text, s.dim(c.ID))
}

func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText breaks text at spaces so no line exceeds maxWidth runes. Words
// longer than maxWidth are split. Continuation lines start with indent.
func wrapText(text string, maxWidth int, indent string) string {
	if maxWidth <= 0 || utf8.RuneCountInString(text) <= maxWidth {
		return text
	}

	var lines []string
	var line []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > maxWidth {
			if len(line) > 0 {
				lines = append(lines, string(line))
				line = nil
			}
			lines = append(lines, string(w[:maxWidth]))
			w = w[maxWidth:]
		}
		switch {
		case len(line) == 0:
			line = w
		case len(line)+1+len(w) <= maxWidth:
			line = append(append(line, ' '), w...)
		default:
			lines = append(lines, string(line))
			line = w
		}
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return strings.Join(lines, "\n"+indent)
}

// truncateText shortens text to maxLen runes, ending in "...".
func truncateText(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen-3]) + "..."
}
