package changelog

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// RenderConfig carries per-invocation rendering settings.
type RenderConfig struct {
	// RepositoryURL is the https URL of the hosting repository (no trailing slash).
	// Empty disables link decoration.
	RepositoryURL string
	// TagPrefix is prepended to versions in compare URLs (default "v").
	TagPrefix string
}

// RenderFunc renders an entry into a Markdown section.
type RenderFunc func(e Entry, cfg RenderConfig) (string, error)

// FilePrefix selects a user template file: "file:path/to/template.md".
const FilePrefix = "file:"

// DefaultTemplate is used when no template is configured.
const DefaultTemplate = "default"

var templates = map[string]RenderFunc{
	"default":  renderDefault,
	"detailed": renderDetailed,
	"github":   renderGitHub,
}

// TemplateNames returns the built-in template identifiers, sorted.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownTemplateError is returned for a template name that is not registered.
type UnknownTemplateError struct {
	Name string
}

func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("unknown changelog template %q (available: %s, %s<path>)",
		e.Name, strings.Join(TemplateNames(), ", "), FilePrefix)
}

// Lookup resolves a template identifier to its render function.
func Lookup(name string) (RenderFunc, error) {
	if name == "" {
		name = DefaultTemplate
	}
	if path, ok := strings.CutPrefix(name, FilePrefix); ok {
		if path == "" {
			return nil, &UnknownTemplateError{Name: name}
		}
		return fileTemplate(path), nil
	}
	fn, ok := templates[name]
	if !ok {
		return nil, &UnknownTemplateError{Name: name}
	}
	return fn, nil
}

// Render renders an entry with the named template.
func Render(name string, e Entry, cfg RenderConfig) (string, error) {
	fn, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return fn(e, cfg)
}

// Heading returns the machine-matchable section header for an entry.
func Heading(e Entry) string {
	return fmt.Sprintf("%sv%s (%s)", VersionHeaderPrefix, e.Version, e.Date)
}

func renderDefault(e Entry, _ RenderConfig) (string, error) {
	return renderSections(e, func(it Item) string { return it.Summary }, ""), nil
}

func renderDetailed(e Entry, cfg RenderConfig) (string, error) {
	return renderSections(e, func(it Item) string { return decorateItem(it, cfg) }, ""), nil
}

func renderGitHub(e Entry, cfg RenderConfig) (string, error) {
	format := func(it Item) string {
		line := decorateItem(it, cfg)
		if link := commitLink(it, cfg); link != "" {
			line += " " + link
		}
		return line
	}
	return renderSections(e, format, compareLine(e, cfg)), nil
}

func renderSections(e Entry, item func(Item) string, intro string) string {
	var b strings.Builder
	b.WriteString(Heading(e))
	b.WriteString("\n")
	if intro != "" {
		b.WriteString("\n")
		b.WriteString(intro)
		b.WriteString("\n")
	}
	for _, s := range e.Changes.Sections() {
		b.WriteString("\n### ")
		b.WriteString(s.Title)
		b.WriteString("\n\n")
		for _, it := range s.Items {
			b.WriteString("- ")
			b.WriteString(item(it))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// decorateItem appends PR and author references. Missing data degrades to
// the bare summary.
func decorateItem(it Item, cfg RenderConfig) string {
	line := it.Summary
	if it.PR > 0 {
		if cfg.RepositoryURL != "" {
			line += fmt.Sprintf(" ([#%d](%s/pull/%d))", it.PR, cfg.RepositoryURL, it.PR)
		} else {
			line += fmt.Sprintf(" (#%d)", it.PR)
		}
	}
	if it.Author != "" {
		line += " by @" + it.Author
	}
	return line
}

func commitLink(it Item, cfg RenderConfig) string {
	if it.Commit == "" || cfg.RepositoryURL == "" {
		return ""
	}
	short := it.Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("([%s](%s/commit/%s))", short, cfg.RepositoryURL, it.Commit)
}

func compareLine(e Entry, cfg RenderConfig) string {
	url := CompareURL(e, cfg)
	if url == "" {
		return ""
	}
	return fmt.Sprintf("[Full changelog](%s)", url)
}

// CompareURL returns the hosting compare link between the previous and this
// version, or "" when either is unknown.
func CompareURL(e Entry, cfg RenderConfig) string {
	if e.Previous == nil || cfg.RepositoryURL == "" {
		return ""
	}
	prefix := cfg.TagPrefix
	if prefix == "" {
		prefix = "v"
	}
	return fmt.Sprintf("%s/compare/%s...%s", cfg.RepositoryURL, e.Previous.Tag(prefix), e.Version.Tag(prefix))
}

// fileTemplate renders a user-supplied body with plain placeholder
// substitution. The heading is always generated so that the section stays
// discoverable by version. Unknown placeholders are left as written.
func fileTemplate(path string) RenderFunc {
	return func(e Entry, cfg RenderConfig) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading changelog template %s: %w", path, err)
		}

		previous := ""
		if e.Previous != nil {
			previous = e.Previous.String()
		}

		r := strings.NewReplacer(
			"{{version}}", e.Version.String(),
			"{{date}}", e.Date,
			"{{previous}}", previous,
			"{{compare_url}}", CompareURL(e, cfg),
			"{{major}}", bulletList(e.Changes.Major, cfg),
			"{{minor}}", bulletList(e.Changes.Minor, cfg),
			"{{patch}}", bulletList(e.Changes.Patch, cfg),
		)
		body := strings.Trim(r.Replace(string(data)), "\n")

		var b strings.Builder
		b.WriteString(Heading(e))
		b.WriteString("\n")
		if body != "" {
			b.WriteString("\n")
			b.WriteString(body)
			b.WriteString("\n")
		}
		return b.String(), nil
	}
}

func bulletList(items []Item, cfg RenderConfig) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- " + decorateItem(it, cfg)
	}
	return strings.Join(lines, "\n")
}
