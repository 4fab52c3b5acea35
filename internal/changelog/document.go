package changelog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ariel-frischer/changeset/internal/semver"
)

// DefaultTitle is the title line written to new changelog documents.
const DefaultTitle = "# Changelog"

// VersionHeaderPrefix starts every version section header.
const VersionHeaderPrefix = "## "

// NewDocument returns the title and preamble for a fresh changelog.
func NewDocument(title, project string) string {
	if title == "" {
		title = DefaultTitle
	}
	subject := "this project"
	if project != "" {
		subject = project
	}
	return title + "\n\nAll notable changes to " + subject + " will be documented in this file.\n"
}

// Insert places section into doc below the title line and its preamble and
// above every existing version section. Content from the first existing
// section onward is kept byte for byte. Without a title line the section is
// prepended to the whole document.
func Insert(doc, section, title string) string {
	if title == "" {
		title = DefaultTitle
	}
	section = strings.TrimRight(section, "\n") + "\n"

	titleEnd, ok := findTitle(doc, title)
	if !ok {
		if strings.TrimSpace(doc) == "" {
			return section
		}
		return section + "\n" + doc
	}

	insertAt := findFirstSection(doc, titleEnd)
	head := strings.TrimRight(doc[:insertAt], "\n")
	rest := doc[insertAt:]

	out := head + "\n\n" + section
	if rest != "" {
		out += "\n" + rest
	}
	return out
}

// findTitle returns the offset just past the title line.
func findTitle(doc, title string) (int, bool) {
	offset := 0
	for _, line := range strings.SplitAfter(doc, "\n") {
		if strings.HasPrefix(line, title) {
			return offset + len(line), true
		}
		offset += len(line)
	}
	return 0, false
}

// findFirstSection returns the offset of the first "## " line at or after
// from, or len(doc) when there is none.
func findFirstSection(doc string, from int) int {
	offset := from
	for _, line := range strings.SplitAfter(doc[from:], "\n") {
		if strings.HasPrefix(line, VersionHeaderPrefix) {
			return offset
		}
		offset += len(line)
	}
	return len(doc)
}

// VersionNotFoundError is returned when a requested version doesn't exist.
type VersionNotFoundError struct {
	Version           string
	AvailableVersions []string
}

func (e *VersionNotFoundError) Error() string {
	if len(e.AvailableVersions) == 0 {
		return fmt.Sprintf("version %q not found (changelog has no versions)", e.Version)
	}
	return fmt.Sprintf("version %q not found (available: %s)",
		e.Version, strings.Join(e.AvailableVersions, ", "))
}

var versionHeaderPattern = regexp.MustCompile(`(?m)^## v(\d+\.\d+\.\d+) `)

// Versions lists the versions that have sections in doc, in document order
// (newest first for documents maintained by Insert).
func Versions(doc string) []string {
	matches := versionHeaderPattern.FindAllStringSubmatch(doc, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// LatestVersion returns the newest version with a section, if any.
func LatestVersion(doc string) (*semver.Version, bool) {
	var latest *semver.Version
	for _, raw := range Versions(doc) {
		v, err := semver.Parse(raw)
		if err != nil {
			continue
		}
		if latest == nil || latest.LessThan(v) {
			latest = &v
		}
	}
	return latest, latest != nil
}

// HasVersion reports whether doc already contains a section for version.
func HasVersion(doc string, version semver.Version) bool {
	pattern := regexp.MustCompile(`(?m)^## v` + regexp.QuoteMeta(version.String()) + ` `)
	return pattern.MatchString(doc)
}

// Extract returns the body of a version's section (without its header),
// trimmed of surrounding blank lines. The version may carry a "v" prefix.
func Extract(doc, version string) (string, error) {
	v, err := semver.Parse(strings.TrimPrefix(version, "v"))
	if err != nil {
		return "", err
	}

	header := regexp.MustCompile(`(?m)^## v` + regexp.QuoteMeta(v.String()) + ` .*$`)
	loc := header.FindStringIndex(doc)
	if loc == nil {
		return "", &VersionNotFoundError{Version: version, AvailableVersions: Versions(doc)}
	}

	body := doc[loc[1]:]
	if next := findFirstSection(body, 0); next < len(body) {
		body = body[:next]
	}
	return strings.Trim(body, "\n"), nil
}

// ReadDocument reads the changelog at path. A missing file reads as "".
func ReadDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading changelog %s: %w", path, err)
	}
	return string(data), nil
}

// WriteDocument atomically replaces the changelog at path.
func WriteDocument(path, doc string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating changelog directory: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing temp changelog: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp changelog: %w", err)
	}
	return nil
}

// Prepend inserts section into the changelog file at path, creating the
// document with a fresh title when it does not exist yet.
func Prepend(path, section, title, project string) error {
	doc, err := ReadDocument(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(doc) == "" {
		doc = NewDocument(title, project)
	}
	return WriteDocument(path, Insert(doc, section, title))
}
