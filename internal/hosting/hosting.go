// Package hosting creates releases on the code-hosting platform through the
// GitHub CLI.
package hosting

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariel-frischer/changeset/internal/runner"
)

// Release describes a hosting-platform release.
type Release struct {
	Tag   string
	Title string
	Notes string
}

// GitHub drives the gh CLI from a repository directory.
type GitHub struct {
	run runner.Runner
	dir string
}

// New returns a GitHub client operating in dir.
func New(r runner.Runner, dir string) *GitHub {
	return &GitHub{run: r, dir: dir}
}

// Available reports whether the gh executable is on PATH.
func Available() bool {
	return runner.Available("gh")
}

// Authenticated reports whether gh has a logged-in account.
func (g *GitHub) Authenticated(ctx context.Context) bool {
	_, err := g.run.Run(ctx, g.dir, "gh", "auth", "status")
	return err == nil
}

// CreateRelease creates a release for an existing tag and returns its URL.
func (g *GitHub) CreateRelease(ctx context.Context, rel Release) (string, error) {
	title := rel.Title
	if title == "" {
		title = rel.Tag
	}
	notes := rel.Notes
	if strings.TrimSpace(notes) == "" {
		notes = "Release " + rel.Tag
	}

	res, err := g.run.Run(ctx, g.dir, "gh", "release", "create", rel.Tag,
		"--title", title, "--notes", notes, "--verify-tag")
	if err != nil {
		return "", fmt.Errorf("gh release create %s: %w", rel.Tag, err)
	}
	return releaseURL(res.Stdout), nil
}

// releaseURL picks the release link out of gh's output.
func releaseURL(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "https://") {
			return line
		}
	}
	return ""
}
