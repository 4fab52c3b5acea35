package testutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ariel-frischer/changeset/internal/changeset"
)

// Project is a throwaway package directory with a manifest and a changeset store.
type Project struct {
	Dir           string
	ChangesetDir  string
	ManifestPath  string
	ChangelogPath string
	Store         *changeset.Store
}

// NewProject creates a package.json at version inside a temp directory.
func NewProject(t *testing.T, version string) *Project {
	t.Helper()

	dir := t.TempDir()
	p := &Project{
		Dir:           dir,
		ChangesetDir:  filepath.Join(dir, ".changeset"),
		ManifestPath:  filepath.Join(dir, "package.json"),
		ChangelogPath: filepath.Join(dir, "CHANGELOG.md"),
	}

	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	p.Store = changeset.NewStore(p.ChangesetDir,
		changeset.WithWarningWriter(io.Discard),
		changeset.WithClock(func() time.Time {
			start = start.Add(time.Minute)
			return start
		}),
	)

	manifest := fmt.Sprintf("{\n  \"name\": \"widget\",\n  \"version\": %q,\n  \"private\": false\n}\n", version)
	if err := os.WriteFile(p.ManifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return p
}

// Add creates a changeset and fails the test on error.
func (p *Project) Add(t *testing.T, typ changeset.Type, summary string) changeset.Changeset {
	t.Helper()
	c, err := p.Store.Create(typ, summary)
	if err != nil {
		t.Fatalf("creating changeset: %v", err)
	}
	return *c
}

// ReadFile returns the content of a file in the project, or "" if missing.
func (p *Project) ReadFile(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(p.Dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("reading %s: %v", name, err)
	}
	return string(data)
}
