// Package cli tests the changelog preview and extract commands.
// Related: internal/cli/changelog.go

package cli

import (
	"os"
	"strings"
	"testing"

	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangelogPreview(t *testing.T) {
	tests := map[string]struct {
		args     []string
		contains []string
	}{
		"default template": {
			args:     []string{"changelog"},
			contains: []string{"## v1.1.0", "Add retry support", "Fix token refresh"},
		},
		"detailed template with decoration": {
			args:     []string{"changelog", "--template", "detailed"},
			contains: []string{"## v1.1.0", "Add retry support", "@octo"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := initProject(t, "1.0.0")
			_, err := p.Store.CreateWith(changeset.Input{Type: changeset.Minor, Summary: "Add retry support", Author: "octo", PR: 12})
			require.NoError(t, err)
			p.Add(t, changeset.Patch, "Fix token refresh")

			r := runCLI(t, p.Dir, "", tt.args...)
			require.NoError(t, r.err, r.stderr)
			for _, want := range tt.contains {
				assert.Contains(t, r.stdout, want)
			}

			assert.Empty(t, p.ReadFile(t, "CHANGELOG.md"), "preview writes nothing")
			assert.Len(t, pendingIDs(t, p), 2, "preview consumes nothing")
		})
	}
}

func TestChangelogErrors(t *testing.T) {
	tests := map[string]struct {
		args     []string
		noAdd    bool
		wantCode int
	}{
		"no pending changesets": {
			args:     []string{"changelog"},
			noAdd:    true,
			wantCode: ExitMissingDependencies,
		},
		"unknown template": {
			args:     []string{"changelog", "--template", "fancy"},
			wantCode: ExitInvalidArguments,
		},
		"template and interactive": {
			args:     []string{"changelog", "--template", "github", "-i"},
			wantCode: ExitInvalidArguments,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := initProject(t, "1.0.0")
			if !tt.noAdd {
				p.Add(t, changeset.Minor, "Add retry support")
			}
			r := runCLI(t, p.Dir, "", tt.args...)
			require.Error(t, r.err)
			assert.Equal(t, tt.wantCode, ExitCode(r.err))
		})
	}
}

func TestChangelogWrite(t *testing.T) {
	p := initProject(t, "1.0.0")
	p.Add(t, changeset.Minor, "Add retry support")

	r := runCLI(t, p.Dir, "", "changelog", "--write")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Wrote v1.1.0 to CHANGELOG.md")

	doc := p.ReadFile(t, "CHANGELOG.md")
	assert.Contains(t, doc, "## v1.1.0")
	assert.Len(t, pendingIDs(t, p), 1, "write does not consume changesets")

	r = runCLI(t, p.Dir, "", "changelog", "--write")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stderr, "already has a section for v1.1.0")
	assert.Equal(t, 1, strings.Count(p.ReadFile(t, "CHANGELOG.md"), "## v1.1.0"))
}

func TestChangelogExtract(t *testing.T) {
	doc := `# Changelog

## v1.1.0 (2026-02-01)

### Minor Changes

- Add retry support

## v1.0.0 (2026-01-01)

### Patch Changes

- Fix token refresh
`

	tests := map[string]struct {
		args     []string
		contains string
		excludes string
		wantErr  bool
	}{
		"latest by default": {
			args:     []string{"changelog", "extract"},
			contains: "Add retry support",
			excludes: "Fix token refresh",
		},
		"explicit version": {
			args:     []string{"changelog", "extract", "1.0.0"},
			contains: "Fix token refresh",
			excludes: "Add retry support",
		},
		"v prefix": {
			args:     []string{"changelog", "extract", "v1.1.0"},
			contains: "Add retry support",
		},
		"unknown version": {
			args:    []string{"changelog", "extract", "3.0.0"},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := initProject(t, "1.1.0")
			require.NoError(t, os.WriteFile(p.ChangelogPath, []byte(doc), 0o644))

			r := runCLI(t, p.Dir, "", tt.args...)
			if tt.wantErr {
				require.Error(t, r.err)
				assert.Contains(t, r.stderr, "1.1.0", "available versions are listed")
				return
			}
			require.NoError(t, r.err, r.stderr)
			assert.Contains(t, r.stdout, tt.contains)
			if tt.excludes != "" {
				assert.NotContains(t, r.stdout, tt.excludes)
			}
			assert.NotContains(t, r.stdout, "## v", "the section header is not part of the notes")
		})
	}
}

func TestChangelogExtractEmpty(t *testing.T) {
	p := initProject(t, "1.0.0")
	r := runCLI(t, p.Dir, "", "changelog", "extract")
	require.Error(t, r.err)
}
