package cli

import (
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteByID(t *testing.T) {
	p := initProject(t, "1.0.0")
	keep := p.Add(t, changeset.Patch, "Fix token refresh")
	drop := p.Add(t, changeset.Minor, "Add retry support")

	r := runCLI(t, p.Dir, "", "delete", "--id", drop.ID)
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Deleted "+drop.ID)
	assert.Equal(t, []string{keep.ID}, pendingIDs(t, p))
}

func TestDeleteAll(t *testing.T) {
	tests := map[string]struct {
		args        []string
		stdin       string
		terminal    bool
		wantErr     bool
		wantPending int
		contains    string
	}{
		"with yes": {
			args:        []string{"delete", "--all", "--yes"},
			wantPending: 0,
			contains:    "Deleted 2 changesets",
		},
		"confirmed at the prompt": {
			args:        []string{"rm", "--all"},
			stdin:       "y\n",
			terminal:    true,
			wantPending: 0,
			contains:    "Deleted 2 changesets",
		},
		"declined at the prompt": {
			args:        []string{"delete", "--all"},
			stdin:       "n\n",
			terminal:    true,
			wantPending: 2,
			contains:    "Aborted.",
		},
		"no terminal and no yes": {
			args:        []string{"delete", "--all"},
			wantErr:     true,
			wantPending: 2,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if tt.terminal {
				withTerminal(t)
			}
			p := initProject(t, "1.0.0")
			p.Add(t, changeset.Patch, "Fix token refresh")
			p.Add(t, changeset.Minor, "Add retry support")

			r := runCLI(t, p.Dir, tt.stdin, tt.args...)
			if tt.wantErr {
				require.Error(t, r.err)
			} else {
				require.NoError(t, r.err, r.stderr)
				assert.Contains(t, r.stdout, tt.contains)
			}
			assert.Len(t, pendingIDs(t, p), tt.wantPending)
		})
	}
}

func TestDeleteErrors(t *testing.T) {
	tests := map[string]struct {
		args     []string
		wantCode int
	}{
		"unknown id":             {args: []string{"delete", "--id", "no-such-id"}, wantCode: ExitInvalidArguments},
		"id and all":             {args: []string{"delete", "--id", "x", "--all"}, wantCode: ExitInvalidArguments},
		"no id without terminal": {args: []string{"delete"}, wantCode: ExitInvalidArguments},
		"config record":          {args: []string{"delete", "--id", "config"}, wantCode: ExitInvalidArguments},
		"outside the store":      {args: []string{"delete", "--id", "../config"}, wantCode: ExitInvalidArguments},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := initProject(t, "1.0.0")
			p.Add(t, changeset.Patch, "Fix token refresh")

			r := runCLI(t, p.Dir, "", tt.args...)
			require.Error(t, r.err)
			assert.Equal(t, tt.wantCode, ExitCode(r.err))
			assert.Len(t, pendingIDs(t, p), 1)
			assert.FileExists(t, filepath.Join(p.ChangesetDir, "config.yml"))
		})
	}
}
