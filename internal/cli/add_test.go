package cli

import (
	"testing"

	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/ariel-frischer/changeset/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWithFlags(t *testing.T) {
	tests := map[string]struct {
		args     []string
		wantType changeset.Type
		wantErr  bool
		wantCode int
	}{
		"minor change": {
			args:     []string{"add", "--type", "minor", "--summary", "Add retry support"},
			wantType: changeset.Minor,
		},
		"short flags with extras": {
			args:     []string{"add", "-t", "patch", "-s", "Fix token refresh", "--author", "octo", "--pr", "42"},
			wantType: changeset.Patch,
		},
		"unknown type": {
			args:     []string{"add", "--type", "huge", "--summary", "Add retry support"},
			wantErr:  true,
			wantCode: ExitInvalidArguments,
		},
		"summary too short": {
			args:     []string{"add", "--type", "patch", "--summary", "fix"},
			wantErr:  true,
			wantCode: ExitInvalidArguments,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := testutil.NewProject(t, "1.0.0")
			r := runCLI(t, p.Dir, "", tt.args...)

			if tt.wantErr {
				require.Error(t, r.err)
				assert.Equal(t, tt.wantCode, ExitCode(r.err))
				assert.Empty(t, pendingIDs(t, p))
				return
			}
			require.NoError(t, r.err, r.stderr)
			list, err := p.Store.ListAll()
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, tt.wantType, list[0].Type)
			assert.Contains(t, r.stdout, "Created "+string(tt.wantType)+" changeset "+list[0].ID)
		})
	}
}

func TestAddRecordsAuthorAndPR(t *testing.T) {
	p := testutil.NewProject(t, "1.0.0")
	r := runCLI(t, p.Dir, "", "add", "-t", "patch", "-s", "Fix token refresh", "--author", "octo", "--pr", "42")
	require.NoError(t, r.err, r.stderr)

	list, err := p.Store.ListAll()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "octo", list[0].Author)
	assert.Equal(t, 42, list[0].PR)
}

func TestAddWithoutTerminal(t *testing.T) {
	p := testutil.NewProject(t, "1.0.0")
	r := runCLI(t, p.Dir, "", "add", "--type", "minor")

	require.Error(t, r.err)
	assert.Equal(t, ExitInvalidArguments, ExitCode(r.err))
	assert.Contains(t, r.stderr, "interactive terminal")
}

func TestAddPrompts(t *testing.T) {
	tests := map[string]struct {
		args        []string
		stdin       string
		wantType    changeset.Type
		wantSummary string
	}{
		"choose by number": {
			args:        []string{"add"},
			stdin:       "2\nAdd retry support\n",
			wantType:    changeset.Minor,
			wantSummary: "Add retry support",
		},
		"default type is patch": {
			args:        []string{"add"},
			stdin:       "\nFix token refresh\n",
			wantType:    changeset.Patch,
			wantSummary: "Fix token refresh",
		},
		"preset type becomes default": {
			args:        []string{"add", "--type", "major"},
			stdin:       "\nDrop Node 16 support\n",
			wantType:    changeset.Major,
			wantSummary: "Drop Node 16 support",
		},
		"invalid summary is asked again": {
			args:        []string{"add"},
			stdin:       "patch\nno\nFix token refresh\n",
			wantType:    changeset.Patch,
			wantSummary: "Fix token refresh",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			withTerminal(t)
			p := testutil.NewProject(t, "1.0.0")
			r := runCLI(t, p.Dir, tt.stdin, tt.args...)
			require.NoError(t, r.err, r.stderr)

			list, err := p.Store.ListAll()
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, tt.wantType, list[0].Type)
			assert.Equal(t, tt.wantSummary, list[0].Summary)
		})
	}
}

func TestAddPromptEndOfInput(t *testing.T) {
	withTerminal(t)
	p := testutil.NewProject(t, "1.0.0")
	r := runCLI(t, p.Dir, "2\n", "add")

	require.Error(t, r.err)
	assert.Empty(t, pendingIDs(t, p))
}
