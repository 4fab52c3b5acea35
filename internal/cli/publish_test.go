package cli

import (
	"encoding/json"
	"os/exec"
	"testing"

	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/ariel-frischer/changeset/internal/history"
	"github.com/ariel-frischer/changeset/internal/lock"
	"github.com/ariel-frischer/changeset/internal/publish"
	"github.com/ariel-frischer/changeset/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commitAll turns the project into a git repository with everything committed.
func commitAll(t *testing.T, p *testutil.Project) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	runGit := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = p.Dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	runGit("init", "-b", "main")
	runGit("config", "user.email", "test@test.com")
	runGit("config", "user.name", "Test User")
	runGit("config", "commit.gpgsign", "false")
	runGit("add", ".")
	runGit("commit", "-m", "initial commit")
}

func TestPublishPreflightOutsideGit(t *testing.T) {
	tests := map[string]struct {
		args      []string
		jsonOut   bool
		wantInErr string
	}{
		"text output": {
			args:      []string{"publish", "--ci", "--skip-npm-publish"},
			wantInErr: "not a git repository",
		},
		"json output": {
			args:    []string{"publish", "--ci", "--skip-npm-publish", "--output", "json"},
			jsonOut: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := initProject(t, "1.0.0")
			p.Add(t, changeset.Minor, "Add retry support")

			r := runCLI(t, p.Dir, "", tt.args...)
			require.Error(t, r.err)
			assert.Equal(t, ExitValidationFailed, ExitCode(r.err))
			assert.Len(t, pendingIDs(t, p), 1)
			assert.Equal(t, "1.0.0", manifestVersion(t, p))

			if tt.jsonOut {
				var res publish.Result
				require.NoError(t, json.Unmarshal([]byte(r.stdout), &res))
				assert.False(t, res.Success)
				assert.Contains(t, res.Errors[0], "not a git repository")
				assert.Empty(t, r.stderr, "json mode reports through the result only")
				return
			}
			assert.Contains(t, r.stderr, tt.wantInErr)

			h, err := history.LoadHistory(p.ChangesetDir)
			require.NoError(t, err)
			last := h.Last(publish.CommandPublish)
			require.NotNil(t, last, "failed runs are recorded")
			assert.False(t, last.Success)
		})
	}
}

func TestPublishFlagErrors(t *testing.T) {
	tests := map[string][]string{
		"invalid access":         {"publish", "--ci", "--access", "secret"},
		"invalid output":         {"publish", "--ci", "--output", "yaml"},
		"confirm needs terminal": {"publish"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			p := initProject(t, "1.0.0")
			p.Add(t, changeset.Minor, "Add retry support")

			r := runCLI(t, p.Dir, "", args...)
			require.Error(t, r.err)
			assert.Equal(t, ExitInvalidArguments, ExitCode(r.err))
		})
	}
}

func TestPublishJSONEarlyFailures(t *testing.T) {
	tests := map[string]struct {
		args     []string
		holdLock bool
		wantCode int
		wantErr  string
	}{
		"invalid access": {
			args:     []string{"publish", "--ci", "--output", "json", "--access", "bogus"},
			wantCode: ExitInvalidArguments,
			wantErr:  `invalid --access "bogus"`,
		},
		"lock held": {
			args:     []string{"publish", "--ci", "--output", "json"},
			holdLock: true,
			wantCode: ExitLocked,
			wantErr:  "project is locked",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := initProject(t, "1.0.0")
			p.Add(t, changeset.Minor, "Add retry support")
			if tt.holdLock {
				held, err := lock.Acquire(p.ChangesetDir, "publish")
				require.NoError(t, err)
				defer held.Release()
			}

			r := runCLI(t, p.Dir, "", tt.args...)
			require.Error(t, r.err)
			assert.Equal(t, tt.wantCode, ExitCode(r.err))
			assert.Empty(t, r.stderr)

			var res publish.Result
			require.NoError(t, json.Unmarshal([]byte(r.stdout), &res), r.stdout)
			assert.False(t, res.Success)
			require.Len(t, res.Errors, 1)
			assert.Contains(t, res.Errors[0], tt.wantErr)
			assert.Empty(t, res.Stages)
			assert.Equal(t, "1.0.0", manifestVersion(t, p))
		})
	}
}

func TestPublishDryRunInRepository(t *testing.T) {
	p := initProject(t, "1.0.0")
	p.Add(t, changeset.Minor, "Add retry support")
	p.Add(t, changeset.Patch, "Fix token refresh")
	commitAll(t, p)

	r := runCLI(t, p.Dir, "", "publish", "--dry-run", "--skip-npm-publish", "--skip-github-release", "-o", "json")
	require.NoError(t, r.err, r.stderr)

	var res publish.Result
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &res))
	assert.True(t, res.Success)
	assert.True(t, res.DryRun)
	assert.Equal(t, "1.1.0", res.Version)
	assert.Equal(t, "v1.1.0", res.GitTag)
	require.NotNil(t, res.Preview)
	assert.Equal(t, "1.0.0", res.Preview.Current)
	assert.Len(t, res.Preview.Changesets, 2)
	assert.Contains(t, res.Preview.Changelog, "Add retry support")

	assert.Len(t, pendingIDs(t, p), 2, "a dry run consumes nothing")
	assert.Equal(t, "1.0.0", manifestVersion(t, p))
}

func TestPublishDryRunText(t *testing.T) {
	p := initProject(t, "1.0.0")
	p.Add(t, changeset.Major, "Drop Node 16 support")
	commitAll(t, p)

	r := runCLI(t, p.Dir, "", "publish", "--dry-run", "--skip-npm-publish", "--skip-github-release")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Dry run: nothing was changed")
	assert.Contains(t, r.stdout, "v2.0.0")
	assert.Contains(t, r.stdout, "Drop Node 16 support")
}

func TestPublishDirtyTree(t *testing.T) {
	p := initProject(t, "1.0.0")
	commitAll(t, p)
	p.Add(t, changeset.Minor, "Add retry support")

	r := runCLI(t, p.Dir, "", "publish", "--ci", "--skip-npm-publish")
	require.Error(t, r.err)
	assert.Equal(t, ExitValidationFailed, ExitCode(r.err))
	assert.Contains(t, r.stderr, "uncommitted changes")
}
