package cli

import (
	"testing"
	"time"

	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/ariel-frischer/changeset/internal/history"
	"github.com/ariel-frischer/changeset/internal/lock"
	"github.com/ariel-frischer/changeset/internal/manifest"
	"github.com/ariel-frischer/changeset/internal/release"
	"github.com/ariel-frischer/changeset/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manifestVersion(t *testing.T, p *testutil.Project) string {
	t.Helper()
	m, err := manifest.Load(p.ManifestPath)
	require.NoError(t, err)
	return m.Version.String()
}

func TestVersionApply(t *testing.T) {
	p := initProject(t, "1.2.3")
	p.Add(t, changeset.Minor, "Add retry support")
	p.Add(t, changeset.Patch, "Fix token refresh")

	r := runCLI(t, p.Dir, "", "version", "--skip-confirm")
	require.NoError(t, r.err, r.stderr)

	assert.Contains(t, r.stdout, "Version bumped to 1.3.0")
	assert.Equal(t, "1.3.0", manifestVersion(t, p))
	assert.Empty(t, pendingIDs(t, p))

	changelog := p.ReadFile(t, "CHANGELOG.md")
	assert.Contains(t, changelog, "v1.3.0")
	assert.Contains(t, changelog, "Add retry support")
	assert.Contains(t, changelog, "Fix token refresh")

	st, err := release.LoadState(p.ChangesetDir)
	require.NoError(t, err)
	assert.Nil(t, st, "the marker is removed after a completed run")

	h, err := history.LoadHistory(p.ChangesetDir)
	require.NoError(t, err)
	last := h.Last(release.CommandVersion)
	require.NotNil(t, last)
	assert.True(t, last.Success)
	assert.Equal(t, "1.3.0", last.Version)
	assert.Len(t, last.Consumed, 2)
}

func TestVersionDryRun(t *testing.T) {
	p := initProject(t, "1.2.3")
	p.Add(t, changeset.Major, "Drop Node 16 support")

	r := runCLI(t, p.Dir, "", "version", "--dry-run")
	require.NoError(t, r.err, r.stderr)

	assert.Contains(t, r.stdout, "2.0.0 (major)")
	assert.Contains(t, r.stdout, "Drop Node 16 support")
	assert.Contains(t, r.stdout, "Dry run: no files were changed.")
	assert.Equal(t, "1.2.3", manifestVersion(t, p))
	assert.Len(t, pendingIDs(t, p), 1)
	assert.Empty(t, p.ReadFile(t, "CHANGELOG.md"))
}

func TestVersionWithoutChangesets(t *testing.T) {
	tests := map[string]struct {
		args     []string
		wantCode int
		contains string
	}{
		"ci mode succeeds": {
			args:     []string{"version", "--ci"},
			wantCode: ExitSuccess,
			contains: "Nothing to do",
		},
		"interactive mode fails": {
			args:     []string{"version", "-y"},
			wantCode: ExitMissingDependencies,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := initProject(t, "1.2.3")
			r := runCLI(t, p.Dir, "", tt.args...)
			assert.Equal(t, tt.wantCode, ExitCode(r.err))
			if tt.contains != "" {
				assert.Contains(t, r.stdout, tt.contains)
			}
			assert.Equal(t, "1.2.3", manifestVersion(t, p))
		})
	}
}

func TestVersionConfirmation(t *testing.T) {
	tests := map[string]struct {
		stdin       string
		wantVersion string
		contains    string
	}{
		"accepted": {stdin: "y\n", wantVersion: "1.2.4", contains: "Version bumped to 1.2.4"},
		"declined": {stdin: "n\n", wantVersion: "1.2.3", contains: "Aborted."},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			withTerminal(t)
			p := initProject(t, "1.2.3")
			p.Add(t, changeset.Patch, "Fix token refresh")

			r := runCLI(t, p.Dir, tt.stdin, "version")
			require.NoError(t, r.err, r.stderr)
			assert.Contains(t, r.stdout, tt.contains)
			assert.Equal(t, tt.wantVersion, manifestVersion(t, p))
		})
	}
}

func TestVersionRequiresTerminalForConfirmation(t *testing.T) {
	p := initProject(t, "1.2.3")
	p.Add(t, changeset.Patch, "Fix token refresh")

	r := runCLI(t, p.Dir, "", "version")
	require.Error(t, r.err)
	assert.Equal(t, ExitInvalidArguments, ExitCode(r.err))
	assert.Equal(t, "1.2.3", manifestVersion(t, p))
}

func TestVersionResumesInterruptedRun(t *testing.T) {
	p := initProject(t, "1.2.3")
	c := p.Add(t, changeset.Minor, "Add retry support")

	plan, err := release.Compute(p.Store, release.Settings{
		ChangesetDir:  p.ChangesetDir,
		ManifestPath:  p.ManifestPath,
		ChangelogPath: p.ChangelogPath,
	}, time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, release.SaveState(p.ChangesetDir, release.NewState(release.CommandVersion, plan, time.Now())))

	r := runCLI(t, p.Dir, "", "version", "--ci")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stderr, "resuming interrupted run")
	assert.Equal(t, "1.3.0", manifestVersion(t, p))
	assert.NotContains(t, pendingIDs(t, p), c.ID)

	st, err := release.LoadState(p.ChangesetDir)
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestVersionRefusesInterruptedPublish(t *testing.T) {
	p := initProject(t, "1.2.3")
	p.Add(t, changeset.Minor, "Add retry support")
	require.NoError(t, release.SaveState(p.ChangesetDir, &release.State{
		RunID:   "run-1",
		Command: "publish",
		From:    "1.2.3",
		Target:  "1.3.0",
	}))

	r := runCLI(t, p.Dir, "", "version", "--ci")
	require.Error(t, r.err)
	assert.Equal(t, ExitMissingDependencies, ExitCode(r.err))
	assert.Contains(t, r.stderr, "changeset publish")
	assert.Equal(t, "1.2.3", manifestVersion(t, p))
}

func TestVersionLockHeld(t *testing.T) {
	p := initProject(t, "1.2.3")
	p.Add(t, changeset.Patch, "Fix token refresh")

	held, err := lock.Acquire(p.ChangesetDir, "publish")
	require.NoError(t, err)
	defer held.Release()

	r := runCLI(t, p.Dir, "", "version", "--ci")
	require.Error(t, r.err)
	assert.Equal(t, ExitLocked, ExitCode(r.err))
	assert.Equal(t, "1.2.3", manifestVersion(t, p))
}
