package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/changeset/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo initializes a repository with one commit on main.
func newTestRepo(t *testing.T) (string, *Repo) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	runGit := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	runGit("init", "-b", "main")
	runGit("config", "user.email", "test@test.com")
	runGit("config", "user.name", "Test User")
	runGit("config", "commit.gpgsign", "false")
	runGit("config", "tag.gpgsign", "false")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"version":"1.0.0"}`), 0o644))
	runGit("add", ".")
	runGit("commit", "-m", "initial commit")

	repo, err := Open(dir, &runner.Exec{})
	require.NoError(t, err)
	return dir, repo
}

func TestOpenNotRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir, &runner.Exec{})
	assert.ErrorIs(t, err, ErrNotRepository)
	assert.False(t, IsRepository(dir))
}

func TestOpenFromSubdirectory(t *testing.T) {
	dir, _ := newTestRepo(t)
	sub := filepath.Join(dir, "packages", "a")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	repo, err := Open(sub, &runner.Exec{})
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(repo.Root())
	require.NoError(t, err)
	assert.Equal(t, resolved, got)
	assert.True(t, IsRepository(sub))
}

func TestCurrentBranch(t *testing.T) {
	_, repo := newTestRepo(t)
	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestTagLifecycle(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	latest, err := repo.LatestTag("v")
	require.NoError(t, err)
	assert.Empty(t, latest)

	for _, tag := range []string{"v1.0.0", "v1.10.0", "v1.2.0", "nightly", "vnext"} {
		require.NoError(t, repo.CreateTag(ctx, tag, "Release "+tag))
	}

	latest, err = repo.LatestTag("v")
	require.NoError(t, err)
	assert.Equal(t, "v1.10.0", latest, "versions compare numerically")

	exists, err := repo.TagExists("v1.2.0")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.DeleteTag(ctx, "v1.10.0"))
	exists, err = repo.TagExists("v1.10.0")
	require.NoError(t, err)
	assert.False(t, exists)

	latest, err = repo.LatestTag("v")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", latest)

	assert.Error(t, repo.CreateTag(ctx, "v1.2.0", ""), "duplicate tag must fail")
}

func TestCleanAndCommit(t *testing.T) {
	dir, repo := newTestRepo(t)
	ctx := context.Background()

	clean, err := repo.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"version":"1.1.0"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CHANGELOG.md"), []byte("# Changelog\n"), 0o644))

	files, err := repo.DirtyFiles(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"package.json", "CHANGELOG.md"}, files)

	committed, err := repo.Commit(ctx, "chore(release): v1.1.0", "package.json", "CHANGELOG.md")
	require.NoError(t, err)
	assert.True(t, committed)

	clean, err = repo.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	committed, err = repo.Commit(ctx, "nothing", "package.json")
	require.NoError(t, err)
	assert.False(t, committed)
}

func TestCommitStagesDeletions(t *testing.T) {
	dir, repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, os.Remove(filepath.Join(dir, "package.json")))
	committed, err := repo.Commit(ctx, "remove manifest", "package.json")
	require.NoError(t, err)
	assert.True(t, committed)

	clean, err := repo.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)
}

func TestRemoteURL(t *testing.T) {
	dir, repo := newTestRepo(t)

	url, err := repo.RemoteURL("origin")
	require.NoError(t, err)
	assert.Empty(t, url)
	assert.False(t, repo.HasRemote("origin"))

	cmd := exec.Command("git", "remote", "add", "origin", "git@github.com:acme/widget.git")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	repo, err = Open(dir, &runner.Exec{})
	require.NoError(t, err)
	url, err = repo.RemoteURL("origin")
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:acme/widget.git", url)
	assert.True(t, repo.HasRemote("origin"))
}

func TestIntroducingCommits(t *testing.T) {
	dir, repo := newTestRepo(t)
	ctx := context.Background()

	path := filepath.Join(".changeset", "brave-fox-run.yml")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".changeset"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, path), []byte("id: brave-fox-run\n"), 0o644))
	_, err := repo.Commit(ctx, "add changeset", path)
	require.NoError(t, err)

	commits := repo.IntroducingCommits(ctx, map[string]string{
		"brave-fox-run": path,
		"missing-one":   filepath.Join(".changeset", "missing-one.yml"),
	})
	assert.Len(t, commits, 1)
	assert.Len(t, commits["brave-fox-run"], 40)
}

func TestParseStatusOutput(t *testing.T) {
	tests := map[string]struct {
		output string
		want   []string
	}{
		"empty":     {output: "", want: nil},
		"modified":  {output: " M package.json\n", want: []string{"package.json"}},
		"untracked": {output: "?? .changeset/a.yml\n", want: []string{".changeset/a.yml"}},
		"renamed":   {output: "R  old.md -> new.md\n", want: []string{"new.md"}},
		"mixed": {
			output: " M a.go\nA  b.go\n D c.go\n",
			want:   []string{"a.go", "b.go", "c.go"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseStatusOutput(tt.output))
		})
	}
}
