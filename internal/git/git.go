// Package git provides the version-control adapter for the release pipeline.
// It uses the go-git library for read-only queries (repository detection,
// branch, tags, remotes) and the git CLI, through a runner, for mutations
// (commit, tag, push) so that user hooks and credentials apply.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/changeset/internal/runner"
	"github.com/ariel-frischer/changeset/internal/semver"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// ErrNotRepository is returned when no repository encloses the directory.
var ErrNotRepository = errors.New("not a git repository")

// Repo is a git repository rooted at a working tree.
type Repo struct {
	root string
	repo *git.Repository
	run  runner.Runner
}

// openRepo opens the repository enclosing path, walking up to find .git.
// If path is empty, the current working directory is used.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// Open opens the repository enclosing dir. CLI operations go through r.
func Open(dir string, r runner.Runner) (*Repo, error) {
	repo, err := openRepo(dir)
	if err != nil {
		return nil, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	root := worktree.Filesystem.Root()
	logDebug("[git] repository root: %s", root)
	return &Repo{root: root, repo: repo, run: r}, nil
}

// IsRepository reports whether dir is inside a git repository.
func IsRepository(dir string) bool {
	_, err := openRepo(dir)
	result := err == nil
	logDebug("[git] IsRepository(%s): %v", dir, result)
	return result
}

// Root returns the absolute path of the working tree.
func (r *Repo) Root() string {
	return r.root
}

// CurrentBranch returns the checked-out branch, or "" on a detached HEAD.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	if !head.Name().IsBranch() {
		logDebug("[git] CurrentBranch: detached HEAD state")
		return "", nil
	}
	return head.Name().Short(), nil
}

// Tags returns every tag name starting with prefix.
func (r *Repo) Tags(prefix string) ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return names, nil
}

// LatestTag returns the highest version among tags named prefix+X.Y.Z.
// Tags that do not parse as versions are ignored. Returns "" when there is
// no such tag.
func (r *Repo) LatestTag(prefix string) (string, error) {
	names, err := r.Tags(prefix)
	if err != nil {
		return "", err
	}

	var (
		latest    string
		latestVer semver.Version
	)
	for _, name := range names {
		v, err := semver.ParseTag(name, prefix)
		if err != nil {
			continue
		}
		if latest == "" || latestVer.LessThan(v) {
			latest, latestVer = name, v
		}
	}
	logDebug("[git] LatestTag(%q): %q", prefix, latest)
	return latest, nil
}

// TagExists reports whether a local tag with name exists.
func (r *Repo) TagExists(name string) (bool, error) {
	_, err := r.repo.Tag(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("looking up tag %s: %w", name, err)
}

// RemoteURL returns the first URL configured for remote.
func (r *Repo) RemoteURL(remote string) (string, error) {
	rem, err := r.repo.Remote(remote)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("looking up remote %s: %w", remote, err)
	}
	urls := rem.Config().URLs
	if len(urls) == 0 {
		return "", nil
	}
	return urls[0], nil
}

// HasRemote reports whether remote is configured.
func (r *Repo) HasRemote(remote string) bool {
	_, err := r.repo.Remote(remote)
	return err == nil
}

// DirtyFiles returns paths with uncommitted changes, untracked files included.
func (r *Repo) DirtyFiles(ctx context.Context) ([]string, error) {
	res, err := r.git(ctx, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return nil, fmt.Errorf("checking working tree status: %w", err)
	}
	return parseStatusOutput(res.Stdout), nil
}

// IsClean reports whether the working tree has no uncommitted changes.
func (r *Repo) IsClean(ctx context.Context) (bool, error) {
	files, err := r.DirtyFiles(ctx)
	if err != nil {
		return false, err
	}
	return len(files) == 0, nil
}

// parseStatusOutput extracts file paths from git status --porcelain output.
// Each line is "XY filename" where XY is a 2-character status code.
func parseStatusOutput(output string) []string {
	var files []string
	for _, line := range strings.Split(output, "\n") {
		// Leading spaces are part of the status code.
		if len(line) < 4 {
			continue
		}
		if name := extractFilename(line[3:]); name != "" {
			files = append(files, name)
		}
	}
	return files
}

// extractFilename handles both regular filenames and rename format.
func extractFilename(raw string) string {
	if _, after, found := strings.Cut(raw, " -> "); found {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(raw)
}

// Commit stages paths (additions, modifications and deletions) and commits
// them with message. Paths that neither exist nor are tracked are ignored.
// It is a no-op returning false when nothing is staged.
func (r *Repo) Commit(ctx context.Context, message string, paths ...string) (bool, error) {
	paths, err := r.stageable(ctx, paths)
	if err != nil {
		return false, err
	}
	if len(paths) > 0 {
		args := append([]string{"add", "--all", "--"}, paths...)
		if _, err := r.git(ctx, args...); err != nil {
			return false, fmt.Errorf("staging files: %w", err)
		}
	}

	if _, err := r.git(ctx, "diff", "--cached", "--quiet"); err == nil {
		logDebug("[git] Commit: nothing staged")
		return false, nil
	} else if !runner.IsExitError(err) {
		return false, fmt.Errorf("checking staged changes: %w", err)
	}

	if _, err := r.git(ctx, "commit", "-m", message); err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}
	return true, nil
}

// stageable drops paths git add would reject: never-tracked files that no
// longer exist on disk.
func (r *Repo) stageable(ctx context.Context, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		rel = append(rel, r.relative(p))
	}

	args := append([]string{"ls-files", "--"}, rel...)
	res, err := r.git(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tracked files: %w", err)
	}
	tracked := make(map[string]bool)
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tracked[line] = true
		}
	}

	var out []string
	for _, p := range rel {
		if tracked[filepath.ToSlash(p)] {
			out = append(out, p)
			continue
		}
		if _, err := os.Stat(filepath.Join(r.root, p)); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// relative returns p relative to the repository root.
func (r *Repo) relative(p string) string {
	if !filepath.IsAbs(p) {
		return p
	}
	rel, err := filepath.Rel(r.root, p)
	if err != nil {
		return p
	}
	return rel
}

// CreateTag creates an annotated tag at HEAD.
func (r *Repo) CreateTag(ctx context.Context, name, message string) error {
	if message == "" {
		message = name
	}
	if _, err := r.git(ctx, "tag", "-a", name, "-m", message); err != nil {
		return fmt.Errorf("creating tag %s: %w", name, err)
	}
	return nil
}

// DeleteTag removes a local tag.
func (r *Repo) DeleteTag(ctx context.Context, name string) error {
	if _, err := r.git(ctx, "tag", "-d", name); err != nil {
		return fmt.Errorf("deleting tag %s: %w", name, err)
	}
	return nil
}

// Push pushes the current branch to remote.
func (r *Repo) Push(ctx context.Context, remote string) error {
	if _, err := r.git(ctx, "push", remote, "HEAD"); err != nil {
		return fmt.Errorf("pushing to %s: %w", remote, err)
	}
	return nil
}

// PushTag pushes a single tag to remote.
func (r *Repo) PushTag(ctx context.Context, remote, tag string) error {
	if _, err := r.git(ctx, "push", remote, "refs/tags/"+tag); err != nil {
		return fmt.Errorf("pushing tag %s to %s: %w", tag, remote, err)
	}
	return nil
}

// DeleteRemoteTag removes a tag from remote.
func (r *Repo) DeleteRemoteTag(ctx context.Context, remote, tag string) error {
	if _, err := r.git(ctx, "push", remote, "--delete", "refs/tags/"+tag); err != nil {
		return fmt.Errorf("deleting tag %s on %s: %w", tag, remote, err)
	}
	return nil
}

// IntroducingCommits maps each path to the hash of the commit that added it.
// Paths that were never committed are omitted.
func (r *Repo) IntroducingCommits(ctx context.Context, paths map[string]string) map[string]string {
	out := make(map[string]string, len(paths))
	for key, path := range paths {
		res, err := r.git(ctx, "log", "--diff-filter=A", "--format=%H", "-1", "--", path)
		if err != nil {
			logDebug("[git] IntroducingCommits: %s: %v", path, err)
			continue
		}
		if hash := strings.TrimSpace(res.Stdout); hash != "" {
			out[key] = hash
		}
	}
	return out
}

func (r *Repo) git(ctx context.Context, args ...string) (*runner.Result, error) {
	return r.run.Run(ctx, r.root, "git", args...)
}
