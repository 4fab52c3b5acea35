package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/ariel-frischer/changeset/internal/changelog"
	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/ariel-frischer/changeset/internal/config"
	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/git"
	"github.com/ariel-frischer/changeset/internal/history"
	"github.com/ariel-frischer/changeset/internal/lock"
	"github.com/ariel-frischer/changeset/internal/release"
	"github.com/ariel-frischer/changeset/internal/runner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isInteractive reports whether the command may prompt on its input.
var isInteractive = func(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// app holds what a command needs for one invocation. Configuration is loaded
// once here and passed to every collaborator.
type app struct {
	cfg   *config.Configuration
	store *changeset.Store
	// repo is nil outside a git repository.
	repo *git.Repo
	// exec runs git, npm and gh quietly.
	exec   runner.Runner
	out    io.Writer
	errOut io.Writer
}

// loadApp loads configuration for the project selected by --dir and opens
// the changeset store and, when present, the enclosing git repository.
func loadApp(cmd *cobra.Command) (*app, error) {
	dir := flagString(cmd, "dir")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, clierrors.Wrap(err, clierrors.Runtime)
		}
		dir = wd
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectDir:    dir,
		ConfigFile:    flagString(cmd, "config"),
		WarningWriter: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, clierrors.ConfigParseError(err)
	}

	a := &app{
		cfg:    cfg,
		exec:   &runner.Exec{},
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}
	a.store = changeset.NewStore(cfg.ChangesetPath(), changeset.WithWarningWriter(a.errOut))

	if git.IsRepository(cfg.ProjectDir) {
		repo, err := git.Open(cfg.ProjectDir, a.exec)
		if err != nil {
			return nil, clierrors.Wrap(err, clierrors.Runtime)
		}
		a.repo = repo
	}
	return a, nil
}

func flagString(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}

// requireInitialized fails when the changeset directory does not exist.
func (a *app) requireInitialized() error {
	info, err := os.Stat(a.store.Dir())
	if err != nil || !info.IsDir() {
		return clierrors.NotInitialized(a.store.Dir())
	}
	return nil
}

// settings describes the files a release touches.
func (a *app) settings() release.Settings {
	return release.Settings{
		ChangesetDir:   a.cfg.ChangesetPath(),
		ManifestPath:   a.cfg.ManifestPath(),
		ChangelogPath:  a.cfg.ChangelogPath(),
		ChangelogTitle: a.cfg.ChangelogTitle,
		Template:       a.cfg.ChangelogTemplate(),
		Render: changelog.RenderConfig{
			RepositoryURL: a.repositoryURL(),
			TagPrefix:     a.cfg.TagPrefix(),
		},
	}
}

// repositoryURL is the configured URL, or the one derived from the remote.
func (a *app) repositoryURL() string {
	if a.cfg.Repository.URL != "" {
		return a.cfg.Repository.URL
	}
	if a.repo == nil {
		return ""
	}
	remote, err := a.repo.RemoteURL(a.cfg.Repository.Remote)
	if err != nil {
		return ""
	}
	return changelog.RepositoryURL(remote)
}

// commitResolver looks up the commits that introduced changeset records.
func (a *app) commitResolver(ctx context.Context) release.CommitResolver {
	if a.repo == nil {
		return nil
	}
	return func(ids []string) map[string]string {
		paths := make(map[string]string, len(ids))
		for _, id := range ids {
			paths[id] = a.store.Path(id)
		}
		return a.repo.IntroducingCommits(ctx, paths)
	}
}

// acquireLock takes the project lock for command unless locking is disabled.
// The returned function releases it.
func (a *app) acquireLock(command string) (func(), error) {
	if !a.cfg.Lock.Enabled {
		return func() {}, nil
	}
	h, err := lock.Acquire(a.store.Dir(), command)
	if err != nil {
		var held *lock.HeldError
		if errors.As(err, &held) {
			return nil, clierrors.LockHeld(err, held.Path)
		}
		return nil, clierrors.Wrap(err, clierrors.Runtime)
	}
	return func() {
		if err := h.Release(); err != nil {
			fprintWarning(a.errOut, "releasing lock: "+err.Error())
		}
	}, nil
}

func (a *app) historyWriter() *history.Writer {
	w := history.NewWriter(a.store.Dir(), a.cfg.History.MaxEntries)
	w.Warn = a.errOut
	return w
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
