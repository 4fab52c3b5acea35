package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/ariel-frischer/changeset/internal/manifest"
	"github.com/ariel-frischer/changeset/internal/semver"
	"github.com/ariel-frischer/changeset/internal/versioning"
)

// debugLogger is an optional debug logging function.
var debugLogger func(format string, args ...any)

// SetDebugLogger sets the debug logging function for release runs.
func SetDebugLogger(fn func(format string, args ...any)) {
	debugLogger = fn
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// CommandVersion is the marker command name of the version flow.
const CommandVersion = "version"

// Committer records release files in version control.
type Committer interface {
	Commit(ctx context.Context, message string, paths ...string) (bool, error)
}

// Versioner runs the version flow: apply the bump, then consume.
type Versioner struct {
	Store    *changeset.Store
	Settings Settings
	Now      func() time.Time
	Commits  CommitResolver
	// Committer, when set, commits the release files with CommitMessage.
	Committer     Committer
	CommitMessage string
	Warn          io.Writer
}

// Outcome describes an applied version run.
type Outcome struct {
	Plan      *Plan
	Resumed   bool
	Files     []string
	Consumed  []string
	Committed bool
}

func (v *Versioner) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func (v *Versioner) warn(format string, args ...any) {
	w := v.Warn
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "Warning: "+format+"\n", args...)
}

// Interrupted returns the marker left by a crashed run, if any.
func (v *Versioner) Interrupted() (*State, error) {
	return LoadState(v.Settings.ChangesetDir)
}

// Preview computes the plan without writing anything.
func (v *Versioner) Preview() (*Plan, error) {
	return Compute(v.Store, v.Settings, v.now(), v.Commits)
}

// Apply writes plan and consumes its changesets. The marker is saved before
// the first write and removed only after consumption.
func (v *Versioner) Apply(ctx context.Context, plan *Plan) (*Outcome, error) {
	if !plan.Info.HasChanges {
		return &Outcome{Plan: plan}, nil
	}

	st := NewState(CommandVersion, plan, v.now())
	if err := SaveState(v.Settings.ChangesetDir, st); err != nil {
		return nil, err
	}
	logDebug("[release] applying v%s (run %s)", plan.Target(), st.RunID)
	return v.finish(ctx, plan, st, false)
}

// Resume completes the run recorded in st. Steps already on disk are
// skipped, so resuming twice is harmless.
func (v *Versioner) Resume(ctx context.Context, st *State) (*Outcome, error) {
	plan, err := ResumePlan(st, v.Store, v.Settings, v.now(), v.Commits)
	if err != nil {
		return nil, err
	}
	logDebug("[release] resuming run %s for v%s", st.RunID, st.Target)
	return v.finish(ctx, plan, st, true)
}

func (v *Versioner) finish(ctx context.Context, plan *Plan, st *State, resumed bool) (*Outcome, error) {
	out := &Outcome{Plan: plan, Resumed: resumed}
	dir := v.Settings.ChangesetDir

	files, err := plan.Apply(v.Settings)
	out.Files = files
	if err != nil {
		return out, err
	}
	if err := Advance(dir, st, StepPrepared, v.now()); err != nil {
		return out, err
	}

	if err := v.Store.Consume(st.Changesets); err != nil {
		return out, fmt.Errorf("consuming changesets: %w", err)
	}
	out.Consumed = st.Changesets
	if err := ClearState(dir); err != nil {
		return out, err
	}

	if v.Committer != nil {
		paths := []string{v.Settings.ManifestPath, v.Settings.ChangelogPath}
		for _, id := range st.Changesets {
			paths = append(paths, v.Store.Path(id))
		}
		msg := CommitMessage(v.CommitMessage, plan.Target())
		committed, err := v.Committer.Commit(ctx, msg, paths...)
		if err != nil {
			v.warn("release files were written but not committed: %v", err)
		} else {
			out.Committed = committed
		}
	}
	return out, nil
}

// ResumePlan rebuilds the plan recorded in st from the changesets that still
// exist. The recorded target wins over a recomputation so that a manifest
// already bumped by the crashed run is not bumped again.
func ResumePlan(st *State, store *changeset.Store, s Settings, now time.Time, commits CommitResolver) (*Plan, error) {
	from, err := semver.Parse(st.From)
	if err != nil {
		return nil, fmt.Errorf("release state: %w", err)
	}
	target, err := semver.Parse(st.Target)
	if err != nil {
		return nil, fmt.Errorf("release state: %w", err)
	}

	m, err := manifest.Load(s.ManifestPath)
	if err != nil {
		return nil, err
	}

	var list []changeset.Changeset
	for _, id := range st.Changesets {
		c, err := store.Get(id)
		if err != nil {
			if errors.Is(err, changeset.ErrNotFound) {
				continue
			}
			return nil, err
		}
		list = append(list, *c)
	}

	info := versioning.Calculate(from, list)
	info.Next = target
	info.HasChanges = true
	return buildPlan(info, m, list, s, now, commits)
}

// DefaultCommitMessage is used when no commit message is configured.
const DefaultCommitMessage = "chore(release): v{version}"

// CommitMessage expands {version} in template.
func CommitMessage(template string, v semver.Version) string {
	if template == "" {
		template = DefaultCommitMessage
	}
	return strings.ReplaceAll(template, "{version}", v.String())
}
