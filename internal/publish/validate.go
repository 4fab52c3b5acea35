package publish

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ariel-frischer/changeset/internal/gate"
	"github.com/ariel-frischer/changeset/internal/history"
	"github.com/ariel-frischer/changeset/internal/lock"
	"github.com/ariel-frischer/changeset/internal/manifest"
	"github.com/ariel-frischer/changeset/internal/release"
	"github.com/ariel-frischer/changeset/internal/semver"
)

// preflight is what Validate established about the release.
type preflight struct {
	manifest *manifest.Manifest
	// plan is nil when no changesets are pending.
	plan *release.Plan
	// state is the marker of an earlier run being resumed.
	state     *release.State
	target    semver.Version
	latestTag string
}

func (p *preflight) consumeIDs() []string {
	if p.state != nil {
		return p.state.Changesets
	}
	if p.plan != nil {
		return p.plan.IDs()
	}
	return nil
}

func (p *preflight) preview() *Preview {
	pv := &Preview{
		Current:    p.manifest.Version.String(),
		Target:     p.target.String(),
		Resumed:    p.state != nil,
		Changesets: []PendingChange{},
	}
	if p.plan == nil {
		return pv
	}
	pv.Current = p.plan.Info.Current.String()
	pv.HasChanges = p.plan.Info.HasChanges
	pv.ChangesByType = p.plan.Info.ChangesByType
	pv.Changelog = p.plan.Section
	for _, c := range p.plan.Changesets {
		pv.Changesets = append(pv.Changesets, PendingChange{ID: c.ID, Type: string(c.Type), Summary: c.Summary})
	}
	return pv
}

// validate runs the hard and advisory checks and derives the release target.
// Hard failures are collected and returned together.
func (o *Orchestrator) validate(ctx context.Context, opts Options, res *Result) (*preflight, error) {
	var failures []string
	pre := &preflight{}

	if o.Git == nil {
		failures = append(failures, "not a git repository")
	} else {
		dirty, err := o.Git.DirtyFiles(ctx)
		switch {
		case err != nil:
			failures = append(failures, err.Error())
		default:
			if dirty = o.relevantDirty(dirty); len(dirty) > 0 {
				failures = append(failures, fmt.Sprintf("working tree has uncommitted changes: %s", summarizePaths(dirty)))
			}
			if slices.Contains(dirty, o.repoRelative(release.StatePath(o.Settings.ChangesetDir))) {
				failures = append(failures, o.uncommittedMarkerHint())
			}
		}
	}

	if !manifest.Exists(o.Settings.ManifestPath) {
		failures = append(failures, fmt.Sprintf("manifest %s not found", o.Settings.ManifestPath))
	} else if m, err := manifest.Load(o.Settings.ManifestPath); err != nil {
		failures = append(failures, err.Error())
	} else {
		pre.manifest = m
		if m.Private && !opts.SkipNpmPublish {
			failures = append(failures, fmt.Sprintf("%s is marked private; use --skip-npm-publish", filepath.Base(m.Path)))
		}
	}

	if !opts.SkipNpmPublish && !o.available("npm") {
		failures = append(failures, "npm is not installed but registry publishing is enabled")
	}

	if len(failures) > 0 {
		return nil, &PreflightError{Failures: failures}
	}

	if err := o.derivePlan(pre); err != nil {
		return nil, &PreflightError{Failures: []string{err.Error()}}
	}

	o.advise(opts, res)

	latest, err := o.Git.LatestTag(o.tagPrefix())
	if err != nil {
		return nil, &PreflightError{Failures: []string{err.Error()}}
	}
	pre.latestTag = latest

	decision := gate.CanPublishTag(pre.target, latest, o.tagPrefix())
	if !decision.Allowed {
		res.NothingToDo = strings.HasPrefix(decision.Reason, gate.ReasonAlreadyReleased)
		return nil, &PreflightError{Failures: []string{decision.Reason}, NothingToDo: res.NothingToDo}
	}

	logDebug("[publish] target v%s (latest tag %q)", pre.target, latest)
	return pre, nil
}

// derivePlan sets the release target: the marker's target when resuming,
// the computed next version when changesets are pending, otherwise the
// manifest version as it stands.
func (o *Orchestrator) derivePlan(pre *preflight) error {
	dir := o.Settings.ChangesetDir

	st, err := release.LoadState(dir)
	if err != nil {
		return err
	}
	if st != nil {
		plan, err := release.ResumePlan(st, o.Store, o.Settings, o.now(), o.Commits)
		if err != nil {
			return err
		}
		pre.state, pre.plan, pre.target = st, plan, plan.Target()
		logDebug("[publish] resuming %s run %s for v%s", st.Command, st.RunID, st.Target)
		return nil
	}

	list, err := o.Store.ListAll()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		pre.target = pre.manifest.Version
		return nil
	}

	plan, err := release.NewPlan(pre.manifest, list, o.Settings, o.now(), o.Commits)
	if err != nil {
		return err
	}
	pre.plan, pre.target = plan, plan.Target()
	return nil
}

// advise records advisory findings. They never block the pipeline.
func (o *Orchestrator) advise(opts Options, res *Result) {
	branch, err := o.Git.CurrentBranch()
	switch {
	case err != nil:
		res.warn(fmt.Sprintf("could not determine current branch: %v", err))
	case branch == "":
		res.warn("releasing from a detached HEAD")
	case len(o.Config.ReleaseBranches) > 0 && !slices.Contains(o.Config.ReleaseBranches, branch):
		res.warn(fmt.Sprintf("releasing from branch %q (release branches: %s)",
			branch, strings.Join(o.Config.ReleaseBranches, ", ")))
	}

	if !opts.SkipBuild && o.Config.BuildCommand == "" {
		res.warn("no build command configured; build stage will be skipped")
	}
	if !opts.SkipTest && o.Config.TestCommand == "" {
		res.warn("no test command configured; test stage will be skipped")
	}
	if !opts.SkipGitHubRelease && !o.available("gh") {
		res.warn("gh is not installed; the remote release will fail")
	}
}

// relevantDirty drops the lock and history files, which are written by the
// tool itself while it runs.
func (o *Orchestrator) relevantDirty(files []string) []string {
	ignored := map[string]bool{}
	for _, name := range []string{lock.FileName, history.FileName} {
		ignored[o.repoRelative(filepath.Join(o.Settings.ChangesetDir, name))] = true
	}

	var out []string
	for _, f := range files {
		if !ignored[filepath.ToSlash(f)] {
			out = append(out, f)
		}
	}
	return out
}

func (o *Orchestrator) repoRelative(path string) string {
	root := o.Git.Root()
	abs, err := filepath.Abs(path)
	if err != nil || root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func summarizePaths(paths []string) string {
	const max = 5
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(paths[:max], ", "), len(paths)-max)
}

// uncommittedMarkerHint names the command that owns an uncommitted marker.
// version finishes its own runs; an uncommitted publish marker only remains
// after a crash and has to be discarded by hand.
func (o *Orchestrator) uncommittedMarkerHint() string {
	marker := release.StatePath(o.Settings.ChangesetDir)
	st, err := release.LoadState(o.Settings.ChangesetDir)
	if err == nil && st != nil && st.Command == CommandPublish {
		return fmt.Sprintf("an interrupted publish of v%s left uncommitted release files; revert %s and %s, then remove %s",
			st.Target, filepath.Base(o.Settings.ManifestPath), filepath.Base(o.Settings.ChangelogPath), marker)
	}
	return "an interrupted version run was found; run `changeset version` to finish it"
}
