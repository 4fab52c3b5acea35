package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ariel-frischer/changeset/internal/changelog"
	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/ariel-frischer/changeset/internal/history"
	"github.com/ariel-frischer/changeset/internal/hosting"
	"github.com/ariel-frischer/changeset/internal/registry"
	"github.com/ariel-frischer/changeset/internal/release"
	"github.com/ariel-frischer/changeset/internal/runner"
)

// debugLogger is an optional debug logging function.
var debugLogger func(format string, args ...any)

// SetDebugLogger sets the debug logging function for pipeline runs.
func SetDebugLogger(fn func(format string, args ...any)) {
	debugLogger = fn
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// CommandPublish is the marker and history command name of the pipeline.
const CommandPublish = "publish"

// VCS is the version-control capability the pipeline needs.
type VCS interface {
	Root() string
	CurrentBranch() (string, error)
	DirtyFiles(ctx context.Context) ([]string, error)
	LatestTag(prefix string) (string, error)
	TagExists(name string) (bool, error)
	Commit(ctx context.Context, message string, paths ...string) (bool, error)
	CreateTag(ctx context.Context, name, message string) error
	DeleteTag(ctx context.Context, name string) error
	Push(ctx context.Context, remote string) error
	PushTag(ctx context.Context, remote, tag string) error
	DeleteRemoteTag(ctx context.Context, remote, tag string) error
}

// Registry publishes the package.
type Registry interface {
	Publish(ctx context.Context, opts registry.Options) error
}

// Hosting creates the hosting-platform release.
type Hosting interface {
	CreateRelease(ctx context.Context, rel hosting.Release) (string, error)
}

// Reporter observes stage transitions, e.g. to drive a spinner.
type Reporter interface {
	StageStarted(s Stage)
	StageFinished(s Stage, err error)
	StageSkipped(s Stage, reason string)
}

type nopReporter struct{}

func (nopReporter) StageStarted(Stage)         {}
func (nopReporter) StageFinished(Stage, error) {}
func (nopReporter) StageSkipped(Stage, string) {}

// Orchestrator runs the pipeline for one project. Git is nil when the
// project is not inside a repository.
type Orchestrator struct {
	Store    *changeset.Store
	Settings release.Settings
	Config   Config
	Git      VCS
	Registry Registry
	Hosting  Hosting
	// Runner executes the build and test commands.
	Runner   runner.Runner
	Reporter Reporter
	History  *history.Writer
	Commits  release.CommitResolver
	// Available reports whether an external tool is installed.
	Available func(name string) bool
	Now       func() time.Time
	Warn      io.Writer
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) reporter() Reporter {
	if o.Reporter != nil {
		return o.Reporter
	}
	return nopReporter{}
}

func (o *Orchestrator) available(name string) bool {
	if o.Available != nil {
		return o.Available(name)
	}
	return runner.Available(name)
}

func (o *Orchestrator) projectDir() string {
	return filepath.Dir(o.Settings.ManifestPath)
}

func (o *Orchestrator) tagPrefix() string {
	if o.Config.TagPrefix == "" {
		return "v"
	}
	return o.Config.TagPrefix
}

func (o *Orchestrator) remote() string {
	if o.Config.Remote == "" {
		return "origin"
	}
	return o.Config.Remote
}

// Run executes the pipeline. The returned Result is never nil; err is a
// *PreflightError or *StageError when the run did not succeed.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	start := o.now()
	res := newResult()

	run := &pipelineRun{o: o, opts: opts, res: res}
	err := run.execute(ctx)
	if err != nil {
		res.fail(err)
	} else {
		res.Success = true
	}

	if o.History != nil && !opts.DryRun && !res.NothingToDo {
		o.History.LogEntry(history.HistoryEntry{
			Timestamp: start,
			Command:   CommandPublish,
			Version:   res.Version,
			Tag:       res.GitTag,
			Success:   res.Success,
			Consumed:  res.Consumed,
			Errors:    res.Errors,
			Warnings:  res.Warnings,
			Duration:  o.now().Sub(start).Round(time.Millisecond).String(),
		})
	}

	o.printWarnings(res)
	return res, err
}

func (o *Orchestrator) printWarnings(res *Result) {
	if o.Warn == nil {
		return
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(o.Warn, "Warning: %s\n", w)
	}
}

// pipelineRun is the mutable state of one Run.
type pipelineRun struct {
	o    *Orchestrator
	opts Options
	res  *Result
	pre  *preflight

	// prepared lists files written by the prepare step.
	prepared   []string
	markerPath string
	tagCreated bool

	// originals hold the release files as they were before prepare.
	originals     []fileSnapshot
	createdMarker bool
}

// fileSnapshot is a file's content at one point. A file that did not exist
// has existed false.
type fileSnapshot struct {
	path    string
	content []byte
	mode    os.FileMode
	existed bool
}

func snapshotFiles(paths ...string) ([]fileSnapshot, error) {
	snaps := make([]fileSnapshot, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			snaps = append(snaps, fileSnapshot{path: path})
			continue
		}
		if err != nil {
			return nil, err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, fileSnapshot{path: path, content: content, mode: info.Mode().Perm(), existed: true})
	}
	return snaps, nil
}

func (s fileSnapshot) restore() error {
	if !s.existed {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	if err := os.WriteFile(s.path, s.content, s.mode); err != nil {
		return err
	}
	return os.Chmod(s.path, s.mode)
}

func (p *pipelineRun) execute(ctx context.Context) error {
	o := p.o
	rep := o.reporter()

	rep.StageStarted(StageValidate)
	pre, err := o.validate(ctx, p.opts, p.res)
	rep.StageFinished(StageValidate, err)
	if err != nil {
		p.res.addStage(StageValidate, StatusFailed, err.Error())
		return err
	}
	p.pre = pre
	p.res.addStage(StageValidate, StatusOK, "")
	p.res.Version = pre.target.String()
	p.res.GitTag = pre.target.Tag(o.tagPrefix())

	if p.opts.DryRun {
		p.res.DryRun = true
		p.res.Preview = pre.preview()
		for _, sp := range o.stagePlan(p.opts)[1:] {
			status := StatusPlanned
			if sp.skip != "" {
				status = StatusSkipped
			}
			p.res.addStage(sp.stage, status, sp.skip)
		}
		logDebug("[publish] dry run for v%s", pre.target)
		return nil
	}

	plan := o.stagePlan(p.opts)
	steps := map[Stage]func(context.Context) error{
		StageBuild:           func(ctx context.Context) error { return o.runCommand(ctx, o.Config.BuildCommand) },
		StageTest:            func(ctx context.Context) error { return o.runCommand(ctx, o.Config.TestCommand) },
		StageTagAndPush:      p.tagAndPush,
		StageRegistryPublish: p.registryPublish,
	}

	for _, sp := range plan[1:] {
		if sp.stage == StageRemoteRelease {
			p.remoteRelease(ctx, sp.skip)
			continue
		}
		if err := p.runStage(ctx, sp, steps[sp.stage]); err != nil {
			return err
		}
	}

	p.consume(ctx)
	return nil
}

func (p *pipelineRun) runStage(ctx context.Context, sp stagePlanItem, fn func(context.Context) error) error {
	rep := p.o.reporter()
	if sp.skip != "" {
		rep.StageSkipped(sp.stage, sp.skip)
		p.res.addStage(sp.stage, StatusSkipped, sp.skip)
		return nil
	}

	rep.StageStarted(sp.stage)
	err := fn(ctx)
	rep.StageFinished(sp.stage, err)
	if err != nil {
		p.res.addStage(sp.stage, StatusFailed, err.Error())
		return &StageError{Stage: sp.stage, Err: err}
	}
	p.res.addStage(sp.stage, StatusOK, "")
	return nil
}

type stagePlanItem struct {
	stage Stage
	skip  string
}

// stagePlan decides which stages run. An empty skip reason means the stage runs.
func (o *Orchestrator) stagePlan(opts Options) []stagePlanItem {
	skip := func(flag bool, reason string) string {
		if flag {
			return reason
		}
		return ""
	}

	build := skip(opts.SkipBuild, "skipped by --skip-build")
	if build == "" && o.Config.BuildCommand == "" {
		build = "no build command configured"
	}
	test := skip(opts.SkipTest, "skipped by --skip-test")
	if test == "" && o.Config.TestCommand == "" {
		test = "no test command configured"
	}

	return []stagePlanItem{
		{stage: StageValidate},
		{stage: StageBuild, skip: build},
		{stage: StageTest, skip: test},
		{stage: StageTagAndPush},
		{stage: StageRegistryPublish, skip: skip(opts.SkipNpmPublish, "skipped by --skip-npm-publish")},
		{stage: StageRemoteRelease, skip: skip(opts.SkipGitHubRelease, "skipped by --skip-github-release")},
	}
}

func (o *Orchestrator) runCommand(ctx context.Context, command string) error {
	_, err := runner.RunLine(ctx, o.Runner, o.projectDir(), command)
	return err
}

// prepare writes the manifest and changelog for pending changesets and
// records the run in the state marker, which is committed with them.
func (p *pipelineRun) prepare() error {
	o := p.o
	plan := p.pre.plan
	if plan == nil || !plan.Info.HasChanges {
		return nil
	}

	originals, err := snapshotFiles(o.Settings.ManifestPath, o.Settings.ChangelogPath)
	if err != nil {
		return err
	}
	p.originals = originals

	dir := o.Settings.ChangesetDir
	st := p.pre.state
	if st == nil {
		st = release.NewState(CommandPublish, plan, o.now())
		if err := release.SaveState(dir, st); err != nil {
			return err
		}
		p.createdMarker = true
	}
	p.markerPath = release.StatePath(dir)

	files, err := plan.Apply(o.Settings)
	if err != nil {
		return err
	}
	p.prepared = files
	if st.Step == release.StepPrepared {
		return nil
	}
	return release.Advance(dir, st, release.StepPrepared, o.now())
}

func (p *pipelineRun) tagAndPush(ctx context.Context) error {
	o := p.o
	if err := p.prepare(); err != nil {
		p.restorePrepared()
		return fmt.Errorf("preparing release files: %w", err)
	}

	tag := p.res.GitTag
	paths := append([]string(nil), p.prepared...)
	if p.markerPath != "" {
		paths = append(paths, p.markerPath)
	}
	if len(paths) > 0 {
		msg := release.CommitMessage(o.Config.CommitMessage, p.pre.target)
		if _, err := o.Git.Commit(ctx, msg, paths...); err != nil {
			p.restorePrepared()
			return err
		}
	}

	exists, err := o.Git.TagExists(tag)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("tag %s already exists", tag)
	}

	if err := o.Git.CreateTag(ctx, tag, p.tagMessage()); err != nil {
		return err
	}
	p.tagCreated = true
	logDebug("[publish] created tag %s", tag)

	if p.opts.SkipGitPush {
		p.res.warn("git push skipped; tag " + tag + " exists only locally")
		return nil
	}

	if err := o.Git.Push(ctx, o.remote()); err != nil {
		p.rollbackTag(ctx, false)
		return err
	}
	if err := o.Git.PushTag(ctx, o.remote(), tag); err != nil {
		p.rollbackTag(ctx, false)
		return err
	}
	p.res.GitPushed = true
	return nil
}

// restorePrepared undoes an uncommitted prepare step: the release files get
// their earlier content back and a marker written by this run is removed.
// The pending changesets are untouched, so a rerun starts over.
func (p *pipelineRun) restorePrepared() {
	for _, snap := range p.originals {
		if err := snap.restore(); err != nil {
			p.res.warn(fmt.Sprintf("restoring %s: %v", snap.path, err))
		}
	}
	if p.createdMarker {
		if err := release.ClearState(p.o.Settings.ChangesetDir); err != nil {
			p.res.warn(err.Error())
		}
		p.createdMarker = false
	}
	p.originals, p.prepared, p.markerPath = nil, nil, ""
	logDebug("[publish] restored release files after a failed release commit")
}

// tagMessage is the annotated tag body: the version's changelog notes.
func (p *pipelineRun) tagMessage() string {
	title := "Release " + p.res.GitTag
	notes := p.releaseNotes()
	if notes == "" {
		return title
	}
	return title + "\n\n" + notes
}

func (p *pipelineRun) registryPublish(ctx context.Context) error {
	o := p.o
	if err := o.Registry.Publish(ctx, o.Config.Registry); err != nil {
		if p.tagCreated {
			p.rollbackTag(ctx, p.res.GitPushed)
		}
		return err
	}
	p.res.NpmPublished = true
	return nil
}

// rollbackTag deletes the tag created by this run. Remote deletion is best
// effort; a failed local deletion is reported as an error.
func (p *pipelineRun) rollbackTag(ctx context.Context, remote bool) {
	o := p.o
	tag := p.res.GitTag

	if err := o.Git.DeleteTag(ctx, tag); err != nil {
		p.res.Errors = append(p.res.Errors, fmt.Sprintf("rollback: %v", err))
	} else {
		p.tagCreated = false
		p.res.RolledBack = true
		logDebug("[publish] rolled back local tag %s", tag)
	}

	if remote {
		if err := o.Git.DeleteRemoteTag(ctx, o.remote(), tag); err != nil {
			p.res.warn(fmt.Sprintf("could not delete remote tag %s: %v", tag, err))
		} else {
			p.res.GitPushed = false
		}
	}
}

func (p *pipelineRun) remoteRelease(ctx context.Context, skip string) {
	o := p.o
	rep := o.reporter()

	if skip == "" && !p.res.GitPushed {
		skip = "tag was not pushed"
	}
	if skip != "" {
		rep.StageSkipped(StageRemoteRelease, skip)
		p.res.addStage(StageRemoteRelease, StatusSkipped, skip)
		return
	}

	rep.StageStarted(StageRemoteRelease)
	url, err := o.Hosting.CreateRelease(ctx, hosting.Release{
		Tag:   p.res.GitTag,
		Title: p.res.GitTag,
		Notes: p.releaseNotes(),
	})
	rep.StageFinished(StageRemoteRelease, err)
	if err != nil {
		p.res.addStage(StageRemoteRelease, StatusFailed, err.Error())
		p.res.warn(fmt.Sprintf("remote release failed: %v", err))
		return
	}
	p.res.addStage(StageRemoteRelease, StatusOK, url)
	p.res.ReleaseCreated = true
	p.res.ReleaseURL = url
}

// consume deletes the released changesets and the marker, then records the
// deletions in version control. Failures after the registry publish are
// warnings: the release itself already happened.
func (p *pipelineRun) consume(ctx context.Context) {
	o := p.o
	ids := p.pre.consumeIDs()
	if len(ids) == 0 {
		return
	}

	if err := o.Store.Consume(ids); err != nil {
		p.res.warn(fmt.Sprintf("consuming changesets: %v", err))
		return
	}
	p.res.Consumed = ids

	dir := o.Settings.ChangesetDir
	if err := release.ClearState(dir); err != nil {
		p.res.warn(err.Error())
	}

	paths := []string{release.StatePath(dir)}
	for _, id := range ids {
		paths = append(paths, o.Store.Path(id))
	}
	msg := fmt.Sprintf("chore(release): consume changesets for %s", p.res.GitTag)
	committed, err := o.Git.Commit(ctx, msg, paths...)
	if err != nil {
		p.res.warn(fmt.Sprintf("committing consumed changesets: %v", err))
		return
	}
	if committed && !p.opts.SkipGitPush {
		if err := o.Git.Push(ctx, o.remote()); err != nil {
			p.res.warn(fmt.Sprintf("pushing consumed changesets: %v", err))
		}
	}
}

// releaseNotes extracts the target version's section from the changelog.
func (p *pipelineRun) releaseNotes() string {
	doc, err := changelog.ReadDocument(p.o.Settings.ChangelogPath)
	if err != nil {
		logDebug("[publish] reading changelog for notes: %v", err)
		return ""
	}
	notes, err := changelog.Extract(doc, p.res.Version)
	if err != nil {
		logDebug("[publish] no changelog notes for v%s: %v", p.res.Version, err)
		return ""
	}
	return notes
}
