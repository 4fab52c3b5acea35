package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariel-frischer/changeset/internal/hosting"
	"github.com/ariel-frischer/changeset/internal/registry"
	"github.com/ariel-frischer/changeset/internal/semver"
)

type fakeCommit struct {
	message string
	paths   []string
}

// fakeVCS is an in-memory repository. Calls are logged in order.
type fakeVCS struct {
	root       string
	branch     string
	dirty      []string
	tags       map[string]string
	remoteTags map[string]bool
	commits    []fakeCommit
	calls      []string

	errPush         error
	errPushTag      error
	errDeleteTag    error
	errDeleteRemote error
	errCommit       error
}

func newFakeVCS(root string) *fakeVCS {
	return &fakeVCS{
		root:       root,
		branch:     "main",
		tags:       map[string]string{},
		remoteTags: map[string]bool{},
	}
}

func (f *fakeVCS) Root() string { return f.root }

func (f *fakeVCS) CurrentBranch() (string, error) { return f.branch, nil }

func (f *fakeVCS) DirtyFiles(context.Context) ([]string, error) { return f.dirty, nil }

func (f *fakeVCS) LatestTag(prefix string) (string, error) {
	var latest string
	var latestVer semver.Version
	for name := range f.tags {
		v, err := semver.Parse(strings.TrimPrefix(name, prefix))
		if err != nil {
			continue
		}
		if latest == "" || latestVer.LessThan(v) {
			latest, latestVer = name, v
		}
	}
	return latest, nil
}

func (f *fakeVCS) TagExists(name string) (bool, error) {
	_, ok := f.tags[name]
	return ok, nil
}

func (f *fakeVCS) Commit(_ context.Context, message string, paths ...string) (bool, error) {
	f.calls = append(f.calls, "commit "+message)
	if f.errCommit != nil {
		return false, f.errCommit
	}
	f.commits = append(f.commits, fakeCommit{message: message, paths: paths})
	return true, nil
}

func (f *fakeVCS) CreateTag(_ context.Context, name, message string) error {
	f.calls = append(f.calls, "tag "+name)
	if _, ok := f.tags[name]; ok {
		return fmt.Errorf("tag %s exists", name)
	}
	f.tags[name] = message
	return nil
}

func (f *fakeVCS) DeleteTag(_ context.Context, name string) error {
	f.calls = append(f.calls, "delete-tag "+name)
	if f.errDeleteTag != nil {
		return f.errDeleteTag
	}
	delete(f.tags, name)
	return nil
}

func (f *fakeVCS) Push(_ context.Context, remote string) error {
	f.calls = append(f.calls, "push "+remote)
	return f.errPush
}

func (f *fakeVCS) PushTag(_ context.Context, remote, tag string) error {
	f.calls = append(f.calls, "push-tag "+tag)
	if f.errPushTag != nil {
		return f.errPushTag
	}
	f.remoteTags[tag] = true
	return nil
}

func (f *fakeVCS) DeleteRemoteTag(_ context.Context, remote, tag string) error {
	f.calls = append(f.calls, "delete-remote-tag "+tag)
	if f.errDeleteRemote != nil {
		return f.errDeleteRemote
	}
	delete(f.remoteTags, tag)
	return nil
}

func (f *fakeVCS) index(prefix string) int {
	for i, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}

type fakeRegistry struct {
	err   error
	calls []registry.Options
}

func (f *fakeRegistry) Publish(_ context.Context, opts registry.Options) error {
	f.calls = append(f.calls, opts)
	return f.err
}

type fakeHosting struct {
	err      error
	url      string
	releases []hosting.Release
}

func (f *fakeHosting) CreateRelease(_ context.Context, rel hosting.Release) (string, error) {
	f.releases = append(f.releases, rel)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type recordingReporter struct {
	events []string
}

func (r *recordingReporter) StageStarted(s Stage) {
	r.events = append(r.events, "start "+string(s))
}

func (r *recordingReporter) StageFinished(s Stage, err error) {
	status := "ok"
	if err != nil {
		status = "fail"
	}
	r.events = append(r.events, status+" "+string(s))
}

func (r *recordingReporter) StageSkipped(s Stage, _ string) {
	r.events = append(r.events, "skip "+string(s))
}

var errRegistry = errors.New("npm ERR! 403 Forbidden")
