package publish

import (
	"github.com/ariel-frischer/changeset/internal/registry"
	"github.com/ariel-frischer/changeset/internal/versioning"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageValidate        Stage = "validate"
	StageBuild           Stage = "build"
	StageTest            Stage = "test"
	StageTagAndPush      Stage = "tag-and-push"
	StageRegistryPublish Stage = "registry-publish"
	StageRemoteRelease   Stage = "remote-release"
)

// Stages lists the pipeline in execution order.
func Stages() []Stage {
	return []Stage{
		StageValidate,
		StageBuild,
		StageTest,
		StageTagAndPush,
		StageRegistryPublish,
		StageRemoteRelease,
	}
}

// Options are the per-invocation switches.
type Options struct {
	DryRun            bool
	SkipBuild         bool
	SkipTest          bool
	SkipGitPush       bool
	SkipNpmPublish    bool
	SkipGitHubRelease bool
}

// Config is the project-level pipeline configuration.
type Config struct {
	TagPrefix       string
	Remote          string
	ReleaseBranches []string
	// CommitMessage is the release commit template; {version} is expanded.
	CommitMessage string
	BuildCommand  string
	TestCommand   string
	Registry      registry.Options
}

// StageStatus is the outcome of one stage.
type StageStatus string

const (
	StatusOK      StageStatus = "ok"
	StatusSkipped StageStatus = "skipped"
	StatusFailed  StageStatus = "failed"
	StatusPlanned StageStatus = "planned"
)

// StageReport records what happened to a stage.
type StageReport struct {
	Stage  Stage       `json:"stage"`
	Status StageStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// PendingChange is a changeset as shown in a preview.
type PendingChange struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Summary string `json:"summary"`
}

// Preview is the dry-run view of a release.
type Preview struct {
	Current       string            `json:"current"`
	Target        string            `json:"target"`
	HasChanges    bool              `json:"hasChanges"`
	Resumed       bool              `json:"resumed,omitempty"`
	ChangesByType versioning.Counts `json:"changesByType"`
	Changesets    []PendingChange   `json:"changesets"`
	Changelog     string            `json:"changelog,omitempty"`
}

// Result is the outcome of a pipeline run. It is always returned, also
// alongside an error.
type Result struct {
	Success        bool          `json:"success"`
	Version        string        `json:"version"`
	GitTag         string        `json:"gitTag,omitempty"`
	NpmPublished   bool          `json:"npmPublished"`
	GitPushed      bool          `json:"gitPushed"`
	ReleaseCreated bool          `json:"releaseCreated"`
	ReleaseURL     string        `json:"releaseUrl,omitempty"`
	DryRun         bool          `json:"dryRun,omitempty"`
	NothingToDo    bool          `json:"nothingToDo,omitempty"`
	RolledBack     bool          `json:"rolledBack,omitempty"`
	Consumed       []string      `json:"consumed,omitempty"`
	Preview        *Preview      `json:"preview,omitempty"`
	Stages         []StageReport `json:"stages"`
	Errors         []string      `json:"errors"`
	Warnings       []string      `json:"warnings,omitempty"`
}

func newResult() *Result {
	return &Result{Errors: []string{}, Stages: []StageReport{}}
}

func (r *Result) addStage(s Stage, status StageStatus, detail string) {
	r.Stages = append(r.Stages, StageReport{Stage: s, Status: status, Detail: detail})
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *Result) fail(err error) {
	r.Success = false
	r.Errors = append(r.Errors, err.Error())
}

// Stage returns the report for s, if the stage was reached.
func (r *Result) Stage(s Stage) (StageReport, bool) {
	for _, rep := range r.Stages {
		if rep.Stage == s {
			return rep, true
		}
	}
	return StageReport{}, false
}
