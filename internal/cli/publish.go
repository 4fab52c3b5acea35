package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/hosting"
	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/ariel-frischer/changeset/internal/progress"
	"github.com/ariel-frischer/changeset/internal/prompt"
	"github.com/ariel-frischer/changeset/internal/publish"
	"github.com/ariel-frischer/changeset/internal/registry"
	"github.com/ariel-frischer/changeset/internal/runner"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Build, test, tag, push and publish the release",
	Long: `Run the release pipeline:

  1. validate          clean tree, manifest, tools, release gate
  2. build             build.command, when configured
  3. test              test.command, when configured
  4. tag-and-push      apply pending changesets, commit, tag, push
  5. registry-publish  npm publish
  6. remote-release    GitHub release with the changelog notes

Pending changesets are applied in step 4 and consumed only after the package
is published. When the registry rejects the package the tag is deleted again
and a rerun retries the same version.`,
	Example: `  # See what would happen
  changeset publish --dry-run

  # Release from CI, machine-readable
  changeset publish --ci --output json

  # Tag and push only
  changeset publish --skip-npm-publish --skip-github-release`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

func init() {
	publishCmd.GroupID = GroupRelease
	f := publishCmd.Flags()
	f.Bool("dry-run", false, "Validate and preview without changing anything")
	f.BoolP("skip-confirm", "y", false, "Do not ask for confirmation")
	f.Bool("skip-build", false, "Skip the build stage")
	f.Bool("skip-test", false, "Skip the test stage")
	f.Bool("skip-git-push", false, "Create the tag locally without pushing")
	f.Bool("skip-npm-publish", false, "Skip publishing to the registry")
	f.Bool("skip-github-release", false, "Skip creating the GitHub release")
	f.Bool("ci", false, "Non-interactive mode; an already released version is not an error")
	f.StringP("output", "o", "text", "Output format: text or json")
	f.String("registry", "", "Registry URL (overrides registry.url)")
	f.String("access", "", "Package access: public or restricted (overrides registry.access)")
	f.String("tag", "", "Distribution tag (overrides registry.tag)")
	publishCmd.RunE = reportsJSON(runPublish, publishFailure)
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	format, err := output.ParseFormat(flagString(cmd, "output"))
	if err != nil {
		return clierrors.NewArgumentError(err.Error())
	}
	ci, _ := cmd.Flags().GetBool("ci")
	skipConfirm, _ := cmd.Flags().GetBool("skip-confirm")
	ctx := commandContext(cmd)

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	opts := publishOptions(cmd, a)
	cfg, err := publishConfig(cmd, a)
	if err != nil {
		return err
	}
	jsonOut := format == output.FormatJSON

	if !opts.DryRun && !skipConfirm && !ci && !jsonOut {
		if !isInteractive(cmd) {
			return clierrors.TerminalRequired("publish confirmation")
		}
		ok, err := confirmPublish(ctx, cmd, a, cfg, opts)
		if err != nil || !ok {
			return err
		}
	}

	if !opts.DryRun {
		unlock, err := a.acquireLock(publish.CommandPublish)
		if err != nil {
			return err
		}
		defer unlock()
	}

	o := newOrchestrator(ctx, a, cfg, jsonOut)
	if !opts.DryRun && !jsonOut {
		caps := progress.DetectTerminalCapabilities()
		o.Reporter = newStageReporter(progress.NewProgressDisplayTo(caps, a.out), a.out, cfg)
	}

	advisories := publishAdvisories(ctx, a, cfg, opts)
	if !jsonOut {
		clierrors.FprintWarnings(a.errOut, advisories)
	}

	res, runErr := o.Run(ctx, opts)
	res.Warnings = append(advisories, res.Warnings...)

	if jsonOut {
		if err := output.WriteJSON(a.out, res); err != nil {
			return err
		}
	} else {
		renderPublishResult(a.out, res)
	}
	return publishExit(a, res, runErr, ci, jsonOut)
}

func publishOptions(cmd *cobra.Command, a *app) publish.Options {
	flag := func(name string) bool {
		v, _ := cmd.Flags().GetBool(name)
		return v
	}
	p := a.cfg.Publish
	return publish.Options{
		DryRun:            flag("dry-run"),
		SkipBuild:         flag("skip-build") || p.SkipBuild,
		SkipTest:          flag("skip-test") || p.SkipTest,
		SkipGitPush:       flag("skip-git-push") || p.SkipGitPush,
		SkipNpmPublish:    flag("skip-npm-publish") || p.SkipNpmPublish,
		SkipGitHubRelease: flag("skip-github-release") || p.SkipGitHubRelease,
	}
}

func publishConfig(cmd *cobra.Command, a *app) (publish.Config, error) {
	reg := registry.Options{
		URL:    a.cfg.Registry.URL,
		Access: a.cfg.Registry.Access,
		Tag:    a.cfg.Registry.Tag,
	}
	if v := flagString(cmd, "registry"); v != "" {
		reg.URL = v
	}
	if v := flagString(cmd, "access"); v != "" {
		if v != "public" && v != "restricted" {
			return publish.Config{}, clierrors.NewArgumentError(
				fmt.Sprintf("invalid --access %q", v), "Use public or restricted")
		}
		reg.Access = v
	}
	if v := flagString(cmd, "tag"); v != "" {
		reg.Tag = v
	}

	return publish.Config{
		TagPrefix:       a.cfg.TagPrefix(),
		Remote:          a.cfg.Repository.Remote,
		ReleaseBranches: a.cfg.Git.ReleaseBranches,
		CommitMessage:   a.cfg.Git.CommitMessage,
		BuildCommand:    a.cfg.Build.Command,
		TestCommand:     a.cfg.Test.Command,
		Registry:        reg,
	}, nil
}

// newOrchestrator wires the pipeline to the real git, npm and gh adapters.
// Build and test output goes to stderr in JSON mode so stdout stays parseable.
func newOrchestrator(ctx context.Context, a *app, cfg publish.Config, jsonOut bool) *publish.Orchestrator {
	pkgDir := filepath.Dir(a.cfg.ManifestPath())

	var commandOut io.Writer = a.out
	if jsonOut {
		commandOut = a.errOut
	}

	o := &publish.Orchestrator{
		Store:    a.store,
		Settings: a.settings(),
		Config:   cfg,
		Registry: registry.New(a.exec, pkgDir),
		Hosting:  hosting.New(a.exec, pkgDir),
		Runner:   &runner.Exec{Stdout: commandOut, Stderr: a.errOut},
		History:  a.historyWriter(),
		Commits:  a.commitResolver(ctx),
	}
	if a.repo != nil {
		o.Git = a.repo
	}
	if !jsonOut {
		o.Warn = a.errOut
	}
	return o
}

// publishAdvisories checks credentials and remotes up front. Problems are
// warnings; the pipeline reports the real failure if one occurs.
func publishAdvisories(ctx context.Context, a *app, cfg publish.Config, opts publish.Options) []string {
	var warnings []string
	if opts.DryRun {
		return warnings
	}
	pkgDir := filepath.Dir(a.cfg.ManifestPath())

	if a.repo != nil && !opts.SkipGitPush && !a.repo.HasRemote(cfg.Remote) {
		warnings = append(warnings, fmt.Sprintf("remote %q is not configured; the push will fail", cfg.Remote))
	}
	if !opts.SkipNpmPublish && registry.Available() {
		if _, err := registry.New(a.exec, pkgDir).WhoAmI(ctx, cfg.Registry.URL); err != nil {
			warnings = append(warnings, "npm whoami failed; the registry may reject the publish")
		}
	}
	if !opts.SkipGitHubRelease && hosting.Available() && !hosting.New(a.exec, pkgDir).Authenticated(ctx) {
		warnings = append(warnings, "gh is not authenticated; the GitHub release will be skipped with a warning")
	}
	return warnings
}

// confirmPublish shows the dry-run preview and asks whether to continue.
func confirmPublish(ctx context.Context, cmd *cobra.Command, a *app, cfg publish.Config, opts publish.Options) (bool, error) {
	preview := opts
	preview.DryRun = true
	o := newOrchestrator(ctx, a, cfg, false)
	o.History = nil
	o.Warn = nil

	res, err := o.Run(ctx, preview)
	if err != nil {
		return false, publishError(res, err)
	}
	renderPublishResult(a.out, res)
	clierrors.FprintWarnings(a.errOut, res.Warnings)

	ok, err := prompt.New(cmd.InOrStdin(), a.out).Confirm(fmt.Sprintf("Publish %s?", res.GitTag), false)
	if err != nil {
		return false, promptError(err)
	}
	if !ok {
		fmt.Fprintln(a.out, "Aborted.")
	}
	return ok, nil
}

// publishExit maps the run outcome to an exit code. In JSON mode the result
// already carries the errors, so the exit error is silent.
func publishExit(a *app, res *publish.Result, err error, ci, jsonOut bool) error {
	if err == nil {
		return nil
	}

	var preflightErr *publish.PreflightError
	if errors.As(err, &preflightErr) && preflightErr.NothingToDo && ci {
		if !jsonOut {
			fmt.Fprintf(a.out, "Nothing to do: %s\n", preflightErr.Failures[0])
		}
		return nil
	}

	code := ExitFailure
	if preflightErr != nil {
		code = ExitValidationFailed
	}
	if jsonOut {
		return NewExitError(code)
	}
	return withExitCode(publishError(res, err), code)
}

// publishFailure is the Result for a run that stopped before the pipeline.
func publishFailure(err *clierrors.CLIError) any {
	return &publish.Result{
		Stages: []publish.StageReport{},
		Errors: []string{err.Error()},
	}
}

func publishError(res *publish.Result, err error) error {
	var (
		preflightErr *publish.PreflightError
		stageErr     *publish.StageError
	)
	switch {
	case errors.As(err, &preflightErr):
		return clierrors.PreflightFailed(preflightErr.Failures)
	case errors.As(err, &stageErr):
		return clierrors.StageFailed(string(stageErr.Stage), stageErr.Err, res != nil && res.RolledBack)
	}
	return toCLIError(err)
}
