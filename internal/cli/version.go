package cli

import (
	"fmt"
	"path/filepath"
	"time"

	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/history"
	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/ariel-frischer/changeset/internal/prompt"
	"github.com/ariel-frischer/changeset/internal/publish"
	"github.com/ariel-frischer/changeset/internal/release"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Apply pending changesets: bump the version and write the changelog",
	Long: `Compute the next version from the pending changesets, write it into the
manifest, insert the changelog entry and delete the consumed changesets.

A marker file records the run before anything is written. If a run is
interrupted, the next 'changeset version' finishes it without bumping twice.

With git.commit_on_version enabled the changed files are committed.`,
	Example: `  # Preview without writing
  changeset version --dry-run

  # Apply without the confirmation prompt
  changeset version --skip-confirm

  # In CI: never prompt, succeed when there is nothing to release
  changeset version --ci`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runVersion,
}

func init() {
	versionCmd.GroupID = GroupRelease
	versionCmd.Flags().Bool("dry-run", false, "Show the version and changelog entry without writing")
	versionCmd.Flags().BoolP("skip-confirm", "y", false, "Do not ask for confirmation")
	versionCmd.Flags().Bool("ci", false, "Non-interactive mode; no pending changesets is not an error")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	skipConfirm, _ := cmd.Flags().GetBool("skip-confirm")
	ci, _ := cmd.Flags().GetBool("ci")
	ctx := commandContext(cmd)

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := a.requireInitialized(); err != nil {
		return err
	}

	if !dryRun {
		unlock, err := a.acquireLock(release.CommandVersion)
		if err != nil {
			return err
		}
		defer unlock()
	}

	v := &release.Versioner{
		Store:         a.store,
		Settings:      a.settings(),
		Commits:       a.commitResolver(ctx),
		CommitMessage: a.cfg.Git.CommitMessage,
		Warn:          a.errOut,
	}
	if a.cfg.Git.CommitOnVersion && a.repo != nil {
		v.Committer = a.repo
	}

	st, err := v.Interrupted()
	if err != nil {
		return toCLIError(err)
	}
	if st != nil {
		if st.Command == publish.CommandPublish {
			return clierrors.NewPrerequisiteError(
				fmt.Sprintf("a publish of v%s did not finish", st.Target),
				"Rerun 'changeset publish' to retry it",
				"Or remove "+release.StatePath(a.store.Dir())+" to discard it")
		}
		fprintWarning(a.errOut, fmt.Sprintf("resuming interrupted run %s for v%s", st.RunID, st.Target))
		if dryRun {
			fmt.Fprintf(a.out, "Dry run: would finish the interrupted release of v%s\n", st.Target)
			return nil
		}
		start := time.Now()
		out, err := v.Resume(ctx, st)
		logVersionRun(a, out, err, start)
		if err != nil {
			return toCLIError(err)
		}
		printOutcome(a, out)
		return nil
	}

	plan, err := v.Preview()
	if err != nil {
		return manifestError(err, a.cfg.ManifestPath())
	}
	if !plan.Info.HasChanges {
		if ci {
			fmt.Fprintln(a.out, "Nothing to do: no pending changesets.")
			return nil
		}
		return clierrors.NoChangesets()
	}

	renderPlan(a.out, plan)
	if dryRun {
		fmt.Fprintln(a.out, "Dry run: no files were changed.")
		return nil
	}

	if !skipConfirm && !ci {
		if !isInteractive(cmd) {
			return clierrors.TerminalRequired("version confirmation")
		}
		ok, err := prompt.New(cmd.InOrStdin(), a.out).Confirm(fmt.Sprintf("Release v%s?", plan.Target()), true)
		if err != nil {
			return promptError(err)
		}
		if !ok {
			fmt.Fprintln(a.out, "Aborted.")
			return nil
		}
	}

	start := time.Now()
	out, err := v.Apply(ctx, plan)
	logVersionRun(a, out, err, start)
	if err != nil {
		return toCLIError(err)
	}
	printOutcome(a, out)
	return nil
}

func printOutcome(a *app, out *release.Outcome) {
	output.PrintSuccess(a.out, fmt.Sprintf("Version bumped to %s", out.Plan.Target()))
	for _, f := range out.Files {
		output.PrintField(a.out, "Updated", relativeTo(a.cfg.ProjectDir, f))
	}
	output.PrintField(a.out, "Consumed", fmt.Sprintf("%d changesets", len(out.Consumed)))
	if out.Committed {
		output.PrintField(a.out, "Committed", release.CommitMessage(a.cfg.Git.CommitMessage, out.Plan.Target()))
	}
}

func logVersionRun(a *app, out *release.Outcome, err error, start time.Time) {
	entry := history.HistoryEntry{
		Timestamp: start,
		Command:   release.CommandVersion,
		Success:   err == nil,
		Duration:  time.Since(start).Round(time.Millisecond).String(),
	}
	if out != nil && out.Plan != nil {
		entry.Version = out.Plan.Target().String()
		entry.Consumed = out.Consumed
	}
	if err != nil {
		entry.Errors = []string{err.Error()}
	}
	a.historyWriter().LogEntry(entry)
}

func relativeTo(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}
