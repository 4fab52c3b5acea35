package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ariel-frischer/changeset/internal/changeset"
	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/manifest"
	"github.com/ariel-frischer/changeset/internal/output"
	"github.com/ariel-frischer/changeset/internal/release"
	"github.com/ariel-frischer/changeset/internal/versioning"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"st"},
	Short:   "Show pending changesets and the next version",
	Long: `Show the pending changesets, the current manifest version and the version
the next release would produce.

Corrupt changeset files are listed as warnings and do not fail the command.
An interrupted version or publish run is reported with the command that
finishes it.`,
	Example: `  changeset status
  changeset status --output json
  changeset status --watch`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

func init() {
	statusCmd.GroupID = GroupChangesets
	statusCmd.Flags().StringP("output", "o", "text", "Output format: text or json")
	statusCmd.Flags().BoolP("watch", "w", false, "Re-render when changesets change (text output only)")
	statusCmd.RunE = reportsJSON(runStatus, newFailureReport)
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	format, err := output.ParseFormat(flagString(cmd, "output"))
	if err != nil {
		return clierrors.NewArgumentError(err.Error())
	}
	watch, _ := cmd.Flags().GetBool("watch")
	if watch && format == output.FormatJSON {
		return clierrors.InvalidFlagCombination("--watch --output json", "--watch renders text only")
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	render := func() error {
		report, err := buildStatus(a)
		if err != nil {
			return err
		}
		if format == output.FormatJSON {
			return output.WriteJSON(a.out, report)
		}
		renderStatus(a.out, report)
		return nil
	}

	if err := render(); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	if err := a.requireInitialized(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()
	return watchStatus(ctx, a, render)
}

func watchStatus(ctx context.Context, a *app, render func() error) error {
	fmt.Fprintf(a.out, "\nWatching %s (Ctrl+C to stop)\n", a.store.Dir())
	err := a.store.Watch(ctx, changeset.DefaultWatchDebounce, func() {
		fmt.Fprintln(a.out)
		output.PrintHeader(a.out, "status")
		if err := render(); err != nil {
			clierrors.FprintError(a.errOut, toCLIError(err))
		}
	})
	if err != nil {
		return clierrors.Wrap(err, clierrors.Runtime)
	}
	return nil
}

// statusReport is the status view, also emitted as JSON.
type statusReport struct {
	Current       string            `json:"current"`
	Next          string            `json:"next"`
	HasChanges    bool              `json:"hasChanges"`
	ChangesByType versioning.Counts `json:"changesByType"`
	Changesets    []changesetView   `json:"changesets"`
	Corrupt       []corruptView     `json:"corrupt,omitempty"`
	Interrupted   *interruptedView  `json:"interrupted,omitempty"`
}

type corruptView struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type interruptedView struct {
	Command    string   `json:"command"`
	From       string   `json:"from"`
	Target     string   `json:"target"`
	Step       string   `json:"step"`
	Changesets []string `json:"changesets"`
}

func buildStatus(a *app) (*statusReport, error) {
	m, err := manifest.Load(a.cfg.ManifestPath())
	if err != nil {
		return nil, manifestError(err, a.cfg.ManifestPath())
	}

	scan, err := a.store.Scan()
	if err != nil {
		return nil, toCLIError(err)
	}

	info := versioning.Calculate(m.Version, scan.Changesets)
	report := &statusReport{
		Current:       info.Current.String(),
		Next:          info.Next.String(),
		HasChanges:    info.HasChanges,
		ChangesByType: info.ChangesByType,
		Changesets:    changesetViews(scan.Changesets),
	}
	for _, c := range scan.Corrupt {
		report.Corrupt = append(report.Corrupt, corruptView{Path: c.Path, Reason: c.Reason})
	}

	st, err := release.LoadState(a.store.Dir())
	if err != nil {
		fprintWarning(a.errOut, err.Error())
	} else if st != nil {
		report.Interrupted = &interruptedView{
			Command:    st.Command,
			From:       st.From,
			Target:     st.Target,
			Step:       string(st.Step),
			Changesets: st.Changesets,
		}
	}
	return report, nil
}
