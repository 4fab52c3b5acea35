package cli

import (
	"fmt"
	"strings"

	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/ariel-frischer/changeset/internal/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past version and publish runs",
	Long: `View the log of version and publish runs kept in the changeset directory,
with timestamp, command, version, outcome and duration.`,
	Example: `  changeset history
  changeset history -n 5 --command publish
  changeset history --clear`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runHistory,
}

func init() {
	historyCmd.GroupID = GroupConfiguration
	historyCmd.Flags().StringP("command", "c", "", "Filter by command (version or publish)")
	historyCmd.Flags().IntP("limit", "n", 0, "Limit to last N entries (most recent)")
	historyCmd.Flags().Bool("clear", false, "Clear all history")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	clearFlag, _ := cmd.Flags().GetBool("clear")
	command := flagString(cmd, "command")
	limit, _ := cmd.Flags().GetInt("limit")

	if limit < 0 {
		return clierrors.NewArgumentError(fmt.Sprintf("limit must be positive, got %d", limit))
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	stateDir := a.store.Dir()

	if clearFlag {
		if err := history.ClearHistory(stateDir); err != nil {
			return clierrors.Wrap(err, clierrors.Runtime)
		}
		fmt.Fprintln(a.out, "History cleared.")
		return nil
	}

	h, err := history.LoadHistory(stateDir)
	if err != nil {
		return clierrors.Wrap(err, clierrors.Runtime)
	}

	entries := filterEntries(h.Entries, command, limit)
	if len(entries) == 0 {
		if command != "" {
			fmt.Fprintf(a.out, "No matching entries for command '%s'.\n", command)
		} else {
			fmt.Fprintln(a.out, "No history available.")
		}
		return nil
	}

	displayEntries(cmd, entries)
	return nil
}

// filterEntries keeps entries for command and trims to the most recent limit.
func filterEntries(entries []history.HistoryEntry, command string, limit int) []history.HistoryEntry {
	var result []history.HistoryEntry
	for _, entry := range entries {
		if command == "" || entry.Command == command {
			result = append(result, entry)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result
}

func displayEntries(cmd *cobra.Command, entries []history.HistoryEntry) {
	out := cmd.OutOrStdout()

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	for _, entry := range entries {
		timestamp := entry.Timestamp.Local().Format("2006-01-02 15:04:05")

		var outcome string
		switch {
		case entry.DryRun:
			outcome = yellow("dry-run")
		case entry.Success:
			outcome = green("ok")
		default:
			outcome = red("failed")
		}

		version := entry.Version
		if version == "" {
			version = "-"
		}

		fmt.Fprintf(out, "%s  %-8s  %-12s  %s  %s\n",
			cyan(timestamp),
			entry.Command,
			version,
			outcome,
			entry.Duration,
		)
		if !entry.Success && len(entry.Errors) > 0 {
			fmt.Fprintf(out, "    %s\n", red(strings.Join(entry.Errors, "; ")))
		}
	}
}
