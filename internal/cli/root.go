// Package cli implements the changeset command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/ariel-frischer/changeset/internal/build"
	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/ariel-frischer/changeset/internal/git"
	"github.com/ariel-frischer/changeset/internal/publish"
	"github.com/ariel-frischer/changeset/internal/release"
	"github.com/ariel-frischer/changeset/internal/runner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Command groups shown in help output.
const (
	GroupGettingStarted = "getting-started"
	GroupChangesets     = "changesets"
	GroupRelease        = "release"
	GroupConfiguration  = "configuration"
)

var rootCmd = &cobra.Command{
	Use:   "changeset",
	Short: "Record changes and release versioned packages",
	Long: `changeset records pending changes as small YAML files, derives the next
semantic version from them, writes the changelog and publishes the release.

Each change is classified as major, minor or patch. The highest classification
among pending changesets decides the version bump.`,
	Example: `  # Set up the changeset directory
  changeset init

  # Record a change
  changeset add --type minor --summary "Add retry support to the client"

  # Bump the version and write the changelog
  changeset version

  # Build, test, tag, push and publish
  changeset publish`,
	Version:           build.String(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupGlobalFlags,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupGettingStarted, Title: "Getting Started:"},
		&cobra.Group{ID: GroupChangesets, Title: "Changesets:"},
		&cobra.Group{ID: GroupRelease, Title: "Release:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID(GroupConfiguration)
	rootCmd.SetCompletionCommandGroupID(GroupConfiguration)

	rootCmd.PersistentFlags().StringP("dir", "C", "", "Project directory (default: current directory)")
	rootCmd.PersistentFlags().String("config", "", "Config file replacing .changeset/config.yml")
	rootCmd.PersistentFlags().Bool("debug", false, "Print debug logs to stderr")
	rootCmd.PersistentFlags().Bool("plain", false, "Disable colors and icons")
}

// Execute runs the root command and reports a failure on stderr.
// The returned error carries the exit code; see ExitCode.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func setupGlobalFlags(cmd *cobra.Command, _ []string) error {
	plain, _ := cmd.Flags().GetBool("plain")
	if plain || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	debug, _ := cmd.Flags().GetBool("debug")
	setDebugLoggers(debug, cmd.ErrOrStderr())
	return nil
}

// setDebugLoggers wires the package debug hooks to w, or disables them.
func setDebugLoggers(enabled bool, w io.Writer) {
	var logger func(format string, args ...any)
	if enabled {
		logger = func(format string, args ...any) {
			fmt.Fprintf(w, "[debug] "+format+"\n", args...)
		}
	}
	git.SetDebugLogger(logger)
	runner.SetDebugLogger(logger)
	changeset.SetDebugLogger(logger)
	release.SetDebugLogger(logger)
	publish.SetDebugLogger(logger)
}
