// Package cli tests the root command, global flags and exit codes.
// Related: internal/cli/root.go, internal/cli/exit_codes.go

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	clierrors "github.com/ariel-frischer/changeset/internal/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Structure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "changeset", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotEmpty(t, rootCmd.Example)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		flagName  string
		shorthand string
	}{
		"dir flag":    {flagName: "dir", shorthand: "C"},
		"config flag": {flagName: "config"},
		"debug flag":  {flagName: "debug"},
		"plain flag":  {flagName: "plain"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			flag := rootCmd.PersistentFlags().Lookup(tt.flagName)
			require.NotNil(t, flag, "Flag %s should exist", tt.flagName)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
		})
	}
}

func TestRootCmd_SubcommandGroups(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"init":      GroupGettingStarted,
		"add":       GroupChangesets,
		"status":    GroupChangesets,
		"validate":  GroupChangesets,
		"edit":      GroupChangesets,
		"delete":    GroupChangesets,
		"version":   GroupRelease,
		"changelog": GroupRelease,
		"publish":   GroupRelease,
		"config":    GroupConfiguration,
		"history":   GroupConfiguration,
	}

	for name, group := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cmd := findCommand(rootCmd, name)
			require.NotNil(t, cmd, "command %s should be registered", name)
			assert.Equal(t, group, cmd.GroupID)
			assert.True(t, cmd.SilenceUsage)
		})
	}
}

func TestRootCmd_GroupsDefined(t *testing.T) {
	t.Parallel()

	ids := make(map[string]bool)
	for _, g := range rootCmd.Groups() {
		ids[g.ID] = true
	}
	for _, id := range []string{GroupGettingStarted, GroupChangesets, GroupRelease, GroupConfiguration} {
		assert.True(t, ids[id], "group %s should be defined", id)
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":                  {err: nil, want: ExitSuccess},
		"plain error":          {err: errors.New("boom"), want: ExitFailure},
		"argument error":       {err: clierrors.NewArgumentError("bad flag"), want: ExitInvalidArguments},
		"configuration error":  {err: clierrors.NewConfigError("bad config"), want: ExitInvalidArguments},
		"prerequisite error":   {err: clierrors.NoChangesets(), want: ExitMissingDependencies},
		"runtime error":        {err: clierrors.NewRuntimeError("failed"), want: ExitFailure},
		"preflight failure":    {err: clierrors.PreflightFailed([]string{"not a git repository"}), want: ExitValidationFailed},
		"lock held":             {err: clierrors.LockHeld(errors.New("held by pid 42"), ".changeset/.lock"), want: ExitLocked},
		"explicit exit code":   {err: NewExitError(ExitValidationFailed), want: ExitValidationFailed},
		"wrapped exit code":    {err: fmt.Errorf("outer: %w", withExitCode(errors.New("held"), ExitLocked)), want: ExitLocked},
		"exit code over error": {err: withExitCode(clierrors.NoChangesets(), ExitValidationFailed), want: ExitValidationFailed},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestReportError(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err        error
		wantOutput bool
		contains   string
	}{
		"silent exit error": {
			err:        NewExitError(ExitValidationFailed),
			wantOutput: false,
		},
		"cli error with remediation": {
			err:        clierrors.NoChangesets(),
			wantOutput: true,
			contains:   "changeset add",
		},
		"plain error": {
			err:        errors.New("disk full"),
			wantOutput: true,
			contains:   "disk full",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			reportError(&buf, tt.err)
			if !tt.wantOutput {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.contains)
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	r := runCLI(t, t.TempDir(), "", "frobnicate")
	require.Error(t, r.err)
}

func findCommand(root *cobra.Command, name string) *cobra.Command {
	for _, c := range root.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
