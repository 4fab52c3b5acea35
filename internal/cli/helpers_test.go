package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/ariel-frischer/changeset/internal/testutil"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// cliRun is the captured outcome of one command invocation.
type cliRun struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the global root command against dir with stdin as input
// and reports a failure on stderr the way Execute does.
// Tests that call it must not run in parallel.
func runCLI(t *testing.T, dir, stdin string, args ...string) cliRun {
	t.Helper()
	return runRoot(t, dir, stdin, nil, args)
}

// runCLIWithEnv is runCLI with CHANGESET_* overrides in the environment.
func runCLIWithEnv(t *testing.T, dir string, env map[string]string, args ...string) cliRun {
	t.Helper()
	return runRoot(t, dir, "", env, args)
}

func runRoot(t *testing.T, dir, stdin string, env map[string]string, args []string) cliRun {
	t.Helper()

	resetFlags(rootCmd)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "CHANGESET_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--dir", dir}, args...))

	err := rootCmd.Execute()
	if err != nil {
		reportError(&stderr, err)
	}
	return cliRun{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// resetFlags restores every flag in the tree to its default so one test's
// flags do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// withTerminal makes commands believe their input is an interactive terminal.
func withTerminal(t *testing.T) {
	t.Helper()
	orig := isInteractive
	isInteractive = func(*cobra.Command) bool { return true }
	t.Cleanup(func() { isInteractive = orig })
}

// initProject creates a package at version with an initialized changeset
// directory.
func initProject(t *testing.T, version string) *testutil.Project {
	t.Helper()
	p := testutil.NewProject(t, version)
	r := runCLI(t, p.Dir, "", "init")
	require.NoError(t, r.err, r.stderr)
	return p
}

func pendingIDs(t *testing.T, p *testutil.Project) []string {
	t.Helper()
	list, err := p.Store.ListAll()
	require.NoError(t, err)
	return changeset.IDs(list)
}

func writeCorrupt(t *testing.T, p *testutil.Project, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(p.ChangesetDir, name), []byte(content), 0o644))
}
