// Package testutil provides test utilities and helpers for changeset tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"
)

// HelperProcessConfig configures the behavior of TestHelperProcess.
type HelperProcessConfig struct {
	// ExitCode is the exit code to return (default 0).
	ExitCode int `json:"exit_code"`
	// Stdout is the content to write to stdout.
	Stdout string `json:"stdout"`
	// Stderr is the content to write to stderr.
	Stderr string `json:"stderr"`
	// EchoArgs writes the received arguments to stdout, one per line.
	EchoArgs bool `json:"echo_args"`
	// EchoDir writes the working directory to stdout.
	EchoDir bool `json:"echo_dir"`
}

const (
	// EnvWantHelperProcess signals that the test binary should run as a helper process.
	EnvWantHelperProcess = "GO_WANT_HELPER_PROCESS"
	// EnvHelperProcessConfig contains JSON-encoded HelperProcessConfig.
	EnvHelperProcessConfig = "GO_HELPER_PROCESS_CONFIG"
)

// TestHelperProcess is called from a test function to implement the helper
// process pattern. With GO_WANT_HELPER_PROCESS=1 it behaves as a fake
// subprocess and exits without returning; otherwise it returns immediately.
//
// Usage in test file:
//
//	func TestHelperProcess(t *testing.T) {
//	    testutil.TestHelperProcess(t)
//	}
func TestHelperProcess(t *testing.T) {
	if os.Getenv(EnvWantHelperProcess) != "1" {
		return
	}

	config := HelperProcessConfig{}
	if raw := os.Getenv(EnvHelperProcessConfig); raw != "" {
		// Ignore parse errors; use defaults on failure
		_ = json.Unmarshal([]byte(raw), &config)
	}
	runHelperProcess(config, helperArgs(os.Args))
}

// helperArgs returns the arguments after the "--" separator.
func helperArgs(argv []string) []string {
	for i, a := range argv {
		if a == "--" {
			return argv[i+1:]
		}
	}
	return nil
}

func runHelperProcess(config HelperProcessConfig, args []string) {
	if config.EchoDir {
		if wd, err := os.Getwd(); err == nil {
			fmt.Fprintln(os.Stdout, wd)
		}
	}
	if config.EchoArgs {
		for _, a := range args {
			fmt.Fprintln(os.Stdout, a)
		}
	}
	if config.Stdout != "" {
		fmt.Fprint(os.Stdout, config.Stdout)
	}
	if config.Stderr != "" {
		fmt.Fprint(os.Stderr, config.Stderr)
	}
	os.Exit(config.ExitCode)
}

// HelperCommand returns the executable and leading arguments that re-invoke
// the test binary as a helper process running testName. Extra arguments go
// after the returned ones.
func HelperCommand(t *testing.T, testName string) (string, []string) {
	t.Helper()

	testBinary, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to get test binary path: %v", err)
	}
	return testBinary, []string{"-test.run=^" + testName + "$", "--"}
}

// HelperEnv returns the environment entries that activate the helper process
// with config.
func HelperEnv(t *testing.T, config HelperProcessConfig) []string {
	t.Helper()

	raw, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("marshaling helper config: %v", err)
	}
	return []string{
		EnvWantHelperProcess + "=1",
		EnvHelperProcessConfig + "=" + string(raw),
	}
}
