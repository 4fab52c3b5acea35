package testutil

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

var (
	// changesetBinaryPath caches the built changeset binary path.
	changesetBinaryPath string
	changesetBuildOnce  sync.Once
	changesetBuildErr   error
)

// mockNpm logs its arguments and answers whoami and publish.
// MOCK_NPM_EXIT makes publish fail with that code.
const mockNpm = `#!/bin/sh
echo "npm $*" >> "$MOCK_CALL_LOG"
case "$1" in
  whoami) echo "tester" ;;
  publish)
    if [ -n "$MOCK_NPM_EXIT" ] && [ "$MOCK_NPM_EXIT" != "0" ]; then
      echo "npm ERR! 403 Forbidden" >&2
      exit "$MOCK_NPM_EXIT"
    fi
    echo "+ widget" ;;
esac
exit 0
`

// mockGh logs its arguments, reports an authenticated session and prints a
// release URL.
const mockGh = `#!/bin/sh
echo "gh $*" >> "$MOCK_CALL_LOG"
case "$1 $2" in
  "release create") echo "https://github.com/acme/widget/releases/tag/$3" ;;
esac
exit 0
`

// E2EEnv is an isolated project for running the built changeset binary.
// npm and gh are shell mocks that record their calls; git is the real CLI
// with a bare repository as origin.
type E2EEnv struct {
	t          *testing.T
	tempDir    string
	binDir     string
	projectDir string
	remoteDir  string
	callLog    string
	npmExit    int
	cleanedUp  bool
}

// CommandResult captures the result of running a changeset command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// NewE2EEnv builds the binary, writes the mocks and creates a committed
// package at version with an origin remote.
func NewE2EEnv(t *testing.T, version string) *E2EEnv {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	env := &E2EEnv{t: t}
	env.setup(version)
	t.Cleanup(env.Cleanup)
	return env
}

func (e *E2EEnv) setup(version string) {
	e.t.Helper()

	tempDir, err := os.MkdirTemp("", "changeset-e2e-*")
	if err != nil {
		e.t.Fatalf("creating temp directory: %v", err)
	}
	e.tempDir = tempDir
	e.binDir = filepath.Join(tempDir, "bin")
	e.projectDir = filepath.Join(tempDir, "widget")
	e.remoteDir = filepath.Join(tempDir, "origin.git")
	e.callLog = filepath.Join(tempDir, "calls.log")

	for _, dir := range []string{e.binDir, e.projectDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			e.t.Fatalf("creating %s: %v", dir, err)
		}
	}

	e.writeMock("npm", mockNpm)
	e.writeMock("gh", mockGh)
	e.buildChangeset()
	e.initRepository(version)
}

func (e *E2EEnv) writeMock(name, script string) {
	e.t.Helper()
	if err := os.WriteFile(filepath.Join(e.binDir, name), []byte(script), 0o755); err != nil {
		e.t.Fatalf("writing mock %s: %v", name, err)
	}
}

func (e *E2EEnv) buildChangeset() {
	e.t.Helper()

	changesetBuildOnce.Do(func() {
		changesetBinaryPath, changesetBuildErr = doBuildChangeset()
	})
	if changesetBuildErr != nil {
		e.t.Fatalf("building changeset: %v", changesetBuildErr)
	}

	content, err := os.ReadFile(changesetBinaryPath)
	if err != nil {
		e.t.Fatalf("reading changeset binary: %v", err)
	}
	if err := os.WriteFile(filepath.Join(e.binDir, "changeset"), content, 0o755); err != nil {
		e.t.Fatalf("writing changeset binary: %v", err)
	}
}

func doBuildChangeset() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("determining current file location")
	}
	repoRoot := filepath.Join(filepath.Dir(currentFile), "..", "..")

	tmpDir, err := os.MkdirTemp("", "changeset-build-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir for build: %w", err)
	}
	binaryPath := filepath.Join(tmpDir, "changeset")

	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/changeset")
	cmd.Dir = repoRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("building changeset: %w\nOutput: %s", err, output)
	}
	return binaryPath, nil
}

func (e *E2EEnv) initRepository(version string) {
	e.t.Helper()

	e.gitIn(e.tempDir, "init", "--bare", "-b", "main", e.remoteDir)

	manifest := fmt.Sprintf("{\n  \"name\": \"widget\",\n  \"version\": %q\n}\n", version)
	if err := os.WriteFile(filepath.Join(e.projectDir, "package.json"), []byte(manifest), 0o644); err != nil {
		e.t.Fatalf("writing manifest: %v", err)
	}

	e.Git("init", "-b", "main")
	e.Git("config", "user.email", "test@test.com")
	e.Git("config", "user.name", "Test")
	e.Git("config", "commit.gpgsign", "false")
	e.Git("config", "tag.gpgsign", "false")
	e.Git("remote", "add", "origin", e.remoteDir)
	e.Git("add", ".")
	e.Git("commit", "-m", "Initial commit")
	e.Git("push", "-u", "origin", "main")
}

// Git runs git in the project and returns its trimmed output.
func (e *E2EEnv) Git(args ...string) string {
	e.t.Helper()
	return e.gitIn(e.projectDir, args...)
}

// RemoteGit runs git against the bare origin repository.
func (e *E2EEnv) RemoteGit(args ...string) string {
	e.t.Helper()
	return e.gitIn(e.remoteDir, args...)
}

func (e *E2EEnv) gitIn(dir string, args ...string) string {
	e.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(e.buildIsolatedEnv(), "GIT_CONFIG_NOSYSTEM=1")
	output, err := cmd.CombinedOutput()
	if err != nil {
		e.t.Fatalf("git %s failed: %v\nOutput: %s", strings.Join(args, " "), err, output)
	}
	return strings.TrimSpace(string(output))
}

// CommitAll stages and commits every change in the project.
func (e *E2EEnv) CommitAll(message string) {
	e.t.Helper()
	e.Git("add", "-A")
	e.Git("commit", "-m", message)
}

// Run executes the changeset binary in the project directory.
func (e *E2EEnv) Run(args ...string) CommandResult {
	e.t.Helper()

	start := time.Now()
	cmd := exec.Command(filepath.Join(e.binDir, "changeset"), args...)
	cmd.Dir = e.projectDir
	cmd.Env = e.buildIsolatedEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	result := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
		}
	}
	return result
}

func (e *E2EEnv) buildIsolatedEnv() []string {
	path := e.binDir
	if systemPath := os.Getenv("PATH"); systemPath != "" {
		path = e.binDir + string(os.PathListSeparator) + systemPath
	}

	env := []string{
		"PATH=" + path,
		"HOME=" + e.tempDir,
		"XDG_CONFIG_HOME=" + filepath.Join(e.tempDir, "config"),
		"NO_COLOR=1",
		"MOCK_CALL_LOG=" + e.callLog,
		fmt.Sprintf("MOCK_NPM_EXIT=%d", e.npmExit),
	}
	for _, key := range []string{"LANG", "LC_ALL", "TMPDIR", "TMP", "TEMP"} {
		if val, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+val)
		}
	}
	return env
}

// SetNpmExitCode makes the mock npm publish exit with code.
func (e *E2EEnv) SetNpmExitCode(code int) {
	e.npmExit = code
}

// ProjectDir returns the package directory.
func (e *E2EEnv) ProjectDir() string {
	return e.projectDir
}

// ReadFile returns a project file's content, or "" if missing.
func (e *E2EEnv) ReadFile(name string) string {
	data, err := os.ReadFile(filepath.Join(e.projectDir, name))
	if err != nil {
		return ""
	}
	return string(data)
}

// Calls returns the recorded npm and gh invocations in order.
func (e *E2EEnv) Calls() []string {
	data, err := os.ReadFile(e.callLog)
	if err != nil {
		return nil
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// Cleanup removes the temp directory.
func (e *E2EEnv) Cleanup() {
	if e.cleanedUp {
		return
	}
	e.cleanedUp = true
	if e.tempDir != "" {
		if err := os.RemoveAll(e.tempDir); err != nil {
			e.t.Logf("note: could not remove temp directory: %v", err)
		}
	}
}
