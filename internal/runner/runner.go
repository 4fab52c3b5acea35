// Package runner executes external commands synchronously on behalf of the
// release pipeline. Every call is awaited to completion; there is no timeout.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
)

// debugLogger is an optional debug logging function.
var debugLogger func(format string, args ...any)

// SetDebugLogger sets the debug logging function for command execution.
func SetDebugLogger(fn func(format string, args ...any)) {
	debugLogger = fn
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Result holds the captured outcome of one command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner runs a command in dir and waits for it to finish.
// A non-zero exit is reported as *ExitError alongside the captured Result.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (*Result, error)
}

// ExitError is returned when a command exits with a non-zero status.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

// IsExitError reports whether err is a non-zero exit from a command.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// Exec runs commands with os/exec. Output is always captured; Stdout and
// Stderr additionally receive a live copy when set.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer
	// Env entries are appended to the inherited environment.
	Env []string
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, dir, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, e.Stdout)
	cmd.Stderr = tee(&stderr, e.Stderr)

	line := Format(name, args...)
	logDebug("run: %s (dir=%s)", line, dir)

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			logDebug("run: %s exited %d after %s", name, result.ExitCode, result.Duration)
			return result, &ExitError{Command: line, ExitCode: result.ExitCode, Stderr: result.Stderr}
		}
		return result, fmt.Errorf("running %s: %w", name, err)
	}

	logDebug("run: %s ok after %s", name, result.Duration)
	return result, nil
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

// Split parses a configured command line into argv using shell quoting rules.
// No shell is involved.
func Split(command string) ([]string, error) {
	parts, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", command, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("command %q is empty", command)
	}
	return parts, nil
}

// RunLine splits a command line and runs it.
func RunLine(ctx context.Context, r Runner, dir, command string) (*Result, error) {
	argv, err := Split(command)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, dir, argv[0], argv[1:]...)
}

// Available reports whether name resolves to an executable on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Format renders a command for logs and previews.
func Format(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n'\"") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

func lastLine(s string) string {
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
