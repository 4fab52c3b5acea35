package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ariel-frischer/changeset/internal/runner"
)

// CallRecord is one command observed by FakeRunner.
type CallRecord struct {
	Dir       string
	Name      string
	Args      []string
	Timestamp time.Time
	ExitCode  int
	Error     error
}

// Line returns the call as a single space-joined command line.
func (c CallRecord) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// FakeResponse is the scripted outcome for matching commands.
type FakeResponse struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is returned as-is when set, bypassing ExitCode.
	Err error
}

type fakeRule struct {
	prefix   string
	response FakeResponse
}

// FakeRunner is a runner.Runner that records calls and replays scripted
// responses. Rules match on the command line prefix; the most recently added
// matching rule wins. Unmatched commands succeed with empty output.
type FakeRunner struct {
	mu    sync.Mutex
	rules []fakeRule
	calls []CallRecord
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On scripts the response for commands whose line starts with prefix.
func (f *FakeRunner) On(prefix string, resp FakeResponse) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, fakeRule{prefix: prefix, response: resp})
	return f
}

// Fail scripts a non-zero exit for commands starting with prefix.
func (f *FakeRunner) Fail(prefix, stderr string) *FakeRunner {
	return f.On(prefix, FakeResponse{ExitCode: 1, Stderr: stderr})
}

// Run implements runner.Runner.
func (f *FakeRunner) Run(_ context.Context, dir, name string, args ...string) (*runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := CallRecord{Dir: dir, Name: name, Args: append([]string(nil), args...), Timestamp: time.Now()}
	resp := f.match(rec.Line())

	result := &runner.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	var err error
	switch {
	case resp.Err != nil:
		err = resp.Err
	case resp.ExitCode != 0:
		err = &runner.ExitError{Command: runner.Format(name, args...), ExitCode: resp.ExitCode, Stderr: resp.Stderr}
	}

	rec.ExitCode = resp.ExitCode
	rec.Error = err
	f.calls = append(f.calls, rec)
	return result, err
}

func (f *FakeRunner) match(line string) FakeResponse {
	for i := len(f.rules) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, f.rules[i].prefix) {
			return f.rules[i].response
		}
	}
	return FakeResponse{}
}

// Calls returns a copy of all recorded calls in order.
func (f *FakeRunner) Calls() []CallRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CallRecord(nil), f.calls...)
}

// Lines returns every recorded command line in order.
func (f *FakeRunner) Lines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Line()
	}
	return lines
}

// Called reports whether any recorded command line starts with prefix.
func (f *FakeRunner) Called(prefix string) bool {
	return f.IndexOf(prefix) >= 0
}

// IndexOf returns the position of the first call starting with prefix, or -1.
func (f *FakeRunner) IndexOf(prefix string) int {
	for i, line := range f.Lines() {
		if strings.HasPrefix(line, prefix) {
			return i
		}
	}
	return -1
}
