package publish

import (
	"fmt"
	"strings"
)

// PreflightError is returned when Validate refuses to start the pipeline.
// Nothing has been changed when it is returned.
type PreflightError struct {
	Failures []string
	// NothingToDo is set when the only failure is that the target version is
	// already released.
	NothingToDo bool
}

func (e *PreflightError) Error() string {
	if len(e.Failures) == 1 {
		return "preflight failed: " + e.Failures[0]
	}
	return fmt.Sprintf("preflight failed:\n  - %s", strings.Join(e.Failures, "\n  - "))
}

// StageError wraps the failure of one pipeline stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
