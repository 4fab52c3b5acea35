package cli

import (
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/changeset/internal/errors"
)

// Exit codes for the changeset CLI.
// These codes support programmatic composition and CI/CD integration.
const (
	// ExitSuccess indicates successful command execution, including
	// "nothing to do" in CI mode.
	ExitSuccess = 0

	// ExitFailure indicates a runtime or pipeline stage failure.
	ExitFailure = 1

	// ExitValidationFailed indicates corrupt records or failed preconditions.
	ExitValidationFailed = 2

	// ExitInvalidArguments indicates invalid command arguments or configuration.
	ExitInvalidArguments = 3

	// ExitMissingDependencies indicates a missing file, directory or tool.
	ExitMissingDependencies = 4

	// ExitLocked indicates another run holds the project lock.
	ExitLocked = 5
)

// ExitError carries a process exit code. With a nil Err the failure has
// already been reported and Execute prints nothing.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns a silent error that exits with code.
func NewExitError(code int) error {
	return &ExitError{Code: code}
}

// withExitCode attaches code to err.
func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCode returns the process exit code for err. CLI errors without an
// explicit code are mapped by category.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case clierrors.Argument, clierrors.Configuration:
			return ExitInvalidArguments
		case clierrors.Prerequisite:
			return ExitMissingDependencies
		case clierrors.Validation:
			return ExitValidationFailed
		case clierrors.Conflict:
			return ExitLocked
		}
	}
	return ExitFailure
}
