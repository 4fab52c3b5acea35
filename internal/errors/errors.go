// Package errors provides structured error presentation for the changeset CLI.
// Domain packages return plain typed errors; the CLI converts them into a
// CLIError carrying a category and actionable remediation steps.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory classifies a failure. The CLI derives exit codes from it.
type ErrorCategory int

const (
	// Argument errors come from invalid flags, arguments or prompt answers.
	Argument ErrorCategory = iota
	// Configuration errors come from config files or environment overrides.
	Configuration
	// Prerequisite errors mean a file, directory or tool is missing.
	Prerequisite
	// Validation errors mean records or release preconditions were checked
	// and found wanting.
	Validation
	// Conflict errors mean another run holds the project.
	Conflict
	// Runtime errors happen while executing an external step.
	Runtime
)

var categoryNames = map[ErrorCategory]string{
	Argument:      "Argument Error",
	Configuration: "Configuration Error",
	Prerequisite:  "Prerequisite Error",
	Validation:    "Validation Error",
	Conflict:      "Conflict",
	Runtime:       "Runtime Error",
}

func (c ErrorCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Error"
}

// CLIError is a failure ready to be shown to a user.
type CLIError struct {
	Category ErrorCategory
	Message  string
	// Remediation lists steps that resolve the error, most likely first.
	Remediation []string
	// Usage is the correct command syntax, shown for argument errors.
	Usage string
	// Err is the underlying cause, if any.
	Err error
}

func (e *CLIError) Error() string {
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// WithUsage sets the usage line and returns e.
func (e *CLIError) WithUsage(usage string) *CLIError {
	e.Usage = usage
	return e
}

// New creates a CLIError without an underlying cause.
func New(category ErrorCategory, message string, remediation ...string) *CLIError {
	return &CLIError{Category: category, Message: message, Remediation: remediation}
}

// NewArgumentError creates an Argument error.
func NewArgumentError(message string, remediation ...string) *CLIError {
	return New(Argument, message, remediation...)
}

// NewConfigError creates a Configuration error.
func NewConfigError(message string, remediation ...string) *CLIError {
	return New(Configuration, message, remediation...)
}

// NewPrerequisiteError creates a Prerequisite error.
func NewPrerequisiteError(message string, remediation ...string) *CLIError {
	return New(Prerequisite, message, remediation...)
}

// NewRuntimeError creates a Runtime error.
func NewRuntimeError(message string, remediation ...string) *CLIError {
	return New(Runtime, message, remediation...)
}

// Wrap keeps err's message and records it as the cause. A nil err stays nil.
func Wrap(err error, category ErrorCategory, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	return &CLIError{Category: category, Message: err.Error(), Remediation: remediation, Err: err}
}

// WrapWithMessage is Wrap with "message: err" as the text.
func WrapWithMessage(err error, category ErrorCategory, message string, remediation ...string) *CLIError {
	wrapped := Wrap(err, category, remediation...)
	if wrapped != nil {
		wrapped.Message = fmt.Sprintf("%s: %v", message, err)
	}
	return wrapped
}

// IsCLIError reports whether err is or wraps a CLIError.
func IsCLIError(err error) bool {
	return AsCLIError(err) != nil
}

// AsCLIError returns the CLIError in err's chain, or nil.
func AsCLIError(err error) *CLIError {
	var cliErr *CLIError
	if stderrors.As(err, &cliErr) {
		return cliErr
	}
	return nil
}
