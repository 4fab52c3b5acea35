package changeset

import (
	"errors"
	"fmt"
)

// ErrIDGenerationExhausted is returned when no unused id could be drawn within
// the retry budget. The operation can be retried by the caller.
var ErrIDGenerationExhausted = errors.New("could not generate a unique changeset id")

// ErrNotFound is returned when a changeset id has no record on disk.
var ErrNotFound = errors.New("changeset not found")

// ValidationError rejects malformed changeset input before anything is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// CorruptRecordError describes a record file that failed structural validation.
type CorruptRecordError struct {
	Path   string
	Reason string
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt changeset %s: %s", e.Path, e.Reason)
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
