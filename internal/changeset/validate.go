package changeset

import (
	"fmt"
	"strings"
	"time"
)

// ValidateSummary checks the trimmed summary against length and line-break rules.
func ValidateSummary(summary string) (string, error) {
	trimmed := strings.TrimSpace(summary)
	if strings.ContainsAny(trimmed, "\r\n") {
		return "", &ValidationError{Field: "summary", Message: "must be a single line"}
	}
	n := len([]rune(trimmed))
	if n < MinSummaryLength {
		return "", &ValidationError{
			Field:   "summary",
			Message: fmt.Sprintf("too short (%d chars, minimum %d)", n, MinSummaryLength),
		}
	}
	if n > MaxSummaryLength {
		return "", &ValidationError{
			Field:   "summary",
			Message: fmt.Sprintf("too long (%d chars, maximum %d)", n, MaxSummaryLength),
		}
	}
	return trimmed, nil
}

// ValidateInput checks every user-supplied field and returns the normalized input.
func ValidateInput(in Input) (Input, error) {
	if !in.Type.Valid() {
		return Input{}, &ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("invalid type %q (expected: major, minor, patch)", in.Type),
		}
	}

	summary, err := ValidateSummary(in.Summary)
	if err != nil {
		return Input{}, err
	}

	if in.PR < 0 {
		return Input{}, &ValidationError{Field: "pr", Message: "must be a positive number"}
	}

	author := strings.TrimPrefix(strings.TrimSpace(in.Author), "@")
	if strings.ContainsAny(author, " \t\r\n") {
		return Input{}, &ValidationError{Field: "author", Message: "must be a single handle"}
	}

	return Input{Type: in.Type, Summary: summary, Author: author, PR: in.PR}, nil
}

// checkRecord validates a decoded record against its file name and converts it.
// Summary length is not checked on read.
func checkRecord(r record, wantID string) (*Changeset, string) {
	switch {
	case r.ID == "":
		return nil, "missing required field: id"
	case r.Type == "":
		return nil, "missing required field: type"
	case strings.TrimSpace(r.Summary) == "":
		return nil, "missing required field: summary"
	case r.CreatedAt == "":
		return nil, "missing required field: createdAt"
	}

	t := Type(r.Type)
	if !t.Valid() {
		return nil, fmt.Sprintf("invalid type %q", r.Type)
	}

	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return nil, fmt.Sprintf("createdAt %q is not an ISO-8601 timestamp", r.CreatedAt)
	}

	if r.ID != wantID {
		return nil, fmt.Sprintf("id %q does not match file name %q", r.ID, wantID)
	}

	return &Changeset{
		ID:        r.ID,
		Type:      t,
		Summary:   strings.TrimSpace(r.Summary),
		CreatedAt: created,
		Author:    r.Author,
		PR:        r.PR,
	}, ""
}
