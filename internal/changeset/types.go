package changeset

import (
	"fmt"
	"strings"
	"time"
)

// Type classifies a changeset by the semantic version component it bumps.
type Type string

const (
	Major Type = "major"
	Minor Type = "minor"
	Patch Type = "patch"
)

// Summary length limits, measured after trimming.
const (
	MinSummaryLength = 5
	MaxSummaryLength = 200
)

// ParseType converts user input (any case) into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("invalid type %q (expected: major, minor, patch)", s),
		}
	}
	return t, nil
}

// Valid reports whether t is one of the known classifications.
func (t Type) Valid() bool {
	switch t {
	case Major, Minor, Patch:
		return true
	default:
		return false
	}
}

// Types returns every classification in precedence order.
func Types() []Type {
	return []Type{Major, Minor, Patch}
}

// Changeset is one pending change awaiting release.
type Changeset struct {
	ID        string
	Type      Type
	Summary   string
	CreatedAt time.Time
	// Author and PR are optional decoration used by richer changelog templates.
	Author string
	PR     int
}

// Input carries the user-supplied fields for Create and Edit.
type Input struct {
	Type    Type
	Summary string
	Author  string
	PR      int
}

// record is the on-disk representation. Fields are strings so that
// structural validation can report exactly what is wrong with a file.
type record struct {
	ID        string `yaml:"id"`
	Type      string `yaml:"type"`
	Summary   string `yaml:"summary"`
	CreatedAt string `yaml:"createdAt"`
	Author    string `yaml:"author,omitempty"`
	PR        int    `yaml:"pr,omitempty"`
}

func toRecord(c *Changeset) record {
	return record{
		ID:        c.ID,
		Type:      string(c.Type),
		Summary:   c.Summary,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
		Author:    c.Author,
		PR:        c.PR,
	}
}

// IDs returns the ids of the given changesets in order.
func IDs(list []Changeset) []string {
	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}
	return ids
}
