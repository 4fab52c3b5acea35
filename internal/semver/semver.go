// Package semver implements the strict three-component semantic version used
// for release numbering. Pre-release and build metadata are not accepted.
package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which component a bump increments.
type Kind int

const (
	// None leaves the version unchanged.
	None Kind = iota
	Patch
	Minor
	Major
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Patch:
		return "patch"
	case Minor:
		return "minor"
	case Major:
		return "major"
	default:
		return "none"
	}
}

// Version is a parsed MAJOR.MINOR.PATCH triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseError reports a malformed version string.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid version %q: %s", e.Input, e.Reason)
}

// Parse parses a version of exactly three non-negative integer components
// with nothing around them. Tag names go through ParseTag.
func Parse(s string) (Version, error) {
	return parse(s, s)
}

// ParseTag parses a tag name made of prefix followed by a version, e.g.
// "v1.2.3" with prefix "v". Exactly one prefix is removed.
func ParseTag(tag, prefix string) (Version, error) {
	raw, ok := strings.CutPrefix(tag, prefix)
	if !ok {
		return Version{}, &ParseError{Input: tag, Reason: fmt.Sprintf("missing tag prefix %q", prefix)}
	}
	return parse(tag, raw)
}

func parse(input, raw string) (Version, error) {
	if raw == "" {
		return Version{}, &ParseError{Input: input, Reason: "empty version"}
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Version{}, &ParseError{Input: input, Reason: "expected MAJOR.MINOR.PATCH"}
	}

	var nums [3]int
	for i, p := range parts {
		n, err := parseComponent(p)
		if err != nil {
			return Version{}, &ParseError{Input: input, Reason: err.Error()}
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseComponent(p string) (int, error) {
	if p == "" {
		return 0, fmt.Errorf("empty component")
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("component %q is not a non-negative integer", p)
		}
	}
	if len(p) > 1 && p[0] == '0' {
		return 0, fmt.Errorf("component %q has a leading zero", p)
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("component %q out of range", p)
	}
	return n, nil
}

// String renders the version without a prefix, e.g. "1.4.0".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Tag renders the version with the given tag prefix, e.g. "v1.4.0".
func (v Version) Tag(prefix string) string {
	return prefix + v.String()
}

// Compare returns -1, 0 or 1 when v is lower than, equal to or greater than o.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpInt(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpInt(v.Minor, o.Minor)
	default:
		return cmpInt(v.Patch, o.Patch)
	}
}

// LessThan reports whether v sorts before o.
func (v Version) LessThan(o Version) bool {
	return v.Compare(o) < 0
}

// Bump returns the version incremented by kind. Lower components are reset.
func (v Version) Bump(kind Kind) Version {
	switch kind {
	case Major:
		return Version{Major: v.Major + 1}
	case Minor:
		return Version{Major: v.Major, Minor: v.Minor + 1}
	case Patch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	default:
		return v
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
