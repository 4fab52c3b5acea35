// Package versioning derives the next release version from pending changesets.
package versioning

import (
	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/ariel-frischer/changeset/internal/semver"
)

// Counts tallies changesets per classification.
type Counts struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// Info is the derived version state for a set of changesets.
type Info struct {
	Current       semver.Version `json:"-"`
	Next          semver.Version `json:"-"`
	HasChanges    bool           `json:"hasChanges"`
	ChangesByType Counts         `json:"changesByType"`
}

// BumpKind returns the bump that produced Next.
func (i Info) BumpKind() semver.Kind {
	return KindFor(i.ChangesByType)
}

// KindFor applies strict precedence: any major beats any minor beats patch.
func KindFor(c Counts) semver.Kind {
	switch {
	case c.Major > 0:
		return semver.Major
	case c.Minor > 0:
		return semver.Minor
	case c.Patch > 0:
		return semver.Patch
	default:
		return semver.None
	}
}

// Calculate is a pure function of the current version and the changeset set.
// Order of the changesets does not matter.
func Calculate(current semver.Version, changesets []changeset.Changeset) Info {
	info := Info{Current: current, Next: current}
	if len(changesets) == 0 {
		return info
	}

	for _, c := range changesets {
		switch c.Type {
		case changeset.Major:
			info.ChangesByType.Major++
		case changeset.Minor:
			info.ChangesByType.Minor++
		case changeset.Patch:
			info.ChangesByType.Patch++
		}
	}

	info.Next = current.Bump(KindFor(info.ChangesByType))
	info.HasChanges = true
	return info
}

// CalculateFromString parses current first; malformed input is an error,
// never a fallback to 0.0.0.
func CalculateFromString(current string, changesets []changeset.Changeset) (Info, error) {
	v, err := semver.Parse(current)
	if err != nil {
		return Info{}, err
	}
	return Calculate(v, changesets), nil
}
