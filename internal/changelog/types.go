package changelog

import (
	"time"

	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/ariel-frischer/changeset/internal/semver"
)

// DateFormat is the ISO date used in section headers.
const DateFormat = "2006-01-02"

// Item is a single changelog line derived from a changeset.
type Item struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Author  string `json:"author,omitempty"`
	PR      int    `json:"pr,omitempty"`
	// Commit is the hash that introduced the changeset, when it could be resolved.
	Commit string `json:"commit,omitempty"`
}

// Changes groups items by bump classification.
type Changes struct {
	Major []Item `json:"major"`
	Minor []Item `json:"minor"`
	Patch []Item `json:"patch"`
}

// Entry is one released version's worth of changes.
type Entry struct {
	Version semver.Version `json:"-"`
	// Previous is the version released before this one, if known.
	Previous *semver.Version `json:"-"`
	Date     string          `json:"date"`
	Changes  Changes         `json:"changes"`
}

// NewEntry classifies changesets into an entry dated at the given time.
// Changesets keep their input order within each classification.
func NewEntry(version semver.Version, previous *semver.Version, changesets []changeset.Changeset, date time.Time) Entry {
	e := Entry{
		Version:  version,
		Previous: previous,
		Date:     date.Format(DateFormat),
	}
	for _, c := range changesets {
		item := Item{ID: c.ID, Summary: c.Summary, Author: c.Author, PR: c.PR}
		switch c.Type {
		case changeset.Major:
			e.Changes.Major = append(e.Changes.Major, item)
		case changeset.Minor:
			e.Changes.Minor = append(e.Changes.Minor, item)
		case changeset.Patch:
			e.Changes.Patch = append(e.Changes.Patch, item)
		}
	}
	return e
}

// IsEmpty returns true if the Changes struct has no entries in any category.
func (c Changes) IsEmpty() bool {
	return len(c.Major) == 0 && len(c.Minor) == 0 && len(c.Patch) == 0
}

// Count returns the total number of entries across all categories.
func (c Changes) Count() int {
	return len(c.Major) + len(c.Minor) + len(c.Patch)
}

// Section is a named, non-empty group of items in rendering order.
type Section struct {
	Kind  changeset.Type
	Title string
	Items []Item
}

// Sections returns the non-empty categories in precedence order.
func (c Changes) Sections() []Section {
	all := []Section{
		{Kind: changeset.Major, Title: "Major Changes", Items: c.Major},
		{Kind: changeset.Minor, Title: "Minor Changes", Items: c.Minor},
		{Kind: changeset.Patch, Title: "Patch Changes", Items: c.Patch},
	}
	out := make([]Section, 0, len(all))
	for _, s := range all {
		if len(s.Items) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// SetCommits attaches resolved commit hashes to items by changeset id.
// Ids without a hash keep an empty Commit.
func (e *Entry) SetCommits(commits map[string]string) {
	for _, items := range [][]Item{e.Changes.Major, e.Changes.Minor, e.Changes.Patch} {
		for i := range items {
			items[i].Commit = commits[items[i].ID]
		}
	}
}
