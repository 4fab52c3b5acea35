package release

import (
	"fmt"
	"time"

	"github.com/ariel-frischer/changeset/internal/changelog"
	"github.com/ariel-frischer/changeset/internal/changeset"
	"github.com/ariel-frischer/changeset/internal/manifest"
	"github.com/ariel-frischer/changeset/internal/semver"
	"github.com/ariel-frischer/changeset/internal/versioning"
)

// Settings locate the files a release touches and select the rendering.
// All paths are absolute or relative to the process working directory.
type Settings struct {
	ChangesetDir   string
	ManifestPath   string
	ChangelogPath  string
	ChangelogTitle string
	Template       string
	Render         changelog.RenderConfig
}

// CommitResolver maps changeset ids to the commits that introduced them.
type CommitResolver func(ids []string) map[string]string

// Plan is a computed, not yet applied, release.
type Plan struct {
	Info       versioning.Info
	Manifest   *manifest.Manifest
	Changesets []changeset.Changeset
	Entry      changelog.Entry
	// Section is the rendered changelog text for Entry.
	Section string
}

// Target returns the version the plan releases.
func (p *Plan) Target() semver.Version {
	return p.Info.Next
}

// IDs returns the ids of the changesets the plan consumes.
func (p *Plan) IDs() []string {
	return changeset.IDs(p.Changesets)
}

// Compute loads the manifest and pending changesets and plans the release.
func Compute(store *changeset.Store, s Settings, now time.Time, commits CommitResolver) (*Plan, error) {
	m, err := manifest.Load(s.ManifestPath)
	if err != nil {
		return nil, err
	}
	list, err := store.ListAll()
	if err != nil {
		return nil, err
	}
	return NewPlan(m, list, s, now, commits)
}

// NewPlan plans a release of list on top of the manifest's current version.
func NewPlan(m *manifest.Manifest, list []changeset.Changeset, s Settings, now time.Time, commits CommitResolver) (*Plan, error) {
	return buildPlan(versioning.Calculate(m.Version, list), m, list, s, now, commits)
}

func buildPlan(info versioning.Info, m *manifest.Manifest, list []changeset.Changeset, s Settings, now time.Time, commits CommitResolver) (*Plan, error) {
	previous := info.Current
	entry := changelog.NewEntry(info.Next, &previous, list, now)
	if commits != nil && len(list) > 0 {
		entry.SetCommits(commits(changeset.IDs(list)))
	}

	p := &Plan{Info: info, Manifest: m, Changesets: list, Entry: entry}
	if !info.HasChanges {
		return p, nil
	}

	section, err := changelog.Render(s.Template, entry, s.Render)
	if err != nil {
		return nil, err
	}
	p.Section = section
	return p, nil
}

// Apply writes the target version into the manifest and inserts the
// changelog section. Each write is skipped when already present, so Apply
// can be repeated. It returns the files it changed.
func (p *Plan) Apply(s Settings) ([]string, error) {
	if !p.Info.HasChanges {
		return nil, nil
	}

	var changed []string

	current, err := manifest.Load(s.ManifestPath)
	if err != nil {
		return nil, err
	}
	if current.Version != p.Target() {
		if err := manifest.SetVersion(s.ManifestPath, p.Target()); err != nil {
			return changed, fmt.Errorf("updating manifest version: %w", err)
		}
		changed = append(changed, s.ManifestPath)
	}

	wrote, err := p.writeChangelog(s)
	if err != nil {
		return changed, err
	}
	if wrote {
		changed = append(changed, s.ChangelogPath)
	}
	return changed, nil
}

func (p *Plan) writeChangelog(s Settings) (bool, error) {
	doc, err := changelog.ReadDocument(s.ChangelogPath)
	if err != nil {
		return false, err
	}
	if changelog.HasVersion(doc, p.Target()) {
		logDebug("[release] changelog already has v%s", p.Target())
		return false, nil
	}
	if err := changelog.Prepend(s.ChangelogPath, p.Section, s.ChangelogTitle, p.Manifest.Name); err != nil {
		return false, fmt.Errorf("writing changelog: %w", err)
	}
	return true, nil
}
