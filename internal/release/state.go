package release

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ariel-frischer/changeset/internal/lock"
	"gopkg.in/yaml.v3"
)

// StateFileName is the pipeline-state marker inside the changeset directory.
const StateFileName = ".release-state.yml"

// Step is the last completed mutation of a release run.
type Step string

const (
	// StepStarted means nothing was written yet.
	StepStarted Step = "started"
	// StepPrepared means the manifest and changelog are written.
	StepPrepared Step = "prepared"
)

// State is the durable marker of an in-flight release.
type State struct {
	RunID      string    `yaml:"run_id"`
	Command    string    `yaml:"command"`
	From       string    `yaml:"from"`
	Target     string    `yaml:"target"`
	Changesets []string  `yaml:"changesets"`
	Step       Step      `yaml:"step"`
	StartedAt  time.Time `yaml:"started_at"`
	UpdatedAt  time.Time `yaml:"updated_at"`
}

// NewState returns a marker for a run about to apply plan.
func NewState(command string, plan *Plan, now time.Time) *State {
	return &State{
		RunID:      lock.NewRunID(),
		Command:    command,
		From:       plan.Info.Current.String(),
		Target:     plan.Target().String(),
		Changesets: plan.IDs(),
		Step:       StepStarted,
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

// StatePath returns the marker location for a changeset directory.
func StatePath(dir string) string {
	return filepath.Join(dir, StateFileName)
}

// LoadState reads the marker in dir. Returns nil and no error if there is none.
func LoadState(dir string) (*State, error) {
	data, err := os.ReadFile(StatePath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading release state: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing release state %s: %w", StatePath(dir), err)
	}
	if st.Target == "" {
		return nil, fmt.Errorf("release state %s has no target version", StatePath(dir))
	}
	return &st, nil
}

// SaveState atomically writes st into dir.
func SaveState(dir string, st *State) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating changeset directory: %w", err)
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling release state: %w", err)
	}

	path := StatePath(dir)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp release state: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp release state: %w", err)
	}
	return nil
}

// Advance records step on st and persists it.
func Advance(dir string, st *State, step Step, now time.Time) error {
	st.Step = step
	st.UpdatedAt = now
	return SaveState(dir, st)
}

// ClearState removes the marker in dir.
func ClearState(dir string) error {
	if err := os.Remove(StatePath(dir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing release state: %w", err)
	}
	return nil
}
