// Package history keeps a bounded log of release attempts inside the
// changeset directory.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the history file inside the changeset directory.
const FileName = ".history.yml"

// DefaultMaxEntries bounds the history when no limit is configured.
const DefaultMaxEntries = 100

// HistoryEntry records one publish or version run.
type HistoryEntry struct {
	Timestamp time.Time `yaml:"timestamp"`
	Command   string    `yaml:"command"`
	Version   string    `yaml:"version,omitempty"`
	Tag       string    `yaml:"tag,omitempty"`
	Success   bool      `yaml:"success"`
	DryRun    bool      `yaml:"dry_run,omitempty"`
	Consumed  []string  `yaml:"consumed,omitempty"`
	Errors    []string  `yaml:"errors,omitempty"`
	Warnings  []string  `yaml:"warnings,omitempty"`
	Duration  string    `yaml:"duration,omitempty"`
}

// HistoryFile is the on-disk history document.
type HistoryFile struct {
	Entries []HistoryEntry `yaml:"entries"`
}

// Path returns the history file location for a changeset directory.
func Path(stateDir string) string {
	return filepath.Join(stateDir, FileName)
}

// LoadHistory reads the history in stateDir. A missing file is an empty history.
func LoadHistory(stateDir string) (*HistoryFile, error) {
	data, err := os.ReadFile(Path(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return &HistoryFile{}, nil
		}
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var h HistoryFile
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing history file: %w", err)
	}
	return &h, nil
}

// SaveHistory atomically writes h into stateDir.
func SaveHistory(stateDir string, h *HistoryFile) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	data, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	path := Path(stateDir)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp history file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp history file: %w", err)
	}
	return nil
}

// Last returns the most recent entry for command, or nil.
func (h *HistoryFile) Last(command string) *HistoryEntry {
	for i := len(h.Entries) - 1; i >= 0; i-- {
		if h.Entries[i].Command == command {
			return &h.Entries[i]
		}
	}
	return nil
}

// ClearHistory removes every entry from the history in stateDir.
func ClearHistory(stateDir string) error {
	return SaveHistory(stateDir, &HistoryFile{Entries: []HistoryEntry{}})
}
