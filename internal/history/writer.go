package history

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Writer appends history entries with automatic pruning.
type Writer struct {
	// StateDir is the directory containing the history file.
	StateDir string
	// MaxEntries is the maximum number of entries to retain (0 = unlimited).
	MaxEntries int
	// Warn receives non-fatal write failures. Defaults to stderr.
	Warn io.Writer

	mu sync.Mutex
}

// NewWriter creates a new history writer.
func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{
		StateDir:   stateDir,
		MaxEntries: maxEntries,
		Warn:       os.Stderr,
	}
}

// LogEntry adds a new entry to the history file.
// Errors are non-fatal: they are reported as warnings and never fail a command.
func (w *Writer) LogEntry(entry HistoryEntry) {
	if err := w.logEntryInternal(entry); err != nil && w.Warn != nil {
		fmt.Fprintf(w.Warn, "Warning: failed to log history: %v\n", err)
	}
}

func (w *Writer) logEntryInternal(entry HistoryEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	history, err := LoadHistory(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	history.Entries = append(history.Entries, entry)

	// Prune oldest entries if over limit
	if w.MaxEntries > 0 && len(history.Entries) > w.MaxEntries {
		excess := len(history.Entries) - w.MaxEntries
		history.Entries = history.Entries[excess:]
	}

	if err := SaveHistory(w.StateDir, history); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}
