// Package lock guards a project against concurrent release runs with a
// PID-stamped lock file.
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FileName is the lock file created inside the changeset directory.
const FileName = ".lock"

// RunLock is the content of a lock file.
type RunLock struct {
	// RunID identifies the run holding the lock.
	RunID string `yaml:"run_id"`
	// PID is the process ID holding the lock.
	PID int `yaml:"pid"`
	// Command is the subcommand that acquired the lock.
	Command string `yaml:"command"`
	// StartedAt is when the lock was acquired.
	StartedAt time.Time `yaml:"started_at"`
}

// HeldError is returned when a live process already holds the lock.
type HeldError struct {
	Path string
	Lock RunLock
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("another %s run (PID %d, run %s) holds %s since %s",
		e.Lock.Command, e.Lock.PID, e.Lock.RunID, e.Path, e.Lock.StartedAt.Format(time.RFC3339))
}

// Handle is an acquired lock.
type Handle struct {
	path string
	lock RunLock
}

// RunID returns the identifier written into the lock file.
func (h *Handle) RunID() string {
	return h.lock.RunID
}

// NewRunID returns a sortable run identifier: YYYYMMDD_HHMMSS_<8-char-uuid>.
func NewRunID() string {
	return fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}

// Path returns the lock file location for a changeset directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Acquire takes the project lock in dir for command. A lock left by a
// process that is no longer running is reclaimed.
func Acquire(dir, command string) (*Handle, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	h := &Handle{
		path: Path(dir),
		lock: RunLock{
			RunID:     NewRunID(),
			PID:       os.Getpid(),
			Command:   command,
			StartedAt: time.Now(),
		},
	}

	for attempt := 0; attempt < 2; attempt++ {
		err := writeExclusive(h.path, h.lock)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}

		existing, loadErr := Load(dir)
		if loadErr == nil && existing != nil && !IsStale(existing) {
			return nil, &HeldError{Path: h.path, Lock: *existing}
		}
		if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing stale lock: %w", err)
		}
	}
	return nil, fmt.Errorf("acquiring lock %s: lock reappeared while reclaiming", h.path)
}

// Release removes the lock if this handle still owns it.
func (h *Handle) Release() error {
	current, err := Load(filepath.Dir(h.path))
	if err != nil {
		return err
	}
	if current == nil || current.RunID != h.lock.RunID {
		return nil
	}
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// Load reads the lock in dir. Returns nil and no error if there is none.
func Load(dir string) (*RunLock, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading lock file: %w", err)
	}

	var lock RunLock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parsing lock file: %w", err)
	}
	return &lock, nil
}

// IsStale reports whether the process that created lock is gone.
func IsStale(lock *RunLock) bool {
	if lock == nil || lock.PID <= 0 {
		return true
	}
	return !isProcessRunning(lock.PID)
}

// isProcessRunning checks if a process with the given PID exists.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds. Send signal 0 to check existence.
	return process.Signal(syscall.Signal(0)) == nil
}

func writeExclusive(path string, lock RunLock) error {
	data, err := yaml.Marshal(lock)
	if err != nil {
		return fmt.Errorf("marshaling lock: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing lock file: %w", err)
	}
	return f.Close()
}
