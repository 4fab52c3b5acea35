package changeset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RecordExt is the file extension of changeset records.
const RecordExt = ".yml"

// ConfigFileName is the store-level configuration record that shares the
// directory with changesets and is never listed as one.
const ConfigFileName = "config.yml"

// debugLogger is a no-op unless SetDebugLogger is called.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for store operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Store reads and writes changeset records in a single directory.
// It is not safe for concurrent use by multiple processes; callers that
// mutate the store as part of a release hold the project lock.
type Store struct {
	dir         string
	warn        io.Writer
	now         func() time.Time
	intn        intnFunc
	maxAttempts int
}

// Option configures a Store.
type Option func(*Store)

// WithWarningWriter sets where skipped-record warnings are written (default: os.Stderr).
func WithWarningWriter(w io.Writer) Option {
	return func(s *Store) { s.warn = w }
}

// WithClock overrides the timestamp source for new records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRandom overrides the random source used to draw ids.
func WithRandom(intn func(n int) int) Option {
	return func(s *Store) { s.intn = intn }
}

// WithMaxIDAttempts overrides the id retry budget.
func WithMaxIDAttempts(n int) Option {
	return func(s *Store) { s.maxAttempts = n }
}

// NewStore returns a store rooted at dir. The directory is created lazily on
// the first write.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:         dir,
		warn:        os.Stderr,
		now:         time.Now,
		intn:        defaultIntn,
		maxAttempts: DefaultMaxIDAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the record path for an id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+RecordExt)
}

// Create validates the input and writes a new record under a fresh id.
func (s *Store) Create(t Type, summary string) (*Changeset, error) {
	return s.CreateWith(Input{Type: t, Summary: summary})
}

// CreateWith is Create with optional author and pull request decoration.
func (s *Store) CreateWith(in Input) (*Changeset, error) {
	valid, err := ValidateInput(in)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating changeset directory: %w", err)
	}

	c := &Changeset{
		Type:      valid.Type,
		Summary:   valid.Summary,
		CreatedAt: s.now().UTC(),
		Author:    valid.Author,
		PR:        valid.PR,
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		c.ID = generateID(s.intn)
		err := s.writeNew(c)
		if err == nil {
			logDebug("[changeset] created %s (attempt %d)", c.ID, attempt)
			return c, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
		logDebug("[changeset] id %s already taken, retrying", c.ID)
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrIDGenerationExhausted, s.maxAttempts)
}

// writeNew writes a record, failing with fs.ErrExist if the id is taken.
func (s *Store) writeNew(c *Changeset) error {
	data, err := yaml.Marshal(toRecord(c))
	if err != nil {
		return fmt.Errorf("marshaling changeset: %w", err)
	}

	f, err := os.OpenFile(s.Path(c.ID), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(s.Path(c.ID))
		return fmt.Errorf("writing changeset %s: %w", c.ID, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(s.Path(c.ID))
		return fmt.Errorf("closing changeset %s: %w", c.ID, err)
	}
	return nil
}

// writeExisting atomically replaces an existing record.
func (s *Store) writeExisting(c *Changeset) error {
	data, err := yaml.Marshal(toRecord(c))
	if err != nil {
		return fmt.Errorf("marshaling changeset: %w", err)
	}

	path := s.Path(c.ID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp changeset file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp changeset file: %w", err)
	}
	return nil
}

// ScanResult holds the outcome of reading every record in the directory.
type ScanResult struct {
	Changesets []Changeset
	Corrupt    []*CorruptRecordError
}

// Scan reads every record, separating valid changesets from corrupt files.
// A missing directory yields an empty result.
func (s *Store) Scan() (*ScanResult, error) {
	result := &ScanResult{}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("reading changeset directory: %w", err)
	}

	for _, entry := range entries {
		if !isRecordFile(entry) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		c, corrupt := s.readRecord(path)
		if corrupt != nil {
			result.Corrupt = append(result.Corrupt, corrupt)
			continue
		}
		result.Changesets = append(result.Changesets, *c)
	}

	sortChangesets(result.Changesets)
	return result, nil
}

// ListAll returns every valid changeset oldest first. Corrupt records are
// reported to the warning writer and excluded.
func (s *Store) ListAll() ([]Changeset, error) {
	result, err := s.Scan()
	if err != nil {
		return nil, err
	}
	for _, c := range result.Corrupt {
		fmt.Fprintf(s.warn, "Warning: skipping %v\n", c)
	}
	return result.Changesets, nil
}

// checkID rejects ids that cannot name a record Scan would list: path
// components, hidden names and the configuration record.
func checkID(id string) error {
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, `/\`) ||
		strings.HasPrefix(id, ".") || id+RecordExt == ConfigFileName {
		return fmt.Errorf("%w: %q is not a changeset id", ErrNotFound, id)
	}
	return nil
}

// Get returns a single changeset by id.
func (s *Store) Get(id string) (*Changeset, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	path := s.Path(id)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("reading changeset %s: %w", id, err)
	}
	c, corrupt := s.readRecord(path)
	if corrupt != nil {
		return nil, corrupt
	}
	return c, nil
}

// Edit replaces the type and summary of an existing record, preserving its
// id, creation time and decoration.
func (s *Store) Edit(id string, t Type, summary string) (*Changeset, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return s.EditWith(id, Input{Type: t, Summary: summary, Author: existing.Author, PR: existing.PR})
}

// EditWith replaces every user-supplied field of an existing record.
func (s *Store) EditWith(id string, in Input) (*Changeset, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	valid, err := ValidateInput(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	existing.Type = valid.Type
	existing.Summary = valid.Summary
	existing.Author = valid.Author
	existing.PR = valid.PR

	if err := s.writeExisting(existing); err != nil {
		return nil, err
	}
	logDebug("[changeset] edited %s", id)
	return existing, nil
}

// Delete removes one record.
func (s *Store) Delete(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := os.Remove(s.Path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("deleting changeset %s: %w", id, err)
	}
	logDebug("[changeset] deleted %s", id)
	return nil
}

// DeleteAll removes every valid record and returns how many were deleted.
// Corrupt records are left in place for inspection.
func (s *Store) DeleteAll() (int, error) {
	list, err := s.ListAll()
	if err != nil {
		return 0, err
	}
	return len(list), s.deleteIDs(IDs(list))
}

// ConsumeAll returns the pending changesets and then deletes them. Call it
// only after the version bump and changelog they produced are on disk.
func (s *Store) ConsumeAll() ([]Changeset, error) {
	list, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	if err := s.deleteIDs(IDs(list)); err != nil {
		return nil, err
	}
	return list, nil
}

// Consume deletes exactly the given ids. Ids that no longer exist are
// ignored so that an interrupted consume can be repeated.
func (s *Store) Consume(ids []string) error {
	return s.deleteIDs(ids)
}

func (s *Store) deleteIDs(ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := checkID(id); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(s.Path(id)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("deleting changeset %s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logDebug("[changeset] consumed %d records", len(ids))
	return nil
}

func (s *Store) readRecord(path string) (*Changeset, *CorruptRecordError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CorruptRecordError{Path: path, Reason: err.Error()}
	}

	var r record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, &CorruptRecordError{Path: path, Reason: fmt.Sprintf("parsing YAML: %v", err)}
	}

	id := strings.TrimSuffix(filepath.Base(path), RecordExt)
	c, reason := checkRecord(r, id)
	if reason != "" {
		return nil, &CorruptRecordError{Path: path, Reason: reason}
	}
	return c, nil
}

// isRecordFile filters out directories, hidden state files, temp files and
// the store configuration record.
func isRecordFile(entry fs.DirEntry) bool {
	name := entry.Name()
	if entry.IsDir() || strings.HasPrefix(name, ".") {
		return false
	}
	if name == ConfigFileName {
		return false
	}
	return filepath.Ext(name) == RecordExt
}

func sortChangesets(list []Changeset) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
