package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/spiffcs/cherrypick/internal/constants"
	"github.com/spiffcs/cherrypick/internal/log"
	"github.com/spiffcs/cherrypick/internal/pick"
)

// Snapshot captures the bucket counts from a single cherry-pick run.
type Snapshot struct {
	Timestamp        time.Time      `json:"ts"`
	Release          string         `json:"release"`
	Source           string         `json:"source,omitempty"`
	Issues           int            `json:"issues"`
	Bugs             int            `json:"bugs"`
	BugsMissingURL   int            `json:"bugsMissingURL"`
	Open             int            `json:"open"`
	MissingChangeset int            `json:"missingChangeset"`
	Ignored          int            `json:"ignored"`
	NotNeeded        int            `json:"notNeeded"`
	Needed           int            `json:"needed"`
	ByRepository     map[string]int `json:"byRepo,omitempty"`
	DurationMS       int64          `json:"durationMs"`
}

// NewSnapshot builds a snapshot from a report summary.
func NewSnapshot(release, source string, issues int, sum pick.Summary, elapsed time.Duration) Snapshot {
	return Snapshot{
		Timestamp:        time.Now(),
		Release:          release,
		Source:           source,
		Issues:           issues,
		Bugs:             sum.Bugs,
		BugsMissingURL:   sum.BugsMissingURL,
		Open:             sum.Open,
		MissingChangeset: sum.MissingChangeset,
		Ignored:          sum.Ignored,
		NotNeeded:        sum.NotNeeded,
		Needed:           sum.Needed,
		ByRepository:     sum.ByRepository,
		DurationMS:       elapsed.Milliseconds(),
	}
}

// Store keeps run snapshots in a JSON Lines file, oldest first.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore opens the history file under the user cache directory.
func NewStore() (*Store, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return NewStoreWithPath(filepath.Join(dir, "cherrypick", "history.jsonl")), nil
}

// NewStoreWithPath opens a store backed by path. The file and its
// directory are created on first append.
func NewStoreWithPath(path string) *Store {
	return &Store{path: path}
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Append records snap, keeping only the newest MaxHistoryEntries runs. An
// unreadable history file is replaced.
func (s *Store) Append(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		log.Debug("discarding unreadable history", "path", s.path, "error", err)
	}
	records = append(records, snap)
	if extra := len(records) - constants.MaxHistoryEntries; extra > 0 {
		records = records[extra:]
	}
	return s.save(records)
}

// Recent returns up to n of the newest snapshots.
func (s *Store) Recent(n int) []Snapshot {
	all := s.Query("", time.Time{})
	return all[max(len(all)-n, 0):]
}

// Query returns the snapshots recorded at or after since, restricted to
// release when it is non-empty. A zero since matches every record.
func (s *Store) Query(release string, since time.Time) []Snapshot {
	s.mu.Lock()
	records, err := s.load()
	s.mu.Unlock()
	if err != nil {
		log.Debug("could not read history", "path", s.path, "error", err)
		return nil
	}

	return slices.DeleteFunc(records, func(r Snapshot) bool {
		return (release != "" && r.Release != release) || r.Timestamp.Before(since)
	})
}

// Clear deletes the history file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// load reads every well-formed line. A missing file is empty history.
func (s *Store) load() ([]Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []Snapshot
	for line := range bytes.Lines(data) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var snap Snapshot
		if json.Unmarshal(line, &snap) != nil {
			continue
		}
		records = append(records, snap)
	}
	return records, nil
}

// save rewrites the history through a temp file and rename.
func (s *Store) save(records []Snapshot) (err error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	return os.Rename(tmp, s.path)
}
