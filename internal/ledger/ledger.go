// Package ledger persists one JSON record per user with atomic replace
// semantics and a per-user serialization lock.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wagetrack/wagetrack/internal/errs"
	"github.com/wagetrack/wagetrack/internal/model"
)

// Store is a directory-backed record store. All methods are safe for
// concurrent use; read-modify-write cycles for one user must run inside Do
// so that actions from the same user never interleave.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open prepares the store rooted at dir, creating the user directory if
// missing.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "users"), 0o700); err != nil {
		return nil, fmt.Errorf("creating store directories: %w", err)
	}
	return &Store{dir: dir, locks: map[string]*sync.Mutex{}}, nil
}

// userPath returns the record path for userID. User ids come from the chat
// layer and become file names, so path metacharacters are rejected.
func (s *Store) userPath(userID string) (string, error) {
	if userID == "" || strings.ContainsAny(userID, `/\`) || userID == "." || userID == ".." {
		return "", errs.Validation("invalid user id %q", userID)
	}
	return filepath.Join(s.dir, "users", userID+".json"), nil
}

func (s *Store) lockFor(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// Do runs fn while holding the user's lock. Every unit of work that reads
// and rewrites a record (sync, timer start/stop, manual entry) goes through
// here.
func (s *Store) Do(userID string, fn func() error) error {
	l := s.lockFor(userID)
	l.Lock()
	defer l.Unlock()
	return fn()
}

// Get loads the record for userID. It returns (nil, nil) when no record
// exists. An unparseable record is quarantined with a .corrupt suffix and
// reported as a CorruptStore error; the broken data is never overwritten.
func (s *Store) Get(userID string) (*model.UserRecord, error) {
	path, err := s.userPath(userID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var rec model.UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		quarantine := path + ".corrupt"
		_ = os.Rename(path, quarantine)
		return nil, errs.CorruptStore(path, err)
	}
	if rec.Sessions == nil {
		rec.Sessions = map[string]*model.WorkSession{}
	}
	rec.UserID = userID
	return &rec, nil
}

// GetOrCreate loads the record for userID, creating an empty one on first
// interaction. The new record is not persisted until the first Put.
func (s *Store) GetOrCreate(userID string) (*model.UserRecord, error) {
	rec, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = model.NewUserRecord(userID)
	}
	return rec, nil
}

// Put fully replaces the stored record. The write is atomic (temp file plus
// rename) so a concurrent reader never sees a half-written record.
func (s *Store) Put(rec *model.UserRecord) error {
	path, err := s.userPath(rec.UserID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling record: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// ListAll loads every stored record. Used by cross-cutting reporting, not
// by the core engines.
func (s *Store) ListAll() ([]*model.UserRecord, error) {
	dir := filepath.Join(s.dir, "users")
	names, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("storage error listing %s: %w", dir, err)
	}
	var recs []*model.UserRecord
	for _, n := range names {
		if n.IsDir() || !strings.HasSuffix(n.Name(), ".json") {
			continue
		}
		userID := strings.TrimSuffix(n.Name(), ".json")
		rec, err := s.Get(userID)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}
