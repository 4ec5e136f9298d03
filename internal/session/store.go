package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mitchellh/go-homedir"
)

// Store persists session records at ~/.ocdrun/sessions/
type Store struct {
	dir string
}

// NewStore creates a new session store
func NewStore() (*Store, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, ".ocdrun", "sessions")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// NewStoreAt creates a store rooted at dir. Used by tests.
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save persists a record to disk
func (s *Store) Save(rec *Record) error {
	path := filepath.Join(s.dir, rec.ID+".json")

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load reads a record from disk by ID
func (s *Store) Load(id string) (*Record, error) {
	path := filepath.Join(s.dir, id+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &rec, nil
}

// List returns all saved records, most recent first
func (s *Store) List() ([]*Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Record{}, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var records []*Record
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		id := entry.Name()[:len(entry.Name())-5]
		rec, err := s.Load(id)
		if err != nil {
			continue // Skip invalid records
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records, nil
}

// Delete removes a session file
func (s *Store) Delete(id string) error {
	path := filepath.Join(s.dir, id+".json")

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete session file: %w", err)
	}

	return nil
}

// Prune deletes stored records. With all set every record goes; otherwise
// only sessions that did not end cleanly are removed. Returns the number of
// records deleted.
func (s *Store) Prune(all bool) (int, error) {
	records, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, rec := range records {
		if !all && rec.ExitReason == "ok" {
			continue
		}
		if err := s.Delete(rec.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Dir returns the session storage directory
func (s *Store) Dir() string {
	return s.dir
}
