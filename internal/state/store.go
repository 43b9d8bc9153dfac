package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stateFileName = "state.json"

// ErrNoState is returned when no state document exists in the store.
var ErrNoState = errors.New("no state file found")

// Store persists the wizard state document to disk. Writes go through a
// temp file and rename so an interrupted save never leaves a corrupt or
// partial document behind.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the location of the active state file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, stateFileName)
}

// Exists reports whether an active state file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// Load reads and validates the state document.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("invalid state file: %w", err)
	}
	return &st, nil
}

// Save writes the state document atomically with owner-only permissions.
func (s *Store) Save(st *State) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, stateFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting state file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing state file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// Archive renames the active state file to a timestamped destroyed
// marker and returns the archive path. The archive is never deleted.
func (s *Store) Archive() (string, error) {
	stamp := time.Now().UTC().Format("20060102T150405Z")
	archived := filepath.Join(s.dir, fmt.Sprintf("state.destroyed.%s.json", stamp))
	if err := os.Rename(s.Path(), archived); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoState
		}
		return "", fmt.Errorf("archiving state file: %w", err)
	}
	return archived, nil
}
