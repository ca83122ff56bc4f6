package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"echolog/internal/domain"
)

// ErrNoSession is returned when no session has been persisted yet.
var ErrNoSession = errors.New("not logged in")

// Store defines persistence operations for the backend session. The
// session travels as an explicit value; nothing reads ambient state.
type Store interface {
	Load() (domain.Session, error)
	Save(domain.Session) error
	Clear() error
}

// FileStore persists the session in a single JSON file on disk.
type FileStore struct {
	path string
}

// NewFileStore creates a JSON-backed session store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted session or reports ErrNoSession.
func (s *FileStore) Load() (domain.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Session{}, ErrNoSession
		}
		return domain.Session{}, err
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domain.Session{}, err
	}
	if sess.Token == "" {
		return domain.Session{}, ErrNoSession
	}
	return sess, nil
}

// Save writes the session with owner-only permissions.
func (s *FileStore) Save(sess domain.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes the persisted session. Missing files are not an error.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
