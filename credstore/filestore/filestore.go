package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jrsteele09/go-session-client/credstore"
)

var _ credstore.Store = (*FileStore)(nil)

// FileStore persists the credential pair as a JSON document readable only by
// the current user. The file is re-read on every Get so that several
// processes sharing the path observe each other's writes.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("credential file path is required")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context) (credstore.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileStore) Set(_ context.Context, access, refresh string) error {
	if access == "" {
		return credstore.ErrEmptyAccess
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked()
	if err != nil {
		// An unreadable document is replaced rather than blocking a fresh login.
		current = credstore.Credentials{}
	}
	return s.persistLocked(credstore.Merge(current, access, refresh))
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

func (s *FileStore) loadLocked() (credstore.Credentials, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return credstore.Credentials{}, nil
		}
		return credstore.Credentials{}, fmt.Errorf("read credential file: %w", err)
	}
	if len(b) == 0 {
		return credstore.Credentials{}, nil
	}

	var creds credstore.Credentials
	if err := json.Unmarshal(b, &creds); err != nil {
		return credstore.Credentials{}, fmt.Errorf("decode credential file: %w", err)
	}
	return creds, nil
}

func (s *FileStore) persistLocked(creds credstore.Credentials) error {
	b, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp credential file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp credential file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}
