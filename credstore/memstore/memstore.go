package memstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-session-client/credstore"
)

var _ credstore.Store = (*MemStore)(nil)

// MemStore keeps credentials for the life of the process only.
type MemStore struct {
	creds credstore.Credentials
	lock  sync.RWMutex
}

func New() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Get(_ context.Context) (credstore.Credentials, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.creds, nil
}

func (s *MemStore) Set(_ context.Context, access, refresh string) error {
	if access == "" {
		return credstore.ErrEmptyAccess
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.creds = credstore.Merge(s.creds, access, refresh)
	return nil
}

func (s *MemStore) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.creds = credstore.Credentials{}
	return nil
}
