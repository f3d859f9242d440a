package settings

import (
	"context"
	"sync"
)

// MemoryStore keeps settings in process. Used by the console player and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	defaults Settings
	data     map[string]Settings
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(defaults Settings) *MemoryStore {
	return &MemoryStore{defaults: defaults, data: make(map[string]Settings)}
}

func (s *MemoryStore) Load(_ context.Context, clientID string) (Settings, error) {
	if clientID == "" {
		return Settings{}, ErrEmptyClientID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.data[clientID]; ok {
		return v, nil
	}
	return s.defaults, nil
}

func (s *MemoryStore) Save(_ context.Context, clientID string, settings Settings) error {
	if clientID == "" {
		return ErrEmptyClientID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[clientID] = settings
	return nil
}
