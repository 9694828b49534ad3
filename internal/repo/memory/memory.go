package memory

import (
	"context"
	"sync"
)

// Store is an in-memory OverrideStore for tests and local runs without a
// key-value store.
type Store struct {
	mu    sync.RWMutex
	pairs map[string]string
}

func New() *Store {
	return &Store{pairs: make(map[string]string)}
}

func (m *Store) All(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.pairs))
	for k, v := range m.pairs {
		out[k] = v
	}
	return out, nil
}

func (m *Store) Put(ctx context.Context, realName, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[realName] = identityID
	return nil
}
