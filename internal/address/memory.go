package address

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used when no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Address
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Address)}
}

func (m *MemoryStore) FindByCEP(_ context.Context, cep string) (*Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	addr, ok := m.items[cep]
	if !ok {
		return nil, ErrNotFound
	}
	return &addr, nil
}

func (m *MemoryStore) Upsert(_ context.Context, addr Address) (*Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[addr.CEP] = addr
	return &addr, nil
}

// Len returns the number of stored addresses.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
