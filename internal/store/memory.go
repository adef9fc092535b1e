package store

import (
	"context"
	"sync"

	"github.com/jun/babymemories/internal/adapter"
)

// MemoryBackend keeps values in a map. Used by tests and DEV_MODE.
type MemoryBackend struct {
	mu    sync.RWMutex
	items map[string]Item
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[string]Item)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[key]
	if !ok {
		return Item{}, adapter.ErrNotFound
	}
	value := make([]byte, len(item.Value))
	copy(value, item.Value)
	return Item{Value: value, Version: item.Version}, nil
}

func (m *MemoryBackend) Put(_ context.Context, key string, value []byte, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.items[key].Version
	if current != expectedVersion {
		return 0, adapter.ErrPreconditionFailed
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.items[key] = Item{Value: stored, Version: current + 1}
	return current + 1, nil
}
