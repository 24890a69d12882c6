package storage

import (
	"context"
	"sync"

	"github.com/krisalay/keshi/types"
)

// Memory is the default adapter: a plain map guarded by a RWMutex.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*types.Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*types.Entry)}
}

func (m *Memory) Get(_ context.Context, key string) (*types.Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ent, ok := m.entries[key]
	return ent, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, ent *types.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = ent
	return nil
}

func (m *Memory) Keys(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*types.Entry)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) CompareAndSwap(_ context.Context, key string, old, next *types.Entry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.entries[key]; !ok || cur != old {
		return false, nil
	}
	if next == nil {
		delete(m.entries, key)
	} else {
		m.entries[key] = next
	}
	return true, nil
}
