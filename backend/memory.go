package backend

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Backend implementation.
// It stores contents in a map without any durability; intended for tests
// and ephemeral scratch workspaces. Thread-safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates a new in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// List returns all stored keys in lexicographic order.
func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys, nil
}

// Read returns the content stored under key.
func (m *Memory) Read(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return content, nil
}

// Write stores content under key.
func (m *Memory) Write(_ context.Context, key, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = content
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Clear removes every key.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string)
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}
