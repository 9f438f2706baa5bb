package workfs

import (
	"maps"
	"sort"
	"sync"
)

// Mirror is the in-memory path -> content map kept synchronized with the
// backend so reads are synchronous from the caller's perspective.
//
// Thread-safe; enumeration methods return copies.
type Mirror struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMirror creates an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{data: make(map[string]string)}
}

// Get retrieves the content for path.
func (m *Mirror) Get(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.data[path]
	return content, ok
}

// Set stores content for path.
func (m *Mirror) Set(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[path] = content
}

// Delete removes path. Removing an absent path is a no-op.
func (m *Mirror) Delete(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, path)
}

// Paths returns all mirrored paths in lexicographic order.
func (m *Mirror) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.data))
	for p := range m.data {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	return paths
}

// Len returns the number of mirrored files.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}

// ToMap returns a copy of the full path -> content map.
func (m *Mirror) ToMap() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.data))
	maps.Copy(out, m.data)

	return out
}

// Replace swaps the entire mirror content for files.
func (m *Mirror) Replace(files map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]string, len(files))
	maps.Copy(m.data, files)
}
