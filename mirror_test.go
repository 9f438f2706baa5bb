package workfs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorBasics(t *testing.T) {
	m := NewMirror()

	_, ok := m.Get("/a.py")
	assert.False(t, ok)

	m.Set("/a.py", "a")
	content, ok := m.Get("/a.py")
	require.True(t, ok)
	assert.Equal(t, "a", content)
	assert.Equal(t, 1, m.Len())

	m.Delete("/a.py")
	_, ok = m.Get("/a.py")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestMirrorPathsSorted(t *testing.T) {
	m := NewMirror()
	m.Set("/z.py", "")
	m.Set("/a.py", "")
	m.Set("/m.py", "")

	assert.Equal(t, []string{"/a.py", "/m.py", "/z.py"}, m.Paths())
}

func TestMirrorReplace(t *testing.T) {
	m := NewMirror()
	m.Set("/old.py", "old")

	m.Replace(map[string]string{"/new.py": "new"})

	_, ok := m.Get("/old.py")
	assert.False(t, ok)
	content, ok := m.Get("/new.py")
	require.True(t, ok)
	assert.Equal(t, "new", content)
}

func TestMirrorToMapIsCopy(t *testing.T) {
	m := NewMirror()
	m.Set("/a.py", "a")

	snapshot := m.ToMap()
	snapshot["/a.py"] = "tampered"
	m.Set("/b.py", "b")

	content, _ := m.Get("/a.py")
	assert.Equal(t, "a", content)
	assert.NotContains(t, snapshot, "/b.py")
}

func TestMirrorConcurrentAccess(t *testing.T) {
	m := NewMirror()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				m.Set("/shared.py", "x")
			} else {
				m.Get("/shared.py")
				m.Paths()
			}
		}()
	}
	wg.Wait()

	content, ok := m.Get("/shared.py")
	require.True(t, ok)
	assert.Equal(t, "x", content)
}
