// Package queue provides the deduplicated pending-paths queue.
//
// The notifier enqueues paths whose files changed from an external origin;
// a downstream consumer (the UI tab manager, outside this module) drains
// them. Re-enqueueing a path that is already waiting is a no-op, so a burst
// of changes to one file yields a single pending entry.
package queue

import "sync"

// Dedup is a FIFO queue of paths that ignores elements already waiting.
// Safe for concurrent use.
type Dedup struct {
	mu      sync.Mutex
	items   []string
	present map[string]struct{}
}

// NewDedup creates an empty queue.
func NewDedup() *Dedup {
	return &Dedup{present: make(map[string]struct{})}
}

// Enqueue appends path unless it is already waiting.
// Reports whether the path was added.
func (q *Dedup) Enqueue(path string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.present[path]; ok {
		return false
	}
	q.present[path] = struct{}{}
	q.items = append(q.items, path)

	return true
}

// Drain removes and returns all waiting paths in arrival order.
func (q *Dedup) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	q.present = make(map[string]struct{})

	return out
}

// Len returns the number of waiting paths.
func (q *Dedup) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Contains reports whether path is waiting.
func (q *Dedup) Contains(path string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.present[path]
	return ok
}
