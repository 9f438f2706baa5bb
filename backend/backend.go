package backend

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`.
var ErrNotFound = errors.New("not found")

// ErrQuotaExceeded is returned when the storage engine rejects a write
// because the available quota is exhausted. Callers that persist snapshot
// lists route this through the storage-health recovery path.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Backend is a durable key -> content store.
//
// Implementations must be safe for concurrent use.
type Backend interface {
	// List returns all stored keys in lexicographic order.
	List(ctx context.Context) ([]string, error)

	// Read returns the content stored under key.
	// Returns an error satisfying errors.Is(err, ErrNotFound) if absent.
	Read(ctx context.Context, key string) (string, error)

	// Write stores content under key, replacing any previous value.
	Write(ctx context.Context, key, content string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every key.
	Clear(ctx context.Context) error
}
