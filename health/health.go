// Package health defines the storage-health collaborator consulted when a
// persistence write fails with quota exhaustion.
//
// The snapshot store calls the configured [Recoverer] after a quota failure
// and retries the write once if the recoverer reports recovered space. What
// recovery means is deployment-specific (evicting caches, prompting the
// user, dropping stale data); this package only fixes the contract.
package health

import "context"

// Result reports the outcome of a recovery attempt.
type Result struct {
	// Success is true if the recovery procedure itself ran without error.
	Success bool

	// Recovered is true if storage space was actually freed; the caller
	// should retry the failed write. Surfaced as an informational message.
	Recovered bool

	// Err is a hard failure: the attempted write is lost and the error is
	// propagated to the caller.
	Err error
}

// Recoverer attempts to free storage after a quota failure.
//
// key is the backend key whose write failed, attempted is the size of the
// rejected payload in bytes.
type Recoverer interface {
	Recover(ctx context.Context, key string, attempted int) Result
}

// RecovererFunc adapts a function to the Recoverer interface.
type RecovererFunc func(ctx context.Context, key string, attempted int) Result

// Recover implements Recoverer.
func (f RecovererFunc) Recover(ctx context.Context, key string, attempted int) Result {
	return f(ctx, key, attempted)
}

// Noop is a Recoverer that never recovers anything.
// With Noop configured, quota failures are hard failures.
type Noop struct{}

// Recover implements Recoverer.
func (Noop) Recover(context.Context, string, int) Result {
	return Result{Success: true, Recovered: false}
}
