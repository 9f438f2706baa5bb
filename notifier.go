package workfs

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/hupe1980/workfs/backend"
	"github.com/hupe1980/workfs/internal/pathutil"
	"github.com/hupe1980/workfs/queue"
)

// DefaultDebounceWindow is how long a repeated notification for the same
// path and content is treated as part of the same burst.
const DefaultDebounceWindow = 120 * time.Millisecond

// expectedWriteTTL bounds how long an unconsumed ledger record can linger
// when its notification never arrives.
const expectedWriteTTL = 10 * time.Second

// String returns a pointer to s. Helper for notifier content arguments,
// where nil denotes a deletion.
func String(s string) *string { return &s }

type expectedWrite struct {
	content *string
	at      time.Time
}

// writeLedger holds one pending "write we just performed" record per path.
// A record is consumed by the first notification reporting the same path
// AND the same content; content equality is required so a genuinely new
// external change inside the debounce window is not wrongly suppressed.
type writeLedger struct {
	mu      sync.Mutex
	entries map[string]expectedWrite
}

func newWriteLedger() *writeLedger {
	return &writeLedger{entries: make(map[string]expectedWrite)}
}

func (l *writeLedger) record(path string, content *string) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for p, e := range l.entries {
		if now.Sub(e.at) > expectedWriteTTL {
			delete(l.entries, p)
		}
	}
	l.entries[path] = expectedWrite{content: content, at: now}
}

// consume removes and reports a matching record for (path, content).
func (l *writeLedger) consume(path string, content *string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[path]
	if !ok || !contentEqual(e.content, content) {
		return false
	}
	delete(l.entries, path)

	return true
}

func contentEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func contentSum(content *string) uint64 {
	h := fnv.New64a()
	if content == nil {
		h.Write([]byte{0})
	} else {
		h.Write([]byte{1})
		h.Write([]byte(*content))
	}
	return h.Sum64()
}

type seenChange struct {
	sum uint64
	at  time.Time
}

// Notifier is the single entry point for any observed file change, whether
// it originates from the FileManager's own writes or from an external
// source such as the execution runtime syncing its sandboxed file view.
//
// The pipeline is: canonicalize, debounce bursts, discard echoes of
// self-writes, then treat the rest as genuine external changes (update the
// mirror, persist durably, queue the path for UI follow-up).
type Notifier struct {
	mirror  *Mirror
	backend backend.Backend
	ledger  *writeLedger
	pending *queue.Dedup
	window  time.Duration
	logger  *Logger
	metrics MetricsCollector

	mu   sync.Mutex
	seen map[string]seenChange
}

func newNotifier(mirror *Mirror, b backend.Backend, ledger *writeLedger, pending *queue.Dedup, window time.Duration, logger *Logger, metrics MetricsCollector) *Notifier {
	return &Notifier{
		mirror:  mirror,
		backend: b,
		ledger:  ledger,
		pending: pending,
		window:  window,
		logger:  logger,
		metrics: metrics,
		seen:    make(map[string]seenChange),
	}
}

// FileWritten reports an observed change to path; nil content denotes a
// deletion. Components observing file changes must call it exactly once
// per observed change.
//
// Persistence failures for external changes are logged, not returned: the
// in-memory workspace stays usable even when durable storage misbehaves.
func (n *Notifier) FileWritten(ctx context.Context, path string, content *string) {
	path = pathutil.Canonical(path)
	now := time.Now()
	sum := contentSum(content)

	// Debounce is keyed by (path, content): bursts from the same logical
	// change carry identical content, while a different content for the
	// same path is a new change and must pass through.
	n.mu.Lock()
	if prev, ok := n.seen[path]; ok && prev.sum == sum && now.Sub(prev.at) < n.window {
		n.mu.Unlock()
		n.metrics.RecordNotify(false, true)
		n.logger.LogNotify(ctx, path, "debounced")
		return
	}
	n.seen[path] = seenChange{sum: sum, at: now}
	n.mu.Unlock()

	if n.ledger.consume(path, content) {
		n.metrics.RecordNotify(true, false)
		n.logger.LogNotify(ctx, path, "echo")
		return
	}

	// Genuine external change.
	if content == nil {
		n.mirror.Delete(path)
		if err := n.backend.Delete(ctx, path); err != nil {
			n.logger.ErrorContext(ctx, "external delete persist failed", "path", path, "error", err)
		}
	} else {
		n.mirror.Set(path, *content)
		if err := n.backend.Write(ctx, path, *content); err != nil {
			n.logger.ErrorContext(ctx, "external write persist failed", "path", path, "error", err)
		}
	}

	n.pending.Enqueue(path)
	n.metrics.RecordNotify(false, false)
	n.logger.LogNotify(ctx, path, "applied")
}
