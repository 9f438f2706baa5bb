package backend

import (
	"context"
	"sync"
	"sync/atomic"
)

// Faulty is a Backend wrapper that counts operations and can inject errors.
// It is a test utility: logic tests use it to assert exact backend I/O
// (write idempotence) and to simulate quota exhaustion or per-key failures.
type Faulty struct {
	Inner Backend

	mu         sync.Mutex
	writeRules map[string]error
	deleteRule map[string]error

	writes  atomic.Int64
	deletes atomic.Int64
	reads   atomic.Int64
}

// NewFaulty wraps inner (or a fresh Memory backend if nil).
func NewFaulty(inner Backend) *Faulty {
	if inner == nil {
		inner = NewMemory()
	}
	return &Faulty{
		Inner:      inner,
		writeRules: make(map[string]error),
		deleteRule: make(map[string]error),
	}
}

// FailWrite makes writes to key fail with err until the rule is removed.
// Pass err = nil to remove the rule.
func (f *Faulty) FailWrite(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.writeRules, key)
		return
	}
	f.writeRules[key] = err
}

// FailDelete makes deletes of key fail with err until the rule is removed.
func (f *Faulty) FailDelete(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.deleteRule, key)
		return
	}
	f.deleteRule[key] = err
}

// Writes returns the number of Write calls observed (including failed ones).
func (f *Faulty) Writes() int64 { return f.writes.Load() }

// Deletes returns the number of Delete calls observed.
func (f *Faulty) Deletes() int64 { return f.deletes.Load() }

// Reads returns the number of Read calls observed.
func (f *Faulty) Reads() int64 { return f.reads.Load() }

func (f *Faulty) List(ctx context.Context) ([]string, error) {
	return f.Inner.List(ctx)
}

func (f *Faulty) Read(ctx context.Context, key string) (string, error) {
	f.reads.Add(1)
	return f.Inner.Read(ctx, key)
}

func (f *Faulty) Write(ctx context.Context, key, content string) error {
	f.writes.Add(1)
	f.mu.Lock()
	err := f.writeRules[key]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Inner.Write(ctx, key, content)
}

func (f *Faulty) Delete(ctx context.Context, key string) error {
	f.deletes.Add(1)
	f.mu.Lock()
	err := f.deleteRule[key]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Inner.Delete(ctx, key)
}

func (f *Faulty) Clear(ctx context.Context) error {
	return f.Inner.Clear(ctx)
}
