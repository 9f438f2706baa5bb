package workfs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/workfs/backend"
	"github.com/hupe1980/workfs/internal/pathutil"
	"github.com/hupe1980/workfs/queue"
	"golang.org/x/sync/errgroup"
)

// FileManager is the public façade of the workspace file system.
//
// It enforces the protected-file and read-only invariants, derives
// canonical paths, and drives the backend, mirror and expected-write
// ledger together. All state is held on the manager (no package globals),
// so isolated instances can coexist in tests and multi-workspace hosts.
//
// FileManager does not serialize operations on the same path: two
// concurrent writes race and the one whose backend call resolves last wins
// in the mirror, which may not match call order.
type FileManager struct {
	backend  backend.Backend
	cfg      *Config
	mirror   *Mirror
	ledger   *writeLedger
	notifier *Notifier
	pending  *queue.Dedup
	logger   *Logger
	metrics  MetricsCollector

	// sysWrites counts active system-write scopes; the read-only bypass is
	// active while it is positive. A counter rather than a boolean so
	// nested and concurrent scoped acquisitions cannot race each other's
	// teardown.
	sysWrites atomic.Int64
}

// New creates a FileManager over b, loads the persisted workspace into the
// mirror, and applies cfg: starter files are seeded into paths that do not
// exist yet and the Main File is guaranteed present.
func New(ctx context.Context, b backend.Backend, cfg *Config, optFns ...Option) (*FileManager, error) {
	if b == nil {
		return nil, fmt.Errorf("workfs: backend must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	o := applyOptions(optFns)

	m := &FileManager{
		backend: b,
		cfg:     cfg,
		mirror:  NewMirror(),
		ledger:  newWriteLedger(),
		pending: queue.NewDedup(),
		logger:  o.logger,
		metrics: o.metrics,
	}
	m.notifier = newNotifier(m.mirror, b, m.ledger, m.pending, o.debounceWindow, o.logger, o.metrics)

	if err := m.load(ctx, o.loadConcurrency); err != nil {
		return nil, err
	}
	if err := m.applyConfig(ctx); err != nil {
		return nil, err
	}

	return m, nil
}

// load fills the mirror from the backend. Only keys in canonical file form
// (leading slash) are workspace files; bookkeeping keys such as snapshot
// lists are skipped.
func (m *FileManager) load(ctx context.Context, concurrency int) error {
	keys, err := m.backend.List(ctx)
	if err != nil {
		return fmt.Errorf("workfs: list backend: %w", err)
	}

	var mu sync.Mutex
	files := make(map[string]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, key := range keys {
		if !strings.HasPrefix(key, "/") {
			continue
		}
		key := key
		g.Go(func() error {
			content, err := m.backend.Read(gctx, key)
			if err != nil {
				return fmt.Errorf("workfs: read %s: %w", key, err)
			}
			mu.Lock()
			files[key] = content
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	m.mirror.Replace(files)
	return nil
}

// applyConfig seeds the configuration's starter files into paths that do
// not exist yet and guarantees the Main File is present. Runs in a
// system-write scope because starter files may be read-only.
func (m *FileManager) applyConfig(ctx context.Context) error {
	return m.SystemWrite(ctx, func(ctx context.Context) error {
		for _, path := range pathutil.Sorted(keysOf(m.cfg.Files)) {
			canonical := pathutil.Canonical(path)
			if _, ok := m.mirror.Get(canonical); ok {
				continue
			}
			if err := m.Overwrite(ctx, canonical, m.cfg.Files[path]); err != nil {
				return err
			}
		}

		if _, ok := m.mirror.Get(m.cfg.Main()); !ok {
			m.logger.WithPath(m.cfg.Main()).Debug("seeding missing main file")
			return m.Overwrite(ctx, m.cfg.Main(), "")
		}
		return nil
	})
}

func keysOf(files map[string]string) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	return keys
}

// List returns all workspace paths in lexicographic order, from the mirror.
func (m *FileManager) List() []string {
	return m.mirror.Paths()
}

// Read returns the content for path, synchronously from the mirror.
func (m *FileManager) Read(path string) (string, bool) {
	return m.mirror.Get(pathutil.Canonical(path))
}

// Files returns a copy of the full workspace as a path -> content map.
func (m *FileManager) Files() map[string]string {
	return m.mirror.ToMap()
}

// Write stores content at path.
//
// Silently dropped (nil error, logged) when the path is read-only outside
// a system-write scope, when it would empty the Main File, or when the
// content is unchanged.
func (m *FileManager) Write(ctx context.Context, path, content string) error {
	return m.write(ctx, path, content, false)
}

// Overwrite is Write without the empty-Main-File guard. Used by
// authoritative internal flows (configuration application, snapshot
// restore) for which the snapshot or config content is the truth even
// when empty.
func (m *FileManager) Overwrite(ctx context.Context, path, content string) error {
	return m.write(ctx, path, content, true)
}

func (m *FileManager) write(ctx context.Context, path, content string, authoritative bool) error {
	start := time.Now()
	path = pathutil.Canonical(path)

	if m.cfg.IsReadOnly(path) && !m.systemWriteActive() {
		m.logger.LogWriteBlocked(ctx, path, "read-only")
		m.metrics.RecordWrite(time.Since(start), true, nil)
		return nil
	}

	if !authoritative && path == m.cfg.Main() && content == "" {
		m.logger.LogWriteBlocked(ctx, path, "empty main file")
		m.metrics.RecordWrite(time.Since(start), true, nil)
		return nil
	}

	if prev, ok := m.mirror.Get(path); ok && prev == content {
		m.metrics.RecordWrite(time.Since(start), true, nil)
		return nil
	}

	m.mirror.Set(path, content)
	if err := m.backend.Write(ctx, path, content); err != nil {
		err = fmt.Errorf("workfs: write %s: %w", path, err)
		m.logger.LogWrite(ctx, path, len(content), err)
		m.metrics.RecordWrite(time.Since(start), false, err)
		return err
	}

	// The sync layer will observe this write and report it back through the
	// notifier; the ledger record marks that report as an echo.
	m.ledger.record(path, &content)

	m.logger.LogWrite(ctx, path, len(content), nil)
	m.metrics.RecordWrite(time.Since(start), false, nil)
	return nil
}

// Delete removes path from the workspace.
//
// Returns a *ReadOnlyError when the path is read-only outside a
// system-write scope. Deleting the Main File is a silent no-op.
func (m *FileManager) Delete(ctx context.Context, path string) error {
	start := time.Now()
	path = pathutil.Canonical(path)

	if m.cfg.IsReadOnly(path) && !m.systemWriteActive() {
		err := &ReadOnlyError{Path: path}
		m.logger.LogDelete(ctx, path, err)
		m.metrics.RecordDelete(time.Since(start), err)
		return err
	}

	if path == m.cfg.Main() {
		m.logger.WithPath(path).Debug("main file delete ignored")
		m.metrics.RecordDelete(time.Since(start), nil)
		return nil
	}

	m.mirror.Delete(path)
	if err := m.backend.Delete(ctx, path); err != nil {
		err = fmt.Errorf("workfs: delete %s: %w", path, err)
		m.logger.LogDelete(ctx, path, err)
		m.metrics.RecordDelete(time.Since(start), err)
		return err
	}

	m.ledger.record(path, nil)

	m.logger.LogDelete(ctx, path, nil)
	m.metrics.RecordDelete(time.Since(start), nil)
	return nil
}

// SystemWrite runs fn with the read-only bypass active. Acquisition is
// scoped: the bypass is released when fn returns, even on error. Scopes
// nest safely.
func (m *FileManager) SystemWrite(ctx context.Context, fn func(ctx context.Context) error) error {
	m.sysWrites.Add(1)
	defer m.sysWrites.Add(-1)
	return fn(ctx)
}

func (m *FileManager) systemWriteActive() bool {
	return m.sysWrites.Load() > 0
}

// Notifier returns the change-notification entry point. The execution
// runtime's sync layer calls Notifier().FileWritten once per observed
// change.
func (m *FileManager) Notifier() *Notifier {
	return m.notifier
}

// PendingTabs returns the queue of paths awaiting UI presentation,
// populated by the notifier and drained by the host's tab manager.
func (m *FileManager) PendingTabs() *queue.Dedup {
	return m.pending
}

// Config returns the active configuration.
func (m *FileManager) Config() *Config {
	return m.cfg
}

// Backend returns the underlying durable store.
func (m *FileManager) Backend() backend.Backend {
	return m.backend
}
