package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/workfs"
	"github.com/hupe1980/workfs/backend"
	"github.com/hupe1980/workfs/codec"
	"github.com/hupe1980/workfs/health"
	"github.com/samber/lo"
)

// DefaultAutosaveInterval is the debounce applied to working-copy saves so
// an edit burst produces a single persist.
const DefaultAutosaveInterval = 300 * time.Millisecond

// ErrSnapshotNotFound is returned when a referenced snapshot id does not
// exist in the active identity's list.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Options configures a Store.
type Options struct {
	// Codec encodes the persisted snapshot list. Defaults to plain JSON,
	// the documented interoperable format.
	Codec codec.Codec

	// Recoverer is consulted when a persist fails with quota exhaustion.
	Recoverer health.Recoverer

	// AutosaveInterval is the working-copy save debounce.
	// Zero or negative makes Autosave synchronous (useful in tests).
	AutosaveInterval time.Duration

	// PruneOnQuota drops the oldest history entries and retries when a
	// persist still fails after recovery.
	PruneOnQuota bool

	Logger  *workfs.Logger
	Metrics workfs.MetricsCollector
}

// Store manages the persisted snapshot lists for a workspace.
//
// All list reads/writes are scoped to the active configuration identity;
// snapshots from another identity sharing the backend are never returned.
type Store struct {
	backend backend.Backend
	fm      *workfs.FileManager
	opts    Options

	mu            sync.Mutex
	autosaveTimer *time.Timer

	lastRestore atomic.Int64
}

// NewStore creates a snapshot store over the same backend the file
// manager persists to.
func NewStore(b backend.Backend, fm *workfs.FileManager, optFns ...func(*Options)) *Store {
	opts := Options{
		Codec:            codec.Default,
		Recoverer:        health.Noop{},
		AutosaveInterval: DefaultAutosaveInterval,
		Logger:           workfs.NoopLogger(),
		Metrics:          workfs.NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Recoverer == nil {
		opts.Recoverer = health.Noop{}
	}

	return &Store{
		backend: b,
		fm:      fm,
		opts:    opts,
	}
}

func (s *Store) identity() string {
	return s.fm.Config().Identity()
}

// ForConfig returns the persisted snapshots scoped to identity, oldest
// first. Entries whose stored identity does not match exactly are filtered
// out; they are stale leftovers from another identity sharing storage.
func (s *Store) ForConfig(ctx context.Context, identity string) ([]Snapshot, error) {
	raw, err := s.backend.Read(ctx, Key(identity))
	if errors.Is(err, backend.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: read list for %s: %w", identity, err)
	}

	var snaps []Snapshot
	if err := s.opts.Codec.Unmarshal([]byte(raw), &snaps); err != nil {
		return nil, fmt.Errorf("snapshot: decode list for %s: %w", identity, err)
	}

	return lo.Filter(snaps, func(sn Snapshot, _ int) bool {
		return sn.ConfigIdentity == identity
	}), nil
}

// Save persists the full snapshot list for identity.
//
// Quota failures are routed through the storage-health recoverer; if it
// reports recovered space the write is retried once. With PruneOnQuota
// set, oldest history entries are then dropped one by one until the list
// fits or nothing prunable remains.
func (s *Store) Save(ctx context.Context, identity string, snaps []Snapshot) error {
	start := time.Now()
	err := s.save(ctx, identity, snaps)
	s.opts.Metrics.RecordSnapshotSave(len(snaps), time.Since(start), err)
	s.opts.Logger.LogSnapshotSave(ctx, identity, len(snaps), err)
	return err
}

func (s *Store) save(ctx context.Context, identity string, snaps []Snapshot) error {
	key := Key(identity)
	recovered := false

	for {
		data, err := s.opts.Codec.Marshal(snaps)
		if err != nil {
			return fmt.Errorf("snapshot: encode list for %s: %w", identity, err)
		}

		err = s.backend.Write(ctx, key, string(data))
		if err == nil {
			return nil
		}
		if !errors.Is(err, backend.ErrQuotaExceeded) {
			return fmt.Errorf("snapshot: persist list for %s: %w", identity, err)
		}

		if !recovered {
			recovered = true
			res := s.opts.Recoverer.Recover(ctx, key, len(data))
			if res.Err != nil {
				return fmt.Errorf("snapshot: storage recovery failed: %w", res.Err)
			}
			if res.Recovered {
				s.opts.Logger.InfoContext(ctx, "storage space recovered, retrying persist", "key", key)
				continue
			}
		}

		if s.opts.PruneOnQuota {
			pruned, ok := dropOldestHistory(snaps)
			if ok {
				s.opts.Logger.WarnContext(ctx, "quota exhausted, pruning oldest snapshot", "identity", identity)
				snaps = pruned
				continue
			}
		}

		return fmt.Errorf("snapshot: persist list for %s: %w", identity, err)
	}
}

// dropOldestHistory removes the oldest non-current snapshot.
func dropOldestHistory(snaps []Snapshot) ([]Snapshot, bool) {
	oldest := -1
	for i, sn := range snaps {
		if sn.IsCurrent() {
			continue
		}
		if oldest < 0 || sn.Timestamp < snaps[oldest].Timestamp {
			oldest = i
		}
	}
	if oldest < 0 {
		return snaps, false
	}
	return append(snaps[:oldest:oldest], snaps[oldest+1:]...), true
}

// capture builds a snapshot of the live workspace via the file manager.
func (s *Store) capture(id string) Snapshot {
	files := make(map[string]string)
	for _, p := range s.fm.List() {
		if content, ok := s.fm.Read(p); ok {
			files[p] = content
		}
	}

	return Snapshot{
		ID:             id,
		Timestamp:      nowMillis(),
		ConfigIdentity: s.identity(),
		Files:          files,
	}
}

// SaveManual captures the live workspace and appends it to history.
func (s *Store) SaveManual(ctx context.Context) (Snapshot, error) {
	identity := s.identity()

	snaps, err := s.ForConfig(ctx, identity)
	if err != nil {
		return Snapshot{}, err
	}

	snap := s.capture(NewID())
	snap.Metadata = map[string]string{"configVersion": s.fm.Config().Version}
	snaps = append(snaps, snap)

	if err := s.Save(ctx, identity, snaps); err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

// Autosave schedules a debounced working-copy save. Rapid successive calls
// coalesce; only the state at timer expiry is captured. With a
// non-positive AutosaveInterval the save runs synchronously.
func (s *Store) Autosave(ctx context.Context) {
	if s.opts.AutosaveInterval <= 0 {
		if err := s.FlushAutosave(ctx); err != nil {
			s.opts.Logger.ErrorContext(ctx, "autosave failed", "error", err)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.autosaveTimer != nil {
		s.autosaveTimer.Stop()
	}
	s.autosaveTimer = time.AfterFunc(s.opts.AutosaveInterval, func() {
		if err := s.FlushAutosave(context.Background()); err != nil {
			s.opts.Logger.Error("autosave failed", "error", err)
		}
	})
}

// FlushAutosave captures the live workspace and replaces the working copy
// immediately. Never appends to visible history.
func (s *Store) FlushAutosave(ctx context.Context) error {
	identity := s.identity()

	snaps, err := s.ForConfig(ctx, identity)
	if err != nil {
		return err
	}

	snaps = removeCurrent(snaps)
	snaps = append(snaps, s.capture(CurrentID))

	return s.Save(ctx, identity, snaps)
}

// Close stops any pending autosave timer without flushing it.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.autosaveTimer != nil {
		s.autosaveTimer.Stop()
		s.autosaveTimer = nil
	}
	return nil
}

// Delete removes snapshot id from identity's history.
func (s *Store) Delete(ctx context.Context, identity, id string) error {
	snaps, err := s.ForConfig(ctx, identity)
	if err != nil {
		return err
	}

	filtered := lo.Filter(snaps, func(sn Snapshot, _ int) bool {
		return sn.ID != id
	})
	if len(filtered) == len(snaps) {
		return fmt.Errorf("snapshot: %s: %w", id, ErrSnapshotNotFound)
	}

	return s.Save(ctx, identity, filtered)
}

// Clear removes every persisted snapshot list, across all identities.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.backend.List(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: list backend: %w", err)
	}

	for _, key := range keys {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		if err := s.backend.Delete(ctx, key); err != nil {
			return fmt.Errorf("snapshot: clear %s: %w", key, err)
		}
	}

	return nil
}

// LastRestoreTime returns the completion time of the most recent restore,
// or the zero time if none completed yet.
func (s *Store) LastRestoreTime() time.Time {
	ms := s.lastRestore.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func removeCurrent(snaps []Snapshot) []Snapshot {
	return lo.Filter(snaps, func(sn Snapshot, _ int) bool {
		return !sn.IsCurrent()
	})
}

func findCurrent(snaps []Snapshot) (Snapshot, bool) {
	return lo.Find(snaps, func(sn Snapshot) bool {
		return sn.IsCurrent()
	})
}
