package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/workfs"
	"github.com/hupe1980/workfs/backend"
	"github.com/hupe1980/workfs/codec"
	"github.com/hupe1980/workfs/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, b backend.Backend) *workfs.FileManager {
	t.Helper()

	fm, err := workfs.New(context.Background(), b, &workfs.Config{
		ID:      "algebra",
		Version: "1.0",
	})
	require.NoError(t, err)

	return fm
}

// synchronous saves, no autosave timers in tests unless stated otherwise
func newTestStore(t *testing.T, b backend.Backend, optFns ...func(*Options)) *Store {
	t.Helper()

	fm := newTestManager(t, b)
	optFns = append([]func(*Options){func(o *Options) {
		o.AutosaveInterval = 0
	}}, optFns...)

	return NewStore(b, fm, optFns...)
}

func TestSaveManualAppendsHistory(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	s := newTestStore(t, b)

	require.NoError(t, s.fm.Write(ctx, "/main.py", "print(1)"))

	first, err := s.SaveManual(ctx)
	require.NoError(t, err)
	second, err := s.SaveManual(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "algebra@1.0", first.ConfigIdentity)
	assert.Equal(t, "1.0", first.Metadata["configVersion"])
	assert.Equal(t, "print(1)", first.Files["/main.py"])

	snaps, err := s.ForConfig(ctx, "algebra@1.0")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, first.ID, snaps[0].ID)
	assert.Equal(t, second.ID, snaps[1].ID)
}

func TestForConfigMissingListIsEmpty(t *testing.T) {
	s := newTestStore(t, backend.NewMemory())

	snaps, err := s.ForConfig(context.Background(), "algebra@1.0")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestForConfigFiltersForeignIdentities(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	s := newTestStore(t, b)

	// A list whose key matches but that contains a stray entry from another
	// identity, as left behind by older storage layouts.
	mixed := []Snapshot{
		{ID: NewID(), Timestamp: 1, ConfigIdentity: "algebra@1.0", Files: map[string]string{}},
		{ID: NewID(), Timestamp: 2, ConfigIdentity: "algebra@2.0", Files: map[string]string{}},
	}
	data, err := codec.Default.Marshal(mixed)
	require.NoError(t, err)
	require.NoError(t, b.Write(ctx, Key("algebra@1.0"), string(data)))

	snaps, err := s.ForConfig(ctx, "algebra@1.0")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "algebra@1.0", snaps[0].ConfigIdentity)
}

func TestForConfigIgnoresOtherIdentityLists(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	s := newTestStore(t, b)

	_, err := s.SaveManual(ctx)
	require.NoError(t, err)

	snaps, err := s.ForConfig(ctx, "geometry@1.0")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestFlushAutosaveReplacesWorkingCopy(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	s := newTestStore(t, b)

	manual, err := s.SaveManual(ctx)
	require.NoError(t, err)

	require.NoError(t, s.fm.Write(ctx, "/a.py", "one"))
	require.NoError(t, s.FlushAutosave(ctx))

	require.NoError(t, s.fm.Write(ctx, "/a.py", "two"))
	require.NoError(t, s.FlushAutosave(ctx))

	snaps, err := s.ForConfig(ctx, "algebra@1.0")
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	cur, ok := findCurrent(snaps)
	require.True(t, ok)
	assert.Equal(t, "two", cur.Files["/a.py"])

	hist := removeCurrent(snaps)
	require.Len(t, hist, 1)
	assert.Equal(t, manual.ID, hist[0].ID)
}

func TestAutosaveSynchronousWithoutInterval(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	s := newTestStore(t, b)

	s.Autosave(ctx)

	snaps, err := s.ForConfig(ctx, "algebra@1.0")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].IsCurrent())
}

func TestAutosaveDebounces(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	fm := newTestManager(t, b)
	s := NewStore(b, fm, func(o *Options) {
		o.AutosaveInterval = 20 * time.Millisecond
	})
	defer s.Close()

	for n := 0; n < 5; n++ {
		s.Autosave(ctx)
	}

	// nothing persisted until the timer fires
	_, err := b.Read(ctx, Key("algebra@1.0"))
	assert.ErrorIs(t, err, backend.ErrNotFound)

	require.Eventually(t, func() bool {
		snaps, err := s.ForConfig(ctx, "algebra@1.0")
		return err == nil && len(snaps) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCloseStopsPendingAutosave(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	fm := newTestManager(t, b)
	s := NewStore(b, fm, func(o *Options) {
		o.AutosaveInterval = time.Hour
	})

	s.Autosave(ctx)
	require.NoError(t, s.Close())

	_, err := b.Read(ctx, Key("algebra@1.0"))
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestDeleteSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, backend.NewMemory())

	snap, err := s.SaveManual(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "algebra@1.0", snap.ID))

	snaps, err := s.ForConfig(ctx, "algebra@1.0")
	require.NoError(t, err)
	assert.Empty(t, snaps)

	err = s.Delete(ctx, "algebra@1.0", snap.ID)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestClearRemovesAllSnapshotListsOnly(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	s := newTestStore(t, b)

	_, err := s.SaveManual(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Write(ctx, Key("geometry@2.0"), "[]"))
	require.NoError(t, b.Write(ctx, "/keep.py", "x = 1"))

	require.NoError(t, s.Clear(ctx))

	keys, err := b.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, keys, Key("algebra@1.0"))
	assert.NotContains(t, keys, Key("geometry@2.0"))
	assert.Contains(t, keys, "/keep.py")
}

func TestSaveRetriesAfterRecovery(t *testing.T) {
	ctx := context.Background()
	faulty := backend.NewFaulty(nil)
	fm := newTestManager(t, faulty)

	key := Key("algebra@1.0")
	faulty.FailWrite(key, backend.ErrQuotaExceeded)

	recoveries := 0
	s := NewStore(faulty, fm, func(o *Options) {
		o.AutosaveInterval = 0
		o.Recoverer = health.RecovererFunc(func(_ context.Context, k string, attempted int) health.Result {
			recoveries++
			assert.Equal(t, key, k)
			assert.Positive(t, attempted)
			faulty.FailWrite(key, nil)
			return health.Result{Success: true, Recovered: true}
		})
	})

	_, err := s.SaveManual(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, recoveries)
}

func TestSaveQuotaHardFailure(t *testing.T) {
	ctx := context.Background()
	faulty := backend.NewFaulty(nil)
	fm := newTestManager(t, faulty)
	faulty.FailWrite(Key("algebra@1.0"), backend.ErrQuotaExceeded)

	s := NewStore(faulty, fm, func(o *Options) { o.AutosaveInterval = 0 })

	_, err := s.SaveManual(ctx)
	assert.ErrorIs(t, err, backend.ErrQuotaExceeded)
}

func TestSaveRecovererError(t *testing.T) {
	ctx := context.Background()
	faulty := backend.NewFaulty(nil)
	fm := newTestManager(t, faulty)
	faulty.FailWrite(Key("algebra@1.0"), backend.ErrQuotaExceeded)

	recErr := errors.New("eviction failed")
	s := NewStore(faulty, fm, func(o *Options) {
		o.AutosaveInterval = 0
		o.Recoverer = health.RecovererFunc(func(context.Context, string, int) health.Result {
			return health.Result{Err: recErr}
		})
	})

	_, err := s.SaveManual(ctx)
	assert.ErrorIs(t, err, recErr)
}

// quotaBackend rejects list writes larger than cap bytes.
type quotaBackend struct {
	backend.Backend
	cap int
}

func (q *quotaBackend) Write(ctx context.Context, key, content string) error {
	if len(content) > q.cap {
		return backend.ErrQuotaExceeded
	}
	return q.Backend.Write(ctx, key, content)
}

func TestSavePrunesOldestOnQuota(t *testing.T) {
	ctx := context.Background()
	mem := backend.NewMemory()
	fm := newTestManager(t, mem)

	qb := &quotaBackend{Backend: mem, cap: 1 << 20}
	s := NewStore(qb, fm, func(o *Options) {
		o.AutosaveInterval = 0
		o.PruneOnQuota = true
	})

	oldest := Snapshot{ID: NewID(), Timestamp: 1, ConfigIdentity: "algebra@1.0", Files: map[string]string{"/main.py": "a"}}
	newer := Snapshot{ID: NewID(), Timestamp: 2, ConfigIdentity: "algebra@1.0", Files: map[string]string{"/main.py": "b"}}
	cur := Snapshot{ID: CurrentID, Timestamp: 3, ConfigIdentity: "algebra@1.0", Files: map[string]string{"/main.py": "c"}}
	require.NoError(t, s.Save(ctx, "algebra@1.0", []Snapshot{oldest, newer, cur}))

	// shrink the quota so three entries no longer fit
	data, err := codec.Default.Marshal([]Snapshot{oldest, newer, cur})
	require.NoError(t, err)
	qb.cap = len(data) - 1

	require.NoError(t, s.Save(ctx, "algebra@1.0", []Snapshot{oldest, newer, cur}))

	snaps, err := s.ForConfig(ctx, "algebra@1.0")
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	_, hasCurrent := findCurrent(snaps)
	assert.True(t, hasCurrent, "pruning must never evict the working copy")
	assert.Equal(t, newer.ID, removeCurrent(snaps)[0].ID)
}

func TestSavePruneExhausted(t *testing.T) {
	ctx := context.Background()
	mem := backend.NewMemory()
	fm := newTestManager(t, mem)

	qb := &quotaBackend{Backend: mem, cap: 1}
	s := NewStore(qb, fm, func(o *Options) {
		o.AutosaveInterval = 0
		o.PruneOnQuota = true
	})

	cur := Snapshot{ID: CurrentID, Timestamp: 1, ConfigIdentity: "algebra@1.0", Files: map[string]string{"/main.py": "c"}}
	err := s.Save(ctx, "algebra@1.0", []Snapshot{cur})
	assert.ErrorIs(t, err, backend.ErrQuotaExceeded)
}

func TestLastRestoreTimeZeroBeforeRestore(t *testing.T) {
	s := newTestStore(t, backend.NewMemory())
	assert.True(t, s.LastRestoreTime().IsZero())
}
