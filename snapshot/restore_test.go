package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hupe1980/workfs"
	"github.com/hupe1980/workfs/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestoreSwapsWorkspace(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	s := newTestStore(t, b)

	require.NoError(t, s.fm.Overwrite(ctx, "/main.py", "old"))
	snap, err := s.SaveManual(ctx)
	require.NoError(t, err)

	require.NoError(t, s.fm.Write(ctx, "/main.py", "A"))
	require.NoError(t, s.fm.Write(ctx, "/x.py", "B"))
	require.NoError(t, s.FlushAutosave(ctx))

	require.NoError(t, s.Restore(ctx, snap.ID))

	want := map[string]string{"/main.py": "old"}
	if diff := cmp.Diff(want, s.fm.Files()); diff != "" {
		t.Errorf("workspace mismatch (-want +got):\n%s", diff)
	}

	snaps, err := s.ForConfig(ctx, "algebra@1.0")
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	// the pre-restore working copy survives as a history entry
	var demoted *Snapshot
	for i := range snaps {
		if !snaps[i].IsCurrent() && snaps[i].ID != snap.ID {
			demoted = &snaps[i]
		}
	}
	require.NotNil(t, demoted)
	assert.Equal(t, "A", demoted.Files["/main.py"])
	assert.Equal(t, "B", demoted.Files["/x.py"])

	// and a fresh working copy reflects the restored state
	cur, ok := findCurrent(snaps)
	require.True(t, ok)
	assert.Equal(t, want, cur.Files)

	assert.False(t, s.LastRestoreTime().IsZero())
}

func TestRestoreMissingSnapshot(t *testing.T) {
	s := newTestStore(t, backend.NewMemory())

	err := s.Restore(context.Background(), NewID())
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestRestoreDemotionFailureLeavesWorkspaceUntouched(t *testing.T) {
	ctx := context.Background()
	faulty := backend.NewFaulty(nil)
	fm := newTestManager(t, faulty)
	s := NewStore(faulty, fm, func(o *Options) { o.AutosaveInterval = 0 })

	require.NoError(t, fm.Overwrite(ctx, "/main.py", "old"))
	snap, err := s.SaveManual(ctx)
	require.NoError(t, err)

	require.NoError(t, fm.Write(ctx, "/main.py", "edited"))
	require.NoError(t, fm.Write(ctx, "/extra.py", "keep me"))
	require.NoError(t, s.FlushAutosave(ctx))

	faulty.FailWrite(Key("algebra@1.0"), errors.New("disk gone"))

	err = s.Restore(ctx, snap.ID)
	require.ErrorContains(t, err, "demote working copy")

	want := map[string]string{"/main.py": "edited", "/extra.py": "keep me"}
	assert.Equal(t, want, fm.Files())
}

func TestRestorePerPathFailuresAreBestEffort(t *testing.T) {
	ctx := context.Background()
	faulty := backend.NewFaulty(nil)
	fm := newTestManager(t, faulty)

	metrics := &workfs.BasicMetricsCollector{}
	s := NewStore(faulty, fm, func(o *Options) {
		o.AutosaveInterval = 0
		o.Metrics = metrics
	})

	require.NoError(t, fm.Overwrite(ctx, "/main.py", "old"))
	snap, err := s.SaveManual(ctx)
	require.NoError(t, err)

	require.NoError(t, fm.Write(ctx, "/junk.py", "temp"))
	faulty.FailDelete("/junk.py", errors.New("backend hiccup"))

	require.NoError(t, s.Restore(ctx, snap.ID))

	assert.Equal(t, "old", mustRead(t, fm, "/main.py"))
	assert.Equal(t, int64(1), metrics.RestorePathFails.Load())
}

func TestRestorePreservesMainAbsentFromSnapshot(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	s := newTestStore(t, b)

	require.NoError(t, s.fm.Overwrite(ctx, "/main.py", "entry point"))

	// a snapshot that predates the main file, or was hand-imported
	legacy := Snapshot{
		ID:             NewID(),
		Timestamp:      nowMillis(),
		ConfigIdentity: "algebra@1.0",
		Files:          map[string]string{"/notes.py": "n = 1"},
	}
	require.NoError(t, s.Save(ctx, "algebra@1.0", []Snapshot{legacy}))

	require.NoError(t, s.Restore(ctx, legacy.ID))

	assert.Equal(t, "entry point", mustRead(t, s.fm, "/main.py"))
	assert.Equal(t, "n = 1", mustRead(t, s.fm, "/notes.py"))
}

func TestRestoreOverwritesReadOnlyFiles(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	fm, err := workfs.New(ctx, b, &workfs.Config{
		ID:       "algebra",
		Version:  "1.0",
		ReadOnly: map[string]bool{"/locked.py": true},
		Files:    map[string]string{"/locked.py": "v1"},
	})
	require.NoError(t, err)
	s := NewStore(b, fm, func(o *Options) { o.AutosaveInterval = 0 })

	snap := Snapshot{
		ID:             NewID(),
		Timestamp:      nowMillis(),
		ConfigIdentity: "algebra@1.0",
		Files:          map[string]string{"/main.py": "", "/locked.py": "v2"},
	}
	require.NoError(t, s.Save(ctx, "algebra@1.0", []Snapshot{snap}))

	require.NoError(t, s.Restore(ctx, snap.ID))
	assert.Equal(t, "v2", mustRead(t, fm, "/locked.py"))
}

func TestRestoreCurrentSkipsDemotion(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	s := newTestStore(t, b)

	require.NoError(t, s.fm.Write(ctx, "/main.py", "resume me"))
	require.NoError(t, s.FlushAutosave(ctx))

	require.NoError(t, s.Restore(ctx, CurrentID))

	snaps, err := s.ForConfig(ctx, "algebra@1.0")
	require.NoError(t, err)
	require.Len(t, snaps, 1, "restoring the working copy must not fork history")
	assert.True(t, snaps[0].IsCurrent())
}

func TestRestoreCurrentIfExists(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemory()
	s := newTestStore(t, b)

	restored, err := s.RestoreCurrentIfExists(ctx)
	require.NoError(t, err)
	assert.False(t, restored)

	require.NoError(t, s.fm.Write(ctx, "/main.py", "session state"))
	require.NoError(t, s.FlushAutosave(ctx))

	// a second session over the same backend resumes where the first left off
	fm2 := newTestManager(t, b)
	s2 := NewStore(b, fm2, func(o *Options) { o.AutosaveInterval = 0 })
	fm2.PendingTabs().Enqueue("/stale.py")

	restored, err = s2.RestoreCurrentIfExists(ctx)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, "session state", mustRead(t, fm2, "/main.py"))
	assert.Zero(t, fm2.PendingTabs().Len(), "resume must not surface tabs")
}

func mustRead(t *testing.T, fm *workfs.FileManager, path string) string {
	t.Helper()
	content, ok := fm.Read(path)
	require.True(t, ok, "missing %s", path)
	return content
}
