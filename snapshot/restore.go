package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/workfs/internal/pathutil"
	"github.com/samber/lo"
)

// RestoreOptions configures a restore.
type RestoreOptions struct {
	// SuppressPendingTabs drains the pending-tab queue after the restore so
	// the bulk swap does not open a tab per touched file.
	SuppressPendingTabs bool
}

// RestoreCurrentIfExists restores the persisted working copy for the
// active identity, if one exists. Returns false with a nil error when
// there is nothing to resume.
func (s *Store) RestoreCurrentIfExists(ctx context.Context) (bool, error) {
	identity := s.identity()

	snaps, err := s.ForConfig(ctx, identity)
	if err != nil {
		return false, err
	}

	cur, ok := findCurrent(snaps)
	if !ok {
		s.opts.Logger.WithIdentity(identity).Debug("no working copy to resume")
		return false, nil
	}

	if err := s.Restore(ctx, cur.ID, func(o *RestoreOptions) {
		o.SuppressPendingTabs = true
	}); err != nil {
		return false, err
	}
	return true, nil
}

// Restore replaces the live workspace with the contents of snapshot id.
//
// Before the swap, the in-flight working copy is demoted to a regular
// history entry so the pre-restore state stays recoverable; that demotion
// must persist or the restore aborts with the workspace untouched. The
// swap itself is best-effort per path, and a fresh working copy of the
// restored state is persisted before the restore is considered complete.
func (s *Store) Restore(ctx context.Context, id string, optFns ...func(*RestoreOptions)) error {
	var o RestoreOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	start := time.Now()
	identity := s.identity()
	log := s.opts.Logger.WithIdentity(identity)

	snaps, err := s.ForConfig(ctx, identity)
	if err != nil {
		s.opts.Metrics.RecordRestore(0, 0, time.Since(start), err)
		log.LogRestore(ctx, id, 0, 0, err)
		return err
	}

	snap, ok := lo.Find(snaps, func(sn Snapshot) bool { return sn.ID == id })
	if !ok {
		err := fmt.Errorf("snapshot: %s: %w", id, ErrSnapshotNotFound)
		s.opts.Metrics.RecordRestore(0, 0, time.Since(start), err)
		log.LogRestore(ctx, id, 0, 0, err)
		return err
	}

	// Demote the working copy to history so the pre-restore state survives.
	// Skipped when the working copy itself is being restored.
	if cur, ok := findCurrent(snaps); ok && cur.ID != snap.ID {
		hist := cur.Clone()
		hist.ID = NewID()
		hist.Timestamp = nowMillis()

		snaps = removeCurrent(snaps)
		snaps = append(snaps, hist)

		if err := s.Save(ctx, identity, snaps); err != nil {
			err = fmt.Errorf("snapshot: demote working copy: %w", err)
			s.opts.Metrics.RecordRestore(0, 0, time.Since(start), err)
			log.LogRestore(ctx, id, 0, 0, err)
			return err
		}
	}

	// Swap the live workspace. Each path is independent; a failure is
	// logged and counted but does not abort the remaining paths.
	failed := 0
	swapErr := s.fm.SystemWrite(ctx, func(ctx context.Context) error {
		main := s.fm.Config().Main()

		for _, path := range s.fm.List() {
			if _, keep := snap.Files[path]; keep || path == main {
				continue
			}
			if err := s.fm.Delete(ctx, path); err != nil {
				failed++
				log.WithPath(path).Warn("restore delete failed", "error", err)
			}
		}

		for _, path := range pathutil.Sorted(lo.Keys(snap.Files)) {
			if err := s.fm.Overwrite(ctx, path, snap.Files[path]); err != nil {
				failed++
				log.WithPath(path).Warn("restore write failed", "error", err)
			}
		}
		return nil
	})
	if swapErr != nil {
		s.opts.Metrics.RecordRestore(len(snap.Files), failed, time.Since(start), swapErr)
		log.LogRestore(ctx, id, len(snap.Files), failed, swapErr)
		return swapErr
	}

	// The restored state becomes the new working copy. This persist is part
	// of the restore contract; without it a reload would resume the old state.
	snaps = removeCurrent(snaps)
	snaps = append(snaps, s.capture(CurrentID))
	if err := s.Save(ctx, identity, snaps); err != nil {
		err = fmt.Errorf("snapshot: persist restored working copy: %w", err)
		s.opts.Metrics.RecordRestore(len(snap.Files), failed, time.Since(start), err)
		log.LogRestore(ctx, id, len(snap.Files), failed, err)
		return err
	}

	s.lastRestore.Store(time.Now().UnixMilli())

	if o.SuppressPendingTabs {
		s.fm.PendingTabs().Drain()
	}

	s.opts.Metrics.RecordRestore(len(snap.Files), failed, time.Since(start), nil)
	log.LogRestore(ctx, id, len(snap.Files), failed, nil)
	return nil
}
