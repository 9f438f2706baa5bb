// Package workfs provides the virtual file system and snapshot layer for
// in-browser coding environments.
//
// A workspace is a flat set of whole-document files backed by a pluggable
// durable store ([backend.Backend]), mirrored in memory so reads are
// synchronous, and versioned through a snapshot store with a continuously
// replaced "current working copy".
//
// # Quick Start
//
//	ctx := context.Background()
//	b := backend.NewMemory()
//	cfg := &workfs.Config{
//	    ID:      "algebra",
//	    Version: "1.0",
//	    Files:   map[string]string{"/main.py": "print('hi')\n"},
//	    ReadOnly: map[string]bool{"/lib.py": true},
//	}
//
//	fm, _ := workfs.New(ctx, b, cfg)
//	_ = fm.Write(ctx, "/scratch.py", "x = 1\n")
//	content, ok := fm.Read("/scratch.py")
//
// # Change Notifications
//
// Every observed file change, whether issued through the FileManager or by
// the execution runtime syncing its sandboxed file view back out, flows
// through a single notifier entry point:
//
//	fm.Notifier().FileWritten(ctx, "/gen.py", workfs.String("data"))
//
// The notifier debounces bursts, suppresses echoes of the manager's own
// writes, persists genuine external changes and queues their paths for UI
// follow-up (drained via fm.PendingTabs()).
//
// # Snapshots
//
//	store := snapshot.NewStore(b, fm)
//	store.Autosave(ctx)                  // debounced working-copy save
//	snap, _ := store.SaveManual(ctx)     // named history entry
//	_ = store.Restore(ctx, snap.ID)      // never discards unsaved work
//
// Restore demotes the unsaved working copy into history before touching the
// live workspace, so a student can always get back to what they had.
//
// # Protection Rules
//
// The Main File (default "/main.py") can never be deleted and never
// emptied through the ordinary write path. Paths marked read-only by the
// active configuration reject ordinary mutations; trusted internal flows
// (configuration application, snapshot restore) run inside
// [FileManager.SystemWrite], which bypasses the read-only check.
package workfs
