package workfs

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordWrite is called after each write attempt.
	// dropped is true when the write was intentionally swallowed
	// (read-only path or Main-File guard), err is nil if successful.
	RecordWrite(duration time.Duration, dropped bool, err error)

	// RecordDelete is called after each delete attempt.
	RecordDelete(duration time.Duration, err error)

	// RecordNotify is called after each processed change notification.
	// echo is true when the notification was suppressed as an echo of a
	// self-write, debounced is true when it was coalesced away.
	RecordNotify(echo, debounced bool)

	// RecordSnapshotSave is called after each snapshot-list persist.
	RecordSnapshotSave(count int, duration time.Duration, err error)

	// RecordRestore is called after each restore attempt.
	// files is the restored file count, failed the per-path failures.
	RecordRestore(files, failed int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordWrite(time.Duration, bool, error)       {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)            {}
func (NoopMetricsCollector) RecordNotify(bool, bool)                      {}
func (NoopMetricsCollector) RecordSnapshotSave(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRestore(int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	WriteCount        atomic.Int64
	WriteDropped      atomic.Int64
	WriteErrors       atomic.Int64
	DeleteCount       atomic.Int64
	DeleteErrors      atomic.Int64
	NotifyCount       atomic.Int64
	NotifyEchoes      atomic.Int64
	NotifyDebounced   atomic.Int64
	SnapshotSaveCount atomic.Int64
	SnapshotSaveItems atomic.Int64
	SnapshotSaveFails atomic.Int64
	RestoreCount      atomic.Int64
	RestoreFiles      atomic.Int64
	RestorePathFails  atomic.Int64
	RestoreErrors     atomic.Int64
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(_ time.Duration, dropped bool, err error) {
	b.WriteCount.Add(1)
	if dropped {
		b.WriteDropped.Add(1)
	}
	if err != nil {
		b.WriteErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(_ time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordNotify implements MetricsCollector.
func (b *BasicMetricsCollector) RecordNotify(echo, debounced bool) {
	b.NotifyCount.Add(1)
	if echo {
		b.NotifyEchoes.Add(1)
	}
	if debounced {
		b.NotifyDebounced.Add(1)
	}
}

// RecordSnapshotSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshotSave(count int, _ time.Duration, err error) {
	b.SnapshotSaveCount.Add(1)
	b.SnapshotSaveItems.Add(int64(count))
	if err != nil {
		b.SnapshotSaveFails.Add(1)
	}
}

// RecordRestore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestore(files, failed int, _ time.Duration, err error) {
	b.RestoreCount.Add(1)
	b.RestoreFiles.Add(int64(files))
	b.RestorePathFails.Add(int64(failed))
	if err != nil {
		b.RestoreErrors.Add(1)
	}
}
