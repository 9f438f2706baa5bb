package workfs

import (
	"errors"
	"fmt"
)

var (
	// ErrReadOnly is returned when a delete targets a path the active
	// configuration marks read-only and system-write mode is not active.
	//
	// Note the asymmetry: a blocked *write* is a silent no-op, a blocked
	// *delete* is an error. Deletes are deliberate user actions that
	// callers need to detect and report; writes are frequently benign
	// races (an autosave tick against a configuration change).
	ErrReadOnly = errors.New("path is read-only")
)

// ReadOnlyError reports a rejected mutation of a read-only path.
//
// Satisfies errors.Is(err, ErrReadOnly).
type ReadOnlyError struct {
	Path string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("path %q is read-only", e.Path)
}

func (e *ReadOnlyError) Unwrap() error { return ErrReadOnly }
