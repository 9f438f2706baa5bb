// Package snapshot persists named, timestamped collections of workspace
// files scoped by configuration identity, manages the distinguished
// "current working copy" snapshot, and implements the restore algorithm.
package snapshot

import (
	"maps"
	"time"

	"github.com/oklog/ulid/v2"
)

// CurrentID is the id of the single working-copy snapshot per identity.
// At most one may exist at a time; autosave continuously replaces it.
const CurrentID = "__current__"

// keyPrefix prefixes every persisted snapshot-list key in the backend.
const keyPrefix = "snapshots_"

// Key returns the backend key holding the snapshot list for identity.
func Key(identity string) string {
	return keyPrefix + identity
}

// Snapshot is a point-in-time copy of the workspace.
//
// Snapshots other than the working copy are immutable history entries
// ordered by Timestamp.
type Snapshot struct {
	// ID is empty for legacy entries, CurrentID for the working copy, and
	// a ULID for history entries.
	ID string `json:"id,omitempty"`

	// Timestamp is the creation time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`

	// ConfigIdentity is the "<configId>@<configVersion>" scope.
	ConfigIdentity string `json:"configIdentity"`

	// Files maps canonical paths to full contents.
	Files map[string]string `json:"files"`

	// Metadata carries optional annotations such as the config version.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsCurrent reports whether the snapshot is the working copy.
func (s Snapshot) IsCurrent() bool {
	return s.ID == CurrentID
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Files = make(map[string]string, len(s.Files))
	maps.Copy(out.Files, s.Files)
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		maps.Copy(out.Metadata, s.Metadata)
	}
	return out
}

// NewID generates a sortable unique snapshot id.
func NewID() string {
	return ulid.Make().String()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
