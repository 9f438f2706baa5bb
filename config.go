package workfs

import (
	"fmt"
	"strings"

	"github.com/hupe1980/workfs/internal/pathutil"
)

// DefaultMainFile is the distinguished entry-point path. It can never be
// deleted and never emptied through the ordinary write path.
const DefaultMainFile = "/main.py"

// Config is the shape of an active exercise configuration as consumed by
// this module. Loading and validating configurations is the host
// application's concern.
type Config struct {
	// ID identifies the exercise.
	ID string

	// Version is the exercise revision.
	Version string

	// MainFile overrides the protected entry-point path.
	// Empty means DefaultMainFile.
	MainFile string

	// ReadOnly marks paths that ordinary callers may not mutate.
	// Paths are matched both with and without a leading slash.
	ReadOnly map[string]bool

	// Files are the starter files seeded into an empty workspace when the
	// configuration is applied.
	Files map[string]string
}

// Identity returns the configuration identity string "<id>@<version>"
// that scopes snapshot storage.
func (c *Config) Identity() string {
	return fmt.Sprintf("%s@%s", c.ID, c.Version)
}

// Main returns the protected entry-point path in canonical form.
func (c *Config) Main() string {
	if c == nil || c.MainFile == "" {
		return DefaultMainFile
	}
	return pathutil.Canonical(c.MainFile)
}

// IsReadOnly reports whether the configuration marks path read-only.
// The lookup tolerates entries stored with or without a leading slash.
func (c *Config) IsReadOnly(path string) bool {
	if c == nil || len(c.ReadOnly) == 0 {
		return false
	}

	canonical := pathutil.Canonical(path)
	if c.ReadOnly[canonical] {
		return true
	}
	return c.ReadOnly[strings.TrimPrefix(canonical, "/")]
}
