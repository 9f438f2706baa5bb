// Package pathutil normalizes workspace file paths.
//
// Workspace paths are whole-document identifiers, not OS paths: the only
// canonicalization rule is that a path always begins with "/". Bare names
// ("main.py") are prefixed. Two paths identify the same file iff their
// canonical forms are equal.
package pathutil

import (
	"sort"
	"strings"
)

// Canonical returns the canonical form of a workspace path.
func Canonical(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// Bare returns the path without its leading slash.
func Bare(path string) string {
	return strings.TrimPrefix(Canonical(path), "/")
}

// Equal reports whether two paths identify the same file.
func Equal(a, b string) bool {
	return Canonical(a) == Canonical(b)
}

// Sorted returns a lexicographically sorted copy of paths.
func Sorted(paths []string) []string {
	out := make([]string, len(paths))
	copy(out, paths)
	sort.Strings(out)
	return out
}
