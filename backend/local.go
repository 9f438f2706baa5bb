package backend

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/hupe1980/workfs/internal/fs"
)

// Local implements Backend using one file per key on the local filesystem.
//
// Keys are percent-encoded into filenames so that workspace paths
// ("/main.py") and bookkeeping keys ("snapshots_algebra@1.0") round-trip
// losslessly. Writes go through a temp-file + rename sequence so a crashed
// write never leaves a half-written entry behind.
type Local struct {
	fs   fs.FileSystem
	root string
}

// NewLocal creates a Local backend rooted at dir, creating it if needed.
// Pass nil to use the default local filesystem.
func NewLocal(fsys fs.FileSystem, dir string) (*Local, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Local{fs: fsys, root: dir}, nil
}

func (l *Local) filename(key string) string {
	return filepath.Join(l.root, url.PathEscape(key))
}

// List returns all stored keys in lexicographic order.
func (l *Local) List(_ context.Context) ([]string, error) {
	entries, err := l.fs.ReadDir(l.root)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, err := url.PathUnescape(e.Name())
		if err != nil {
			// Foreign file in the data dir; skip it.
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys, nil
}

// Read returns the content stored under key.
func (l *Local) Read(_ context.Context, key string) (string, error) {
	f, err := l.fs.OpenFile(l.filename(key), os.O_RDONLY, 0)
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	buf := make([]byte, info.Size())
	n := 0
	for n < len(buf) {
		r, err := f.Read(buf[n:])
		n += r
		if err != nil {
			return "", err
		}
	}

	return string(buf[:n]), nil
}

// Write stores content under key via temp-file + rename.
func (l *Local) Write(_ context.Context, key, content string) error {
	path := l.filename(key)
	tmpPath := path + ".tmp"

	f, err := l.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write([]byte(content)); err != nil {
		f.Close()
		l.fs.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		l.fs.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		l.fs.Remove(tmpPath)
		return err
	}

	if err := l.fs.Rename(tmpPath, path); err != nil {
		l.fs.Remove(tmpPath)
		return err
	}

	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (l *Local) Delete(_ context.Context, key string) error {
	err := l.fs.Remove(l.filename(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every key.
func (l *Local) Clear(ctx context.Context) error {
	keys, err := l.List(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := l.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
