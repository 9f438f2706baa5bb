package fs

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// FaultyFS is a FileSystem wrapper that can inject errors into writes,
// syncs and renames for files whose name contains a configured pattern.
type FaultyFS struct {
	FS FileSystem

	mu          sync.Mutex
	writeRules  map[string]error
	renameRules map[string]error
	writes      int64
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fsys FileSystem) *FaultyFS {
	if fsys == nil {
		fsys = Default
	}
	return &FaultyFS{
		FS:          fsys,
		writeRules:  make(map[string]error),
		renameRules: make(map[string]error),
	}
}

// FailWrites makes writes to files whose name contains pattern fail with err.
// If err is nil a generic injected error is used.
func (f *FaultyFS) FailWrites(pattern string, err error) {
	if err == nil {
		err = fmt.Errorf("injected write fault for %q", pattern)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeRules[pattern] = err
}

// FailRenames makes renames of paths containing pattern fail with err.
func (f *FaultyFS) FailRenames(pattern string, err error) {
	if err == nil {
		err = fmt.Errorf("injected rename fault for %q", pattern)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renameRules[pattern] = err
}

// Writes returns the number of file writes observed so far.
func (f *FaultyFS) Writes() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *FaultyFS) writeFault(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	for pattern, err := range f.writeRules {
		if strings.Contains(name, pattern) {
			return err
		}
	}
	return nil
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, name: name, fs: f}, nil
}

func (f *FaultyFS) Remove(name string) error { return f.FS.Remove(name) }

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	f.mu.Lock()
	for pattern, err := range f.renameRules {
		if strings.Contains(oldpath, pattern) || strings.Contains(newpath, pattern) {
			f.mu.Unlock()
			return err
		}
	}
	f.mu.Unlock()
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) { return f.FS.Stat(name) }
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}
func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) { return f.FS.ReadDir(name) }

type faultyFile struct {
	File
	name string
	fs   *FaultyFS
}

func (f *faultyFile) Write(p []byte) (int, error) {
	if err := f.fs.writeFault(f.name); err != nil {
		return 0, err
	}
	return f.File.Write(p)
}
