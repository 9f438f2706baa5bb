package workfs

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/hupe1980/workfs/backend"
	"github.com/hupe1980/workfs/resource"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// MountOptions configures MountRuntime.
type MountOptions struct {
	// ReadOnly reports whether a path must be mounted without write
	// permission inside the runtime's file view.
	ReadOnly func(path string) bool

	// Controller gates the bulk copy. Nil means unlimited.
	Controller *resource.Controller

	// Concurrency bounds parallel backend reads. Defaults to 4.
	Concurrency int
}

// MountRuntime performs the one-time copy of all workspace files from b
// into the execution runtime's own file view. Read-only paths are mounted
// mode 0444 so the sandboxed code is subject to the same gating as the
// editor.
func MountRuntime(ctx context.Context, b backend.Backend, fsys afero.Fs, optFns ...func(*MountOptions)) error {
	o := MountOptions{Concurrency: 4}
	for _, fn := range optFns {
		fn(&o)
	}

	keys, err := b.List(ctx)
	if err != nil {
		return fmt.Errorf("workfs: list backend: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Concurrency)

	for _, key := range keys {
		if !strings.HasPrefix(key, "/") {
			continue
		}
		key := key
		g.Go(func() error {
			if err := o.Controller.AcquireIO(gctx); err != nil {
				return err
			}
			defer o.Controller.ReleaseIO()

			content, err := b.Read(gctx, key)
			if err != nil {
				return fmt.Errorf("workfs: read %s: %w", key, err)
			}
			if err := o.Controller.WaitBytes(gctx, len(content)); err != nil {
				return err
			}

			if dir := path.Dir(key); dir != "/" {
				if err := fsys.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("workfs: mkdir %s: %w", dir, err)
				}
			}

			mode := os.FileMode(0644)
			if o.ReadOnly != nil && o.ReadOnly(key) {
				mode = 0444
			}
			if err := afero.WriteFile(fsys, key, []byte(content), mode); err != nil {
				return fmt.Errorf("workfs: mount %s: %w", key, err)
			}
			// MemMapFs applies the mode on create but a pre-existing file
			// keeps its old mode; make the gate explicit.
			return fsys.Chmod(key, mode)
		})
	}

	return g.Wait()
}
