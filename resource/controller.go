// Package resource provides global gating for bulk backend I/O.
//
// Mounting a workspace into the execution runtime and restoring a snapshot
// both touch every file; the controller bounds their concurrency and
// throughput so bulk operations cannot starve interactive edits.
package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxConcurrentIO is the maximum number of in-flight backend operations
	// issued by bulk flows. If 0, defaults to 4.
	MaxConcurrentIO int64

	// IOLimitBytesPerSec is the maximum content throughput for bulk flows.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller gates bulk I/O. A nil *Controller is valid and imposes no limits.
type Controller struct {
	ioSem     *semaphore.Weighted
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentIO <= 0 {
		cfg.MaxConcurrentIO = 4
	}

	c := &Controller{
		ioSem: semaphore.NewWeighted(cfg.MaxConcurrentIO),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireIO reserves one I/O slot, blocking until one is available or ctx
// is canceled.
func (c *Controller) AcquireIO(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.ioSem.Acquire(ctx, 1)
}

// ReleaseIO returns an I/O slot.
func (c *Controller) ReleaseIO() {
	if c == nil {
		return
	}
	c.ioSem.Release(1)
}

// WaitBytes throttles bulk throughput by n content bytes.
func (c *Controller) WaitBytes(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil || n <= 0 {
		return nil
	}

	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}

	return nil
}
