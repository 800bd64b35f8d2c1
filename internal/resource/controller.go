// Package resource bounds the loader's store traffic: a semaphore caps
// concurrent component reads and an optional token bucket caps read
// throughput in bytes per second.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxConcurrentReads is the maximum number of in-flight component
	// reads. If 0, defaults to 4.
	MaxConcurrentReads int64

	// IOLimitBytesPerSec is the maximum read throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages read concurrency and throughput.
type Controller struct {
	cfg Config

	readSem   *semaphore.Weighted
	ioLimiter *rate.Limiter

	bytesRead atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentReads <= 0 {
		cfg.MaxConcurrentReads = 4
	}

	c := &Controller{
		cfg:     cfg,
		readSem: semaphore.NewWeighted(cfg.MaxConcurrentReads),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// MaxConcurrentReads returns the effective read-slot count.
func (c *Controller) MaxConcurrentReads() int {
	return int(c.cfg.MaxConcurrentReads)
}

// AcquireRead reserves a read slot. Blocks if all slots are busy.
func (c *Controller) AcquireRead(ctx context.Context) error {
	return c.readSem.Acquire(ctx, 1)
}

// ReleaseRead releases a read slot.
func (c *Controller) ReleaseRead() {
	c.readSem.Release(1)
}

// AccountIO records bytes read and waits until the throughput limit
// allows them.
func (c *Controller) AccountIO(ctx context.Context, bytes int) error {
	if bytes <= 0 {
		return nil
	}
	c.bytesRead.Add(int64(bytes))

	if c.ioLimiter == nil {
		return nil
	}
	// WaitN caps at the limiter burst; large payloads drain in chunks.
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := bytes
		if n > burst {
			n = burst
		}
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// BytesRead returns the total bytes accounted so far.
func (c *Controller) BytesRead() int64 {
	return c.bytesRead.Load()
}
