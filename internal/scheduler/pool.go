// Package scheduler implements the cooperative task submitter/joiner
// and the bounded worker pool: a single scheduler drives async_mode=
// true Ops as goroutines, while a bounded worker pool backs
// async_mode=false calls and any blocking function an async Op submits
// from within itself.
package scheduler

import (
	"context"
	"time"

	"github.com/flowllm/flowllm/internal/flowerr"
)

// WorkerPool is the bounded FIFO queue backing async_mode=false Ops and
// submit_blocking calls from cooperative Ops. Size is configured via
// thread_pool_max_workers (default 128).
type WorkerPool struct {
	sem chan struct{}
}

func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = 128
	}
	return &WorkerPool{sem: make(chan struct{}, size)}
}

// Submit runs fn on the worker pool, blocking the caller until a slot
// is free (the pool's backpressure mechanism), then waiting for fn's
// result or for ctx to be cancelled. A cancellation while queued for a
// slot, or while fn is running, unblocks the caller with a Cancelled
// error; fn itself is not interrupted (Go has no preemptive
// cancellation of a running function) — fn is expected to check ctx
// itself for long-running work.
func (p *WorkerPool) Submit(ctx context.Context, fn func() (any, error)) (any, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, flowerr.New(flowerr.KindCancelled, ctx.Err())
	}
	defer func() { <-p.sem }()

	type outcome struct {
		v   any
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn()
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		return nil, flowerr.New(flowerr.KindCancelled, ctx.Err())
	}
}

// Available reports the number of free slots, for tests and metrics.
func (p *WorkerPool) Available() int {
	return cap(p.sem) - len(p.sem)
}

// Sleep is a cooperative-tier delay honoring ctx cancellation, used by
// Ops that need to yield instead of calling time.Sleep directly (which
// would ignore the Context's cancellation token).
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return flowerr.New(flowerr.KindCancelled, ctx.Err())
	}
}
