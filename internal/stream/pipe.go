package stream

import (
	"context"
	"sync"
)

// Pipe is the bounded ordered outbox a streaming Context owns. Ops emit
// chunks via Emit, which blocks (applying backpressure) once the buffer
// is full; the service layer drains chunks in order via Chunks() and
// forwards them to the transport. Emission order is preserved per
// producer; under Parallel combinators, chunks from sibling Ops may
// interleave arbitrarily at the channel level.
type Pipe struct {
	ch     chan Chunk
	done   chan struct{}
	once   sync.Once
	closed bool
	mu     sync.Mutex
}

// New creates a Pipe with the given buffer size (backpressure threshold).
func New(bufferSize int) *Pipe {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Pipe{
		ch:   make(chan Chunk, bufferSize),
		done: make(chan struct{}),
	}
}

// Emit sends a chunk to the outbox, blocking if the buffer is full.
// Returns ctx.Err() if ctx is cancelled before the send completes, or
// ErrClosed if the pipe was already closed (client disconnected).
//
// Emit never sends on p.ch after Close observes it closed: the closed
// flag is checked under the same mutex Close uses, and the actual
// channel send happens without holding the lock so concurrent Emits
// from sibling Ops (Parallel) don't serialize on it, but a send that
// raced past the check is still safe because Close only closes p.done,
// never p.ch itself.
func (p *Pipe) Emit(ctx context.Context, c Chunk) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.mu.Unlock()

	select {
	case p.ch <- c:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Chunks returns the receive-only channel the service layer drains.
func (p *Pipe) Chunks() <-chan Chunk {
	return p.ch
}

// Close stops accepting further emissions and unblocks any pending or
// future Emit calls with ErrClosed. Safe to call more than once and
// concurrently with Emit. p.ch itself is never closed, so a send that
// won the race against a concurrent Close cannot panic; it is simply
// left undrained once the service stops reading.
func (p *Pipe) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.done)
	})
}

// IsClosed reports whether Close has been called.
func (p *Pipe) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// errClosed is returned by Emit once the pipe has been closed.
type errClosed struct{}

func (errClosed) Error() string { return "stream: pipe closed" }

// ErrClosed is returned by Emit after Close has been called.
var ErrClosed error = errClosed{}
