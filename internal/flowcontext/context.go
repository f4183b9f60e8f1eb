// Package flowcontext implements the per-invocation Context: a keyed
// data bag, a request snapshot, a Response record, an optional
// streaming outbox, and cancellation/deadline plumbing. Context
// implements context.Context itself by delegating to an embedded real
// context.Context, so timeouts and cancellation propagate through
// every downstream call without a separate parameter.
package flowcontext

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowllm/flowllm/internal/stream"
)

var _ context.Context = (*Context)(nil)

// Context is owned exclusively by one request/flow invocation. All Ops
// within the same flow invocation, including concurrent Parallel
// children, share the identical instance.
type Context struct {
	ID string

	// Request is a snapshot of the inbound kwargs, set once at dispatch
	// time and never mutated afterward.
	Request map[string]any

	Response *Response

	// Stream is non-nil only when the invoking flow is a streaming flow.
	Stream *stream.Pipe

	// ServiceConfig is an opaque handle to the frozen, process-wide
	// service configuration; typed as `any` here to avoid an import
	// cycle between flowcontext and config.
	ServiceConfig any

	mu   sync.RWMutex
	data map[string]any

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Context derived from parent with an optional deadline.
// A zero deadline means no deadline beyond the parent's.
func New(parent context.Context, deadline time.Time) *Context {
	if parent == nil {
		parent = context.Background()
	}
	var ctx context.Context
	var cancel context.CancelFunc
	if deadline.IsZero() {
		ctx, cancel = context.WithCancel(parent)
	} else {
		ctx, cancel = context.WithDeadline(parent, deadline)
	}
	return &Context{
		ID:       uuid.New().String(),
		Request:  make(map[string]any),
		Response: NewResponse(),
		data:     make(map[string]any),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// EnableStream attaches a bounded outbox to this Context, turning it
// into a streaming invocation.
func (c *Context) EnableStream(bufferSize int) *stream.Pipe {
	c.Stream = stream.New(bufferSize)
	return c.Stream
}

// Emit forwards a chunk to the stream outbox if one is attached; it is
// a no-op (not an error) for non-streaming Contexts, since a StreamPipe
// only exists when a flow declares stream:true.
func (c *Context) Emit(chunk stream.Chunk) error {
	if c.Stream == nil {
		return nil
	}
	return c.Stream.Emit(c.ctx, chunk)
}

// Cancel fires the cancellation token: deadline expiry, client
// disconnect, sibling failure under Parallel, or an explicit cancel
// request all route through this.
func (c *Context) Cancel() {
	c.cancel()
	if c.Stream != nil {
		c.Stream.Close()
	}
}

// --- keyed data bag -------------------------------------------------

// Set writes a value under key. Safe for concurrent use across disjoint
// keys; concurrent writes to the SAME key under Parallel are undefined
// and are the caller's responsibility to avoid.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	c.data[key] = value
	c.mu.Unlock()
}

// Get reads a raw value.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// GetTyped reads a value and type-asserts it to T, a generic accessor
// on top of the untyped data bag.
func GetTyped[T any](c *Context, key string) (T, bool) {
	var zero T
	raw, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Merge writes every entry of kwargs into the data bag under its
// argument name. Used by OpRuntime's bind step.
func (c *Context) Merge(kwargs map[string]any) {
	c.mu.Lock()
	for k, v := range kwargs {
		c.data[k] = v
	}
	c.mu.Unlock()
}

// Snapshot returns a shallow copy of the full data map, used as the
// variables for ToolCall default-expression evaluation and as
// ScriptOp's script environment.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}

// --- context.Context implementation ---------------------------------

func (c *Context) Deadline() (time.Time, bool) { return c.ctx.Deadline() }
func (c *Context) Done() <-chan struct{}       { return c.ctx.Done() }
func (c *Context) Err() error                  { return c.ctx.Err() }

func (c *Context) Value(key any) any {
	if k, ok := key.(string); ok {
		if v, ok := c.Get(k); ok {
			return v
		}
	}
	return c.ctx.Value(key)
}

// WithTimeout returns a child stdlib context.Context bound to both this
// Context's cancellation and a local deadline, for a single Op call or
// a Scheduler join.
func (c *Context) WithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.ctx, d)
}
