// Package dispatcher implements the flow table and request/response
// pipeline: lookup a Flow by name, build a fresh Context, validate
// kwargs against the Flow's declared schema, run the composed Op tree
// through the shared op.Engine, and hand back either a Response record
// (non-stream) or a live StreamPipe (stream).
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/flowerr"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/registry"
	"github.com/flowllm/flowllm/internal/telemetry"
)

// Mode selects the kwargs-validation strictness: HTTP treats the
// schema as optional and passes unknown fields through; MCP requires a
// schema and rejects unknown fields.
type Mode int

const (
	ModeHTTP Mode = iota
	ModeMCP
)

// Dispatcher holds the flow table and the Engine every flow's Op tree
// shares — the Cache and WorkerPool it wraps are both process-wide, so
// every flow invocation runs through the same Engine.
type Dispatcher struct {
	reg    *registry.Registry
	engine *op.Engine
	flows  map[string]*Flow

	// defaultDeadline bounds every invocation that doesn't carry its own
	// deadline via ctx. Zero means no dispatcher-imposed deadline beyond
	// the parent context's.
	defaultDeadline time.Duration
	streamBuffer    int
}

// New builds a Dispatcher. streamBuffer sizes every stream.Pipe created
// by DispatchStream; a value <= 0 falls back to 64.
func New(reg *registry.Registry, engine *op.Engine, defaultDeadline time.Duration, streamBuffer int) *Dispatcher {
	if streamBuffer <= 0 {
		streamBuffer = 64
	}
	return &Dispatcher{
		reg:             reg,
		engine:          engine,
		flows:           make(map[string]*Flow),
		defaultDeadline: defaultDeadline,
		streamBuffer:    streamBuffer,
	}
}

// Register adds flow to the table. Duplicate names fail, mirroring the
// Registry's own duplicate-registration rule. Any Op constructed
// outside of dslparser.Builder (for example, a flow root wired up
// directly in Go rather than parsed from an expression) still needs a
// live ResourceResolver, so Register applies op.BindResources here the
// same way Builder.construct does.
func (d *Dispatcher) Register(flow *Flow) error {
	if flow.Name == "" {
		return fmt.Errorf("dispatcher: flow name must not be empty")
	}
	if _, exists := d.flows[flow.Name]; exists {
		return fmt.Errorf("dispatcher: flow %q already registered", flow.Name)
	}
	op.BindResources(flow.Root, op.NewResourceResolver(d.reg))
	d.flows[flow.Name] = flow
	return nil
}

// Flow returns the named flow, or false if it isn't registered.
func (d *Dispatcher) Flow(name string) (*Flow, bool) {
	f, ok := d.flows[name]
	return f, ok
}

// Flows returns every registered flow, for /docs and MCP tool listing.
func (d *Dispatcher) Flows() []*Flow {
	out := make([]*Flow, 0, len(d.flows))
	for _, f := range d.flows {
		out = append(out, f)
	}
	return out
}

func (d *Dispatcher) newContext(parent context.Context) *flowcontext.Context {
	var deadline time.Time
	if d.defaultDeadline > 0 {
		deadline = time.Now().Add(d.defaultDeadline)
	}
	return flowcontext.New(parent, deadline)
}

// Dispatch runs one non-streaming flow invocation end to end: lookup,
// kwargs validation, Op-tree execution, and response assembly. Emits a
// "flow.dispatch" span and increments the flow.dispatched_total
// counter.
func (d *Dispatcher) Dispatch(ctx context.Context, flowName string, kwargs map[string]any, mode Mode) (map[string]any, error) {
	spanCtx, span := telemetry.StartSpan(ctx, "flow.dispatch")
	defer span.End()
	telemetry.RecordDispatch(spanCtx, flowName)

	flow, ok := d.flows[flowName]
	if !ok {
		return nil, flowerr.Newf(flowerr.KindUnknownFlow, "dispatcher: unknown flow %q", flowName)
	}
	if err := validateKwargs(flow.InputSchema, kwargs, mode == ModeMCP); err != nil {
		return nil, err
	}

	fctx := d.newContext(spanCtx)
	fctx.Request = kwargs
	fctx.Merge(kwargs)

	if _, err := d.engine.Call(flow.Root, fctx, kwargs); err != nil {
		return nil, err
	}
	return fctx.Response.ToMap(), nil
}

// DispatchStream runs a streaming flow invocation. It returns the
// Context immediately, with its StreamPipe already attached, so the
// caller (the HTTP SSE handler) can start draining chunks while the Op
// tree runs on its own goroutine. The returned channel receives
// exactly one value — nil on success, or the flow's error — once the
// call returns; the Pipe itself is closed at that point too. Appending
// the terminal DONE event is the caller's job, since the exact framing
// differs between a clean finish and an ERROR+DONE pair. Emits a
// "flow.dispatch" span spanning the whole streamed invocation and
// increments the flow.dispatched_total counter.
func (d *Dispatcher) DispatchStream(ctx context.Context, flowName string, kwargs map[string]any, mode Mode) (*flowcontext.Context, <-chan error, error) {
	spanCtx, span := telemetry.StartSpan(ctx, "flow.dispatch")
	telemetry.RecordDispatch(spanCtx, flowName)

	flow, ok := d.flows[flowName]
	if !ok {
		span.End()
		return nil, nil, flowerr.Newf(flowerr.KindUnknownFlow, "dispatcher: unknown flow %q", flowName)
	}
	if err := validateKwargs(flow.InputSchema, kwargs, mode == ModeMCP); err != nil {
		span.End()
		return nil, nil, err
	}

	fctx := d.newContext(spanCtx)
	fctx.Request = kwargs
	fctx.Merge(kwargs)
	fctx.EnableStream(d.streamBuffer)

	done := make(chan error, 1)
	go func() {
		defer span.End()
		_, err := d.engine.Call(flow.Root, fctx, kwargs)
		done <- err
		fctx.Stream.Close()
	}()
	return fctx, done, nil
}
