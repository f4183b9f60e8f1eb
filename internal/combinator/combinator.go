// Package combinator implements the three Op composers: Sequential
// (A >> B), Parallel (A | B) and Container (Op << {name: ChildOp}).
// Each combinator is itself an Op, so trees compose to arbitrary
// depth.
//
// Go has no operator overloading, so composition that a Python source
// might flatten via `__rshift__`/`__or__` operators is instead
// flattened by explicit `Then`/`With` builder methods appending onto
// an existing node's child list.
package combinator

import (
	"errors"
	"fmt"

	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/flowerr"
	"github.com/flowllm/flowllm/internal/op"
)

// ErrAsyncModeMismatch is returned when a combinator's declared
// async_mode disagrees with a child's.
var ErrAsyncModeMismatch = errors.New("combinator: child async_mode disagrees with parent")

// ErrEmptyChildren is returned by NewSequential/NewParallel with zero
// children: a combinator with no children is illegal.
var ErrEmptyChildren = errors.New("combinator: at least one child is required")

func checkAsyncMode(async bool, children []op.Op) error {
	for _, c := range children {
		if c.Config().Async != async {
			return fmt.Errorf("%w: %s", ErrAsyncModeMismatch, c.ShortName())
		}
	}
	return nil
}

// --- Sequential -------------------------------------------------------

// Sequential runs its children in declared order sharing one Context,
// failing fast on the first error. It returns the last child's output.
type Sequential struct {
	op.Base
	children []op.Op
	engine   *op.Engine
}

// NewSequential builds a Sequential node over children, all of which
// must share async's async_mode. engine supplies the shared Cache/Pool
// used to run each child: caching is scoped per leaf Op, not per
// composed tree, so the same Engine is reused for every call.
func NewSequential(name string, async bool, engine *op.Engine, children ...op.Op) (*Sequential, error) {
	if len(children) == 0 {
		return nil, ErrEmptyChildren
	}
	if err := checkAsyncMode(async, children); err != nil {
		return nil, err
	}
	s := &Sequential{children: children, engine: engine}
	s.Cfg = op.NewConfig(name)
	s.Cfg.Async = async
	return s, nil
}

// Then appends further children to this node's own child list, so a
// chain can be held as one multi-child Sequential rather than nested
// nodes. The dslparser builder does not call it: there `A >> B >> C`
// builds a Sequential whose first child is the Sequential `A >> B`.
func (s *Sequential) Then(children ...op.Op) error {
	if err := checkAsyncMode(s.Cfg.Async, children); err != nil {
		return err
	}
	s.children = append(s.children, children...)
	return nil
}

func (s *Sequential) Children() []op.Op { return s.children }

// run threads each child's own output forward as the next child's
// kwargs, so a later child observes an earlier one's writes both
// through the shared Context and through kwargs-keyed cache
// fingerprinting. A child returning nil leaves the next child's
// kwargs unchanged rather than clobbering them with nil.
func (s *Sequential) run(fctx *flowcontext.Context, input map[string]any) (map[string]any, error) {
	current := input
	for _, child := range s.children {
		if err := fctx.Err(); err != nil {
			return nil, flowerr.New(flowerr.KindCancelled, err)
		}
		out, err := s.engine.Call(child, fctx, current)
		if err != nil {
			return nil, err
		}
		if out != nil {
			current = out
		}
	}
	return current, nil
}

func (s *Sequential) Execute(fctx *flowcontext.Context, input map[string]any) (map[string]any, error) {
	return s.run(fctx, input)
}

func (s *Sequential) AsyncExecute(fctx *flowcontext.Context, input map[string]any) (map[string]any, error) {
	return s.run(fctx, input)
}

func (s *Sequential) Copy() op.Op {
	clone := &Sequential{Base: s.CloneBase(), engine: s.engine, children: make([]op.Op, len(s.children))}
	for i, c := range s.children {
		clone.children[i] = c.Copy()
	}
	return clone
}

// --- Parallel -----------------------------------------------------------

// Parallel runs its children concurrently sharing one Context.
// RaiseOnFailure=false (Parallel's own field, distinct from an
// individual child's) collects completed results and substitutes
// failed children's default (empty map) output instead of failing the
// whole node.
type Parallel struct {
	op.Base
	children       []op.Op
	RaiseOnFailure bool
	engine         *op.Engine
}

// NewParallel builds a Parallel node. engine supplies the shared Cache/
// Pool used to run each child; async_mode=false children are bounded by
// engine.Pool the same way a single blocking Op would be, and
// async_mode=true children run as goroutines directly (the cooperative
// tier).
func NewParallel(name string, async bool, engine *op.Engine, children ...op.Op) (*Parallel, error) {
	if len(children) == 0 {
		return nil, ErrEmptyChildren
	}
	if err := checkAsyncMode(async, children); err != nil {
		return nil, err
	}
	p := &Parallel{children: children, RaiseOnFailure: true, engine: engine}
	p.Cfg = op.NewConfig(name)
	p.Cfg.Async = async
	return p, nil
}

func (p *Parallel) With(children ...op.Op) error {
	if err := checkAsyncMode(p.Cfg.Async, children); err != nil {
		return err
	}
	p.children = append(p.children, children...)
	return nil
}

func (p *Parallel) Children() []op.Op { return p.children }

type parallelResult struct {
	output map[string]any
	err    error
}

// run implements Parallel's scheduling model and failure policy: after
// run returns, no child task is still running, whether it returned via
// success, raised error, or collected-with-defaults.
func (p *Parallel) run(fctx *flowcontext.Context, input map[string]any) (map[string]any, error) {
	n := len(p.children)
	results := make([]parallelResult, n)
	done := make(chan int, n)

	for i, child := range p.children {
		i, child := i, child
		go func() {
			out, err := p.engine.Call(child, fctx, input)
			results[i] = parallelResult{output: out, err: err}
			done <- i
		}()
	}

	var firstErr error
	remaining := n
	for remaining > 0 {
		i := <-done
		remaining--
		if results[i].err != nil && firstErr == nil {
			firstErr = results[i].err
			if p.RaiseOnFailure {
				fctx.Cancel()
			}
		}
	}

	if firstErr != nil && p.RaiseOnFailure {
		return nil, firstErr
	}

	// Aggregate: declared child order, failed children contribute their
	// default (empty) output when RaiseOnFailure is false.
	agg := map[string]any{"results": collectOutputs(results)}
	return agg, nil
}

func collectOutputs(results []parallelResult) []map[string]any {
	out := make([]map[string]any, len(results))
	for i, r := range results {
		if r.err != nil {
			out[i] = map[string]any{}
			continue
		}
		out[i] = r.output
	}
	return out
}

func (p *Parallel) Execute(fctx *flowcontext.Context, input map[string]any) (map[string]any, error) {
	return p.run(fctx, input)
}

func (p *Parallel) AsyncExecute(fctx *flowcontext.Context, input map[string]any) (map[string]any, error) {
	return p.run(fctx, input)
}

func (p *Parallel) Copy() op.Op {
	clone := &Parallel{Base: p.CloneBase(), RaiseOnFailure: p.RaiseOnFailure, engine: p.engine, children: make([]op.Op, len(p.children))}
	for i, c := range p.children {
		clone.children[i] = c.Copy()
	}
	return clone
}

// --- Container ------------------------------------------------------

// Container stores named children in the parent Op's Config().Children
// map for the parent's own Execute to invoke directly; unlike
// Sequential/Parallel it never executes children itself. Used by
// tool-router Ops that dispatch to a sub-Op chosen at runtime.
// Reassigning a name replaces the previously stored child.
func Container(parent op.Op, children map[string]op.Op) {
	cfg := parent.Config()
	if cfg.Children == nil {
		cfg.Children = make(map[string]op.Op, len(children))
	}
	for name, child := range children {
		cfg.Children[name] = child
	}
}
