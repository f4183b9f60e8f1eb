// Package op implements the Op interface and the OpRuntime state
// machine: the call(ctx, kwargs)/async_call(ctx, kwargs) lifecycle
// shared by every Op, resource lazy binding, and prompt-file loading.
package op

import (
	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/flowerr"
)

// Op is the interface every flow node implements: ShortName, AsyncMode
// (folded into Config), ToolCall (also in Config), Execute and
// AsyncExecute for the two calling conventions, and Copy so a node can
// be duplicated before concurrent execution.
type Op interface {
	ShortName() string
	Config() *Config
	// Execute runs the blocking calling convention. Ops with
	// Config().Async == false must implement this.
	Execute(fctx *flowcontext.Context, input map[string]any) (map[string]any, error)
	// AsyncExecute runs the cooperative calling convention. Ops with
	// Config().Async == true must implement this.
	AsyncExecute(fctx *flowcontext.Context, input map[string]any) (map[string]any, error)
	// Copy returns a fresh instance sharing this Op's declared
	// configuration but none of its resolved-resource cache, safe for
	// concurrent re-execution under Parallel.
	Copy() Op
}

// Base is embedded by concrete Ops to satisfy Op with sensible
// defaults; concrete Ops override Execute or AsyncExecute (whichever
// matches Cfg.Async) and Copy.
type Base struct {
	Cfg       Config
	Resources *ResourceResolver
}

func (b *Base) ShortName() string { return b.Cfg.Name }
func (b *Base) Config() *Config   { return &b.Cfg }

func (b *Base) Execute(*flowcontext.Context, map[string]any) (map[string]any, error) {
	return nil, flowerr.Newf(flowerr.KindDeterministic, "op %s: Execute not implemented", b.Cfg.Name)
}

func (b *Base) AsyncExecute(*flowcontext.Context, map[string]any) (map[string]any, error) {
	return nil, flowerr.Newf(flowerr.KindDeterministic, "op %s: AsyncExecute not implemented", b.Cfg.Name)
}

// CloneBase returns a Base with the same declared Config but a fresh
// ResourceResolver, so a copied Op re-resolves its LLM/embedding/
// vector-store handles independently of the original; the handles
// themselves are still shared by reference once resolved.
func (b *Base) CloneBase() Base {
	return Base{Cfg: b.Cfg.clone(), Resources: b.Resources.clone()}
}

// SetResources installs the ResourceResolver a freshly constructed Op
// uses for llm/embedding_model/vector_store lazy binding. Called by the
// FlowExpressionParser's Builder and the Dispatcher immediately after
// constructing an Op from the Registry, before it is ever executed.
func (b *Base) SetResources(r *ResourceResolver) { b.Resources = r }

// ResourceBinder is implemented by every Op via embedded Base; callers
// that construct an Op through the Registry use it to inject a
// ResourceResolver without widening the Op interface itself.
type ResourceBinder interface {
	SetResources(*ResourceResolver)
}

var _ ResourceBinder = (*Base)(nil)

// BindResources installs resolver on o if it implements ResourceBinder
// (every Op embedding Base does).
func BindResources(o Op, resolver *ResourceResolver) {
	if binder, ok := o.(ResourceBinder); ok {
		binder.SetResources(resolver)
	}
}

// container is the accessor for an Op's Container-style child map;
// Base implements it by returning Config().Children.
type container interface {
	Children() map[string]Op
}

// Children returns the Container-style child map declared on this Op,
// or nil if it has none.
func (b *Base) Children() map[string]Op { return b.Cfg.Children }

var _ container = (*Base)(nil)

// Constructor is the shape every built-in Op registers under
// registry.CategoryOp: given a declared name and the flow parser's
// parsed constructor kwargs, produce a ready-to-use Op. The parser's
// Builder type-asserts registry entries to this signature.
type Constructor func(name string, kwargs map[string]any) (Op, error)
