package op

import (
	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/opcache"
)

// Engine is the process-wide pair of shared services every OpRuntime
// invocation needs: the Cache backend and the bounded worker pool
// shared between async_mode=false Ops and submit_blocking calls.
// Combinators hold an *Engine so that building a child's Runtime for
// one call doesn't require plumbing Cache and Pool through every
// combinator constructor call site separately.
type Engine struct {
	Cache opcache.Cache
	Pool  Pool
	// buildOnce is shared by every Runtime this Engine creates, so
	// concurrent calls for the same fingerprint share one build.
	buildOnce *opcache.BuildOnce
}

func NewEngine(cache opcache.Cache, pool Pool) *Engine {
	e := &Engine{Cache: cache, Pool: pool}
	if cache != nil {
		e.buildOnce = opcache.NewBuildOnce(cache)
	}
	return e
}

// Call runs one full OpRuntime invocation of o using this Engine's
// shared Cache and Pool.
func (e *Engine) Call(o Op, fctx *flowcontext.Context, kwargs map[string]any) (map[string]any, error) {
	r := NewRuntime(o, e.Cache, e.Pool)
	if e.buildOnce != nil {
		r.buildOnce = e.buildOnce
	}
	return r.Call(fctx, kwargs)
}
