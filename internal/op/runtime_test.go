package op

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/flowerr"
	"github.com/flowllm/flowllm/internal/opcache"
	"github.com/flowllm/flowllm/internal/toolcall"
)

// countingOp counts Execute/AsyncExecute invocations and can be told to
// fail a fixed number of times before succeeding.
type countingOp struct {
	Base
	calls     int32
	failTimes int32
	failKind  flowerr.Kind
}

func newCountingOp(name string, async bool) *countingOp {
	o := &countingOp{}
	o.Cfg = NewConfig(name)
	o.Cfg.Async = async
	return o
}

func (o *countingOp) run() (map[string]any, error) {
	n := atomic.AddInt32(&o.calls, 1)
	if n <= o.failTimes {
		kind := o.failKind
		if kind == "" {
			kind = flowerr.KindTransient
		}
		return nil, flowerr.Newf(kind, "attempt %d failed", n)
	}
	return map[string]any{"result": "ok"}, nil
}

func (o *countingOp) Execute(*flowcontext.Context, map[string]any) (map[string]any, error) {
	return o.run()
}
func (o *countingOp) AsyncExecute(*flowcontext.Context, map[string]any) (map[string]any, error) {
	return o.run()
}
func (o *countingOp) Copy() Op {
	clone := *o
	clone.Base = o.CloneBase()
	return &clone
}

func newFctx() *flowcontext.Context {
	return flowcontext.New(nil, time.Time{})
}

func TestRuntimeSuccessRunsExecuteOnce(t *testing.T) {
	o := newCountingOp("counter", true)
	rt := NewRuntime(o, nil, nil)
	out, err := rt.Call(newFctx(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out["result"])
	assert.EqualValues(t, 1, o.calls)
}

func TestRuntimeRetriesTransientFailures(t *testing.T) {
	o := newCountingOp("counter", true)
	o.Cfg.MaxRetries = 3
	o.failTimes = 2
	rt := NewRuntime(o, nil, nil)
	out, err := rt.Call(newFctx(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out["result"])
	assert.EqualValues(t, 3, o.calls)
}

func TestRuntimeDeterministicFailureIsNotRetried(t *testing.T) {
	o := newCountingOp("counter", true)
	o.Cfg.MaxRetries = 5
	o.failTimes = 5
	o.failKind = flowerr.KindDeterministic
	rt := NewRuntime(o, nil, nil)
	_, err := rt.Call(newFctx(), nil)
	require.Error(t, err)
	assert.EqualValues(t, 1, o.calls)
}

func TestRuntimeExhaustionWithRaiseOnFailureReturnsError(t *testing.T) {
	o := newCountingOp("counter", true)
	o.Cfg.MaxRetries = 2
	o.failTimes = 100
	rt := NewRuntime(o, nil, nil)
	_, err := rt.Call(newFctx(), nil)
	require.Error(t, err)
	assert.EqualValues(t, 2, o.calls)
}

func TestRuntimeExhaustionWithoutRaiseOnFailureReturnsDefault(t *testing.T) {
	o := newCountingOp("counter", true)
	o.Cfg.MaxRetries = 2
	o.Cfg.RaiseOnFailure = false
	o.failTimes = 100
	rt := NewRuntime(o, nil, nil)
	out, err := rt.Call(newFctx(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRuntimeMaxRetriesOneRunsOnce(t *testing.T) {
	o := newCountingOp("counter", true)
	o.Cfg.MaxRetries = 1
	rt := NewRuntime(o, nil, nil)
	_, err := rt.Call(newFctx(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, o.calls)
}

func TestRuntimeBlockingOpRunsThroughWorkerPoolWhenProvided(t *testing.T) {
	o := newCountingOp("counter", false)
	pool := newFakePool()
	rt := NewRuntime(o, nil, pool)
	out, err := rt.Call(newFctx(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out["result"])
	assert.True(t, pool.used)
}

func TestRuntimeCacheHitSkipsExecute(t *testing.T) {
	o := newCountingOp("counter", true)
	o.Cfg.CacheEnabled = true
	cache := opcache.NewMemory()
	rt := NewRuntime(o, cache, nil)

	fctx := newFctx()
	_, err := rt.Call(fctx, map[string]any{"x": 1})
	require.NoError(t, err)
	_, err = rt.Call(newFctx(), map[string]any{"x": 1})
	require.NoError(t, err)
	assert.EqualValues(t, 1, o.calls)
}

func TestRuntimeCacheMissWithDifferentInputsExecutesAgain(t *testing.T) {
	o := newCountingOp("counter", true)
	o.Cfg.CacheEnabled = true
	cache := opcache.NewMemory()
	rt := NewRuntime(o, cache, nil)

	_, err := rt.Call(newFctx(), map[string]any{"x": 1})
	require.NoError(t, err)
	_, err = rt.Call(newFctx(), map[string]any{"x": 2})
	require.NoError(t, err)
	assert.EqualValues(t, 2, o.calls)
}

func TestRuntimeDefaultOutputIsNotCached(t *testing.T) {
	o := newCountingOp("counter", true)
	o.Cfg.CacheEnabled = true
	o.Cfg.RaiseOnFailure = false
	o.failTimes = 100
	cache := opcache.NewMemory()
	rt := NewRuntime(o, cache, nil)

	_, err := rt.Call(newFctx(), map[string]any{"x": 1})
	require.NoError(t, err)
	_, ok, err := cache.Get(newFctx(), mustFingerprint(t, o, map[string]any{"x": 1}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func mustFingerprint(t *testing.T, o Op, kwargs map[string]any) string {
	t.Helper()
	key, err := Fingerprint(o.ShortName(), cacheAffectingInputs(o, kwargs))
	require.NoError(t, err)
	return key
}

func TestRuntimeToolCallBindsInputsAndWritesOutputsAndAnswer(t *testing.T) {
	o := newCountingOp("echo", true)
	o.Cfg.ToolCall = &toolcall.ToolCall{
		InputSchema:  map[string]toolcall.ParamAttrs{"text": {Required: true}},
		OutputSchema: map[string]toolcall.ParamAttrs{"result": {}},
	}
	rt := NewRuntime(o, nil, nil)

	fctx := newFctx()
	_, err := rt.Call(fctx, map[string]any{"text": "hi"})
	require.NoError(t, err)
	v, ok := fctx.Get("result")
	require.True(t, ok)
	assert.Equal(t, "ok", v)
	assert.Equal(t, "ok", fctx.Response.Answer)
}

func TestRuntimeToolCallMissingRequiredInputFailsWithoutExecuting(t *testing.T) {
	o := newCountingOp("echo", true)
	o.Cfg.ToolCall = &toolcall.ToolCall{
		InputSchema: map[string]toolcall.ParamAttrs{"text": {Required: true}},
	}
	rt := NewRuntime(o, nil, nil)
	_, err := rt.Call(newFctx(), nil)
	require.Error(t, err)
	assert.Equal(t, flowerr.KindInputValidation, flowerr.KindOf(err))
	assert.EqualValues(t, 0, o.calls)
}

// testWorkerPool is a minimal Pool fake that just runs fn inline while
// recording that Submit was used, so tests don't need the real bounded
// scheduler.WorkerPool.
type testWorkerPool struct {
	used bool
}

func (p *testWorkerPool) Submit(_ context.Context, fn func() (any, error)) (any, error) {
	p.used = true
	return fn()
}

func newFakePool() *testWorkerPool {
	return &testWorkerPool{}
}
