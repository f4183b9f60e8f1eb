package combinator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/flowerr"
	"github.com/flowllm/flowllm/internal/op"
)

// recordingOp appends its name to a shared log on each Execute, so
// Sequential/Parallel ordering tests can assert visible effects.
type recordingOp struct {
	op.Base
	mu       *sync.Mutex
	log      *[]string
	fail     bool
	blockFor time.Duration
	inc      string // Context key to increment, for happens-before tests
}

func newRecordingOp(name string, async bool, mu *sync.Mutex, log *[]string) *recordingOp {
	o := &recordingOp{mu: mu, log: log}
	o.Cfg = op.NewConfig(name)
	o.Cfg.Async = async
	return o
}

func (o *recordingOp) run(fctx *flowcontext.Context) (map[string]any, error) {
	if o.blockFor > 0 {
		select {
		case <-time.After(o.blockFor):
		case <-fctx.Done():
			return nil, fctx.Err()
		}
	}
	o.mu.Lock()
	*o.log = append(*o.log, o.Cfg.Name)
	o.mu.Unlock()
	if o.inc != "" {
		v, _ := fctx.Get(o.inc)
		n, _ := v.(int)
		fctx.Set(o.inc, n+1)
	}
	if o.fail {
		return nil, flowerr.Newf(flowerr.KindDeterministic, "%s failed", o.Cfg.Name)
	}
	return map[string]any{"name": o.Cfg.Name}, nil
}

func (o *recordingOp) Execute(fctx *flowcontext.Context, _ map[string]any) (map[string]any, error) {
	return o.run(fctx)
}
func (o *recordingOp) AsyncExecute(fctx *flowcontext.Context, _ map[string]any) (map[string]any, error) {
	return o.run(fctx)
}
func (o *recordingOp) Copy() op.Op {
	clone := *o
	clone.Base = o.CloneBase()
	return &clone
}

func newFctx() *flowcontext.Context {
	return flowcontext.New(nil, time.Time{})
}

func TestSequentialRunsInOrderAndReturnsLastOutput(t *testing.T) {
	var mu sync.Mutex
	var log []string
	a := newRecordingOp("a", true, &mu, &log)
	b := newRecordingOp("b", true, &mu, &log)
	c := newRecordingOp("c", true, &mu, &log)

	seq, err := NewSequential("seq", true, op.NewEngine(nil, nil), a, b, c)
	require.NoError(t, err)

	out, err := seq.Execute(newFctx(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, log)
	assert.Equal(t, "c", out["name"])
}

func TestSequentialFailsFastAndSkipsLaterChildren(t *testing.T) {
	var mu sync.Mutex
	var log []string
	a := newRecordingOp("a", true, &mu, &log)
	b := newRecordingOp("b", true, &mu, &log)
	b.fail = true
	c := newRecordingOp("c", true, &mu, &log)

	seq, err := NewSequential("seq", true, op.NewEngine(nil, nil), a, b, c)
	require.NoError(t, err)

	_, err = seq.Execute(newFctx(), nil)
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, log)
}

func TestSequentialHappensBeforeVisibility(t *testing.T) {
	var mu sync.Mutex
	var log []string
	a := newRecordingOp("a", true, &mu, &log)
	a.inc = "counter"
	b := newRecordingOp("b", true, &mu, &log)
	b.inc = "counter"

	seq, err := NewSequential("seq", true, op.NewEngine(nil, nil), a, b)
	require.NoError(t, err)

	fctx := newFctx()
	_, err = seq.Execute(fctx, nil)
	require.NoError(t, err)
	v, _ := fctx.Get("counter")
	assert.Equal(t, 2, v)
}

func TestNewSequentialRejectsAsyncModeMismatch(t *testing.T) {
	var mu sync.Mutex
	var log []string
	a := newRecordingOp("a", true, &mu, &log)
	b := newRecordingOp("b", false, &mu, &log)
	_, err := NewSequential("seq", true, op.NewEngine(nil, nil), a, b)
	assert.ErrorIs(t, err, ErrAsyncModeMismatch)
}

func TestNewSequentialRejectsEmptyChildren(t *testing.T) {
	_, err := NewSequential("seq", true, op.NewEngine(nil, nil))
	assert.ErrorIs(t, err, ErrEmptyChildren)
}

func TestParallelRunsConcurrentlyAndAggregatesInDeclaredOrder(t *testing.T) {
	var mu sync.Mutex
	var log []string
	a := newRecordingOp("a", true, &mu, &log)
	a.blockFor = 20 * time.Millisecond
	b := newRecordingOp("b", true, &mu, &log)

	par, err := NewParallel("par", true, op.NewEngine(nil, nil), a, b)
	require.NoError(t, err)

	start := time.Now()
	out, err := par.Execute(newFctx(), nil)
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Less(t, elapsed, 40*time.Millisecond, "children should overlap, not run sequentially")

	results := out["results"].([]map[string]any)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0]["name"])
	assert.Equal(t, "b", results[1]["name"])
}

func TestParallelRaiseOnFailureCancelsAndReturnsError(t *testing.T) {
	var mu sync.Mutex
	var log []string
	a := newRecordingOp("a", true, &mu, &log)
	a.fail = true
	b := newRecordingOp("b", true, &mu, &log)
	b.blockFor = 200 * time.Millisecond

	par, err := NewParallel("par", true, op.NewEngine(nil, nil), a, b)
	require.NoError(t, err)

	fctx := newFctx()
	_, err = par.Execute(fctx, nil)
	require.Error(t, err)
	assert.Error(t, fctx.Err(), "sibling should be cancelled on failure")
}

func TestParallelCollectsDefaultsWhenRaiseOnFailureFalse(t *testing.T) {
	var mu sync.Mutex
	var log []string
	a := newRecordingOp("a", true, &mu, &log)
	a.fail = true
	b := newRecordingOp("b", true, &mu, &log)

	par, err := NewParallel("par", true, op.NewEngine(nil, nil), a, b)
	require.NoError(t, err)
	par.RaiseOnFailure = false

	out, err := par.Execute(newFctx(), nil)
	require.NoError(t, err)
	results := out["results"].([]map[string]any)
	require.Len(t, results, 2)
	assert.Empty(t, results[0])
	assert.Equal(t, "b", results[1]["name"])
}

func TestNewParallelRejectsAsyncModeMismatch(t *testing.T) {
	var mu sync.Mutex
	var log []string
	a := newRecordingOp("a", true, &mu, &log)
	b := newRecordingOp("b", false, &mu, &log)
	_, err := NewParallel("par", true, op.NewEngine(nil, nil), a, b)
	assert.ErrorIs(t, err, ErrAsyncModeMismatch)
}

func TestContainerStoresChildrenOnParentConfig(t *testing.T) {
	var mu sync.Mutex
	var log []string
	parent := newRecordingOp("router", true, &mu, &log)
	child := newRecordingOp("route_a", true, &mu, &log)

	Container(parent, map[string]op.Op{"a": child})
	assert.Same(t, child, parent.Config().Children["a"])
}

func TestSequentialCopyIsIndependent(t *testing.T) {
	var mu sync.Mutex
	var log []string
	a := newRecordingOp("a", true, &mu, &log)
	seq, err := NewSequential("seq", true, op.NewEngine(nil, nil), a)
	require.NoError(t, err)

	clone := seq.Copy().(*Sequential)
	_, err = clone.Execute(newFctx(), nil)
	require.NoError(t, err)
	assert.NotSame(t, seq.children[0], clone.children[0])
}

func TestParallelNoChildStillRunningAfterReturn(t *testing.T) {
	var mu sync.Mutex
	var log []string
	slow := newRecordingOp("slow", true, &mu, &log)
	slow.blockFor = 300 * time.Millisecond
	fast := newRecordingOp("fast", true, &mu, &log)
	fast.fail = true

	par, err := NewParallel("par", true, op.NewEngine(nil, nil), slow, fast)
	require.NoError(t, err)

	start := time.Now()
	_, err = par.Execute(newFctx(), nil)
	elapsed := time.Since(start)
	require.Error(t, err)
	assert.Less(t, elapsed, 200*time.Millisecond, "cancellation should cut the slow sibling's wait short before it returns")
}
