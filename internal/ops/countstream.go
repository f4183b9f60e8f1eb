package ops

import (
	"fmt"

	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/stream"
)

// CountStreamOp emits an ANSWER chunk for each integer from 1 to n,
// then returns the final count as its output. It exercises the
// StreamPipe end to end: ordering per producer, backpressure via
// Emit's bounded channel, and the service layer's synthetic terminal
// DONE chunk appended after this Op returns.
type CountStreamOp struct {
	op.Base
	n int
}

func NewCountStreamOp(name string, kwargs map[string]any) (op.Op, error) {
	o := &CountStreamOp{n: 3}
	if v, ok := kwargs["n"]; ok {
		if f, err := toFloat(v); err == nil {
			o.n = int(f)
		}
	}
	o.Cfg = op.NewConfig(name)
	o.Cfg.Async = true
	return o, nil
}

func (o *CountStreamOp) AsyncExecute(fctx *flowcontext.Context, _ map[string]any) (map[string]any, error) {
	for i := 1; i <= o.n; i++ {
		if err := fctx.Emit(stream.Answer(fmt.Sprintf("%d", i))); err != nil {
			return nil, err
		}
	}
	return map[string]any{"count": o.n}, nil
}

func (o *CountStreamOp) Copy() op.Op {
	clone := *o
	clone.Base = o.CloneBase()
	return &clone
}
