package ops

import (
	"time"

	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/scheduler"
)

// SleepOp suspends for a configured, context-cancellable duration
// before returning its input unchanged. Used to exercise Parallel's
// cancel-on-sibling-failure and TaskGroup.Join's timeout paths end to
// end.
type SleepOp struct {
	op.Base
	duration time.Duration
}

func NewSleepOp(name string, kwargs map[string]any) (op.Op, error) {
	o := &SleepOp{duration: time.Second}
	if v, ok := kwargs["seconds"]; ok {
		if n, err := toFloat(v); err == nil {
			o.duration = time.Duration(n * float64(time.Second))
		}
	}
	o.Cfg = op.NewConfig(name)
	o.Cfg.Async = true
	return o, nil
}

func (o *SleepOp) AsyncExecute(fctx *flowcontext.Context, input map[string]any) (map[string]any, error) {
	if err := scheduler.Sleep(fctx, o.duration); err != nil {
		return nil, err
	}
	return input, nil
}

func (o *SleepOp) Copy() op.Op {
	clone := *o
	clone.Base = o.CloneBase()
	return &clone
}
