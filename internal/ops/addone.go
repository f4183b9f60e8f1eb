package ops

import (
	"fmt"

	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/toolcall"
)

// AddOneOp increments a numeric input by one, a minimal single-input
// tool Op whose input n defaults to the literal 0 when absent.
type AddOneOp struct {
	op.Base
}

func NewAddOneOp(name string, kwargs map[string]any) (op.Op, error) {
	o := &AddOneOp{}
	o.Cfg = op.NewConfig(name)
	o.Cfg.Async = true
	o.Cfg.ToolCall = &toolcall.ToolCall{
		Name:        name,
		Description: "Adds one to a numeric input.",
		InputSchema: map[string]toolcall.ParamAttrs{
			"n": {Type: "number", Default: 0},
		},
		OutputSchema: map[string]toolcall.ParamAttrs{
			"n": {Type: "number"},
		},
	}
	return o, nil
}

func (o *AddOneOp) AsyncExecute(_ *flowcontext.Context, input map[string]any) (map[string]any, error) {
	n, err := toFloat(input["n"])
	if err != nil {
		return nil, err
	}
	return map[string]any{o.outputKey(): n + 1}, nil
}

func (o *AddOneOp) outputKey() string {
	for k := range o.Cfg.ToolCall.OutputSchema {
		return k
	}
	return "result"
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("addone: input %q is not numeric", "n")
	}
}

func (o *AddOneOp) Copy() op.Op {
	clone := *o
	clone.Base = o.CloneBase()
	return &clone
}
