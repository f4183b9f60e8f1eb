package ops

import (
	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/toolcall"
)

// EchoOp is the simplest possible tool Op: it copies its declared
// "text" input straight to its output, useful for wiring smoke tests
// and as a Sequential/Parallel placeholder leaf.
type EchoOp struct {
	op.Base
}

func NewEchoOp(name string, kwargs map[string]any) (op.Op, error) {
	o := &EchoOp{}
	o.Cfg = op.NewConfig(name)
	o.Cfg.Async = true
	o.Cfg.ToolCall = &toolcall.ToolCall{
		Name:        name,
		Description: "Returns its input text unchanged.",
		InputSchema: map[string]toolcall.ParamAttrs{
			"text": {Type: "string", Required: true},
		},
	}
	o.Cfg.ToolCall.NormalizeOutputSchema(name)
	return o, nil
}

func (o *EchoOp) AsyncExecute(_ *flowcontext.Context, input map[string]any) (map[string]any, error) {
	return map[string]any{o.outputKey(): input["text"]}, nil
}

func (o *EchoOp) outputKey() string {
	for k := range o.Cfg.ToolCall.OutputSchema {
		return k
	}
	return "result"
}

func (o *EchoOp) Copy() op.Op {
	clone := *o
	clone.Base = o.CloneBase()
	return &clone
}
