package ops

import (
	"fmt"

	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/toolcall"
)

// LenOp reports the rune length of its input text. Its constructor
// accepts a "tool_index" kwarg for multi-instance disambiguation: two
// LenOp() calls in one flow with different tool_index values read/
// write distinct context keys.
type LenOp struct {
	op.Base
}

func NewLenOp(name string, kwargs map[string]any) (op.Op, error) {
	o := &LenOp{}
	o.Cfg = op.NewConfig(name)
	o.Cfg.Async = true

	toolIndex := 0
	if v, ok := kwargs["tool_index"]; ok {
		n, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("LenOp: tool_index: %w", err)
		}
		toolIndex = int(n)
	}
	o.Cfg.ToolCall = &toolcall.ToolCall{
		Name:        name,
		Description: "Returns the character length of a text input.",
		ToolIndex:   toolIndex,
		InputSchema: map[string]toolcall.ParamAttrs{
			"text": {Type: "string", Required: true},
		},
	}
	o.Cfg.ToolCall.NormalizeOutputSchema(name)
	return o, nil
}

func (o *LenOp) AsyncExecute(_ *flowcontext.Context, input map[string]any) (map[string]any, error) {
	text, _ := input["text"].(string)
	return map[string]any{o.outputKey(): len([]rune(text))}, nil
}

func (o *LenOp) outputKey() string {
	for k := range o.Cfg.ToolCall.OutputSchema {
		return k
	}
	return "result"
}

func (o *LenOp) Copy() op.Op {
	clone := *o
	clone.Base = o.CloneBase()
	return &clone
}
