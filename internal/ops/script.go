package ops

import (
	"fmt"

	"github.com/deepnoodle-ai/risor/v2"

	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/toolcall"
)

// ScriptOp evaluates a small inline Risor script against the Context's
// data bag, for flows that need a one-line transform without writing a
// Go Op. Eval's environment is empty by default, so no os/exec/file
// builtins reach flow-authored code, only the values explicitly passed
// in.
type ScriptOp struct {
	op.Base
	code string
}

func NewScriptOp(name string, kwargs map[string]any) (op.Op, error) {
	code, _ := kwargs["code"].(string)
	if code == "" {
		return nil, fmt.Errorf("ScriptOp: %q requires a non-empty code kwarg", name)
	}
	o := &ScriptOp{code: code}
	o.Cfg = op.NewConfig(name)
	o.Cfg.Async = true
	o.Cfg.ToolCall = &toolcall.ToolCall{
		Name:        name,
		Description: "Evaluates an inline Risor expression against the current context.",
	}
	o.Cfg.ToolCall.NormalizeOutputSchema(name)
	return o, nil
}

func (o *ScriptOp) AsyncExecute(fctx *flowcontext.Context, _ map[string]any) (map[string]any, error) {
	globals := fctx.Snapshot()
	result, err := risor.Eval(fctx, o.code, risor.WithEnv(globals))
	if err != nil {
		return nil, fmt.Errorf("ScriptOp %s: %w", o.Cfg.Name, err)
	}
	return map[string]any{o.outputKey(): result}, nil
}

func (o *ScriptOp) outputKey() string {
	for k := range o.Cfg.ToolCall.OutputSchema {
		return k
	}
	return "result"
}

func (o *ScriptOp) Copy() op.Op {
	clone := *o
	clone.Base = o.CloneBase()
	return &clone
}
