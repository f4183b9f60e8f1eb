package ops

import (
	"fmt"

	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/llmres"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/toolcall"
)

// LLMChatOp sends a single user query to the Op's resolved LLM and
// returns the reply, writing it back into context so a following
// Sequential Op can chain off it.
type LLMChatOp struct {
	op.Base
}

func NewLLMChatOp(name string, kwargs map[string]any) (op.Op, error) {
	o := &LLMChatOp{}
	o.Cfg = op.NewConfig(name)
	o.Cfg.Async = true
	if v, ok := kwargs["llm"].(string); ok {
		o.Cfg.LLMName = v
	}
	o.Cfg.ToolCall = &toolcall.ToolCall{
		Name:        name,
		Description: "Sends a query to the configured LLM and returns its reply.",
		InputSchema: map[string]toolcall.ParamAttrs{
			"query": {Type: "string", Required: true},
		},
		OutputSchema: map[string]toolcall.ParamAttrs{
			"llm_response": {Type: "string"},
		},
	}
	return o, nil
}

func (o *LLMChatOp) AsyncExecute(fctx *flowcontext.Context, input map[string]any) (map[string]any, error) {
	raw, err := o.Resources.LLM(o.Cfg.LLMName)
	if err != nil {
		return nil, err
	}
	llm, ok := raw.(llmres.LLM)
	if !ok {
		return nil, fmt.Errorf("LLMChatOp %s: resolved resource does not implement llmres.LLM", o.Cfg.Name)
	}

	query, _ := input["query"].(string)
	messages := []flowcontext.Message{{Role: "user", Content: query}}

	reply, err := llm.Chat(fctx, messages, nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{"llm_response": reply.Content}, nil
}

func (o *LLMChatOp) Copy() op.Op {
	clone := *o
	clone.Base = o.CloneBase()
	return &clone
}
