package toolcall

import (
	"encoding/json"
	"fmt"
)

// Getter/Setter are the minimal Context operations schema binding
// needs, kept as an interface here to avoid toolcall depending on
// flowcontext (which would create an import cycle since flowcontext
// has no need to know about ToolCall).
type Getter interface {
	Get(key string) (any, bool)
}

type Setter interface {
	Set(key string, value any)
}

// MissingInputError is returned by BindInputs when a required input is
// absent from the Context.
type MissingInputError struct {
	Op    string
	Field string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s: required input %q is missing", e.Op, e.Field)
}

// BindInputs implements OpRuntime step 3 (before-execute) for tool Ops:
// populate input_dict from the Context by reading each declared input,
// applying mappings and tool_index. Required inputs missing fail with
// MissingInputError. If a value is absent and the schema declares a
// Default, the default is evaluated (via EvalDefault) against vars and
// used instead of failing.
func (t *ToolCall) BindInputs(opName string, ctx Getter, vars map[string]any) (map[string]any, error) {
	input := make(map[string]any, len(t.InputSchema))
	for name, attrs := range t.InputSchema {
		key := t.InputContextKey(name)
		if v, ok := ctx.Get(key); ok {
			input[name] = v
			continue
		}
		if attrs.Default != nil {
			def, err := EvalDefault(attrs.Default, vars)
			if err != nil {
				return nil, fmt.Errorf("%s: evaluating default for %q: %w", opName, name, err)
			}
			input[name] = def
			continue
		}
		if attrs.Required {
			return nil, &MissingInputError{Op: opName, Field: name}
		}
	}
	return input, nil
}

// WriteOutputs implements OpRuntime step 6 (after-execute) for tool
// Ops: write output_dict back into the Context, applying output
// mappings and tool_index.
func (t *ToolCall) WriteOutputs(ctx Setter, output map[string]any) {
	for name, value := range output {
		ctx.Set(t.OutputContextKey(name), value)
	}
}

// AnswerValue computes the value that should be written into
// ctx.Response.Answer when save_answer=true: the single output value
// if there is exactly one output key, or a stable JSON serialization
// of the multi-output map otherwise.
func (t *ToolCall) AnswerValue(output map[string]any) string {
	keys := t.OutputKeys()
	if len(keys) == 1 {
		if v, ok := output[keys[0]]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			return fmt.Sprintf("%v", v)
		}
		return ""
	}
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Sprintf("%v", output)
	}
	return string(data)
}
