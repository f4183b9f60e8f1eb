// Package toolcall implements the ToolCall schema: input and output
// parameter declarations, key mappings, and the tool_index
// disambiguation rule for multi-instance tool Ops.
package toolcall

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
)

// ParamAttrs describes one input or output parameter.
type ParamAttrs struct {
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
	Required    bool   `yaml:"required" json:"required"`
	// Default may be a literal or an expr-lang expression, evaluated by
	// EvalDefault.
	Default any `yaml:"default,omitempty" json:"default,omitempty"`
}

// ToolCall is the schema carried by tool Ops.
type ToolCall struct {
	Name        string
	Description string
	InputSchema map[string]ParamAttrs
	// OutputSchema defaults, when empty, to a single string output
	// named "{op_short_name}_result" (applied by NormalizeOutputSchema).
	OutputSchema map[string]ParamAttrs
	// InputSchemaMapping / OutputSchemaMapping rename context keys <->
	// schema keys.
	InputSchemaMapping  map[string]string
	OutputSchemaMapping map[string]string
	// ToolIndex disambiguates multiple instances of the same Op inside
	// one flow: context keys get a ".{index}" suffix when non-zero.
	ToolIndex int
}

// NormalizeOutputSchema applies the "single string output named
// {op_short_name}_result" default when OutputSchema is empty.
func (t *ToolCall) NormalizeOutputSchema(opShortName string) {
	if len(t.OutputSchema) > 0 {
		return
	}
	t.OutputSchema = map[string]ParamAttrs{
		fmt.Sprintf("%s_result", opShortName): {
			Type:        "string",
			Description: fmt.Sprintf("The execution result of %s", opShortName),
		},
	}
}

// OutputKeys returns the declared output parameter names in a stable
// (sorted) order.
func (t *ToolCall) OutputKeys() []string {
	keys := make([]string, 0, len(t.OutputSchema))
	for k := range t.OutputSchema {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// contextKey applies the mapping + tool_index suffixing rule shared by
// input and output resolution.
func contextKey(name string, mapping map[string]string, toolIndex int) string {
	key := name
	if mapping != nil {
		if mapped, ok := mapping[name]; ok {
			key = mapped
		}
	}
	if toolIndex != 0 {
		key = fmt.Sprintf("%s.%d", key, toolIndex)
	}
	return key
}

// InputContextKey returns the Context key a given input schema name
// reads from.
func (t *ToolCall) InputContextKey(name string) string {
	return contextKey(name, t.InputSchemaMapping, t.ToolIndex)
}

// OutputContextKey returns the Context key a given output schema name
// writes to.
func (t *ToolCall) OutputContextKey(name string) string {
	return contextKey(name, t.OutputSchemaMapping, t.ToolIndex)
}

// EvalDefault evaluates a ParamAttrs.Default value against vars: string
// values are treated as expr-lang expressions, any other type is
// returned as a literal.
func EvalDefault(def any, vars map[string]any) (any, error) {
	s, ok := def.(string)
	if !ok {
		return def, nil
	}
	program, err := expr.Compile(s, expr.Env(vars), expr.AllowUndefinedVariables())
	if err != nil {
		// Not a valid expression - treat as a literal string default.
		return s, nil
	}
	return expr.Run(program, vars)
}
