package dispatcher

import (
	"github.com/flowllm/flowllm/internal/flowerr"
	"github.com/flowllm/flowllm/internal/toolcall"
)

// validateKwargs checks kwargs against a flow's declared schema: in MCP
// mode (strict) the schema is mandatory and unknown fields are
// rejected; in HTTP mode the schema is optional and unknown fields
// pass through untouched.
func validateKwargs(schema map[string]toolcall.ParamAttrs, kwargs map[string]any, strict bool) error {
	if schema == nil {
		if strict {
			return flowerr.Newf(flowerr.KindInputValidation, "flow requires a declared input_schema for MCP invocation")
		}
		return nil
	}

	for name, attrs := range schema {
		v, ok := kwargs[name]
		if !ok {
			if attrs.Required {
				return flowerr.Newf(flowerr.KindInputValidation, "missing required field %q", name)
			}
			continue
		}
		if attrs.Type != "" && !typeMatches(attrs.Type, v) {
			return flowerr.Newf(flowerr.KindInputValidation, "field %q: expected type %s", name, attrs.Type)
		}
	}

	if strict {
		for k := range kwargs {
			if _, declared := schema[k]; !declared {
				return flowerr.Newf(flowerr.KindInputValidation, "unknown field %q", k)
			}
		}
	}
	return nil
}

func typeMatches(t string, v any) bool {
	switch t {
	case "string":
		_, ok := v.(string)
		return ok
	case "number", "integer":
		switch v.(type) {
		case float64, float32, int, int64:
			return true
		default:
			return false
		}
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	default:
		return true
	}
}
