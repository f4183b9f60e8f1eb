package mcpservice

import (
	"sort"

	"github.com/flowllm/flowllm/internal/dispatcher"
)

// listTools builds the tools/list result from the Dispatcher's flow
// table: one tool per flow, tool name equal to flow name. Stream flows
// are excluded rather than collapsed to final text — a client that
// lists tools it can never usefully call is worse than one that simply
// doesn't see them.
func (s *Service) listTools() []tool {
	flows := s.dispatcher.Flows()
	tools := make([]tool, 0, len(flows))
	for _, flow := range flows {
		if flow.Stream {
			continue
		}
		tools = append(tools, tool{
			Name:        flow.Name,
			Description: flow.Description,
			InputSchema: toolInputSchema(flow),
		})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

func toolInputSchema(flow *dispatcher.Flow) map[string]any {
	properties := make(map[string]any, len(flow.InputSchema))
	var required []string
	for name, attrs := range flow.InputSchema {
		prop := map[string]any{"type": jsonSchemaType(attrs.Type)}
		if attrs.Description != "" {
			prop["description"] = attrs.Description
		}
		properties[name] = prop
		if attrs.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func jsonSchemaType(t string) string {
	if t == "" {
		return "string"
	}
	return t
}
