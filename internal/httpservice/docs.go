package httpservice

import (
	"net/http"
	"sort"

	"github.com/Jeffail/gabs/v2"
	"github.com/gin-gonic/gin"

	"github.com/flowllm/flowllm/internal/dispatcher"
)

// handleDocs and handleOpenAPI both serve the same generated OpenAPI
// document describing every registered flow, built with gabs/v2's
// path-addressed container rather than a static struct since the set
// of paths is only known once the flow table is loaded.
func (s *Service) handleDocs(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", s.openAPIDocument().Bytes())
}

func (s *Service) handleOpenAPI(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", s.openAPIDocument().Bytes())
}

func (s *Service) openAPIDocument() *gabs.Container {
	doc := gabs.New()
	_, _ = doc.Set("3.0.3", "openapi")
	_, _ = doc.Set("FlowLLM", "info", "title")
	_, _ = doc.Set("1.0.0", "info", "version")

	flows := s.dispatcher.Flows()
	sort.Slice(flows, func(i, j int) bool { return flows[i].Name < flows[j].Name })

	for _, flow := range flows {
		path := "/" + flow.Name
		_, _ = doc.Set("Invoke flow "+flow.Name, "paths", path, "post", "summary")
		if flow.Description != "" {
			_, _ = doc.Set(flow.Description, "paths", path, "post", "description")
		}
		_, _ = doc.Set(flowSchema(flow), "paths", path, "post", "requestBody", "content", "application/json", "schema")
		_, _ = doc.Set(responseSchema(flow), "paths", path, "post", "responses", "200", "content", "application/json", "schema")
	}
	return doc
}

func flowSchema(flow *dispatcher.Flow) map[string]any {
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
	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		sort.Strings(required)
		schema["required"] = required
	}
	return schema
}

func responseSchema(flow *dispatcher.Flow) map[string]any {
	if flow.Stream {
		return map[string]any{"type": "string", "description": "text/event-stream of {type, content} chunks"}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer": map[string]any{"type": "string"},
		},
	}
}

func jsonSchemaType(t string) string {
	if t == "" {
		return "string"
	}
	return t
}
