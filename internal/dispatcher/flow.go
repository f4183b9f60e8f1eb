package dispatcher

import (
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/toolcall"
)

// Flow is one named, immutable entry in the Dispatcher's flow table: a
// composed Op tree plus the contract the HTTP and MCP services
// validate requests against.
type Flow struct {
	Name        string
	Description string
	Root        op.Op
	// InputSchema is optional for HTTP (unknown fields pass through) and
	// mandatory for MCP.
	InputSchema map[string]toolcall.ParamAttrs
	// Stream marks a flow the service must expose over SSE.
	Stream bool
}

func NewFlow(name string, root op.Op) *Flow {
	return &Flow{Name: name, Root: root}
}
