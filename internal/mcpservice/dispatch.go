package mcpservice

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowllm/flowllm/internal/dispatcher"
	"github.com/flowllm/flowllm/internal/flowerr"
)

// sessionContext derives a context.Context that is cancelled when the
// owning SSE connection closes, so an in-flight tool call is cancelled
// along with its session instead of running forever unobserved.
func sessionContext(sess *session) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sess.done
		cancel()
	}()
	return ctx
}

// handle routes one JSON-RPC request to the matching MCP method and
// pushes the response (if any) back onto the session's SSE stream.
// Notifications (no id) never produce a response, per JSON-RPC 2.0.
func (s *Service) handle(ctx context.Context, sess *session, req rpcRequest) {
	switch req.Method {
	case "initialize":
		resp := s.handleInitialize()
		resp.ID = req.ID
		s.reply(sess, req, resp)
	case "notifications/initialized":
		// client acknowledgement; nothing to do.
	case "ping":
		s.reply(sess, req, newResult(req.ID, map[string]any{}))
	case "tools/list":
		s.reply(sess, req, newResult(req.ID, map[string]any{"tools": s.listTools()}))
	case "tools/call":
		s.reply(sess, req, s.handleToolCall(ctx, req))
	default:
		s.reply(sess, req, newError(req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method)))
	}
}

func (s *Service) reply(sess *session, req rpcRequest, resp rpcResponse) {
	if req.isNotification() {
		return
	}
	sess.send(resp)
}

func (s *Service) handleInitialize() rpcResponse {
	return rpcResponse{
		JSONRPC: "2.0",
		Result: map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo":      map[string]any{"name": "flowllm", "version": "1.0.0"},
			"capabilities":    map[string]any{"tools": map[string]any{}},
		},
	}
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Service) handleToolCall(ctx context.Context, req rpcRequest) rpcResponse {
	var params toolCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return newError(req.ID, codeInvalidParams, "invalid tools/call params: "+err.Error())
		}
	}

	out, err := s.dispatcher.Dispatch(ctx, params.Name, params.Arguments, dispatcher.ModeMCP)
	if err != nil {
		return newResult(req.ID, toolErrorResult(err))
	}

	answer, _ := out["answer"].(string)
	return newResult(req.ID, toolCallResult{
		Content:           []contentPart{{Type: "text", Text: answer}},
		StructuredContent: out,
	})
}

// toolErrorResult surfaces a failed invocation as an isError=true tool
// result rather than a JSON-RPC protocol error, with the message in a
// text content part.
func toolErrorResult(err error) toolCallResult {
	msg := err.Error()
	if flowerr.KindOf(err) == flowerr.KindUnknownFlow {
		msg = "unknown tool: " + msg
	}
	return toolCallResult{
		Content: []contentPart{{Type: "text", Text: msg}},
		IsError: true,
	}
}
