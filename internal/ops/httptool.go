package ops

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/toolcall"
)

// HTTPToolOp performs a single HTTP request, the blocking (non-async)
// I/O leaf that demonstrates the WorkerPool-scheduled path:
// async_mode=false Ops run Execute through the shared bounded pool
// rather than the cooperative tier. A resty.Client is configured once;
// method/URL/headers/body are forwarded through, and a non-2xx
// response is treated as a successful call with is_error set rather
// than a Go error.
type HTTPToolOp struct {
	op.Base
	client *resty.Client
}

func NewHTTPToolOp(name string, kwargs map[string]any) (op.Op, error) {
	timeout := 30 * time.Second
	if v, ok := kwargs["timeout_seconds"]; ok {
		if n, err := toFloat(v); err == nil {
			timeout = time.Duration(n * float64(time.Second))
		}
	}
	o := &HTTPToolOp{
		client: resty.New().SetTimeout(timeout).SetRetryCount(0),
	}
	o.Cfg = op.NewConfig(name)
	o.Cfg.Async = false // blocking network I/O, scheduled through the WorkerPool
	o.Cfg.ToolCall = &toolcall.ToolCall{
		Name:        name,
		Description: "Performs a single HTTP request and returns its status and body.",
		InputSchema: map[string]toolcall.ParamAttrs{
			"url":     {Type: "string", Required: true},
			"method":  {Type: "string", Default: "GET"},
			"headers": {Type: "object"},
			"body":    {Type: "object"},
		},
		OutputSchema: map[string]toolcall.ParamAttrs{
			"status_code": {Type: "number"},
			"is_error":    {Type: "boolean"},
			"body":        {Type: "object"},
		},
	}
	return o, nil
}

func (o *HTTPToolOp) Execute(_ *flowcontext.Context, input map[string]any) (map[string]any, error) {
	url, _ := input["url"].(string)
	method, _ := input["method"].(string)
	if method == "" {
		method = "GET"
	}
	headers := map[string]string{}
	switch h := input["headers"].(type) {
	case map[string]string:
		headers = h
	case map[string]any:
		for k, v := range h {
			headers[k] = fmt.Sprint(v)
		}
	}
	body := input["body"]

	var result map[string]any
	var errBody map[string]any
	resp, err := o.client.R().
		SetHeaders(headers).
		SetBody(body).
		SetResult(&result).
		SetError(&errBody).
		Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("HTTPToolOp %s: %w", o.Cfg.Name, err)
	}

	out := result
	if resp.IsError() {
		out = errBody
	}
	return map[string]any{
		"status_code": resp.StatusCode(),
		"is_error":    resp.IsError(),
		"body":        out,
	}, nil
}

func (o *HTTPToolOp) Copy() op.Op {
	clone := *o
	clone.Base = o.CloneBase()
	return &clone
}
