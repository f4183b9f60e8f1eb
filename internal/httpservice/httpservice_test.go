package httpservice

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowllm/flowllm/internal/dispatcher"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/ops"
	"github.com/flowllm/flowllm/internal/registry"
	"github.com/flowllm/flowllm/internal/scheduler"
	"github.com/flowllm/flowllm/internal/toolcall"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	reg := registry.New()
	require.NoError(t, ops.RegisterAll(reg))
	engine := op.NewEngine(nil, scheduler.NewWorkerPool(4))
	d := dispatcher.New(reg, engine, 0, 8)

	echo, err := ops.NewEchoOp("echo", nil)
	require.NoError(t, err)
	flow := dispatcher.NewFlow("demo_echo", echo)
	flow.InputSchema = map[string]toolcall.ParamAttrs{"text": {Type: "string"}}
	require.NoError(t, d.Register(flow))

	count, err := ops.NewCountStreamOp("count", map[string]any{"n": 2.0})
	require.NoError(t, err)
	streamFlow := dispatcher.NewFlow("count", count)
	streamFlow.Stream = true
	require.NoError(t, d.Register(streamFlow))

	return New(d)
}

func TestHealthReturnsOK(t *testing.T) {
	s := newTestService(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostFlowRunsAndReturnsAnswer(t *testing.T) {
	s := newTestService(t)
	body, _ := json.Marshal(map[string]any{"text": "hi"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/demo_echo", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "hi", out["answer"])
}

func TestPostUnknownFlowReturns404(t *testing.T) {
	s := newTestService(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/nope", bytes.NewReader([]byte("{}")))
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostStreamFlowEmitsSSEEventsThenDone(t *testing.T) {
	s := newTestService(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/count", bytes.NewReader([]byte("{}")))
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for scanner.Scan() {
		if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
			lines = append(lines, strings.TrimPrefix(line, "data: "))
		}
	}
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"type":"answer"`)
	assert.Contains(t, lines[1], `"type":"answer"`)
	assert.Equal(t, "[DONE]", lines[2])
}

func TestDocsListsRegisteredFlows(t *testing.T) {
	s := newTestService(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/demo_echo")
	assert.Contains(t, paths, "/count")
}

func TestCORSPreflightReturnsPermissiveHeaders(t *testing.T) {
	s := newTestService(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/demo_echo", nil)
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
