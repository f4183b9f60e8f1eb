package httpservice

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flowllm/flowllm/internal/dispatcher"
	"github.com/flowllm/flowllm/internal/flowerr"
	"github.com/flowllm/flowllm/internal/stream"
)

// handleFlow implements POST /{flow_name}: the JSON request body
// becomes the flow's kwargs, and the response is either a single JSON
// object (non-stream flow) or an SSE event sequence (stream flow),
// branching on the registered Flow's Stream flag.
func (s *Service) handleFlow(c *gin.Context) {
	name := c.Param("flow_name")
	flow, ok := s.dispatcher.Flow(name)
	if !ok {
		writeError(c, flowerr.Newf(flowerr.KindUnknownFlow, "dispatcher: unknown flow %q", name))
		return
	}

	kwargs, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid JSON body: " + err.Error()})
		return
	}

	if flow.Stream {
		s.handleFlowStream(c, name, kwargs)
		return
	}

	out, err := s.dispatcher.Dispatch(c.Request.Context(), name, kwargs, dispatcher.ModeHTTP)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func readBody(c *gin.Context) (map[string]any, error) {
	if c.Request.ContentLength == 0 {
		return map[string]any{}, nil
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, err
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

// handleFlowStream drains the flow's StreamPipe into SSE events, one
// "data: {type, content}\n\n" line per chunk, terminated by
// "data: [DONE]\n\n"; an error chunk precedes DONE on failure.
func (s *Service) handleFlowStream(c *gin.Context, name string, kwargs map[string]any) {
	fctx, done, err := s.dispatcher.DispatchStream(c.Request.Context(), name, kwargs, dispatcher.ModeHTTP)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		writeError(c, fmt.Errorf("httpservice: response writer does not support streaming"))
		return
	}

	var flowErr error
	for streaming := true; streaming; {
		select {
		case chunk := <-fctx.Stream.Chunks():
			writeSSEChunk(c, chunk)
			flusher.Flush()
		case flowErr = <-done:
			streaming = false
		case <-c.Request.Context().Done():
			fctx.Cancel()
			return
		}
	}

	for drained := false; !drained; {
		select {
		case chunk := <-fctx.Stream.Chunks():
			writeSSEChunk(c, chunk)
			flusher.Flush()
		default:
			drained = true
		}
	}

	if flowErr != nil {
		writeSSEChunk(c, stream.Error(flowErr.Error()))
	}
	writeSSERaw(c, "[DONE]")
	flusher.Flush()
}

// writeSSEChunk writes one chunk as a raw "data: {...}\n\n" line. gin's
// own c.SSEvent frames an "event: " line ahead of "data: ", which this
// wire format doesn't use, so it writes directly to the response body
// instead.
func writeSSEChunk(c *gin.Context, chunk stream.Chunk) {
	data, err := json.Marshal(chunk)
	if err != nil {
		writeSSERaw(c, fmt.Sprintf(`{"type":"error","content":%q}`, err.Error()))
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
}

func writeSSERaw(c *gin.Context, data string) {
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
}
