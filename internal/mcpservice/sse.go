package mcpservice

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const pingInterval = 30 * time.Second

// handleSSE opens the long-lived event stream a client keeps open for
// the lifetime of one MCP session. The first event tells the client
// where to POST subsequent JSON-RPC requests; every response and
// notification after that is forwarded as a "message" event. A
// periodic comment-only ping keeps intermediate proxies from closing
// the idle connection.
func (s *Service) handleSSE(c *gin.Context) {
	sess := newSession()
	s.addSession(sess)
	defer func() {
		s.removeSession(sess.id)
		close(sess.done)
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return
	}

	fmt.Fprintf(c.Writer, "event: endpoint\ndata: /message?sessionId=%s\n\n", sess.id)
	flusher.Flush()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-sess.out:
			fmt.Fprintf(c.Writer, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			flusher.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

// handleMessage accepts one JSON-RPC request for an existing session,
// acknowledges it immediately, and processes it asynchronously so a
// slow flow invocation doesn't hold the POST open (the MCP SSE
// transport delivers the actual result over the /sse stream, not the
// POST response).
func (s *Service) handleMessage(c *gin.Context) {
	sessionID := c.Query("sessionId")
	sess, ok := s.session(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "mcpservice: unknown session"})
		return
	}

	var req rpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "mcpservice: invalid JSON-RPC request: " + err.Error()})
		return
	}

	c.Status(http.StatusAccepted)
	// The POST's own request context ends as soon as this handler
	// returns, but a tool call may legitimately outlive it (the actual
	// result is delivered later over the /sse stream), so the
	// invocation runs against a context scoped to the session instead.
	go s.handle(sessionContext(sess), sess, req)
}
