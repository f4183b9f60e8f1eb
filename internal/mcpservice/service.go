// Package mcpservice implements the MCP transport: an SSE server
// exposing every non-stream registered flow as a tool. The transport
// is built directly on gin's SSE-capable ResponseWriter, the same
// vehicle internal/httpservice's stream endpoint uses.
package mcpservice

import (
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/flowllm/flowllm/internal/dispatcher"
)

// Service holds the flow table (via a Dispatcher) and the set of live
// SSE sessions awaiting JSON-RPC responses.
type Service struct {
	dispatcher *dispatcher.Dispatcher
	engine     *gin.Engine

	mu       sync.Mutex
	sessions map[string]*session
}

// New builds a Service and registers its routes.
func New(d *dispatcher.Dispatcher) *Service {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Service{dispatcher: d, engine: engine, sessions: make(map[string]*session)}
	engine.GET("/sse", s.handleSSE)
	engine.POST("/message", s.handleMessage)
	return s
}

// Run starts the MCP server, blocking until it exits.
func (s *Service) Run(addr string) error {
	slog.Info("mcpservice: listening", "addr", addr)
	return s.engine.Run(addr)
}

// Handler exposes the underlying gin.Engine for httptest-driven tests.
func (s *Service) Handler() *gin.Engine { return s.engine }

func (s *Service) addSession(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
}

func (s *Service) removeSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Service) session(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}
