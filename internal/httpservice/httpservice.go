// Package httpservice implements the HTTP transport: GET /health, GET
// /docs and /openapi.json, and POST /{flow_name} for every registered
// flow, JSON or SSE depending on the flow's Stream flag. A single
// dynamic route backed by the Dispatcher's flow table serves every
// flow, rather than one gin route registered per flow config.
package httpservice

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/flowllm/flowllm/internal/dispatcher"
)

// Service wraps a gin.Engine wired to a Dispatcher.
type Service struct {
	dispatcher *dispatcher.Dispatcher
	engine     *gin.Engine
}

// New builds a Service and registers its routes.
func New(d *dispatcher.Dispatcher) *Service {
	engine := gin.New()
	engine.Use(gin.Recovery(), corsMiddleware())

	s := &Service{dispatcher: d, engine: engine}
	engine.GET("/health", s.handleHealth)
	engine.GET("/docs", s.handleDocs)
	engine.GET("/openapi.json", s.handleOpenAPI)
	engine.POST("/:flow_name", s.handleFlow)
	return s
}

// Run starts the HTTP server, blocking until it exits.
func (s *Service) Run(addr string) error {
	slog.Info("httpservice: listening", "addr", addr)
	return s.engine.Run(addr)
}

// Handler exposes the underlying gin.Engine for httptest-driven tests.
func (s *Service) Handler() *gin.Engine { return s.engine }
