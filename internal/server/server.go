// Package server exposes the chat engine over HTTP: direct chat with SSE
// streaming, group chat with assistant intervention, model discovery, and
// tool-server management.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ostaran/agentcore/pkg/config"
	"github.com/ostaran/agentcore/pkg/llm/factory"
	"github.com/ostaran/agentcore/pkg/mcp"
	"github.com/ostaran/agentcore/pkg/orchestrator"
	"github.com/ostaran/agentcore/pkg/persona"
	"github.com/ostaran/agentcore/pkg/store"
	"github.com/ostaran/agentcore/pkg/websearch"
)

// Server wires the engine components behind the HTTP surface.
type Server struct {
	cfg      config.ServerConfig
	log      *zap.Logger
	factory  *factory.Factory
	orch     *orchestrator.Orchestrator
	manager  *mcp.Manager
	registry *mcp.Registry
	search   *websearch.Client
	store    *store.Store
}

// Deps are the constructed components the server serves.
type Deps struct {
	Config   config.ServerConfig
	Log      *zap.Logger
	Factory  *factory.Factory
	Orch     *orchestrator.Orchestrator
	Manager  *mcp.Manager
	Registry *mcp.Registry
	Search   *websearch.Client
	Store    *store.Store
}

// New builds a server from its dependencies.
func New(deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:      deps.Config,
		log:      log,
		factory:  deps.Factory,
		orch:     deps.Orch,
		manager:  deps.Manager,
		registry: deps.Registry,
		search:   deps.Search,
		store:    deps.Store,
	}
}

// Router assembles the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuth(s.cfg.APIKey, s.log))
	router.Use(rateLimit(s.cfg.RequestsPerMin))

	router.GET("/health", s.handleHealth)

	v1 := router.Group("/v1")
	{
		v1.GET("/models", s.handleModels)
		v1.GET("/personas", s.handlePersonas)

		v1.POST("/threads", s.handleCreateThread)
		v1.GET("/threads", s.handleListThreads)
		v1.GET("/threads/:id/messages", s.handleThreadMessages)

		v1.POST("/chat/send", s.handleChatSend)

		v1.POST("/groups", s.handleCreateGroup)
		v1.GET("/groups/:id/messages", s.handleGroupMessages)
		v1.POST("/groups/:id/messages", s.handleGroupSend)

		v1.GET("/mcp/status", s.handleMCPStatus)
		v1.POST("/mcp/connect", s.handleMCPConnect)
		v1.POST("/mcp/disconnect", s.handleMCPDisconnect)
	}
	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": s.factory.AvailableModels()})
}

func (s *Server) handlePersonas(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"personas": persona.All()})
}

func (s *Server) handleCreateThread(c *gin.Context) {
	var body struct {
		Title   string `json:"title"`
		Persona string `json:"persona"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	thread := s.store.CreateThread(body.Title, body.Persona)
	c.JSON(http.StatusCreated, thread)
}

func (s *Server) handleListThreads(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"threads": s.store.Threads()})
}

func (s *Server) handleThreadMessages(c *gin.Context) {
	messages, err := s.store.Messages(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (s *Server) handleMCPStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"servers": s.manager.Status()})
}

func (s *Server) handleMCPConnect(c *gin.Context) {
	s.manager.ConnectAll(c.Request.Context())
	s.registry.RefreshAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"servers": s.manager.Status()})
}

func (s *Server) handleMCPDisconnect(c *gin.Context) {
	if err := s.manager.DisconnectAll(); err != nil {
		s.log.Warn("mcp disconnect", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"servers": s.manager.Status()})
}
