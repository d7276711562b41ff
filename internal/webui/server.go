package webui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"collapsible/internal/config"
	"collapsible/internal/shared/logging"
	"collapsible/internal/webui/handlers"
	"collapsible/internal/webui/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Server - panel preview server
type Server struct {
	registry       *handlers.PanelRegistry
	cache          handlers.ProbeCache
	metricsHandler http.Handler
	tracer         trace.Tracer
	logger         logging.Logger

	engine     *gin.Engine
	httpServer *http.Server

	wsUpgrader    websocket.Upgrader
	wsConnections map[string]*WebSocketConnection
	wsConnMutex   sync.RWMutex

	host      string
	port      int
	startTime time.Time

	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup
}

// Deps - collaborators the server does not own
type Deps struct {
	Factory        handlers.PanelFactory
	Cache          handlers.ProbeCache
	MetricsHandler http.Handler
	Tracer         trace.Tracer
	Logger         logging.Logger
}

// NewServer - build the gin engine and routes
func NewServer(serverConfig config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Factory == nil {
		return nil, errors.New("panel factory is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	if !serverConfig.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(deps.Logger))
	engine.Use(middleware.Tracing(deps.Tracer))

	if serverConfig.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
		corsConfig.AllowWebSockets = true
		engine.Use(cors.New(corsConfig))
	}

	server := &Server{
		registry:       handlers.NewPanelRegistry(ctx, deps.Factory),
		cache:          deps.Cache,
		metricsHandler: deps.MetricsHandler,
		tracer:         deps.Tracer,
		logger:         logging.OrNop(deps.Logger),
		engine:         engine,
		wsUpgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return serverConfig.EnableCORS || r.Header.Get("Origin") == ""
			},
		},
		wsConnections: make(map[string]*WebSocketConnection),
		host:          serverConfig.Host,
		port:          serverConfig.Port,
		startTime:     time.Now(),
		ctx:           ctx,
		cancel:        cancel,
	}

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port),
		Handler:      engine,
		ReadTimeout:  serverConfig.ReadTimeout,
		WriteTimeout: serverConfig.WriteTimeout,
	}

	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	panelHandler := handlers.NewPanelHandler(s.registry, s.logger)

	api := s.engine.Group("/api")
	api.Use(middleware.ErrorHandlingMiddleware())

	// The stream endpoint upgrades the connection and must not get a JSON content type.
	api.GET("/panels/:id/stream", s.handleWebSocket)

	rest := api.Group("")
	rest.Use(middleware.JSONMiddleware())
	rest.GET("/health", s.handleHealth)

	panels := rest.Group("/panels")
	{
		panels.POST("", panelHandler.CreatePanel)
		panels.GET("", panelHandler.ListPanels)
		panels.GET("/:id", panelHandler.GetPanel)
		panels.DELETE("/:id", panelHandler.DeletePanel)
		panels.PUT("/:id/attributes", panelHandler.UpdateAttributes)
		panels.POST("/:id/toggle", panelHandler.TogglePanel)
	}

	if s.cache != nil {
		cacheHandler := handlers.NewCacheHandler(s.cache, s.logger)
		rest.GET("/cache", cacheHandler.GetStats)
		rest.POST("/cache/purge", cacheHandler.Purge)
	}

	if s.metricsHandler != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metricsHandler))
	}
}

// Handler exposes the engine, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Registry returns the live panel registry.
func (s *Server) Registry() *handlers.PanelRegistry {
	return s.registry
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, handlers.APIResponse{
		Success: true,
		Data: handlers.HealthResponse{
			Status:    "ok",
			Version:   Version,
			Timestamp: time.Now(),
			Uptime:    time.Since(s.startTime).Round(time.Second).String(),
			Panels:    s.registry.Len(),
			Cache:     handlers.CacheStats(s.cache),
		},
	})
}

// Start - serve until Stop is called
func (s *Server) Start() error {
	s.logger.Info("Starting panel preview server on %s:%d", s.host, s.port)

	s.wg.Add(1)
	go s.manageWebSocketConnections()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop - close streams, panels and the listener
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping panel preview server...")

	s.cancel()
	s.closeAllWebSocketConnections()
	s.registry.CloseAll()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Error shutting down HTTP server: %v", err)
		return err
	}

	s.wg.Wait()
	s.logger.Info("Panel preview server stopped")
	return nil
}

func (s *Server) manageWebSocketConnections() {
	defer s.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.cleanupWebSocketConnections()
		}
	}
}

func (s *Server) cleanupWebSocketConnections() {
	s.wsConnMutex.Lock()
	defer s.wsConnMutex.Unlock()

	for connID, conn := range s.wsConnections {
		select {
		case <-conn.Done:
			delete(s.wsConnections, connID)
			s.logger.Debug("Cleaned up WebSocket connection %s", connID)
		default:
		}
	}
}

func (s *Server) closeAllWebSocketConnections() {
	s.wsConnMutex.Lock()
	defer s.wsConnMutex.Unlock()

	for connID, conn := range s.wsConnections {
		conn.Close()
		s.logger.Debug("Closed WebSocket connection %s", connID)
	}
	s.wsConnections = make(map[string]*WebSocketConnection)
}

func (s *Server) addWebSocketConnection(conn *WebSocketConnection) {
	s.wsConnMutex.Lock()
	defer s.wsConnMutex.Unlock()
	s.wsConnections[conn.ID] = conn
}

func (s *Server) removeWebSocketConnection(connID string) {
	s.wsConnMutex.Lock()
	defer s.wsConnMutex.Unlock()
	if conn, exists := s.wsConnections[connID]; exists {
		conn.Close()
		delete(s.wsConnections, connID)
	}
}
