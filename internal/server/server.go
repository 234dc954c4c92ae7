package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sjafferali/searcharr/internal/config"
	"github.com/sjafferali/searcharr/internal/server/handlers"
	"github.com/sjafferali/searcharr/internal/services"
)

// HTTPServer represents the HTTP server
type HTTPServer struct {
	config    *config.Config
	container *services.Container
	router    *gin.Engine
	server    *http.Server
	logger    *logrus.Logger
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(cfg *config.Config, container *services.Container) *HTTPServer {
	// Set Gin mode based on configuration
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	logger := container.GetLogger()

	server := &HTTPServer{
		config:    cfg,
		container: container,
		router:    router,
		logger:    logger,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	// Create HTTP server
	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	return server
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.Infof("Starting HTTP server on port %d", s.config.Server.Port)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *HTTPServer) Shutdown() error {
	s.logger.Info("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// setupMiddleware configures middleware
func (s *HTTPServer) setupMiddleware() {
	// Logger middleware
	s.router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.TimeStamp.Format("2006-01-02 15:04:05"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))

	// Recovery middleware
	s.router.Use(gin.Recovery())

	// CORS middleware
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Request ID middleware
	s.router.Use(func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	})
}

// setupRoutes configures all API routes
func (s *HTTPServer) setupRoutes() {
	// Health check endpoints
	s.router.GET("/health", s.healthCheckHandler)
	s.router.GET("/health/ready", s.readinessHandler)

	// API v1 routes
	v1 := s.router.Group("/api/v1")

	// WebSocket endpoint for status transitions
	v1.GET("/ws/status", s.websocketHandler)

	// Search
	searchGroup := v1.Group("/search")
	{
		searchHandler := handlers.NewSearchHandler(s.container)
		searchGroup.GET("", searchHandler.Search)
		searchGroup.GET("/categories", searchHandler.ListCategories)
	}

	// Download dispatch
	downloadHandler := handlers.NewDownloadHandler(s.container)
	v1.POST("/download", downloadHandler.Dispatch)

	// Indexer instance management
	instanceGroup := v1.Group("/instances")
	{
		instanceHandler := handlers.NewInstanceHandler(s.container)
		instanceGroup.GET("/status", instanceHandler.AllStatuses)

		for _, family := range []string{"jackett", "prowlarr"} {
			group := instanceGroup.Group("/" + family)
			group.GET("", instanceHandler.List(family))
			group.POST("", instanceHandler.Create(family))
			group.GET("/:id", instanceHandler.Get(family))
			group.PUT("/:id", instanceHandler.Update(family))
			group.DELETE("/:id", instanceHandler.Delete(family))
			group.POST("/:id/test", instanceHandler.Test(family))
		}
	}

	// Download client management
	clientGroup := v1.Group("/clients")
	{
		clientHandler := handlers.NewClientHandler(s.container)
		clientGroup.GET("", clientHandler.List)
		clientGroup.POST("", clientHandler.Create)
		clientGroup.GET("/status/all", clientHandler.AllStatuses)
		clientGroup.GET("/:id", clientHandler.Get)
		clientGroup.PUT("/:id", clientHandler.Update)
		clientGroup.DELETE("/:id", clientHandler.Delete)
		clientGroup.POST("/:id/test", clientHandler.Test)
	}
}

// healthCheckHandler handles health check requests
func (s *HTTPServer) healthCheckHandler(c *gin.Context) {
	ctx := c.Request.Context()
	health := s.container.HealthCheck(ctx)

	status := http.StatusOK
	if health["status"] != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, health)
}

// readinessHandler reports whether the server can serve traffic
func (s *HTTPServer) readinessHandler(c *gin.Context) {
	if err := s.container.GetDB().Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// websocketHandler handles WebSocket upgrade requests
func (s *HTTPServer) websocketHandler(c *gin.Context) {
	s.container.GetStatusHub().HandleWebSocket(c.Writer, c.Request)
}
