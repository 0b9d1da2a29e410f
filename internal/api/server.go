package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"trade-advisor/internal/advisor"
	"trade-advisor/internal/auth"
	"trade-advisor/internal/cache"
	"trade-advisor/internal/database"
	"trade-advisor/internal/events"
)

// Server represents the HTTP API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	repo       *database.Repository
	eventBus   *events.EventBus
	advisor    *advisor.Advisor
	cache      *cache.CacheService // Can be nil when Redis is disabled
	jwtManager *auth.JWTManager    // Can be nil when auth is disabled
	hub        *WSHub
	config     ServerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	AllowedOrigins string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ProductionMode bool
}

// NewServer creates a new API server
func NewServer(
	config ServerConfig,
	adv *advisor.Advisor,
	repo *database.Repository, // Can be nil when running without a database
	eventBus *events.EventBus,
	cacheService *cache.CacheService, // Can be nil if redis is disabled
	jwtManager *auth.JWTManager, // Can be nil if auth is disabled
) *Server {
	// Set Gin mode
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	if config.AllowedOrigins == "" || config.AllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(config.AllowedOrigins, ",")
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:     router,
		repo:       repo,
		eventBus:   eventBus,
		advisor:    adv,
		cache:      cacheService,
		jwtManager: jwtManager,
		hub:        NewWSHub(),
		config:     config,
	}

	server.setupRoutes()

	// Broadcast every bus event to connected WebSocket clients
	go server.hub.Run()
	eventBus.SubscribeAll(server.hub.BroadcastEvent)

	return server
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Auth status endpoint (always available, returns whether auth is enabled)
	s.router.GET("/api/auth/status", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"auth_enabled": s.jwtManager != nil,
		})
	})

	// API routes (protected when auth is enabled)
	api := s.router.Group("/api")

	if s.jwtManager != nil {
		api.Use(auth.Middleware(s.jwtManager))
	}

	{
		// Analysis endpoints
		api.POST("/analyze", s.handleAnalyze)
		api.POST("/regime", s.handleClassifyRegime)

		// Portfolio endpoints
		api.POST("/portfolio/risk", s.handlePortfolioRisk)

		// Signal history endpoints
		api.GET("/signals/recent", s.handleGetRecentSignals)
		api.GET("/signals/:id", s.handleGetSignal)
		api.POST("/signals/:id/outcome", s.handleSignalOutcome)

		// Accuracy metrics
		api.GET("/accuracy", s.handleGetAccuracy)
	}

	// WebSocket endpoint for streaming analysis events
	s.router.GET("/ws", s.handleWebSocket)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	readTimeout := s.config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := s.config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 15 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting HTTP server on %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// Router exposes the gin engine, used by tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dbStatus := "disabled"
	if s.repo != nil {
		dbStatus = "healthy"
		if err := s.repo.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
			})
			return
		}
	}

	cacheStatus := "disabled"
	if s.cache != nil {
		if s.cache.IsHealthy() {
			cacheStatus = "healthy"
		} else {
			cacheStatus = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": dbStatus,
		"cache":    cacheStatus,
		"time":     time.Now().Format(time.RFC3339),
	})
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
