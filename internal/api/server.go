package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"dex-scalp-assistant/config"
	"dex-scalp-assistant/internal/analysis"
	"dex-scalp-assistant/internal/auth"
	"dex-scalp-assistant/internal/database"
	"dex-scalp-assistant/internal/dex"
	"dex-scalp-assistant/internal/events"
)

// ClientLimiter provides per-client request rate limiting
type ClientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewClientLimiter creates a per-client rate limiter
func NewClientLimiter(perSec float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSec),
		burst:    burst,
	}
}

// Allow checks if a request from the client is allowed
func (cl *ClientLimiter) Allow(key string) bool {
	cl.mu.Lock()
	limiter, ok := cl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(cl.limit, cl.burst)
		cl.limiters[key] = limiter
	}
	cl.mu.Unlock()
	return limiter.Allow()
}

// Server represents the HTTP API server
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	repo        *database.Repository
	analysis    *analysis.Service
	dexClient   *dex.Client
	eventBus    *events.EventBus
	authService *auth.Service
	jwtManager  *auth.JWTManager
	authEnabled bool
	localUserID uuid.UUID
	cfg         config.ServerConfig
	marketCfg   config.MarketConfig
	limiter     *ClientLimiter
	wsHub       *WSHub
	logger      zerolog.Logger
}

// NewServer creates a new API server. authService may be nil when auth is
// disabled, dexClient may be nil when quotes are disabled.
func NewServer(
	cfg config.ServerConfig,
	marketCfg config.MarketConfig,
	repo *database.Repository,
	analysisService *analysis.Service,
	dexClient *dex.Client,
	eventBus *events.EventBus,
	authService *auth.Service,
	jwtManager *auth.JWTManager,
	logger zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins == "" || cfg.AllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:      router,
		repo:        repo,
		analysis:    analysisService,
		dexClient:   dexClient,
		eventBus:    eventBus,
		authService: authService,
		jwtManager:  jwtManager,
		authEnabled: authService != nil,
		cfg:         cfg,
		marketCfg:   marketCfg,
		limiter:     NewClientLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst),
		logger:      logger.With().Str("component", "api").Logger(),
	}

	server.wsHub = InitWebSocket(eventBus, server.logger)
	server.setupRoutes()

	return server
}

// rateLimitMiddleware limits requests per client IP
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   true,
				"message": "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// WebSocket endpoint for live analysis updates
	s.router.GET("/ws", s.handleWebSocket)

	// Auth routes (public)
	if s.authEnabled {
		authGroup := s.router.Group("/api/auth")
		authGroup.Use(s.rateLimitMiddleware())
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
	}

	s.router.GET("/api/auth/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"auth_enabled": s.authEnabled})
	})

	// API routes (protected when auth is enabled)
	api := s.router.Group("/api")
	api.Use(s.rateLimitMiddleware())
	if s.authEnabled {
		api.Use(auth.Middleware(s.jwtManager))
	}

	{
		// Ad-hoc analysis of caller-supplied candles
		api.POST("/analyze", s.handleAnalyzeCandles)

		// Pool analysis endpoints
		api.GET("/pools/:network/:pool/analysis", s.handleAnalyzePool)
		api.GET("/pools/:network/:pool/snapshots", s.handleGetSnapshots)

		// Watchlist endpoints
		api.GET("/watchlist", s.handleGetWatchlist)
		api.POST("/watchlist", s.handleAddToWatchlist)
		api.DELETE("/watchlist/:id", s.handleRemoveFromWatchlist)

		// Trading plan endpoints
		api.GET("/plans", s.handleGetPlans)
		api.POST("/plans", s.handleCreatePlan)
		api.GET("/plans/:id", s.handleGetPlan)
		api.PATCH("/plans/:id/status", s.handleUpdatePlanStatus)
		api.DELETE("/plans/:id", s.handleDeletePlan)

		// Swap quote endpoint
		api.GET("/quote", s.handleGetQuote)
	}
}

// Start runs the HTTP server, blocking until it stops
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
	}

	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine, used by tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// SetLocalUser sets the user all requests act as when auth is disabled
func (s *Server) SetLocalUser(id uuid.UUID) {
	s.localUserID = id
}

// currentUserID resolves the acting user for a request
func (s *Server) currentUserID(c *gin.Context) (uuid.UUID, bool) {
	if s.authEnabled {
		return auth.UserIDFromContext(c)
	}
	return s.localUserID, s.localUserID != uuid.Nil
}
