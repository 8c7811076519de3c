// Package api exposes the ledger over HTTP
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coolestnick/Shard-Flip/auth"
	"github.com/coolestnick/Shard-Flip/config"
	"github.com/coolestnick/Shard-Flip/mirror"
	"github.com/coolestnick/Shard-Flip/observability"
	"github.com/coolestnick/Shard-Flip/service"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Options holds the dependencies of the HTTP server
type Options struct {
	Config  *config.Config
	Ledger  service.LedgerService
	Stats   service.StatsService
	Metrics *observability.MetricsProvider

	// Redis backs the view cache and the bet rate limit. Both are off when nil.
	Redis *redis.Client

	// Mirror serves the /api/mirror read-model routes. They are not mounted when nil.
	Mirror *mirror.Reader
}

// Server serves the ledger HTTP API
type Server struct {
	cfg     *config.Config
	ledger  service.LedgerService
	stats   service.StatsService
	metrics *observability.MetricsProvider
	redis   *redis.Client
	cache   *ViewCache
	limiter *RateLimiter
	tokens  *auth.Tokens
	mirror  *mirror.Reader

	router     *gin.Engine
	httpServer *http.Server
}

// NewServer creates the HTTP server and registers every route
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if opts.Ledger == nil || opts.Stats == nil {
		return nil, errors.New("ledger and stats services are required")
	}

	tokens, err := auth.NewTokens(opts.Config.JWTSecret, opts.Config.JWTIssuer, opts.Config.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}

	s := &Server{
		cfg:     opts.Config,
		ledger:  opts.Ledger,
		stats:   opts.Stats,
		metrics: opts.Metrics,
		redis:   opts.Redis,
		tokens:  tokens,
		mirror:  opts.Mirror,
	}
	if opts.Redis != nil {
		s.cache = NewViewCache(opts.Redis)
		s.limiter = NewRateLimiter(opts.Redis)
	}

	if s.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger(), corsMiddleware())
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:              ":" + s.cfg.HTTPPort,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.NoRoute(func(c *gin.Context) {
		respondFailure(c, http.StatusNotFound, codeNotFound, "Endpoint not found")
	})

	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)

		api.GET("/stats", s.handleGameStats)
		api.GET("/ledger", s.handleLedgerInfo)
		api.GET("/leaderboard", s.handleLeaderboard)
		api.GET("/pool/movements", s.handlePoolMovements)

		api.GET("/players", s.handleListPlayers)
		api.GET("/players/:address", s.handlePlayerStats)
		api.GET("/players/:address/games", s.handlePlayerGames)

		api.GET("/games/recent", s.handleRecentGames)
		api.GET("/games/count", s.handleTotalGames)
		api.GET("/games/:index", s.handleGameByIndex)

		api.GET("/fairness/verify", s.handleVerify)
	}

	if s.mirror != nil {
		mirrored := api.Group("/mirror")
		mirrored.GET("/stats", s.handleMirrorStats)
		mirrored.GET("/leaderboard", s.handleMirrorLeaderboard)
		mirrored.GET("/players/:address", s.handleMirrorPlayer)
	}

	mutating := api.Group("")
	mutating.Use(authMiddleware(s.tokens))
	{
		mutating.POST("/bets", s.betRateLimitMiddleware(), s.handlePlaceBet)
		mutating.POST("/pool/deposit", s.handleDeposit)

		admin := mutating.Group("/admin")
		{
			admin.POST("/withdraw", s.handleWithdraw)
			admin.POST("/emergency-withdraw", s.handleEmergencyWithdraw)
			admin.POST("/pause", s.handleSetPaused)
			admin.POST("/owner", s.handleTransferOwnership)
			admin.POST("/fairness/rotate", s.handleRotateSeed)
		}
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Cache returns the view cache, or nil when Redis is not configured
func (s *Server) Cache() *ViewCache {
	return s.cache
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	checks := gin.H{}
	if s.redis != nil {
		if err := s.redis.Ping(c.Request.Context()).Err(); err != nil {
			checks["redis"] = "unavailable"
		} else {
			checks["redis"] = "ok"
		}
	}

	respondOK(c, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}
