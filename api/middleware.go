package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/coolestnick/Shard-Flip/auth"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	headerAuthorization = "Authorization"

	walletContextKey = "wallet_address"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger logs each request and records its latency
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.RecordHTTPRequest(c.Request.Method, route, status, duration)

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"route":    route,
			"status":   status,
			"duration": duration,
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("HTTP request failed")
		} else {
			entry.Debug("HTTP request")
		}
	}
}

// authMiddleware resolves the caller identity from a Bearer wallet token.
// The wallet is only ever taken from the verified claims.
func authMiddleware(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(headerAuthorization)
		if header == "" {
			respondFailure(c, http.StatusUnauthorized, codeUnauthorized, "Authorization header required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondFailure(c, http.StatusUnauthorized, codeUnauthorized, "Invalid authorization format")
			return
		}

		wallet, err := tokens.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			respondFailure(c, http.StatusUnauthorized, codeInvalidToken, "Invalid or expired token")
			return
		}

		c.Set(walletContextKey, wallet)
		c.Next()
	}
}

// betRateLimitMiddleware limits bets per caller. It must run after authMiddleware.
func (s *Server) betRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || s.cfg.BetRateLimitPerMinute <= 0 {
			c.Next()
			return
		}

		allowed, err := s.limiter.Allow(c.Request.Context(), "bet:"+c.GetString(walletContextKey), s.cfg.BetRateLimitPerMinute, time.Minute)
		if err != nil {
			log.WithError(err).Error("Rate limit check failed")
			respondFailure(c, http.StatusServiceUnavailable, codeRateLimitFailed, "Rate limit check failed")
			return
		}
		if !allowed {
			respondFailure(c, http.StatusTooManyRequests, codeRateLimited, "Too many bets. Please wait.")
			return
		}

		c.Next()
	}
}
