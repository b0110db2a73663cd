package server

import (
	"net/http"
	"strings"

	"quiz-live/internal/auth"
	"quiz-live/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const identityKey = "identity"

func (s *Server) requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := s.authenticate(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// authenticate accepts a Bearer header or, for websocket upgrades, a token query parameter.
func (s *Server) authenticate(c *gin.Context) (auth.Identity, bool) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}
	if token == "" || s.issuer == nil {
		return auth.Identity{}, false
	}
	identity, err := s.issuer.Verify(token)
	if err != nil {
		return auth.Identity{}, false
	}
	return identity, true
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func identityFrom(c *gin.Context) auth.Identity {
	value, _ := c.Get(identityKey)
	identity, _ := value.(auth.Identity)
	return identity
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow(c.ClientIP()) {
			metrics.RateLimited.Inc()
			log.Debug().Str("remote", c.ClientIP()).Str("path", c.Request.URL.Path).Msg("rate limited")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
