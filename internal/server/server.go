package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"quiz-live/internal/auth"
	"quiz-live/internal/config"
	"quiz-live/internal/game"
	"quiz-live/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// AnswerLister reads the archived answers of a session.
type AnswerLister interface {
	ListAnswers(ctx context.Context, code string) ([]game.AnswerRecord, error)
}

type Server struct {
	coord   *game.Coordinator
	hub     *Hub
	issuer  *auth.Issuer
	cfg     config.Config
	limiter *rateLimiter
	answers AnswerLister
}

func New(coord *game.Coordinator, hub *Hub, issuer *auth.Issuer, cfg config.Config) *Server {
	registerValidators()
	if hub == nil {
		hub = NewHub()
	}
	return &Server{
		coord:   coord,
		hub:     hub,
		issuer:  issuer,
		cfg:     cfg,
		limiter: newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
	}
}

// WithAnswers enables GET /api/games/:code/answers.
func (s *Server) WithAnswers(answers AnswerLister) *Server {
	s.answers = answers
	return s
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), recordMetrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/", s.handleHome)
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/games/:code", s.handleWebsocket)

	api := router.Group("/api", s.rateLimit())
	api.POST("/auth/guest", s.handleGuest)
	api.GET("/games", s.handleListGames)
	api.GET("/games/:code", s.handleGetGame)
	api.GET("/games/:code/answers", s.handleListAnswers)
	api.GET("/topics", s.handleTopics)
	api.GET("/difficulty-levels", s.handleDifficultyLevels)

	authed := api.Group("", s.requireIdentity())
	authed.POST("/games", s.handleCreateGame)
	authed.POST("/games/:code/join", s.handleJoinGame)
	authed.POST("/games/:code/start", s.handleStartGame)
	authed.POST("/games/:code/answers", s.handleSubmitAnswer)
	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		event := log.Debug()
		if status >= http.StatusInternalServerError {
			event = log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("remote", c.ClientIP()).
			Msg("http request")
	}
}

func recordMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
