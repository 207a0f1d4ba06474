package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/keyip-smiles/internal/interfaces/http/handlers"
	"github.com/turtacn/keyip-smiles/internal/interfaces/http/middleware"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.  Nil handlers leave their routes unregistered; nil optional
// middleware is skipped.
type RouterConfig struct {
	SmilesHandler *handlers.SmilesHandler
	HealthHandler *handlers.HealthHandler

	Logger      logging.Logger
	HTTPMetrics *prometheus.HTTPMetrics
	// MetricsHandler is mounted at MetricsPath (default /metrics).
	MetricsHandler http.Handler
	MetricsPath    string

	CORS        *middleware.CORSConfig
	Auth        *middleware.AuthConfig
	RateLimiter middleware.RateLimiter
	RateLimit   middleware.RateLimitConfig
	MaxBodySize int64
}

// NewRouter constructs the HTTP route tree:
//
//	GET    /healthz
//	GET    /readyz
//	GET    /metrics
//	POST   /api/v1/smiles/parse
//	POST   /api/v1/smiles/batch
//	POST   /api/v1/reactions/parse
//	DELETE /api/v1/cache
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.RequestLogging(logger, middleware.DefaultLoggingConfig()),
		middleware.Metrics(cfg.HTTPMetrics),
	)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Auth != nil {
		r.Use(middleware.APIKeyAuth(*cfg.Auth, logger))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1", middleware.BodyLimit(cfg.MaxBodySize))
	registerSmilesRoutes(api, cfg.SmilesHandler)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{
			Code:      errors.CodeNotFound.String(),
			Message:   "route not found",
			RequestID: middleware.GetRequestID(c),
		})
	})
	return r
}

func registerSmilesRoutes(api *gin.RouterGroup, h *handlers.SmilesHandler) {
	if h == nil {
		return
	}
	api.POST("/smiles/parse", h.Parse)
	api.POST("/smiles/batch", h.ParseBatch)
	api.POST("/reactions/parse", h.ParseReaction)
	api.DELETE("/cache", h.InvalidateCache)
}
