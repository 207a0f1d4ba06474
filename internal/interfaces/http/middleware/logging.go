package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
)

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are not logged (probes and scrapes).
	SkipPaths []string
	// SlowThreshold raises successful requests slower than this to Warn.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig returns the logging configuration used by the router.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: time.Second,
	}
}

// RequestLogging logs one entry per finished request.  5xx responses are
// logged at Error, 4xx and slow requests at Warn, everything else at Info.
func RequestLogging(logger logging.Logger, config LoggingConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("duration", duration),
			logging.Int("bytes", c.Writer.Size()),
			logging.String("client_ip", c.ClientIP()),
		}
		if ua := c.Request.UserAgent(); ua != "" {
			fields = append(fields, logging.String("user_agent", ua))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		log := logger.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			log.Error("HTTP request completed with server error", fields...)
		case status >= 400:
			log.Warn("HTTP request completed with client error", fields...)
		case config.SlowThreshold > 0 && duration >= config.SlowThreshold:
			log.Warn("HTTP request completed (slow)", fields...)
		default:
			log.Info("HTTP request completed", fields...)
		}
	}
}
