package cli

import (
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/turtacn/keyip-smiles/internal/application/smiles"
	"github.com/turtacn/keyip-smiles/internal/config"
	redisinfra "github.com/turtacn/keyip-smiles/internal/infrastructure/database/redis"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/keyip-smiles/internal/interfaces/http"
	"github.com/turtacn/keyip-smiles/internal/interfaces/http/handlers"
	"github.com/turtacn/keyip-smiles/internal/interfaces/http/middleware"
)

// Components is the wired service stack shared by the CLI commands and the
// API server.
type Components struct {
	Config  *config.Config
	Logger  logging.Logger
	Metrics prometheus.MetricsCollector
	Redis   *redisinfra.Client // nil when the cache is disabled
	Cache   redisinfra.Cache   // nil when the cache is disabled
	Service app.Service

	closers []func() error
}

// Bootstrap builds the metrics collector, the optional Redis cache and the
// parse service from cfg.
func Bootstrap(cfg *config.Config, logger logging.Logger) (*Components, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Components{Config: cfg, Logger: logger}

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger.Named("metrics"))
		if err != nil {
			return nil, err
		}
		c.Metrics = collector
	} else {
		c.Metrics = prometheus.NewNoopCollector()
	}

	opts := []app.Option{
		app.WithLogger(logger.Named("smiles")),
		app.WithMetrics(prometheus.NewParserMetrics(c.Metrics)),
	}
	if cfg.Cache.Enabled {
		client, err := redisinfra.NewClient(redisConfig(cfg.Cache.Redis), logger.Named("redis"))
		if err != nil {
			return nil, err
		}
		c.Redis = client
		c.closers = append(c.closers, client.Close)
		c.Cache = redisinfra.NewRedisCache(client, logger.Named("cache"),
			redisinfra.WithPrefix(cfg.Cache.KeyPrefix),
			redisinfra.WithDefaultTTL(cfg.Cache.TTL),
		)
		opts = append(opts, app.WithCache(c.Cache))
	}

	c.Service = app.NewService(serviceConfig(cfg), opts...)
	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Components) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// Handler builds the HTTP route tree.  The returned stop function ends the
// rate limiter's cleanup goroutine.
func (c *Components) Handler() (http.Handler, func()) {
	cfg := c.Config

	routerCfg := httpserver.RouterConfig{
		SmilesHandler: handlers.NewSmilesHandler(c.Service),
		HealthHandler: handlers.NewHealthHandler(Version, handlers.CheckerFunc("service", c.Service.Ready)),
		Logger:        c.Logger.Named("http"),
		MaxBodySize:   cfg.Server.MaxBodySize,
		MetricsPath:   cfg.Metrics.Path,
	}
	if cfg.Metrics.Enabled {
		routerCfg.HTTPMetrics = prometheus.NewHTTPMetrics(c.Metrics)
		routerCfg.MetricsHandler = c.Metrics.Handler()
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.AllowedOrigins
		routerCfg.CORS = &cors
	}
	if len(cfg.Server.APIKeys) > 0 {
		routerCfg.Auth = &middleware.AuthConfig{Keys: cfg.Server.APIKeys, SkipPaths: middleware.DefaultAuthSkipPaths()}
	}

	stop := func() {}
	if cfg.Server.RateLimitRPS > 0 {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.Server.RateLimitRPS
		rl.BurstSize = cfg.Server.RateLimitBurst
		limiter := middleware.NewTokenBucketLimiter(rl.RequestsPerSecond, rl.BurstSize, rl.CleanupInterval)
		routerCfg.RateLimiter = limiter
		routerCfg.RateLimit = rl
		stop = limiter.Stop
	}

	gin.SetMode(cfg.Server.Mode)
	return httpserver.NewRouter(routerCfg), stop
}

func serviceConfig(cfg *config.Config) app.Config {
	return app.Config{
		DefaultMode:          cfg.Parser.Mode(),
		MakeHydrogenExplicit: cfg.Parser.MakeHydrogenExplicit,
		CreateSmartsWarnings: cfg.Parser.CreateSmartsWarnings,
		DisableStereo:        cfg.Parser.DisableStereo,
		MaxInputLength:       cfg.Parser.MaxInputLength,
		MaxBatchSize:         cfg.Parser.MaxBatchSize,
		BatchConcurrency:     cfg.Parser.BatchConcurrency,
		CacheTTL:             cfg.Cache.TTL,
	}
}

func redisConfig(rc config.RedisConfig) *redisinfra.RedisConfig {
	out := &redisinfra.RedisConfig{
		Mode:        rc.Mode,
		Addr:        rc.Addr,
		MasterName:  rc.MasterName,
		Password:    rc.Password,
		DB:          rc.DB,
		PoolSize:    rc.PoolSize,
		DialTimeout: rc.DialTimeout,
	}
	switch rc.Mode {
	case redisinfra.ModeSentinel:
		out.SentinelAddrs = rc.Addrs
	case redisinfra.ModeCluster:
		out.ClusterAddrs = rc.Addrs
	}
	return out
}
