package config

import "time"

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultSmartsMode       = "smiles"
	DefaultMaxInputLength   = 4096
	DefaultMaxBatchSize     = 1000
	DefaultBatchConcurrency = 8

	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080
	DefaultServerMode = "release"
	DefaultRateBurst  = 20

	DefaultRedisMode = "standalone"
	DefaultRedisAddr = "localhost:6379"
	DefaultCacheTTL  = time.Hour
	DefaultKeyPrefix = "smiles:"

	DefaultMetricsNamespace = "keyip"
	DefaultMetricsPath      = "/metrics"

	DefaultWorkerGroupID   = "smiles-parse-worker"
	DefaultRequestTopic    = "smiles.parse.request"
	DefaultResultTopic     = "smiles.parse.result"
	DefaultDeadLetterTopic = "smiles.parse.dlq"
	DefaultWorkerRetries   = 3
)

// ApplyDefaults fills zero-value fields in cfg.  Explicit values win; booleans
// are never touched because false is their default.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Parser ────────────────────────────────────────────────────────────────
	if cfg.Parser.SmartsMode == "" {
		cfg.Parser.SmartsMode = DefaultSmartsMode
	}
	if cfg.Parser.MaxInputLength == 0 {
		cfg.Parser.MaxInputLength = DefaultMaxInputLength
	}
	if cfg.Parser.MaxBatchSize == 0 {
		cfg.Parser.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.Parser.BatchConcurrency == 0 {
		cfg.Parser.BatchConcurrency = DefaultBatchConcurrency
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 8 << 20
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultRateBurst
	}

	// ── Cache ─────────────────────────────────────────────────────────────────
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.Cache.Redis.Mode == "" {
		cfg.Cache.Redis.Mode = DefaultRedisMode
	}
	if cfg.Cache.Redis.Addr == "" && cfg.Cache.Redis.Mode == DefaultRedisMode {
		cfg.Cache.Redis.Addr = DefaultRedisAddr
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if len(cfg.Worker.Brokers) == 0 {
		cfg.Worker.Brokers = []string{"localhost:9092"}
	}
	if cfg.Worker.GroupID == "" {
		cfg.Worker.GroupID = DefaultWorkerGroupID
	}
	if cfg.Worker.RequestTopic == "" {
		cfg.Worker.RequestTopic = DefaultRequestTopic
	}
	if cfg.Worker.ResultTopic == "" {
		cfg.Worker.ResultTopic = DefaultResultTopic
	}
	if cfg.Worker.DeadLetterTopic == "" {
		cfg.Worker.DeadLetterTopic = DefaultDeadLetterTopic
	}
	if cfg.Worker.AutoOffsetReset == "" {
		cfg.Worker.AutoOffsetReset = "earliest"
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = DefaultWorkerRetries
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = 1
	}
	if cfg.Worker.TopicReplication == 0 {
		cfg.Worker.TopicReplication = 1
	}
}

// Default returns a fully defaulted configuration without reading any file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
