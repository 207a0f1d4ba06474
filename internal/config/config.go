// Package config defines the configuration of the SMILES parsing service.
// This file holds only data types and validation; loading lives in loader.go.
package config

import (
	"time"

	"github.com/turtacn/keyip-smiles/pkg/errors"
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sections
// ─────────────────────────────────────────────────────────────────────────────

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // debug | info | warn | error
	Format      string   `mapstructure:"format"` // json | console
	OutputPaths []string `mapstructure:"output_paths"`
}

// ParserConfig holds the defaults applied to every parse request.
type ParserConfig struct {
	SmartsMode           string `mapstructure:"smarts_mode"` // smiles | guess | smarts
	MakeHydrogenExplicit bool   `mapstructure:"make_hydrogen_explicit"`
	CreateSmartsWarnings bool   `mapstructure:"create_smarts_warnings"`
	DisableStereo        bool   `mapstructure:"disable_stereo"`
	// MaxInputLength bounds a single SMILES in bytes.
	MaxInputLength int `mapstructure:"max_input_length"`
	// MaxBatchSize bounds the number of items per batch request.
	MaxBatchSize int `mapstructure:"max_batch_size"`
	// BatchConcurrency is the number of parses run in parallel per batch.
	BatchConcurrency int `mapstructure:"batch_concurrency"`
}

// Mode returns the parsed SMARTS mode.  Validate guarantees it succeeds.
func (p ParserConfig) Mode() mtypes.SmartsMode {
	m, _ := mtypes.ParseSmartsMode(p.SmartsMode)
	return m
}

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug | release | test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	// AllowedOrigins enables CORS for the listed origins; empty disables it.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// RateLimitRPS is the sustained per-client request rate; 0 disables
	// rate limiting.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	// APIKeys maps key id to secret.  When set, /api/v1 requires one of the
	// secrets as a bearer token or X-API-Key header.
	APIKeys map[string]string `mapstructure:"api_keys"`
}

// RedisConfig holds Redis connection parameters for the summary cache.
type RedisConfig struct {
	Mode        string        `mapstructure:"mode"` // standalone | sentinel | cluster
	Addr        string        `mapstructure:"addr"`
	MasterName  string        `mapstructure:"master_name"`
	Addrs       []string      `mapstructure:"addrs"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// CacheConfig controls the parse-summary cache.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	Redis     RedisConfig   `mapstructure:"redis"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// WorkerConfig controls the Kafka parse worker started by "smilesctl worker".
type WorkerConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	RequestTopic    string        `mapstructure:"request_topic"`
	ResultTopic     string        `mapstructure:"result_topic"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // earliest | latest
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	// Concurrency is the number of consumers sharing the group.
	Concurrency      int    `mapstructure:"concurrency"`
	Compression      string `mapstructure:"compression"`
	SASLMechanism    string `mapstructure:"sasl_mechanism"` // PLAIN | SCRAM-SHA-256 | SCRAM-SHA-512
	SASLUsername     string `mapstructure:"sasl_username"`
	SASLPassword     string `mapstructure:"sasl_password"`
	TLSEnabled       bool   `mapstructure:"tls_enabled"`
	TLSCAFile        string `mapstructure:"tls_ca_file"`
	TopicReplication int    `mapstructure:"topic_replication"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root
// ─────────────────────────────────────────────────────────────────────────────

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Parser  ParserConfig  `mapstructure:"parser"`
	Server  ServerConfig  `mapstructure:"server"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Worker  WorkerConfig  `mapstructure:"worker"`
}

// Validate returns the first semantic error in c as a CodeConfigInvalid
// AppError.  Call it after ApplyDefaults.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Newf(errors.CodeConfigInvalid, "config: "+format, args...)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if _, err := mtypes.ParseSmartsMode(c.Parser.SmartsMode); err != nil {
		return invalid("parser.smarts_mode: %v", err)
	}
	if c.Parser.MaxInputLength < 1 {
		return invalid("parser.max_input_length must be >= 1, got %d", c.Parser.MaxInputLength)
	}
	if c.Parser.MaxBatchSize < 1 {
		return invalid("parser.max_batch_size must be >= 1, got %d", c.Parser.MaxBatchSize)
	}
	if c.Parser.BatchConcurrency < 1 {
		return invalid("parser.batch_concurrency must be >= 1, got %d", c.Parser.BatchConcurrency)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return invalid("server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.RateLimitRPS < 0 {
		return invalid("server.rate_limit_rps must be >= 0, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		return invalid("server.rate_limit_burst must be >= 1 when rate limiting is enabled")
	}
	for id, secret := range c.Server.APIKeys {
		if secret == "" {
			return invalid("server.api_keys.%s has an empty secret", id)
		}
	}

	if c.Cache.Enabled {
		switch c.Cache.Redis.Mode {
		case "standalone":
			if c.Cache.Redis.Addr == "" {
				return invalid("cache.redis.addr is required")
			}
		case "sentinel":
			if c.Cache.Redis.MasterName == "" || len(c.Cache.Redis.Addrs) == 0 {
				return invalid("cache.redis.master_name and cache.redis.addrs are required in sentinel mode")
			}
		case "cluster":
			if len(c.Cache.Redis.Addrs) == 0 {
				return invalid("cache.redis.addrs is required in cluster mode")
			}
		default:
			return invalid("cache.redis.mode %q is invalid; expected standalone|sentinel|cluster", c.Cache.Redis.Mode)
		}
		if c.Cache.Redis.DB < 0 {
			return invalid("cache.redis.db must be >= 0, got %d", c.Cache.Redis.DB)
		}
		if c.Cache.TTL <= 0 {
			return invalid("cache.ttl must be positive")
		}
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return invalid("metrics.namespace is required when metrics are enabled")
	}

	if c.Worker.GroupID == "" || c.Worker.RequestTopic == "" || c.Worker.ResultTopic == "" {
		return invalid("worker.group_id, worker.request_topic and worker.result_topic are required")
	}
	switch c.Worker.AutoOffsetReset {
	case "earliest", "latest":
	default:
		return invalid("worker.auto_offset_reset %q is invalid; expected earliest|latest", c.Worker.AutoOffsetReset)
	}
	if c.Worker.MaxRetries < 0 {
		return invalid("worker.max_retries must be >= 0, got %d", c.Worker.MaxRetries)
	}
	if c.Worker.Concurrency < 1 {
		return invalid("worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}
	switch c.Worker.SASLMechanism {
	case "", "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
	default:
		return invalid("worker.sasl_mechanism %q is invalid", c.Worker.SASLMechanism)
	}
	return nil
}
