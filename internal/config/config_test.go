package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/keyip-smiles/pkg/errors"
	mtypes "github.com/turtacn/keyip-smiles/pkg/types/molecule"
)

func TestValidate_Defaults(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "text" }, "log.format"},
		{"smarts mode", func(c *Config) { c.Parser.SmartsMode = "fuzzy" }, "parser.smarts_mode"},
		{"input length", func(c *Config) { c.Parser.MaxInputLength = -1 }, "parser.max_input_length"},
		{"batch size", func(c *Config) { c.Parser.MaxBatchSize = -1 }, "parser.max_batch_size"},
		{"concurrency", func(c *Config) { c.Parser.BatchConcurrency = -1 }, "parser.batch_concurrency"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"server mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"rate", func(c *Config) { c.Server.RateLimitRPS = -1 }, "server.rate_limit_rps"},
		{"burst", func(c *Config) { c.Server.RateLimitRPS = 5; c.Server.RateLimitBurst = 0 }, "server.rate_limit_burst"},
		{"api key", func(c *Config) { c.Server.APIKeys = map[string]string{"ci": ""} }, "server.api_keys.ci"},
		{"redis addr", func(c *Config) { c.Cache.Enabled = true; c.Cache.Redis.Addr = "" }, "cache.redis.addr"},
		{"redis mode", func(c *Config) { c.Cache.Enabled = true; c.Cache.Redis.Mode = "ring" }, "cache.redis.mode"},
		{"sentinel", func(c *Config) { c.Cache.Enabled = true; c.Cache.Redis.Mode = "sentinel" }, "master_name"},
		{"cluster", func(c *Config) { c.Cache.Enabled = true; c.Cache.Redis.Mode = "cluster" }, "cache.redis.addrs"},
		{"redis db", func(c *Config) { c.Cache.Enabled = true; c.Cache.Redis.DB = -1 }, "cache.redis.db"},
		{"cache ttl", func(c *Config) { c.Cache.Enabled = true; c.Cache.TTL = -1 }, "cache.ttl"},
		{"namespace", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Namespace = "" }, "metrics.namespace"},
		{"worker group", func(c *Config) { c.Worker.GroupID = "" }, "worker.group_id"},
		{"offset reset", func(c *Config) { c.Worker.AutoOffsetReset = "newest" }, "worker.auto_offset_reset"},
		{"worker retries", func(c *Config) { c.Worker.MaxRetries = -1 }, "worker.max_retries"},
		{"worker concurrency", func(c *Config) { c.Worker.Concurrency = -2 }, "worker.concurrency"},
		{"sasl", func(c *Config) { c.Worker.SASLMechanism = "GSSAPI" }, "worker.sasl_mechanism"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeConfigInvalid))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_DisabledCacheIgnoresRedis(t *testing.T) {
	cfg := Default()
	cfg.Cache.Redis.Mode = "ring"
	assert.NoError(t, cfg.Validate())
}

func TestParserConfig_Mode(t *testing.T) {
	assert.Equal(t, mtypes.SmartsModeSMILES, ParserConfig{SmartsMode: "smiles"}.Mode())
	assert.Equal(t, mtypes.SmartsModeGuess, ParserConfig{SmartsMode: "guess"}.Mode())
	assert.Equal(t, mtypes.SmartsModeSMARTS, ParserConfig{SmartsMode: "smarts"}.Mode())
}
