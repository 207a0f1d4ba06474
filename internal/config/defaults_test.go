package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultSmartsMode, cfg.Parser.SmartsMode)
	assert.Equal(t, DefaultMaxInputLength, cfg.Parser.MaxInputLength)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultRedisAddr, cfg.Cache.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Cache.Enabled)
	assert.Zero(t, cfg.Server.RateLimitBurst, "no burst without a rate")
	assert.Equal(t, []string{"localhost:9092"}, cfg.Worker.Brokers)
	assert.Equal(t, DefaultRequestTopic, cfg.Worker.RequestTopic)
	assert.Equal(t, DefaultWorkerRetries, cfg.Worker.MaxRetries)
	assert.Equal(t, 1, cfg.Worker.Concurrency)
}

func TestApplyDefaults_RateBurst(t *testing.T) {
	cfg := &Config{}
	cfg.Server.RateLimitRPS = 5
	ApplyDefaults(cfg)
	assert.Equal(t, DefaultRateBurst, cfg.Server.RateLimitBurst)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Parser.SmartsMode = "guess"
	cfg.Server.Port = 9000
	cfg.Cache.Redis.Mode = "cluster"
	ApplyDefaults(cfg)

	assert.Equal(t, "guess", cfg.Parser.SmartsMode)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Empty(t, cfg.Cache.Redis.Addr, "no standalone address in cluster mode")
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}
