// Package redis provides the Redis connection and the parse-summary cache
// used by the SMILES service.
package redis

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

var (
	ErrClientClosed     = errors.New(errors.CodeCacheError, "redis client is closed")
	ErrConnectionFailed = errors.New(errors.CodeCacheError, "redis connection failed")
)

// Supported RedisConfig.Mode values.
const (
	ModeStandalone = "standalone"
	ModeSentinel   = "sentinel"
	ModeCluster    = "cluster"
)

type RedisConfig struct {
	Mode          string        `mapstructure:"mode"`
	Addr          string        `mapstructure:"addr"`
	MasterName    string        `mapstructure:"master_name"`
	SentinelAddrs []string      `mapstructure:"sentinel_addrs"`
	ClusterAddrs  []string      `mapstructure:"cluster_addrs"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	PoolSize      int           `mapstructure:"pool_size"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	TLSEnabled    bool          `mapstructure:"tls_enabled"`
	TLSCAFile     string        `mapstructure:"tls_ca_file"`
	TLSInsecure   bool          `mapstructure:"tls_insecure"`
}

// Client wraps a go-redis UniversalClient and refuses commands once closed.
type Client struct {
	rdb    redis.UniversalClient
	logger logging.Logger

	mu     sync.RWMutex
	closed bool
}

// NewClient connects according to cfg and verifies the connection with PING.
func NewClient(cfg *RedisConfig, log logging.Logger) (*Client, error) {
	applyDefaults(cfg)
	tlsConfig, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	var rdb redis.UniversalClient
	switch cfg.Mode {
	case ModeCluster:
		rdb = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.ClusterAddrs,
			Username:     cfg.Username,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			MaxRetries:   cfg.MaxRetries,
			TLSConfig:    tlsConfig,
		})
	case ModeSentinel:
		rdb = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.MasterName,
			SentinelAddrs: cfg.SentinelAddrs,
			Username:      cfg.Username,
			Password:      cfg.Password,
			DB:            cfg.DB,
			PoolSize:      cfg.PoolSize,
			DialTimeout:   cfg.DialTimeout,
			ReadTimeout:   cfg.ReadTimeout,
			WriteTimeout:  cfg.WriteTimeout,
			MaxRetries:    cfg.MaxRetries,
			TLSConfig:     tlsConfig,
		})
	default:
		if cfg.Mode != ModeStandalone {
			log.Warn("unknown redis mode, using standalone", logging.String("mode", cfg.Mode))
		}
		rdb = redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Username:     cfg.Username,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			MaxRetries:   cfg.MaxRetries,
			TLSConfig:    tlsConfig,
		})
	}

	c := NewClientFrom(rdb, log)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, ErrConnectionFailed.WithCause(err)
	}
	log.Info("redis client connected", logging.String("mode", cfg.Mode), logging.String("addr", cfg.Addr))
	return c, nil
}

// NewClientFrom wraps an existing client without checking the connection.
func NewClientFrom(rdb redis.UniversalClient, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{rdb: rdb, logger: log}
}

func applyDefaults(cfg *RedisConfig) {
	if cfg.Mode == "" {
		cfg.Mode = ModeStandalone
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10 * runtime.GOMAXPROCS(0)
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 3 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
}

func buildTLSConfig(cfg *RedisConfig) (*tls.Config, error) {
	if !cfg.TLSEnabled {
		return nil, nil
	}
	tlsConfig := &tls.Config{InsecureSkipVerify: cfg.TLSInsecure} //nolint:gosec // operator opt-in
	if cfg.TLSCAFile != "" {
		pem, err := os.ReadFile(cfg.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("redis: read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("redis: no certificates in %s", cfg.TLSCAFile)
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

// Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.rdb.Close()
	if err != nil {
		c.logger.Error("failed to close redis client", logging.Err(err))
	}
	return err
}

func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	if c.isClosed() {
		cmd := redis.NewStringCmd(ctx)
		cmd.SetErr(ErrClientClosed)
		return cmd
	}
	return c.rdb.Get(ctx, key)
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if c.isClosed() {
		cmd := redis.NewStatusCmd(ctx)
		cmd.SetErr(ErrClientClosed)
		return cmd
	}
	return c.rdb.Set(ctx, key, value, ttl)
}

func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if c.isClosed() {
		cmd := redis.NewIntCmd(ctx)
		cmd.SetErr(ErrClientClosed)
		return cmd
	}
	return c.rdb.Del(ctx, keys...)
}

func (c *Client) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	if c.isClosed() {
		cmd := redis.NewScanCmd(ctx, nil)
		cmd.SetErr(ErrClientClosed)
		return cmd
	}
	return c.rdb.Scan(ctx, cursor, match, count)
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
