package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the prefix of every environment override, e.g.
// SMILES_PARSER_SMARTS_MODE or SMILES_CACHE_REDIS_ADDR.
const envPrefix = "SMILES"

var (
	ErrConfigFileNotFound = stderrors.New("config: file not found")
	ErrConfigParseError   = stderrors.New("config: parse error")
)

// envKeys lists every leaf key so that AutomaticEnv can resolve overrides
// without a config file; viper only consults the environment for keys it
// already knows.
var envKeys = []string{
	"log.level", "log.format", "log.output_paths",
	"parser.smarts_mode", "parser.make_hydrogen_explicit", "parser.create_smarts_warnings",
	"parser.disable_stereo", "parser.max_input_length", "parser.max_batch_size", "parser.batch_concurrency",
	"server.host", "server.port", "server.mode", "server.read_timeout", "server.write_timeout",
	"server.shutdown_timeout", "server.max_body_size",
	"server.allowed_origins", "server.rate_limit_rps", "server.rate_limit_burst",
	"cache.enabled", "cache.ttl", "cache.key_prefix",
	"cache.redis.mode", "cache.redis.addr", "cache.redis.master_name", "cache.redis.addrs",
	"cache.redis.password", "cache.redis.db", "cache.redis.pool_size", "cache.redis.dial_timeout",
	"metrics.enabled", "metrics.namespace", "metrics.path",
	"worker.brokers", "worker.group_id", "worker.request_topic", "worker.result_topic",
	"worker.dead_letter_topic", "worker.auto_offset_reset", "worker.max_retries", "worker.retry_backoff",
	"worker.concurrency", "worker.compression", "worker.sasl_mechanism", "worker.sasl_username",
	"worker.sasl_password", "worker.tls_enabled", "worker.tls_ca_file", "worker.topic_replication",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	return v
}

type loadOptions struct {
	path string
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithConfigPath reads the YAML file at path before applying environment
// overrides.  Without it only the environment and defaults are used.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// Load builds a validated Config from an optional YAML file, SMILES_*
// environment overrides and defaults.
func Load(opts ...LoadOption) (*Config, error) {
	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	v := newViper()
	if o.path != "" {
		if _, err := os.Stat(o.path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, o.path)
		}
		v.SetConfigFile(o.path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
		}
	}
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch reloads path whenever it changes on disk and passes each valid
// result to onChange.  Invalid edits are reported to onError, when set, and
// otherwise ignored.  Watch returns after the first read.
func Watch(path string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}
	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad panics when Load fails.  For main packages only.
func MustLoad(opts ...LoadOption) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}
