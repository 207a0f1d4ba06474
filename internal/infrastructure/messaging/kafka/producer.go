package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.CodeUnavailable, "producer closed")

// ProducerConfig holds configuration for the Producer.
type ProducerConfig struct {
	Brokers          []string
	Acks             string // none | one | all
	MaxRetries       int
	BatchTimeout     time.Duration
	WriteTimeout     time.Duration
	MaxMessageBytes  int
	CompressionCodec string // gzip | snappy | lz4 | zstd
	Security         SecurityConfig
}

// Writer abstracts kafka.Writer for testing.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProducerStats is a snapshot of producer counters.
type ProducerStats struct {
	Published int64
	Failed    int64
	Bytes     int64
}

// Producer publishes messages, keyed by the hash of their key.
type Producer struct {
	writer Writer
	config ProducerConfig
	logger logging.Logger
	closed atomic.Bool

	published, failed, bytes atomic.Int64
}

func NewProducer(cfg ProducerConfig, logger logging.Logger) (*Producer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	transport := &kafka.Transport{DialTimeout: 10 * time.Second}
	tlsCfg, err := cfg.Security.tlsConfig()
	if err != nil {
		return nil, err
	}
	transport.TLS = tlsCfg
	mech, err := cfg.Security.saslMechanism()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create SASL mechanism")
	}
	transport.SASL = mech

	var acks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		acks = kafka.RequireNone
	case "one":
		acks = kafka.RequireOne
	default:
		acks = kafka.RequireAll
	}

	var compression kafka.Compression
	switch cfg.CompressionCodec {
	case "gzip":
		compression = kafka.Gzip
	case "snappy":
		compression = kafka.Snappy
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: acks,
		Compression:  compression,
		Transport:    transport,
	}
	return NewProducerFromWriter(w, cfg, logger), nil
}

// NewProducerFromWriter wraps an existing writer.
func NewProducerFromWriter(w Writer, cfg ProducerConfig, logger logging.Logger) *Producer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.MaxMessageBytes == 0 {
		cfg.MaxMessageBytes = 1 << 20
	}
	return &Producer{writer: w, config: cfg, logger: logger}
}

// Publish writes msg synchronously.
func (p *Producer) Publish(ctx context.Context, msg *ProducerMessage) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if msg == nil || msg.Topic == "" {
		return errors.New(errors.CodeInvalidParam, "kafka: message topic required")
	}
	if msg.Value == nil {
		return errors.New(errors.CodeInvalidParam, "kafka: message value required")
	}
	if len(msg.Value) > p.config.MaxMessageBytes {
		return errors.Newf(errors.CodeInputTooLarge, "kafka: message of %d bytes exceeds %d", len(msg.Value), p.config.MaxMessageBytes)
	}

	km := kafka.Message{Topic: msg.Topic, Key: msg.Key, Value: msg.Value, Time: time.Now()}
	for k, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	if err := p.writer.WriteMessages(ctx, km); err != nil {
		p.failed.Add(1)
		p.logger.Error("publish failed", logging.String("topic", msg.Topic), logging.Err(err))
		return errors.Wrap(err, errors.CodeUnavailable, "failed to publish message")
	}
	p.published.Add(1)
	p.bytes.Add(int64(len(msg.Value)))
	return nil
}

func (p *Producer) Stats() ProducerStats {
	return ProducerStats{Published: p.published.Load(), Failed: p.failed.Load(), Bytes: p.bytes.Load()}
}

// Close flushes pending writes.  Publish fails afterwards.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}

func ValidateProducerConfig(cfg ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.CodeInvalidParam, "kafka: brokers required")
	}
	switch cfg.Acks {
	case "", "none", "one", "all":
	default:
		return errors.Newf(errors.CodeInvalidParam, "kafka: invalid acks %q", cfg.Acks)
	}
	switch cfg.CompressionCodec {
	case "", "none", "gzip", "snappy", "lz4", "zstd":
	default:
		return errors.Newf(errors.CodeInvalidParam, "kafka: invalid compression codec %q", cfg.CompressionCodec)
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.CodeInvalidParam, "kafka: max retries must be >= 0")
	}
	return cfg.Security.validate()
}
