package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.CodeInternal, "consumer already running")

// Dead-letter headers.
const (
	HeaderOriginalTopic = "original_topic"
	HeaderError         = "error_message"
)

// RetryConfig controls redelivery of failed messages.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	// DeadLetterTopic receives messages whose retries are exhausted.  Empty
	// drops them after logging.
	DeadLetterTopic string
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	Topics          []string
	AutoOffsetReset string // earliest | latest
	SessionTimeout  time.Duration
	MaxWait         time.Duration
	Security        SecurityConfig
	Retry           RetryConfig
}

// ConsumerStats is a snapshot of consumer counters.
type ConsumerStats struct {
	Consumed     int64
	Processed    int64
	Failed       int64
	Retried      int64
	DeadLettered int64
	Lag          int64
}

// Reader abstracts kafka.Reader for testing.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer fetches messages of a consumer group and dispatches them to the
// handler subscribed for their topic.  Offsets are committed once a message
// is handled, dead-lettered or dropped.
type Consumer struct {
	reader     Reader
	config     ConsumerConfig
	logger     logging.Logger
	deadLetter Publisher

	mu       sync.RWMutex
	handlers map[string]MessageHandler

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	consumed, processed, failed, retried, deadLettered, lag atomic.Int64
}

// NewConsumer creates a group consumer.  deadLetter may be nil when
// cfg.Retry.DeadLetterTopic is empty.
func NewConsumer(cfg ConsumerConfig, logger logging.Logger, deadLetter Publisher) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 500 * time.Millisecond
	}

	dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
	tlsCfg, err := cfg.Security.tlsConfig()
	if err != nil {
		return nil, err
	}
	dialer.TLS = tlsCfg
	mech, err := cfg.Security.saslMechanism()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create SASL mechanism")
	}
	dialer.SASLMechanism = mech

	readerCfg := kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    cfg.Topics,
		MaxWait:        cfg.MaxWait,
		SessionTimeout: cfg.SessionTimeout,
		StartOffset:    kafka.FirstOffset,
		Dialer:         dialer,
	}
	if cfg.AutoOffsetReset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}
	return NewConsumerFromReader(kafka.NewReader(readerCfg), cfg, logger, deadLetter), nil
}

// NewConsumerFromReader wraps an existing reader.
func NewConsumerFromReader(r Reader, cfg ConsumerConfig, logger logging.Logger, deadLetter Publisher) *Consumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Consumer{
		reader:     r,
		config:     cfg,
		logger:     logger,
		deadLetter: deadLetter,
		handlers:   make(map[string]MessageHandler),
	}
}

// Subscribe routes messages of topic to handler.
func (c *Consumer) Subscribe(topic string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("subscribed to topic", logging.String("topic", topic))
}

// Start runs the consume loop in the background until Close or until ctx
// is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("kafka consumer started", logging.String("group", c.config.GroupID))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()
	for ctx.Err() == nil {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch failed", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		c.consumed.Add(1)
		if m.HighWaterMark > 0 {
			c.lag.Store(m.HighWaterMark - m.Offset - 1)
		}
		msg := fromKafka(m)

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("no handler for topic", logging.String("topic", m.Topic))
		} else if c.process(ctx, msg, handler) {
			c.processed.Add(1)
		} else {
			c.failed.Add(1)
		}
		if ctx.Err() != nil {
			// leave the offset for the next member of the group
			return
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error("commit failed", logging.Err(err),
				logging.String("topic", m.Topic), logging.Int64("offset", m.Offset))
		}
	}
}

// process runs handler with retries and reports whether it succeeded.
// Exhausted messages are dead-lettered when a topic is configured.
func (c *Consumer) process(ctx context.Context, msg *Message, handler MessageHandler) bool {
	err := handler(ctx, msg)
	if err == nil {
		return true
	}

	retry := c.config.Retry
	backoff := retry.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := retry.MaxRetryBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	for i := 0; i < retry.MaxRetries; i++ {
		c.retried.Add(1)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		if err = handler(ctx, msg); err == nil {
			return true
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	c.logger.Error("message processing failed after retries",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Err(err))

	if c.deadLetter == nil || retry.DeadLetterTopic == "" {
		return false
	}
	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderError] = err.Error()
	dl := &ProducerMessage{Topic: retry.DeadLetterTopic, Key: msg.Key, Value: msg.Value, Headers: headers}
	if dlErr := c.deadLetter.Publish(ctx, dl); dlErr != nil {
		c.logger.Error("failed to dead-letter message", logging.Err(dlErr))
		return false
	}
	c.deadLettered.Add(1)
	return false
}

// Stats returns a snapshot of the counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:     c.consumed.Load(),
		Processed:    c.processed.Load(),
		Failed:       c.failed.Load(),
		Retried:      c.retried.Load(),
		DeadLettered: c.deadLettered.Load(),
		Lag:          c.lag.Load(),
	}
}

// Close stops the loop, waits for the message in flight and closes the
// reader.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

func fromKafka(m kafka.Message) *Message {
	msg := &Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

// ValidateConsumerConfig checks the settings NewConsumer needs.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.CodeInvalidParam, "kafka: brokers required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.CodeInvalidParam, "kafka: group id required")
	}
	if len(cfg.Topics) == 0 {
		return errors.New(errors.CodeInvalidParam, "kafka: at least one topic required")
	}
	if cfg.AutoOffsetReset != "" && cfg.AutoOffsetReset != "earliest" && cfg.AutoOffsetReset != "latest" {
		return errors.New(errors.CodeInvalidParam, "kafka: auto offset reset must be earliest or latest")
	}
	if cfg.Retry.MaxRetries < 0 {
		return errors.New(errors.CodeInvalidParam, "kafka: max retries must be >= 0")
	}
	return cfg.Security.validate()
}
