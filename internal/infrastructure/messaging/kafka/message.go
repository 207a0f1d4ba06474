// Package kafka carries parse requests and results over Kafka with
// segmentio/kafka-go: a group consumer with retry and dead-lettering, a
// producer, and the event envelope both sides agree on.
package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"time"

	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// Message is a consumed record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerMessage is a record to publish.
type ProducerMessage struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// MessageHandler processes one message.  A non-nil error triggers the
// consumer's retry policy.
type MessageHandler func(ctx context.Context, msg *Message) error

// Publisher publishes single messages.  *Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
}

// ─────────────────────────────────────────────────────────────────────────────
// Security
// ─────────────────────────────────────────────────────────────────────────────

// SecurityConfig holds the SASL and TLS settings shared by consumer and
// producer.
type SecurityConfig struct {
	SASLMechanism string // "", PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512
	SASLUsername  string
	SASLPassword  string
	TLSEnabled    bool
	TLSCAFile     string
}

func (s SecurityConfig) validate() error {
	switch s.SASLMechanism {
	case "":
		return nil
	case "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
	default:
		return errors.Newf(errors.CodeInvalidParam, "kafka: unsupported SASL mechanism %q", s.SASLMechanism)
	}
	if s.SASLUsername == "" || s.SASLPassword == "" {
		return errors.New(errors.CodeInvalidParam, "kafka: SASL credentials required")
	}
	return nil
}

func (s SecurityConfig) saslMechanism() (sasl.Mechanism, error) {
	switch s.SASLMechanism {
	case "":
		return nil, nil
	case "PLAIN":
		return plain.Mechanism{Username: s.SASLUsername, Password: s.SASLPassword}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, s.SASLUsername, s.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, s.SASLUsername, s.SASLPassword)
	}
	return nil, errors.Newf(errors.CodeInvalidParam, "kafka: unsupported SASL mechanism %q", s.SASLMechanism)
}

func (s SecurityConfig) tlsConfig() (*tls.Config, error) {
	if !s.TLSEnabled {
		return nil, nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if s.TLSCAFile == "" {
		return cfg, nil
	}
	pem, err := os.ReadFile(s.TLSCAFile)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigInvalid, "kafka: cannot read TLS CA file")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New(errors.CodeConfigInvalid, "kafka: TLS CA file holds no certificates")
	}
	cfg.RootCAs = pool
	return cfg, nil
}
