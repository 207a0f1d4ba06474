package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// Topics used by the parse worker.
const (
	TopicParseRequest = "smiles.parse.request"
	TopicParseResult  = "smiles.parse.result"
	TopicDeadLetter   = "smiles.parse.dlq"
)

// Event types carried in EventEnvelope.Type.
const (
	EventParseRequested = "smiles.parse.requested"
	EventParseCompleted = "smiles.parse.completed"
)

const envelopeVersion = "1.0"

// ─────────────────────────────────────────────────────────────────────────────
// Envelope
// ─────────────────────────────────────────────────────────────────────────────

// EventEnvelope wraps every payload exchanged on the parse topics.
type EventEnvelope struct {
	EventID   string          `json:"event_id"`
	Type      string          `json:"event_type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
	Payload   json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "failed to encode event payload")
	}
	return &EventEnvelope{
		EventID:   uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Version:   envelopeVersion,
		Payload:   data,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to decode event payload")
	}
	return nil
}

// ToMessage builds a message for topic keyed by key, carrying the event id
// and type as headers.
func (e *EventEnvelope) ToMessage(topic, key string) (*ProducerMessage, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "failed to encode event")
	}
	return &ProducerMessage{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Headers: map[string]string{
			"event_id":   e.EventID,
			"event_type": e.Type,
		},
	}, nil
}

// DecodeEnvelope parses the envelope carried by msg.
func DecodeEnvelope(msg *Message) (*EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.CodeSerialization, "failed to decode event")
	}
	if env.Type == "" {
		return nil, errors.New(errors.CodeSerialization, "event type missing")
	}
	return &env, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic administration
// ─────────────────────────────────────────────────────────────────────────────

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	Retention         time.Duration
	CleanupPolicy     string
}

// Conn abstracts kafka.Conn for testing.
type Conn interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	DeleteTopics(topics ...string) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates and inspects topics.
type TopicManager struct {
	conn   Conn
	logger logging.Logger
}

// NewTopicManager dials the first broker.
func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "kafka: brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "failed to dial kafka")
	}
	return NewTopicManagerFromConn(conn, logger), nil
}

func NewTopicManagerFromConn(conn Conn, logger logging.Logger) *TopicManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TopicManager{conn: conn, logger: logger}
}

// CreateTopic creates cfg.  An existing topic is not an error.
func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.CodeInvalidParam, "topic name required")
	}
	if cfg.NumPartitions <= 0 {
		return errors.New(errors.CodeInvalidParam, "partitions must be > 0")
	}
	if cfg.ReplicationFactor <= 0 {
		return errors.New(errors.CodeInvalidParam, "replication factor must be > 0")
	}

	kc := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.Retention > 0 {
		kc.ConfigEntries = append(kc.ConfigEntries, kafka.ConfigEntry{
			ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(cfg.Retention.Milliseconds(), 10),
		})
	}
	if cfg.CleanupPolicy != "" {
		kc.ConfigEntries = append(kc.ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}

	if err := m.conn.CreateTopics(kc); err != nil {
		if stderrors.Is(err, kafka.TopicAlreadyExists) {
			return nil
		}
		if exists, _ := m.TopicExists(ctx, cfg.Name); exists {
			return nil
		}
		return errors.Wrap(err, errors.CodeUnavailable, "failed to create topic "+cfg.Name)
	}
	m.logger.Info("topic created", logging.String("topic", cfg.Name))
	return nil
}

func (m *TopicManager) DeleteTopic(_ context.Context, name string) error {
	if err := m.conn.DeleteTopics(name); err != nil {
		return errors.Wrap(err, errors.CodeUnavailable, "failed to delete topic "+name)
	}
	m.logger.Warn("topic deleted", logging.String("topic", name))
	return nil
}

func (m *TopicManager) TopicExists(_ context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, errors.Wrap(err, errors.CodeUnavailable, "failed to read partitions")
	}
	return len(partitions) > 0, nil
}

// ListTopics returns the distinct topic names in partition order.
func (m *TopicManager) ListTopics(_ context.Context) ([]string, error) {
	partitions, err := m.conn.ReadPartitions()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "failed to read partitions")
	}
	seen := make(map[string]bool)
	var topics []string
	for _, p := range partitions {
		if !seen[p.Topic] {
			seen[p.Topic] = true
			topics = append(topics, p.Topic)
		}
	}
	return topics, nil
}

func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, t := range topics {
		if err := m.CreateTopic(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) Close() error { return m.conn.Close() }

// DefaultTopics returns the parse topics with the given replication factor.
func DefaultTopics(replication int) []TopicConfig {
	const day = 24 * time.Hour
	return []TopicConfig{
		{Name: TopicParseRequest, NumPartitions: 6, ReplicationFactor: replication, Retention: 3 * day},
		{Name: TopicParseResult, NumPartitions: 6, ReplicationFactor: replication, Retention: 3 * day},
		{Name: TopicDeadLetter, NumPartitions: 1, ReplicationFactor: replication, Retention: 14 * day},
	}
}
