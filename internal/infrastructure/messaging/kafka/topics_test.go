package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/keyip-smiles/pkg/errors"
)

type mockConn struct {
	mock.Mock
}

func (m *mockConn) CreateTopics(topics ...kafka.TopicConfig) error {
	return m.Called(topics).Error(0)
}

func (m *mockConn) DeleteTopics(topics ...string) error {
	return m.Called(topics).Error(0)
}

func (m *mockConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	args := m.Called(topics)
	p, _ := args.Get(0).([]kafka.Partition)
	return p, args.Error(1)
}

func (m *mockConn) Close() error { return m.Called().Error(0) }

func TestEnvelope_RoundTrip(t *testing.T) {
	env, err := NewEnvelope(EventParseRequested, "test", map[string]string{"smiles": "CCO"})
	require.NoError(t, err)
	_, err = uuid.Parse(env.EventID)
	require.NoError(t, err)
	assert.Equal(t, "1.0", env.Version)

	msg, err := env.ToMessage(TopicParseRequest, "req-1")
	require.NoError(t, err)
	assert.Equal(t, TopicParseRequest, msg.Topic)
	assert.Equal(t, env.EventID, msg.Headers["event_id"])
	assert.Equal(t, EventParseRequested, msg.Headers["event_type"])

	got, err := DecodeEnvelope(&Message{Value: msg.Value})
	require.NoError(t, err)
	assert.Equal(t, env.EventID, got.EventID)

	var payload map[string]string
	require.NoError(t, got.DecodePayload(&payload))
	assert.Equal(t, "CCO", payload["smiles"])
}

func TestDecodeEnvelope_Invalid(t *testing.T) {
	for _, raw := range []string{"not json", `{"payload":{}}`} {
		_, err := DecodeEnvelope(&Message{Value: []byte(raw)})
		require.Error(t, err, raw)
		assert.True(t, errors.IsCode(err, errors.CodeSerialization), raw)
	}
	_, err := NewEnvelope("t", "s", func() {})
	assert.True(t, errors.IsCode(err, errors.CodeSerialization))

	env := &EventEnvelope{Payload: json.RawMessage(`[1]`)}
	var m map[string]string
	assert.Error(t, env.DecodePayload(&m))
}

func TestTopicManager_CreateTopic(t *testing.T) {
	conn := &mockConn{}
	conn.On("CreateTopics", mock.MatchedBy(func(ts []kafka.TopicConfig) bool {
		return len(ts) == 1 && ts[0].Topic == TopicDeadLetter && ts[0].NumPartitions == 1 &&
			len(ts[0].ConfigEntries) == 1 && ts[0].ConfigEntries[0].ConfigValue == "1209600000"
	})).Return(nil).Once()

	m := NewTopicManagerFromConn(conn, nil)
	require.NoError(t, m.CreateTopic(context.Background(), DefaultTopics(1)[2]))
	conn.AssertExpectations(t)
}

func TestTopicManager_CreateTopicValidation(t *testing.T) {
	m := NewTopicManagerFromConn(&mockConn{}, nil)
	ctx := context.Background()
	for _, cfg := range []TopicConfig{
		{},
		{Name: "t"},
		{Name: "t", NumPartitions: 1},
	} {
		assert.True(t, errors.IsCode(m.CreateTopic(ctx, cfg), errors.CodeInvalidParam))
	}
}

func TestTopicManager_CreateTopicExists(t *testing.T) {
	conn := &mockConn{}
	conn.On("CreateTopics", mock.Anything).Return(kafka.TopicAlreadyExists).Once()
	conn.On("CreateTopics", mock.Anything).Return(assert.AnError).Once()
	conn.On("ReadPartitions", []string{"t"}).Return([]kafka.Partition{{Topic: "t"}}, nil).Once()
	conn.On("CreateTopics", mock.Anything).Return(assert.AnError).Once()
	conn.On("ReadPartitions", []string{"t"}).Return(nil, assert.AnError).Once()

	m := NewTopicManagerFromConn(conn, nil)
	cfg := TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1, Retention: time.Hour}
	ctx := context.Background()

	assert.NoError(t, m.CreateTopic(ctx, cfg))
	assert.NoError(t, m.CreateTopic(ctx, cfg))
	err := m.CreateTopic(ctx, cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUnavailable))
	conn.AssertExpectations(t)
}

func TestTopicManager_ListAndEnsure(t *testing.T) {
	conn := &mockConn{}
	conn.On("ReadPartitions", []string(nil)).Return([]kafka.Partition{
		{Topic: TopicParseRequest, ID: 0},
		{Topic: TopicParseRequest, ID: 1},
		{Topic: TopicParseResult, ID: 0},
	}, nil)
	conn.On("CreateTopics", mock.Anything).Return(nil).Times(3)
	conn.On("DeleteTopics", []string{"old"}).Return(nil)
	conn.On("Close").Return(nil)

	m := NewTopicManagerFromConn(conn, nil)
	ctx := context.Background()

	topics, err := m.ListTopics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{TopicParseRequest, TopicParseResult}, topics)

	require.NoError(t, m.EnsureTopics(ctx, DefaultTopics(3)))
	require.NoError(t, m.DeleteTopic(ctx, "old"))
	require.NoError(t, m.Close())
	conn.AssertExpectations(t)
}

func TestDefaultTopics(t *testing.T) {
	topics := DefaultTopics(2)
	require.Len(t, topics, 3)
	for _, tc := range topics {
		assert.Equal(t, 2, tc.ReplicationFactor, tc.Name)
	}
}
