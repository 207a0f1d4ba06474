package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/keyip-smiles/pkg/errors"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func TestValidateProducerConfig(t *testing.T) {
	require.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	for name, cfg := range map[string]ProducerConfig{
		"no brokers":  {},
		"bad acks":    {Brokers: []string{"b"}, Acks: "some"},
		"bad codec":   {Brokers: []string{"b"}, CompressionCodec: "brotli"},
		"neg retries": {Brokers: []string{"b"}, MaxRetries: -1},
	} {
		err := ValidateProducerConfig(cfg)
		require.Error(t, err, name)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParam), name)
	}
}

func TestNewProducer(t *testing.T) {
	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}, CompressionCodec: "zstd"}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = NewProducer(ProducerConfig{}, nil)
	assert.Error(t, err)
}

func TestProducer_Publish(t *testing.T) {
	w := &mockWriter{}
	w.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 &&
			msgs[0].Topic == TopicParseResult &&
			string(msgs[0].Key) == "req-1" &&
			len(msgs[0].Headers) == 1 && msgs[0].Headers[0].Key == "event_type"
	})).Return(nil).Once()

	p := NewProducerFromWriter(w, ProducerConfig{}, nil)
	err := p.Publish(context.Background(), &ProducerMessage{
		Topic:   TopicParseResult,
		Key:     []byte("req-1"),
		Value:   []byte(`{}`),
		Headers: map[string]string{"event_type": EventParseCompleted},
	})
	require.NoError(t, err)
	w.AssertExpectations(t)
	assert.Equal(t, ProducerStats{Published: 1, Bytes: 2}, p.Stats())
}

func TestProducer_PublishValidation(t *testing.T) {
	w := &mockWriter{}
	p := NewProducerFromWriter(w, ProducerConfig{MaxMessageBytes: 4}, nil)
	ctx := context.Background()

	assert.True(t, errors.IsCode(p.Publish(ctx, &ProducerMessage{Value: []byte("x")}), errors.CodeInvalidParam))
	assert.True(t, errors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: "t"}), errors.CodeInvalidParam))
	assert.True(t, errors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: "t", Value: []byte("12345")}), errors.CodeInputTooLarge))
	w.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
}

func TestProducer_PublishFailure(t *testing.T) {
	w := &mockWriter{}
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(assert.AnError)
	p := NewProducerFromWriter(w, ProducerConfig{}, nil)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUnavailable))
	assert.EqualValues(t, 1, p.Stats().Failed)
}

func TestProducer_Close(t *testing.T) {
	w := &mockWriter{}
	w.On("Close").Return(nil).Once()
	p := NewProducerFromWriter(w, ProducerConfig{}, nil)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")}), ErrProducerClosed)
	w.AssertExpectations(t)
}
