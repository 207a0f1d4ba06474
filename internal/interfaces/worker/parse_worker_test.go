package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	app "github.com/turtacn/keyip-smiles/internal/application/smiles"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*kafka.ProducerMessage
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg *kafka.ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

type mockService struct {
	mock.Mock
	app.Service
}

func (m *mockService) Parse(ctx context.Context, in *app.ParseInput) (*app.ParseOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*app.ParseOutput)
	return out, args.Error(1)
}

func newWorker(t *testing.T, pub kafka.Publisher) (*ParseWorker, prometheus.MetricsCollector) {
	t.Helper()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "wk"}, nil)
	require.NoError(t, err)
	svc := app.NewService(app.Config{MaxInputLength: 64, MaxBatchSize: 10, BatchConcurrency: 1})
	w := NewParseWorker(svc, pub, Config{DeadLetterTopic: kafka.TopicDeadLetter},
		WithMetrics(prometheus.NewWorkerMetrics(collector)))
	return w, collector
}

func requestMessage(t *testing.T, req *ParseRequest) *kafka.Message {
	t.Helper()
	pm, err := NewRequestMessage(kafka.TopicParseRequest, req)
	require.NoError(t, err)
	return &kafka.Message{Topic: pm.Topic, Key: pm.Key, Value: pm.Value, Headers: pm.Headers}
}

func decodeResult(t *testing.T, msg *kafka.ProducerMessage) *ParseResult {
	t.Helper()
	env, err := kafka.DecodeEnvelope(&kafka.Message{Value: msg.Value})
	require.NoError(t, err)
	assert.Equal(t, kafka.EventParseCompleted, env.Type)
	var res ParseResult
	require.NoError(t, env.DecodePayload(&res))
	return &res
}

func messagesTotal(t *testing.T, c prometheus.MetricsCollector, status string) float64 {
	t.Helper()
	families, err := c.Gatherer().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "wk_smiles_worker_messages_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "status" && l.GetValue() == status {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestParseWorker_Molecule(t *testing.T) {
	pub := &recordingPublisher{}
	w, collector := newWorker(t, pub)

	err := w.Handle(context.Background(), requestMessage(t, &ParseRequest{RequestID: "req-1", SMILES: "c1ccccc1O"}))
	require.NoError(t, err)

	require.Len(t, pub.msgs, 1)
	out := pub.msgs[0]
	assert.Equal(t, kafka.TopicParseResult, out.Topic)
	assert.Equal(t, []byte("req-1"), out.Key)

	res := decodeResult(t, out)
	assert.Equal(t, "req-1", res.RequestID)
	require.NotNil(t, res.Molecule)
	assert.Equal(t, "C6H6O", res.Molecule.Formula)
	assert.Nil(t, res.Error)
	assert.Nil(t, res.Reaction)
	assert.Equal(t, 1.0, messagesTotal(t, collector, StatusOK))
}

func TestParseWorker_Reaction(t *testing.T) {
	pub := &recordingPublisher{}
	w, _ := newWorker(t, pub)

	err := w.Handle(context.Background(), requestMessage(t, &ParseRequest{
		RequestID: "req-2", SMILES: "CC=C..[H][H]>[Pd]>CCC", Reaction: true,
	}))
	require.NoError(t, err)

	res := decodeResult(t, pub.msgs[0])
	require.NotNil(t, res.Reaction)
	assert.Len(t, res.Reaction.Reactants, 2)
	assert.Len(t, res.Reaction.Products, 1)
	assert.Nil(t, res.Molecule)
}

func TestParseWorker_ParseFailureIsReported(t *testing.T) {
	pub := &recordingPublisher{}
	w, collector := newWorker(t, pub)

	err := w.Handle(context.Background(), requestMessage(t, &ParseRequest{RequestID: "req-3", SMILES: "C1CC"}))
	require.NoError(t, err)

	res := decodeResult(t, pub.msgs[0])
	require.NotNil(t, res.Error)
	assert.Equal(t, errors.CodeSmilesDangling.String(), res.Error.Code)
	assert.Nil(t, res.Molecule)
	assert.Equal(t, 1.0, messagesTotal(t, collector, StatusFailed))
}

func TestParseWorker_RequestIDDefaultsToEventID(t *testing.T) {
	pub := &recordingPublisher{}
	w, _ := newWorker(t, pub)

	msg := requestMessage(t, &ParseRequest{SMILES: "CCO"})
	require.NoError(t, w.Handle(context.Background(), msg))

	res := decodeResult(t, pub.msgs[0])
	assert.Equal(t, msg.Headers["event_id"], res.RequestID)
	assert.Equal(t, []byte(res.RequestID), pub.msgs[0].Key)
}

func TestParseWorker_MalformedGoesToDeadLetter(t *testing.T) {
	wrongType, err := kafka.NewEnvelope(kafka.EventParseCompleted, "test", ParseRequest{SMILES: "C"})
	require.NoError(t, err)
	wrongTypeMsg, err := wrongType.ToMessage(kafka.TopicParseRequest, "k")
	require.NoError(t, err)

	cases := map[string]*kafka.Message{
		"not json":     {Topic: kafka.TopicParseRequest, Value: []byte("{")},
		"wrong type":   {Topic: kafka.TopicParseRequest, Value: wrongTypeMsg.Value},
		"empty smiles": requestMessage(t, &ParseRequest{RequestID: "r"}),
		"empty value":  {Topic: kafka.TopicParseRequest},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			pub := &recordingPublisher{}
			w, collector := newWorker(t, pub)

			require.NoError(t, w.Handle(context.Background(), msg))
			require.Len(t, pub.msgs, 1)
			dl := pub.msgs[0]
			assert.Equal(t, kafka.TopicDeadLetter, dl.Topic)
			assert.Equal(t, kafka.TopicParseRequest, dl.Headers[kafka.HeaderOriginalTopic])
			assert.NotEmpty(t, dl.Headers[kafka.HeaderError])
			assert.NotNil(t, dl.Value)
			assert.Equal(t, 1.0, messagesTotal(t, collector, StatusMalformed))
		})
	}
}

func TestParseWorker_InternalFailureIsRetried(t *testing.T) {
	svc := &mockService{}
	svc.On("Parse", mock.Anything, mock.MatchedBy(func(in *app.ParseInput) bool {
		return in.SMILES == "CC" && in.Mode == "guess" && in.SmartsWarnings
	})).Return(nil, errors.Internal("boom"))

	pub := &recordingPublisher{}
	w := NewParseWorker(svc, pub, Config{})

	err := w.Handle(context.Background(), requestMessage(t, &ParseRequest{
		RequestID: "r", SMILES: "CC", Mode: "guess", SmartsWarnings: true,
	}))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInternal))
	assert.Empty(t, pub.msgs)
	svc.AssertExpectations(t)
}

func TestParseWorker_PublishFailureIsRetried(t *testing.T) {
	pub := &recordingPublisher{err: assert.AnError}
	w, collector := newWorker(t, pub)

	err := w.Handle(context.Background(), requestMessage(t, &ParseRequest{RequestID: "r", SMILES: "C"}))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1.0, messagesTotal(t, collector, StatusError))
}

func TestNewRequestMessage(t *testing.T) {
	msg, err := NewRequestMessage("topic", &ParseRequest{RequestID: "abc", SMILES: "C", Reaction: true})
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), msg.Key)
	assert.Equal(t, kafka.EventParseRequested, msg.Headers["event_type"])

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(msg.Value, &raw))
	assert.JSONEq(t, `{"request_id":"abc","smiles":"C","reaction":true}`, string(raw["payload"]))
}
