// Package worker consumes parse requests from Kafka and publishes their
// results.
package worker

import (
	"context"
	"time"

	app "github.com/turtacn/keyip-smiles/internal/application/smiles"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

const source = "smiles-worker"

// Outcome labels of smiles_worker_messages_total.
const (
	StatusOK        = "ok"
	StatusFailed    = "failed"
	StatusMalformed = "malformed"
	StatusError     = "error"
)

// ParseRequest is the payload of a smiles.parse.requested event.
type ParseRequest struct {
	RequestID            string `json:"request_id"`
	SMILES               string `json:"smiles"`
	Mode                 string `json:"mode,omitempty"`
	MakeHydrogenExplicit bool   `json:"make_hydrogen_explicit,omitempty"`
	SmartsWarnings       bool   `json:"smarts_warnings,omitempty"`
	// Reaction parses SMILES as a reaction.
	Reaction bool `json:"reaction,omitempty"`
}

// ParseResult is the payload of a smiles.parse.completed event.  Exactly one
// of Molecule, Reaction and Error is set.
type ParseResult struct {
	RequestID string              `json:"request_id"`
	SMILES    string              `json:"smiles"`
	Molecule  *app.ParseOutput    `json:"molecule,omitempty"`
	Reaction  *app.ReactionOutput `json:"reaction,omitempty"`
	Error     *app.ItemError      `json:"error,omitempty"`
}

// Config names the topics the worker publishes to.
type Config struct {
	ResultTopic     string
	DeadLetterTopic string
}

// ParseWorker turns parse requests into results.
type ParseWorker struct {
	service   app.Service
	publisher kafka.Publisher
	config    Config
	metrics   *prometheus.WorkerMetrics
	logger    logging.Logger
}

type Option func(*ParseWorker)

func WithMetrics(m *prometheus.WorkerMetrics) Option {
	return func(w *ParseWorker) { w.metrics = m }
}

func WithLogger(l logging.Logger) Option {
	return func(w *ParseWorker) { w.logger = l }
}

func NewParseWorker(svc app.Service, pub kafka.Publisher, cfg Config, opts ...Option) *ParseWorker {
	if cfg.ResultTopic == "" {
		cfg.ResultTopic = kafka.TopicParseResult
	}
	w := &ParseWorker{service: svc, publisher: pub, config: cfg, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Handle processes one request message.  Malformed messages are forwarded
// to the dead-letter topic and acknowledged.  Parse failures caused by the
// input are reported in the result; any other failure is returned so the
// consumer retries the message.
func (w *ParseWorker) Handle(ctx context.Context, msg *kafka.Message) error {
	start := time.Now()

	req, err := decodeRequest(msg)
	if err != nil {
		w.logger.Warn("malformed parse request", logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset), logging.Err(err))
		if dlErr := w.deadLetter(ctx, msg, err); dlErr != nil {
			return dlErr
		}
		w.metrics.ObserveMessage(StatusMalformed, time.Since(start))
		return nil
	}

	log := w.logger.WithContext(logging.ContextWithRequestID(ctx, req.RequestID))
	result := &ParseResult{RequestID: req.RequestID, SMILES: req.SMILES}
	if req.Reaction {
		result.Reaction, err = w.service.ParseReaction(ctx, &app.ReactionInput{
			SMILES:               req.SMILES,
			Mode:                 req.Mode,
			MakeHydrogenExplicit: req.MakeHydrogenExplicit,
			SmartsWarnings:       req.SmartsWarnings,
		})
	} else {
		result.Molecule, err = w.service.Parse(ctx, &app.ParseInput{
			SMILES:               req.SMILES,
			Mode:                 req.Mode,
			MakeHydrogenExplicit: req.MakeHydrogenExplicit,
			SmartsWarnings:       req.SmartsWarnings,
		})
	}

	status := StatusOK
	if err != nil {
		if !errors.IsClientError(errors.GetCode(err)) {
			log.Error("parse request failed", logging.Err(err))
			w.metrics.ObserveMessage(StatusError, time.Since(start))
			return err
		}
		result.Molecule, result.Reaction = nil, nil
		result.Error = app.NewItemError(err)
		status = StatusFailed
	}

	env, err := kafka.NewEnvelope(kafka.EventParseCompleted, source, result)
	if err != nil {
		return err
	}
	out, err := env.ToMessage(w.config.ResultTopic, req.RequestID)
	if err != nil {
		return err
	}
	if err := w.publisher.Publish(ctx, out); err != nil {
		w.metrics.ObserveMessage(StatusError, time.Since(start))
		return err
	}

	w.metrics.ObserveMessage(status, time.Since(start))
	log.Debug("parse request handled", logging.String("status", status))
	return nil
}

func decodeRequest(msg *kafka.Message) (*ParseRequest, error) {
	env, err := kafka.DecodeEnvelope(msg)
	if err != nil {
		return nil, err
	}
	if env.Type != kafka.EventParseRequested {
		return nil, errors.Newf(errors.CodeInvalidParam, "unexpected event type %q", env.Type)
	}
	var req ParseRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	if req.SMILES == "" {
		return nil, errors.InvalidParam("smiles is required")
	}
	if req.RequestID == "" {
		req.RequestID = env.EventID
	}
	return &req, nil
}

func (w *ParseWorker) deadLetter(ctx context.Context, msg *kafka.Message, cause error) error {
	if w.config.DeadLetterTopic == "" {
		return nil
	}
	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[kafka.HeaderOriginalTopic] = msg.Topic
	headers[kafka.HeaderError] = cause.Error()
	value := msg.Value
	if value == nil {
		value = []byte{}
	}
	return w.publisher.Publish(ctx, &kafka.ProducerMessage{
		Topic:   w.config.DeadLetterTopic,
		Key:     msg.Key,
		Value:   value,
		Headers: headers,
	})
}

// NewRequestMessage builds the request message for req on topic.
func NewRequestMessage(topic string, req *ParseRequest) (*kafka.ProducerMessage, error) {
	env, err := kafka.NewEnvelope(kafka.EventParseRequested, source, req)
	if err != nil {
		return nil, err
	}
	return env.ToMessage(topic, req.RequestID)
}
