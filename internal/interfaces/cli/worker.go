package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/keyip-smiles/internal/config"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/keyip-smiles/internal/interfaces/http"
	"github.com/turtacn/keyip-smiles/internal/interfaces/http/handlers"
	"github.com/turtacn/keyip-smiles/internal/interfaces/worker"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

type workerFlags struct {
	brokers []string
	groupID string
}

func (f *workerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.brokers, "brokers", nil, "Kafka brokers (overrides worker.brokers)")
	cmd.Flags().StringVar(&f.groupID, "group", "", "consumer group (overrides worker.group_id)")
}

func (f *workerFlags) apply(cfg *config.WorkerConfig) {
	if len(f.brokers) > 0 {
		cfg.Brokers = f.brokers
	}
	if f.groupID != "" {
		cfg.GroupID = f.groupID
	}
}

// NewWorkerCmd creates the worker command.
func NewWorkerCmd() *cobra.Command {
	var (
		flags        workerFlags
		createTopics bool
		metricsPort  int
	)
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume parse requests from Kafka and publish the results",
		Long: "worker joins the configured consumer group on worker.request_topic, parses\n" +
			"every request and publishes a smiles.parse.completed event keyed by the\n" +
			"request id to worker.result_topic.  Malformed requests go to the dead-letter topic.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if metricsPort < 0 || metricsPort > 65535 {
				return errors.InvalidParam("metrics port out of range")
			}
			cfg := cliCtx.Config
			flags.apply(&cfg.Worker)

			comps, err := cliCtx.Components()
			if err != nil {
				return err
			}
			defer cliCtx.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := comps.Logger.Named("kafka")
			if createTopics {
				tm, err := kafka.NewTopicManager(cfg.Worker.Brokers, log)
				if err != nil {
					return err
				}
				err = tm.EnsureTopics(ctx, workerTopics(cfg.Worker))
				_ = tm.Close()
				if err != nil {
					return err
				}
			}

			producer, err := kafka.NewProducer(producerConfig(cfg.Worker), log)
			if err != nil {
				return err
			}
			consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
			for i := 0; i < cfg.Worker.Concurrency; i++ {
				c, err := kafka.NewConsumer(consumerConfig(cfg.Worker), log, producer)
				if err != nil {
					_ = producer.Close()
					return err
				}
				consumers = append(consumers, c)
			}
			return runWorker(ctx, comps, producer, consumers, metricsPort)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&createTopics, "create-topics", false, "create the request, result and dead-letter topics first")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "serve /healthz and /metrics on this port (0 disables)")
	cmd.AddCommand(newWorkerSubmitCmd())
	return cmd
}

// runWorker subscribes the parse worker on every consumer and blocks until
// ctx ends.  Consumers are closed before the producer so that in-flight
// results are still published.
func runWorker(ctx context.Context, comps *Components, producer *kafka.Producer, consumers []*kafka.Consumer, metricsPort int) error {
	cfg := comps.Config.Worker
	w := worker.NewParseWorker(comps.Service, producer,
		worker.Config{ResultTopic: cfg.ResultTopic, DeadLetterTopic: cfg.DeadLetterTopic},
		worker.WithMetrics(prometheus.NewWorkerMetrics(comps.Metrics)),
		worker.WithLogger(comps.Logger.Named("worker")),
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		c.Subscribe(cfg.RequestTopic, w.Handle)
		if err := c.Start(gctx); err != nil {
			return err
		}
	}
	if metricsPort > 0 {
		srvCfg := comps.Config.Server
		srvCfg.Port = metricsPort
		router := httpserver.NewRouter(httpserver.RouterConfig{
			HealthHandler:  handlers.NewHealthHandler(Version, handlers.CheckerFunc("service", comps.Service.Ready)),
			MetricsHandler: comps.Metrics.Handler(),
			MetricsPath:    comps.Config.Metrics.Path,
			Logger:         comps.Logger.Named("http"),
		})
		srv := httpserver.NewServer(srvCfg, router, comps.Logger)
		g.Go(func() error { return srv.Run(gctx) })
	}
	comps.Logger.Info("parse worker started",
		logging.Any("brokers", cfg.Brokers),
		logging.String("group", cfg.GroupID),
		logging.String("topic", cfg.RequestTopic),
		logging.Int("consumers", len(consumers)),
	)
	<-gctx.Done()
	runErr := g.Wait()

	var closers errgroup.Group
	for _, c := range consumers {
		c := c
		closers.Go(c.Close)
	}
	closeErr := closers.Wait()
	if err := producer.Close(); err != nil && closeErr == nil {
		closeErr = err
	}

	var total kafka.ConsumerStats
	for _, c := range consumers {
		s := c.Stats()
		total.Consumed += s.Consumed
		total.Processed += s.Processed
		total.Failed += s.Failed
		total.DeadLettered += s.DeadLettered
	}
	comps.Logger.Info("parse worker stopped",
		logging.Int64("consumed", total.Consumed),
		logging.Int64("processed", total.Processed),
		logging.Int64("failed", total.Failed),
		logging.Int64("dead_lettered", total.DeadLettered),
	)
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// ─────────────────────────────────────────────────────────────────────────────
// submit
// ─────────────────────────────────────────────────────────────────────────────

type submitted struct {
	RequestID string `json:"request_id"`
	SMILES    string `json:"smiles"`
}

type submitResult []submitted

func (r submitResult) TableHeaders() []string { return []string{"REQUEST ID", "SMILES"} }

func (r submitResult) TableRows() [][]string {
	rows := make([][]string, len(r))
	for i, s := range r {
		rows[i] = []string{s.RequestID, s.SMILES}
	}
	return rows
}

func (r submitResult) String() string {
	var sb strings.Builder
	for _, s := range r {
		fmt.Fprintf(&sb, "%s  %s\n", s.RequestID, s.SMILES)
	}
	return sb.String()
}

func newWorkerSubmitCmd() *cobra.Command {
	var (
		flags    workerFlags
		pf       parseFlags
		reaction bool
	)
	cmd := &cobra.Command{
		Use:   "submit SMILES...",
		Short: "Publish parse requests for the worker",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config.Worker
			flags.apply(&cfg)

			producer, err := kafka.NewProducer(producerConfig(cfg), cliCtx.Logger.Named("kafka"))
			if err != nil {
				return err
			}
			defer producer.Close()

			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()
			out, err := submitRequests(ctx, producer, cfg.RequestTopic, args, pf, reaction)
			if len(out) > 0 {
				if perr := PrintResult(cmd, out); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	flags.register(cmd)
	pf.register(cmd)
	cmd.Flags().BoolVar(&reaction, "reaction", false, "parse the inputs as reactions")
	return cmd
}

func submitRequests(ctx context.Context, pub kafka.Publisher, topic string, inputs []string, pf parseFlags, reaction bool) (submitResult, error) {
	out := make(submitResult, 0, len(inputs))
	for _, s := range inputs {
		req := &worker.ParseRequest{
			RequestID:            uuid.NewString(),
			SMILES:               s,
			Mode:                 pf.mode,
			MakeHydrogenExplicit: pf.explicitH,
			SmartsWarnings:       pf.smartsWarnings,
			Reaction:             reaction,
		}
		msg, err := worker.NewRequestMessage(topic, req)
		if err != nil {
			return out, err
		}
		if err := pub.Publish(ctx, msg); err != nil {
			return out, err
		}
		out = append(out, submitted{RequestID: req.RequestID, SMILES: s})
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Config mapping
// ─────────────────────────────────────────────────────────────────────────────

func securityConfig(wc config.WorkerConfig) kafka.SecurityConfig {
	return kafka.SecurityConfig{
		SASLMechanism: wc.SASLMechanism,
		SASLUsername:  wc.SASLUsername,
		SASLPassword:  wc.SASLPassword,
		TLSEnabled:    wc.TLSEnabled,
		TLSCAFile:     wc.TLSCAFile,
	}
}

func consumerConfig(wc config.WorkerConfig) kafka.ConsumerConfig {
	return kafka.ConsumerConfig{
		Brokers:         wc.Brokers,
		GroupID:         wc.GroupID,
		Topics:          []string{wc.RequestTopic},
		AutoOffsetReset: wc.AutoOffsetReset,
		Security:        securityConfig(wc),
		Retry: kafka.RetryConfig{
			MaxRetries:      wc.MaxRetries,
			RetryBackoff:    wc.RetryBackoff,
			DeadLetterTopic: wc.DeadLetterTopic,
		},
	}
}

func producerConfig(wc config.WorkerConfig) kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:          wc.Brokers,
		MaxRetries:       wc.MaxRetries,
		CompressionCodec: wc.Compression,
		Security:         securityConfig(wc),
	}
}

func workerTopics(wc config.WorkerConfig) []kafka.TopicConfig {
	topics := kafka.DefaultTopics(wc.TopicReplication)
	topics[0].Name = wc.RequestTopic
	topics[1].Name = wc.ResultTopic
	if wc.DeadLetterTopic == "" {
		return topics[:2]
	}
	topics[2].Name = wc.DeadLetterTopic
	return topics
}
