package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/fedfraud"
	"github.com/absmach/fedfraud/coordinator"
	"github.com/absmach/fedfraud/coordinator/api"
	"github.com/absmach/fedfraud/coordinator/middleware"
	"github.com/absmach/fedfraud/pkg/artifact"
	"github.com/absmach/fedfraud/pkg/dataset"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/fedfraud/pkg/jaeger"
	"github.com/absmach/fedfraud/pkg/model"
	"github.com/absmach/fedfraud/pkg/mqtt"
	"github.com/absmach/fedfraud/pkg/notifier"
	"github.com/absmach/fedfraud/pkg/prometheus"
	"github.com/absmach/fedfraud/pkg/sdk"
	"github.com/absmach/fedfraud/pkg/server"
	httpserver "github.com/absmach/fedfraud/pkg/server/http"
	"github.com/absmach/fedfraud/pkg/transport"
	"github.com/absmach/fedfraud/pkg/transport/local"
	mqtttransport "github.com/absmach/fedfraud/pkg/transport/mqtt"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName     = "coordinator"
	defHTTPPort = "7070"
	envPrefix   = "FEDFRAUD_COORDINATOR_"
)

type config struct {
	LogLevel            string            `env:"LOG_LEVEL"             envDefault:"info"`
	InstanceID          string            `env:"INSTANCE_ID"`
	NumRounds           int               `env:"NUM_ROUNDS"            envDefault:"5"`
	MinParticipants     int               `env:"MIN_PARTICIPANTS"      envDefault:"2"`
	MinAvailable        int               `env:"MIN_AVAILABLE"         envDefault:"2"`
	FractionParticipate float64           `env:"FRACTION_PARTICIPATE"  envDefault:"1.0"`
	RoundTimeout        time.Duration     `env:"ROUND_TIMEOUT"         envDefault:"5m"`
	LocalEpochs         int               `env:"LOCAL_EPOCHS"          envDefault:"2"`
	BatchSize           int               `env:"BATCH_SIZE"            envDefault:"256"`
	LearningRate        float64           `env:"LEARNING_RATE"         envDefault:"0.01"`
	PositiveClassWeight float64           `env:"POSITIVE_CLASS_WEIGHT" envDefault:"20"`
	TestData            string            `env:"TEST_DATA"             envDefault:"data/test_sequences.npz"`
	InitialModel        string            `env:"INITIAL_MODEL"         envDefault:"model/initial_model.cbor"`
	ArtifactStore       string            `env:"ARTIFACT_STORE"        envDefault:"file"`
	ArtifactDir         string            `env:"ARTIFACT_DIR"          envDefault:"model"`
	BestModelName       string            `env:"BEST_MODEL_NAME"       envDefault:"best_federated_model"`
	S3                  artifact.S3Config `envPrefix:"S3_"`
	MonitorURL          string            `env:"MONITOR_URL"           envDefault:"http://localhost:5000"`
	NotifyTimeout       time.Duration     `env:"NOTIFY_TIMEOUT"        envDefault:"2s"`
	NotifyMQTT          bool              `env:"NOTIFY_MQTT"           envDefault:"false"`
	MQTT                mqtt.Config       `envPrefix:"MQTT_"`
	Roster              string            `env:"ROSTER"                envDefault:"clients.toml"`
	JournalDir          string            `env:"JOURNAL_DIR"           envDefault:"rounds"`
	ExitOnDone          bool              `env:"EXIT_ON_DONE"          envDefault:"false"`
	OTELURL             url.URL           `env:"OTEL_URL"`
	TraceRatio          float64           `env:"TRACE_RATIO"           envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	cfg := config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	exit := func(msg string, err error) {
		logger.Error(msg, slog.Any("error", err))
		os.Exit(1)
	}

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			exit("failed to initialize opentelemetry", err)
		}
		defer func() {
			if err := sdktp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	test, err := dataset.LoadNPZ(cfg.TestData)
	if err != nil {
		exit("failed to load held-out dataset", fmt.Errorf("%w: %w", coordinator.ErrStartup, err))
	}
	initial, err := artifact.ReadFile(cfg.InitialModel)
	if err != nil {
		exit("failed to load initial model", fmt.Errorf("%w: %w", coordinator.ErrStartup, err))
	}
	roster, err := fedfraud.LoadRoster(cfg.Roster)
	if err != nil {
		exit("failed to load client roster", fmt.Errorf("%w: %w", coordinator.ErrStartup, err))
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		exit("failed to initialize artifact store", err)
	}

	var pubsub mqtt.PubSub
	if roster.HasRemote() || cfg.NotifyMQTT {
		mqttCfg := cfg.MQTT
		mqttCfg.ID = fmt.Sprintf("%s-%s", svcName, cfg.InstanceID)
		pubsub, err = mqtt.NewPubSub(mqttCfg, logger)
		if err != nil {
			exit("failed to initialize mqtt pubsub", err)
		}
		defer func() {
			if err := pubsub.Disconnect(context.Background()); err != nil {
				logger.Warn("failed to disconnect from mqtt broker", slog.Any("error", err))
			}
		}()
	}

	notifiers := []notifier.Notifier{
		notifier.NewHTTP(sdk.NewSDK(sdk.Config{MonitorURL: cfg.MonitorURL}), cfg.NotifyTimeout),
	}
	if cfg.NotifyMQTT {
		notifiers = append(notifiers, notifier.NewMQTT(pubsub))
	}

	strategy, err := coordinator.NewStrategy(
		coordinator.StrategyConfig{
			NumRounds:       cfg.NumRounds,
			MinParticipants: cfg.MinParticipants,
			BestModelName:   cfg.BestModelName,
		},
		initial.Parameters, test, fl.NewFedAvgAggregator(), store, notifier.NewMulti(notifiers...), logger,
	)
	if err != nil {
		exit("failed to create aggregation strategy", err)
	}

	clients, err := newClients(ctx, cfg, roster, pubsub, logger)
	if err != nil {
		exit("failed to register clients", err)
	}

	journal := coordinator.NewMemoryJournal()
	if cfg.JournalDir != "" {
		if journal, err = coordinator.NewFileJournal(cfg.JournalDir); err != nil {
			exit("failed to open round journal", err)
		}
	}

	rounds, prauc := prometheus.MakeRoundMetrics(svcName)
	driver, err := coordinator.NewDriver(
		coordinator.DriverConfig{
			NumRounds:           cfg.NumRounds,
			MinParticipants:     cfg.MinParticipants,
			MinAvailable:        cfg.MinAvailable,
			FractionParticipate: cfg.FractionParticipate,
			RoundTimeout:        cfg.RoundTimeout,
			FitConfig: map[string]float64{
				transport.ConfigLocalEpochs:    float64(cfg.LocalEpochs),
				transport.ConfigBatchSize:      float64(cfg.BatchSize),
				transport.ConfigLearningRate:   cfg.LearningRate,
				transport.ConfigPositiveWeight: cfg.PositiveClassWeight,
			},
		},
		clients, strategy, journal, rounds, prauc, logger,
	)
	if err != nil {
		exit("failed to create round driver", err)
	}

	svc := coordinator.NewService(driver, strategy, journal, cfg.NumRounds)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefix + "HTTP_"}); err != nil {
		exit(fmt.Sprintf("failed to load %s HTTP server configuration", svcName), err)
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		results, err := svc.Run(ctx)
		if err != nil {
			return err
		}
		if best, err := svc.BestModel(ctx); err == nil {
			logger.Info("Federated training finished",
				slog.Int("rounds", len(results)),
				slog.Int("best_round", best.Round),
				slog.Float64("best_pr_auc", best.PRAUC),
				slog.Float64("best_threshold", best.Threshold),
			)
		}
		if cfg.ExitOnDone {
			cancel()
		}

		return nil
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}

func newStore(ctx context.Context, cfg config) (artifact.Store, error) {
	switch cfg.ArtifactStore {
	case "file":
		return artifact.NewFileStore(cfg.ArtifactDir), nil
	case "s3":
		return artifact.NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported artifact store: %s", cfg.ArtifactStore)
	}
}

func newClients(ctx context.Context, cfg config, roster *fedfraud.Roster, pubsub mqtt.PubSub, logger *slog.Logger) ([]transport.Client, error) {
	train := model.TrainConfig{
		Epochs:         cfg.LocalEpochs,
		BatchSize:      cfg.BatchSize,
		LearningRate:   cfg.LearningRate,
		PositiveWeight: cfg.PositiveClassWeight,
		Seed:           42,
	}

	var broker *mqtttransport.Broker
	if roster.HasRemote() {
		b, err := mqtttransport.NewBroker(ctx, pubsub, logger)
		if err != nil {
			return nil, err
		}
		broker = b
	}

	clients := make([]transport.Client, 0, len(roster.Clients))
	for _, c := range roster.Clients {
		switch c.Type {
		case fedfraud.ClientLocal:
			d, err := dataset.LoadNPZ(c.Dataset)
			if err != nil {
				return nil, fmt.Errorf("client %s: %w", c.ID, err)
			}
			clients = append(clients, local.NewClient(c.ID, d, train))
		case fedfraud.ClientMQTT:
			clients = append(clients, broker.Client(c.ID))
		}
		logger.Info("Registered client", slog.String("client_id", c.ID), slog.String("type", c.Type))
	}

	return clients, nil
}
