package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/0x6flab/namegenerator"
	"github.com/absmach/fedfraud/pkg/dataset"
	"github.com/absmach/fedfraud/pkg/model"
	"github.com/absmach/fedfraud/pkg/mqtt"
	"github.com/absmach/fedfraud/pkg/server"
	"github.com/absmach/fedfraud/pkg/transport/local"
	mqtttransport "github.com/absmach/fedfraud/pkg/transport/mqtt"
	"github.com/caarlos0/env/v11"
	"golang.org/x/sync/errgroup"
)

const (
	svcName   = "client"
	envPrefix = "FEDFRAUD_CLIENT_"
)

type config struct {
	LogLevel            string      `env:"LOG_LEVEL"             envDefault:"info"`
	ID                  string      `env:"ID"`
	Dataset             string      `env:"DATASET"               envDefault:"data/client_sequences.npz"`
	LocalEpochs         int         `env:"LOCAL_EPOCHS"          envDefault:"2"`
	BatchSize           int         `env:"BATCH_SIZE"            envDefault:"256"`
	LearningRate        float64     `env:"LEARNING_RATE"         envDefault:"0.01"`
	PositiveClassWeight float64     `env:"POSITIVE_CLASS_WEIGHT" envDefault:"20"`
	Seed                uint64      `env:"SEED"                  envDefault:"42"`
	MQTT                mqtt.Config `envPrefix:"MQTT_"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	cfg := config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.ID == "" {
		cfg.ID = namegenerator.NewGenerator().Generate()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler).With(slog.String("client_id", cfg.ID))
	slog.SetDefault(logger)

	data, err := dataset.LoadNPZ(cfg.Dataset)
	if err != nil {
		logger.Error("failed to load local dataset", slog.Any("error", err))
		os.Exit(1)
	}

	mqttCfg := cfg.MQTT
	mqttCfg.ID = fmt.Sprintf("%s-%s", svcName, cfg.ID)
	mqttCfg.WillTopic = mqtttransport.StatusTopic(cfg.ID)
	mqttCfg.WillPayload = mqtttransport.OfflinePayload(cfg.ID)

	pubsub, err := mqtt.NewPubSub(mqttCfg, logger)
	if err != nil {
		logger.Error("failed to initialize mqtt pubsub", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := pubsub.Disconnect(context.Background()); err != nil {
			logger.Warn("failed to disconnect from mqtt broker", slog.Any("error", err))
		}
	}()

	client := local.NewClient(cfg.ID, data, model.TrainConfig{
		Epochs:         cfg.LocalEpochs,
		BatchSize:      cfg.BatchSize,
		LearningRate:   cfg.LearningRate,
		PositiveWeight: cfg.PositiveClassWeight,
		Seed:           cfg.Seed,
	})

	logger.Info("Client ready", slog.Int("samples", data.Len()), slog.Int("positives", data.Positives()))

	g.Go(func() error {
		return mqtttransport.Serve(ctx, pubsub, client, logger)
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s exited with error: %s", svcName, err))
	}
}
