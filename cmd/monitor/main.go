package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"

	"github.com/absmach/fedfraud/monitor"
	"github.com/absmach/fedfraud/monitor/api"
	"github.com/absmach/fedfraud/monitor/middleware"
	"github.com/absmach/fedfraud/pkg/artifact"
	"github.com/absmach/fedfraud/pkg/jaeger"
	"github.com/absmach/fedfraud/pkg/prometheus"
	"github.com/absmach/fedfraud/pkg/server"
	httpserver "github.com/absmach/fedfraud/pkg/server/http"
	"github.com/absmach/fedfraud/pkg/storage"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName     = "monitor"
	defHTTPPort = "5000"
	envPrefix   = "FEDFRAUD_MONITOR_"
)

type config struct {
	LogLevel      string `env:"LOG_LEVEL"       envDefault:"info"`
	InstanceID    string `env:"INSTANCE_ID"`
	Storage       storage.Config
	ArtifactStore string            `env:"ARTIFACT_STORE"  envDefault:"file"`
	ArtifactDir   string            `env:"ARTIFACT_DIR"    envDefault:"model"`
	BestModelName string            `env:"BEST_MODEL_NAME" envDefault:"best_federated_model"`
	S3            artifact.S3Config `envPrefix:"S3_"`
	OTELURL       url.URL           `env:"OTEL_URL"`
	TraceRatio    float64           `env:"TRACE_RATIO"     envDefault:"0"`
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

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	repo, closer, err := storage.NewRepository(ctx, cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize storage", slog.Any("error", err))

		return
	}
	if closer != nil {
		defer closer.Close()
	}

	var models artifact.Store
	switch cfg.ArtifactStore {
	case "s3":
		models, err = artifact.NewS3Store(ctx, cfg.S3)
		if err != nil {
			logger.Error("failed to initialize s3 artifact store", slog.Any("error", err))

			return
		}
	default:
		models = artifact.NewFileStore(cfg.ArtifactDir)
	}

	svc := monitor.NewService(repo, models, cfg.BestModelName)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefix + "HTTP_"}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}
