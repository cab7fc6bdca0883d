package middleware

import (
	"context"

	"github.com/absmach/fedfraud/monitor"
	"github.com/absmach/fedfraud/pkg/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ monitor.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    monitor.Service
}

func Tracing(tracer trace.Tracer, svc monitor.Service) monitor.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) UpdateMetrics(ctx context.Context, m storage.RoundMetrics) (storage.RoundMetrics, error) {
	ctx, span := tm.tracer.Start(ctx, "update-metrics", trace.WithAttributes(
		attribute.Int("round", m.Round),
	))
	defer span.End()

	return tm.svc.UpdateMetrics(ctx, m)
}

func (tm *tracing) ListMetrics(ctx context.Context, offset, limit uint64) (monitor.MetricsPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-metrics", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListMetrics(ctx, offset, limit)
}

func (tm *tracing) LatestMetrics(ctx context.Context) (storage.RoundMetrics, error) {
	ctx, span := tm.tracer.Start(ctx, "latest-metrics")
	defer span.End()

	return tm.svc.LatestMetrics(ctx)
}

func (tm *tracing) UpdateThreshold(ctx context.Context, threshold float64) (storage.Threshold, error) {
	ctx, span := tm.tracer.Start(ctx, "update-threshold", trace.WithAttributes(
		attribute.Float64("threshold", threshold),
	))
	defer span.End()

	return tm.svc.UpdateThreshold(ctx, threshold)
}

func (tm *tracing) Threshold(ctx context.Context) (storage.Threshold, error) {
	ctx, span := tm.tracer.Start(ctx, "threshold")
	defer span.End()

	return tm.svc.Threshold(ctx)
}

func (tm *tracing) Predict(ctx context.Context, sequences [][][]float64) (monitor.PredictionPage, error) {
	ctx, span := tm.tracer.Start(ctx, "predict", trace.WithAttributes(
		attribute.Int("sequences", len(sequences)),
	))
	defer span.End()

	return tm.svc.Predict(ctx, sequences)
}
