package middleware

import (
	"context"

	"github.com/absmach/fedfraud/coordinator"
	"github.com/absmach/fedfraud/pkg/fl"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) Run(ctx context.Context) ([]fl.RoundResult, error) {
	ctx, span := tm.tracer.Start(ctx, "run")
	defer span.End()

	return tm.svc.Run(ctx)
}

func (tm *tracing) Status(ctx context.Context) (coordinator.Status, error) {
	ctx, span := tm.tracer.Start(ctx, "status")
	defer span.End()

	return tm.svc.Status(ctx)
}

func (tm *tracing) ListRounds(ctx context.Context) ([]fl.RoundResult, error) {
	ctx, span := tm.tracer.Start(ctx, "list-rounds")
	defer span.End()

	return tm.svc.ListRounds(ctx)
}

func (tm *tracing) GetRound(ctx context.Context, round int) (fl.RoundResult, error) {
	ctx, span := tm.tracer.Start(ctx, "get-round", trace.WithAttributes(
		attribute.Int("round", round),
	))
	defer span.End()

	return tm.svc.GetRound(ctx, round)
}

func (tm *tracing) BestModel(ctx context.Context) (coordinator.Best, error) {
	ctx, span := tm.tracer.Start(ctx, "best-model")
	defer span.End()

	return tm.svc.BestModel(ctx)
}
