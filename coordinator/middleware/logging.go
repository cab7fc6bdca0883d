package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/fedfraud/coordinator"
	"github.com/absmach/fedfraud/pkg/fl"
)

var _ coordinator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Run(ctx context.Context) (results []fl.RoundResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("rounds", len(results)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Run rounds failed", args...)

			return
		}
		lm.logger.Info("Run rounds completed successfully", args...)
	}(time.Now())

	return lm.svc.Run(ctx)
}

func (lm *loggingMiddleware) Status(ctx context.Context) (status coordinator.Status, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("status",
				slog.String("state", string(status.State)),
				slog.Int("round", status.Round),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get status failed", args...)

			return
		}
		lm.logger.Debug("Get status completed successfully", args...)
	}(time.Now())

	return lm.svc.Status(ctx)
}

func (lm *loggingMiddleware) ListRounds(ctx context.Context) (rounds []fl.RoundResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("total", len(rounds)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List rounds failed", args...)

			return
		}
		lm.logger.Info("List rounds completed successfully", args...)
	}(time.Now())

	return lm.svc.ListRounds(ctx)
}

func (lm *loggingMiddleware) GetRound(ctx context.Context, round int) (res fl.RoundResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("round",
				slog.Int("number", round),
				slog.String("status", string(res.Status)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get round failed", args...)

			return
		}
		lm.logger.Info("Get round completed successfully", args...)
	}(time.Now())

	return lm.svc.GetRound(ctx, round)
}

func (lm *loggingMiddleware) BestModel(ctx context.Context) (best coordinator.Best, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("best",
				slog.Int("round", best.Round),
				slog.Float64("pr_auc", best.PRAUC),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get best model failed", args...)

			return
		}
		lm.logger.Info("Get best model completed successfully", args...)
	}(time.Now())

	return lm.svc.BestModel(ctx)
}
