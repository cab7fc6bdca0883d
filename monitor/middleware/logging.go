package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/fedfraud/monitor"
	"github.com/absmach/fedfraud/pkg/storage"
)

var _ monitor.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    monitor.Service
}

func Logging(logger *slog.Logger, svc monitor.Service) monitor.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) UpdateMetrics(ctx context.Context, m storage.RoundMetrics) (resp storage.RoundMetrics, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("metrics",
				slog.Int("round", m.Round),
				slog.Float64("f1_score", m.F1),
				slog.Float64("pr_auc", m.PRAUC),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Update metrics failed", args...)

			return
		}
		lm.logger.Info("Update metrics completed successfully", args...)
	}(time.Now())

	return lm.svc.UpdateMetrics(ctx, m)
}

func (lm *loggingMiddleware) ListMetrics(ctx context.Context, offset, limit uint64) (resp monitor.MetricsPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List metrics failed", args...)

			return
		}
		lm.logger.Info("List metrics completed successfully", args...)
	}(time.Now())

	return lm.svc.ListMetrics(ctx, offset, limit)
}

func (lm *loggingMiddleware) LatestMetrics(ctx context.Context) (resp storage.RoundMetrics, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("round", resp.Round),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get latest metrics failed", args...)

			return
		}
		lm.logger.Info("Get latest metrics completed successfully", args...)
	}(time.Now())

	return lm.svc.LatestMetrics(ctx)
}

func (lm *loggingMiddleware) UpdateThreshold(ctx context.Context, threshold float64) (resp storage.Threshold, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Float64("threshold", threshold),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Update threshold failed", args...)

			return
		}
		lm.logger.Info("Update threshold completed successfully", args...)
	}(time.Now())

	return lm.svc.UpdateThreshold(ctx, threshold)
}

func (lm *loggingMiddleware) Threshold(ctx context.Context) (resp storage.Threshold, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Float64("threshold", resp.Value),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get threshold failed", args...)

			return
		}
		lm.logger.Info("Get threshold completed successfully", args...)
	}(time.Now())

	return lm.svc.Threshold(ctx)
}

func (lm *loggingMiddleware) Predict(ctx context.Context, sequences [][][]float64) (resp monitor.PredictionPage, err error) {
	defer func(begin time.Time) {
		fraud := 0
		for _, p := range resp.Predictions {
			if p.Fraud {
				fraud++
			}
		}
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("prediction",
				slog.Int("sequences", len(sequences)),
				slog.Int("fraud", fraud),
				slog.Int("round", resp.Round),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Predict failed", args...)

			return
		}
		lm.logger.Info("Predict completed successfully", args...)
	}(time.Now())

	return lm.svc.Predict(ctx, sequences)
}
