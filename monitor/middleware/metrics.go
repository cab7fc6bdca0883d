package middleware

import (
	"context"
	"time"

	"github.com/absmach/fedfraud/monitor"
	"github.com/absmach/fedfraud/pkg/storage"
	"github.com/go-kit/kit/metrics"
)

var _ monitor.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     monitor.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc monitor.Service) monitor.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) UpdateMetrics(ctx context.Context, m storage.RoundMetrics) (storage.RoundMetrics, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "update-metrics").Add(1)
		mm.latency.With("method", "update-metrics").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.UpdateMetrics(ctx, m)
}

func (mm *metricsMiddleware) ListMetrics(ctx context.Context, offset, limit uint64) (monitor.MetricsPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-metrics").Add(1)
		mm.latency.With("method", "list-metrics").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListMetrics(ctx, offset, limit)
}

func (mm *metricsMiddleware) LatestMetrics(ctx context.Context) (storage.RoundMetrics, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "latest-metrics").Add(1)
		mm.latency.With("method", "latest-metrics").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.LatestMetrics(ctx)
}

func (mm *metricsMiddleware) UpdateThreshold(ctx context.Context, threshold float64) (storage.Threshold, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "update-threshold").Add(1)
		mm.latency.With("method", "update-threshold").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.UpdateThreshold(ctx, threshold)
}

func (mm *metricsMiddleware) Threshold(ctx context.Context) (storage.Threshold, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "threshold").Add(1)
		mm.latency.With("method", "threshold").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Threshold(ctx)
}

func (mm *metricsMiddleware) Predict(ctx context.Context, sequences [][][]float64) (monitor.PredictionPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "predict").Add(1)
		mm.latency.With("method", "predict").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Predict(ctx, sequences)
}
