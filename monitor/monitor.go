// Package monitor serves the round metrics reported by the coordinator and
// scores transaction sequences with the best model.
package monitor

import (
	"context"

	"github.com/absmach/fedfraud/pkg/storage"
)

type Service interface {
	UpdateMetrics(ctx context.Context, m storage.RoundMetrics) (storage.RoundMetrics, error)
	ListMetrics(ctx context.Context, offset, limit uint64) (MetricsPage, error)
	LatestMetrics(ctx context.Context) (storage.RoundMetrics, error)
	UpdateThreshold(ctx context.Context, threshold float64) (storage.Threshold, error)
	Threshold(ctx context.Context) (storage.Threshold, error)
	// Predict scores every sequence with the current best model and the
	// threshold saved with it. It fails with errors.ErrNotFound until a best
	// model has been saved.
	Predict(ctx context.Context, sequences [][][]float64) (PredictionPage, error)
}

type MetricsPage struct {
	Offset  uint64                 `json:"offset"`
	Limit   uint64                 `json:"limit"`
	Total   uint64                 `json:"total"`
	Metrics []storage.RoundMetrics `json:"metrics"`
}

type Prediction struct {
	Probability float64 `json:"probability"`
	Fraud       bool    `json:"fraud"`
}

type PredictionPage struct {
	Round       int          `json:"round"`
	Threshold   float64      `json:"threshold"`
	Predictions []Prediction `json:"predictions"`
}
