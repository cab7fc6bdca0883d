// Package storage keeps the round metrics and operating threshold served by
// the monitoring API.
package storage

import (
	"context"
	"time"
)

// RoundMetrics is the reported evaluation of one aggregated round.
type RoundMetrics struct {
	Round     int       `json:"round"`
	Accuracy  float64   `json:"accuracy"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	F1        float64   `json:"f1_score"`
	PRAUC     float64   `json:"pr_auc"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Threshold struct {
	Value     float64   `json:"threshold"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MetricsRepository stores one entry per round; saving a round again
// replaces it. Latest and Threshold return errors.ErrNotFound when empty.
type MetricsRepository interface {
	Save(ctx context.Context, m RoundMetrics) error
	// List returns rounds in ascending round order.
	List(ctx context.Context, offset, limit uint64) ([]RoundMetrics, uint64, error)
	// Latest returns the round with the highest number.
	Latest(ctx context.Context) (RoundMetrics, error)
	SetThreshold(ctx context.Context, t Threshold) error
	Threshold(ctx context.Context) (Threshold, error)
}
