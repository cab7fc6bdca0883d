package storage

import (
	"context"

	"github.com/absmach/fedfraud/pkg/storage/postgres"
)

type postgresAdapter struct {
	repo postgres.MetricsRepository
}

func (a *postgresAdapter) Save(ctx context.Context, m RoundMetrics) error {
	if m.Round < 0 {
		return ErrInvalidRound
	}

	return a.repo.Save(ctx, postgres.RoundMetrics(m))
}

func (a *postgresAdapter) List(ctx context.Context, offset, limit uint64) ([]RoundMetrics, uint64, error) {
	rows, total, err := a.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]RoundMetrics, len(rows))
	for i, m := range rows {
		out[i] = RoundMetrics(m)
	}

	return out, total, nil
}

func (a *postgresAdapter) Latest(ctx context.Context) (RoundMetrics, error) {
	m, err := a.repo.Latest(ctx)
	if err != nil {
		return RoundMetrics{}, mapError(err)
	}

	return RoundMetrics(m), nil
}

func (a *postgresAdapter) SetThreshold(ctx context.Context, t Threshold) error {
	return a.repo.SetThreshold(ctx, postgres.Threshold(t))
}

func (a *postgresAdapter) Threshold(ctx context.Context) (Threshold, error) {
	t, err := a.repo.Threshold(ctx)
	if err != nil {
		return Threshold{}, mapError(err)
	}

	return Threshold(t), nil
}
