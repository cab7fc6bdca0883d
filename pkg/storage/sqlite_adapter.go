package storage

import (
	"context"
	"errors"

	pkgerrors "github.com/absmach/fedfraud/pkg/errors"
	"github.com/absmach/fedfraud/pkg/storage/postgres"
	"github.com/absmach/fedfraud/pkg/storage/sqlite"
)

type sqliteAdapter struct {
	repo sqlite.MetricsRepository
}

func (a *sqliteAdapter) Save(ctx context.Context, m RoundMetrics) error {
	if m.Round < 0 {
		return ErrInvalidRound
	}

	return a.repo.Save(ctx, sqlite.RoundMetrics(m))
}

func (a *sqliteAdapter) List(ctx context.Context, offset, limit uint64) ([]RoundMetrics, uint64, error) {
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

func (a *sqliteAdapter) Latest(ctx context.Context) (RoundMetrics, error) {
	m, err := a.repo.Latest(ctx)
	if err != nil {
		return RoundMetrics{}, mapError(err)
	}

	return RoundMetrics(m), nil
}

func (a *sqliteAdapter) SetThreshold(ctx context.Context, t Threshold) error {
	return a.repo.SetThreshold(ctx, sqlite.Threshold(t))
}

func (a *sqliteAdapter) Threshold(ctx context.Context) (Threshold, error) {
	t, err := a.repo.Threshold(ctx)
	if err != nil {
		return Threshold{}, mapError(err)
	}

	return Threshold(t), nil
}

func mapError(err error) error {
	if errors.Is(err, sqlite.ErrNotFound) || errors.Is(err, postgres.ErrNotFound) {
		return pkgerrors.ErrNotFound
	}

	return err
}
