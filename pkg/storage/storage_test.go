package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/absmach/fedfraud/pkg/errors"
	"github.com/absmach/fedfraud/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]storage.MetricsRepository {
	t.Helper()

	sqliteRepo, sqliteCloser, err := storage.NewRepository(context.Background(), storage.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "monitor.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { sqliteCloser.Close() })

	memRepo, closer, err := storage.NewRepository(context.Background(), storage.Config{Type: "memory"})
	require.NoError(t, err)
	assert.Nil(t, closer)

	return map[string]storage.MetricsRepository{
		"memory": memRepo,
		"sqlite": sqliteRepo,
	}
}

func metrics(round int, prauc float64) storage.RoundMetrics {
	return storage.RoundMetrics{
		Round:     round,
		Accuracy:  0.99,
		Precision: 0.5,
		Recall:    0.25,
		F1:        0.333333,
		PRAUC:     prauc,
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
	}
}

func TestMetricsRepository(t *testing.T) {
	t.Parallel()

	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := repo.Latest(ctx)
			assert.ErrorIs(t, err, errors.ErrNotFound)

			page, total, err := repo.List(ctx, 0, 10)
			require.NoError(t, err)
			assert.Empty(t, page)
			assert.Equal(t, uint64(0), total)

			for _, r := range []int{3, 1, 2} {
				require.NoError(t, repo.Save(ctx, metrics(r, float64(r)/10)))
			}
			require.NoError(t, repo.Save(ctx, metrics(2, 0.9)))

			page, total, err = repo.List(ctx, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, uint64(3), total)
			require.Len(t, page, 3)
			assert.Equal(t, []int{1, 2, 3}, []int{page[0].Round, page[1].Round, page[2].Round})
			assert.Equal(t, 0.9, page[1].PRAUC)
			assert.True(t, metrics(1, 0).UpdatedAt.Equal(page[0].UpdatedAt))

			page, total, err = repo.List(ctx, 1, 1)
			require.NoError(t, err)
			assert.Equal(t, uint64(3), total)
			require.Len(t, page, 1)
			assert.Equal(t, 2, page[0].Round)

			page, _, err = repo.List(ctx, 5, 10)
			require.NoError(t, err)
			assert.Empty(t, page)

			latest, err := repo.Latest(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, latest.Round)

			assert.ErrorIs(t, repo.Save(ctx, metrics(-1, 0)), storage.ErrInvalidRound)
		})
	}
}

func TestThreshold(t *testing.T) {
	t.Parallel()

	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := repo.Threshold(ctx)
			assert.ErrorIs(t, err, errors.ErrNotFound)

			now := time.Now().UTC()
			require.NoError(t, repo.SetThreshold(ctx, storage.Threshold{Value: 0.3, UpdatedAt: now}))
			require.NoError(t, repo.SetThreshold(ctx, storage.Threshold{Value: 0.206122, UpdatedAt: now}))

			got, err := repo.Threshold(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0.206122, got.Value)
			assert.True(t, now.Equal(got.UpdatedAt))
		})
	}
}

func TestNewRepositoryUnsupported(t *testing.T) {
	t.Parallel()

	_, _, err := storage.NewRepository(context.Background(), storage.Config{Type: "badger"})
	assert.Error(t, err)
}
