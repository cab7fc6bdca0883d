package monitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/absmach/fedfraud/monitor"
	"github.com/absmach/fedfraud/pkg/artifact"
	"github.com/absmach/fedfraud/pkg/errors"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/fedfraud/pkg/model"
	"github.com/absmach/fedfraud/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelName = "best_federated_model"

func newService(t *testing.T) (monitor.Service, artifact.Store) {
	t.Helper()

	store := artifact.NewFileStore(t.TempDir())

	return monitor.NewService(storage.NewInMemoryStorage(), store, modelName), store
}

func sequences(n, steps, features int) [][][]float64 {
	X := make([][][]float64, n)
	for i := range X {
		X[i] = make([][]float64, steps)
		for s := range X[i] {
			X[i][s] = make([]float64, features)
			for f := range X[i][s] {
				X[i][s][f] = float64(i-n/2) * 0.3
			}
		}
	}

	return X
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.LatestMetrics(ctx)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	for _, round := range []int{3, 1, 2} {
		saved, err := svc.UpdateMetrics(ctx, storage.RoundMetrics{Round: round, PRAUC: float64(round) / 10})
		require.NoError(t, err)
		assert.False(t, saved.UpdatedAt.IsZero())
	}
	_, err = svc.UpdateMetrics(ctx, storage.RoundMetrics{Round: 2, PRAUC: 0.9})
	require.NoError(t, err)

	page, err := svc.ListMetrics(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), page.Total)
	require.Len(t, page.Metrics, 3)
	for i, m := range page.Metrics {
		assert.Equal(t, i+1, m.Round)
	}
	assert.Equal(t, 0.9, page.Metrics[1].PRAUC)

	page, err = svc.ListMetrics(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page.Metrics, 1)
	assert.Equal(t, 2, page.Metrics[0].Round)

	latest, err := svc.LatestMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Round)
}

func TestThreshold(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Threshold(ctx)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = svc.UpdateThreshold(ctx, 0.206122)
	require.NoError(t, err)

	got, err := svc.Threshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.206122, got.Value)
}

func TestPredict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	params := model.NewParameters(3, 8, 5)
	X := sequences(6, 4, 3)

	net, err := model.FromParameters(params)
	require.NoError(t, err)
	probs, err := net.Predict(ctx, X)
	require.NoError(t, err)

	t.Run("no best model yet", func(t *testing.T) {
		t.Parallel()

		svc, _ := newService(t)
		_, err := svc.Predict(ctx, X)
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("artifact threshold", func(t *testing.T) {
		t.Parallel()

		svc, store := newService(t)
		require.NoError(t, store.Save(ctx, modelName, fl.BestModel{Round: 4, Parameters: params, PRAUC: 0.6, Threshold: 0.5, SavedAt: time.Now()}))

		page, err := svc.Predict(ctx, X)
		require.NoError(t, err)
		assert.Equal(t, 4, page.Round)
		assert.Equal(t, 0.5, page.Threshold)
		require.Len(t, page.Predictions, len(X))
		for i, p := range page.Predictions {
			assert.Equal(t, fl.Round6(probs[i]), p.Probability)
			assert.Equal(t, probs[i] > 0.5, p.Fraud)
		}
	})

	t.Run("threshold follows the artifact", func(t *testing.T) {
		t.Parallel()

		svc, store := newService(t)
		require.NoError(t, store.Save(ctx, modelName, fl.BestModel{Round: 1, Parameters: params, Threshold: 0.3}))
		_, err := svc.UpdateThreshold(ctx, 0.3)
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, modelName, fl.BestModel{Round: 2, Parameters: params, Threshold: 0.7}))

		page, err := svc.Predict(ctx, X)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Round)
		assert.Equal(t, 0.7, page.Threshold)
		for i, p := range page.Predictions {
			assert.Equal(t, probs[i] > 0.7, p.Fraud)
		}
	})

	t.Run("wrong feature width", func(t *testing.T) {
		t.Parallel()

		svc, store := newService(t)
		require.NoError(t, store.Save(ctx, modelName, fl.BestModel{Round: 1, Parameters: params}))

		_, err := svc.Predict(ctx, sequences(2, 4, 5))
		assert.ErrorIs(t, err, errors.ErrInvalidData)
		assert.ErrorIs(t, err, model.ErrSequence)
	})
}
