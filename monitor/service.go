package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/fedfraud/pkg/artifact"
	pkgerrors "github.com/absmach/fedfraud/pkg/errors"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/fedfraud/pkg/model"
	"github.com/absmach/fedfraud/pkg/storage"
)

type service struct {
	repo      storage.MetricsRepository
	models    artifact.Store
	modelName string
}

func NewService(repo storage.MetricsRepository, models artifact.Store, modelName string) Service {
	return &service{
		repo:      repo,
		models:    models,
		modelName: modelName,
	}
}

func (svc *service) UpdateMetrics(ctx context.Context, m storage.RoundMetrics) (storage.RoundMetrics, error) {
	m.UpdatedAt = time.Now().UTC()
	if err := svc.repo.Save(ctx, m); err != nil {
		return storage.RoundMetrics{}, err
	}

	return m, nil
}

func (svc *service) ListMetrics(ctx context.Context, offset, limit uint64) (MetricsPage, error) {
	metrics, total, err := svc.repo.List(ctx, offset, limit)
	if err != nil {
		return MetricsPage{}, err
	}

	return MetricsPage{
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		Metrics: metrics,
	}, nil
}

func (svc *service) LatestMetrics(ctx context.Context) (storage.RoundMetrics, error) {
	return svc.repo.Latest(ctx)
}

func (svc *service) UpdateThreshold(ctx context.Context, threshold float64) (storage.Threshold, error) {
	t := storage.Threshold{
		Value:     threshold,
		UpdatedAt: time.Now().UTC(),
	}
	if err := svc.repo.SetThreshold(ctx, t); err != nil {
		return storage.Threshold{}, err
	}

	return t, nil
}

func (svc *service) Threshold(ctx context.Context) (storage.Threshold, error) {
	return svc.repo.Threshold(ctx)
}

func (svc *service) Predict(ctx context.Context, sequences [][][]float64) (PredictionPage, error) {
	best, err := svc.models.Load(ctx, svc.modelName)
	if err != nil {
		return PredictionPage{}, fmt.Errorf("best model: %w", err)
	}
	net, err := model.FromParameters(best.Parameters)
	if err != nil {
		return PredictionPage{}, fmt.Errorf("best model: %w", err)
	}

	// The threshold travels in the same artifact as the parameters it was
	// selected for; the value posted to /update_threshold may lag behind.
	threshold := best.Threshold

	probs, err := net.Predict(ctx, sequences)
	if err != nil {
		if errors.Is(err, model.ErrSequence) {
			return PredictionPage{}, errors.Join(pkgerrors.ErrInvalidData, err)
		}

		return PredictionPage{}, err
	}

	page := PredictionPage{
		Round:       best.Round,
		Threshold:   fl.Round6(threshold),
		Predictions: make([]Prediction, len(probs)),
	}
	for i, p := range probs {
		page.Predictions[i] = Prediction{
			Probability: fl.Round6(p),
			Fraud:       p > threshold,
		}
	}

	return page, nil
}
