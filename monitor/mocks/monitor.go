package mocks

import (
	"context"

	"github.com/absmach/fedfraud/monitor"
	"github.com/absmach/fedfraud/pkg/storage"
	"github.com/stretchr/testify/mock"
)

// MockService is a mock implementation of the monitor.Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) UpdateMetrics(ctx context.Context, rm storage.RoundMetrics) (storage.RoundMetrics, error) {
	args := m.Called(ctx, rm)

	return args.Get(0).(storage.RoundMetrics), args.Error(1)
}

func (m *MockService) ListMetrics(ctx context.Context, offset, limit uint64) (monitor.MetricsPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(monitor.MetricsPage), args.Error(1)
}

func (m *MockService) LatestMetrics(ctx context.Context) (storage.RoundMetrics, error) {
	args := m.Called(ctx)

	return args.Get(0).(storage.RoundMetrics), args.Error(1)
}

func (m *MockService) UpdateThreshold(ctx context.Context, threshold float64) (storage.Threshold, error) {
	args := m.Called(ctx, threshold)

	return args.Get(0).(storage.Threshold), args.Error(1)
}

func (m *MockService) Threshold(ctx context.Context) (storage.Threshold, error) {
	args := m.Called(ctx)

	return args.Get(0).(storage.Threshold), args.Error(1)
}

func (m *MockService) Predict(ctx context.Context, sequences [][][]float64) (monitor.PredictionPage, error) {
	args := m.Called(ctx, sequences)

	return args.Get(0).(monitor.PredictionPage), args.Error(1)
}
