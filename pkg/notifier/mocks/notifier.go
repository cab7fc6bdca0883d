package mocks

import (
	"context"

	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of notifier.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) RoundCompleted(ctx context.Context, report fl.EvaluationReport) error {
	args := m.Called(ctx, report)

	return args.Error(0)
}

func (m *MockNotifier) NewBest(ctx context.Context, best fl.BestModel) error {
	args := m.Called(ctx, best)

	return args.Error(0)
}
