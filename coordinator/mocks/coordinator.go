package mocks

import (
	"context"

	"github.com/absmach/fedfraud/coordinator"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/stretchr/testify/mock"
)

// MockService is a mock implementation of the coordinator.Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Run(ctx context.Context) ([]fl.RoundResult, error) {
	args := m.Called(ctx)

	return args.Get(0).([]fl.RoundResult), args.Error(1)
}

func (m *MockService) Status(ctx context.Context) (coordinator.Status, error) {
	args := m.Called(ctx)

	return args.Get(0).(coordinator.Status), args.Error(1)
}

func (m *MockService) ListRounds(ctx context.Context) ([]fl.RoundResult, error) {
	args := m.Called(ctx)

	return args.Get(0).([]fl.RoundResult), args.Error(1)
}

func (m *MockService) GetRound(ctx context.Context, round int) (fl.RoundResult, error) {
	args := m.Called(ctx, round)

	return args.Get(0).(fl.RoundResult), args.Error(1)
}

func (m *MockService) BestModel(ctx context.Context) (coordinator.Best, error) {
	args := m.Called(ctx)

	return args.Get(0).(coordinator.Best), args.Error(1)
}
