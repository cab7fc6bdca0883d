package mocks

import (
	"context"

	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of artifact.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, name string, model fl.BestModel) error {
	args := m.Called(ctx, name, model)

	return args.Error(0)
}

func (m *MockStore) Load(ctx context.Context, name string) (fl.BestModel, error) {
	args := m.Called(ctx, name)

	return args.Get(0).(fl.BestModel), args.Error(1)
}
