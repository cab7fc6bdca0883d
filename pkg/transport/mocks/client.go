package mocks

import (
	"context"

	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/fedfraud/pkg/transport"
	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of transport.Client.
type MockClient struct {
	mock.Mock
	id string
}

func NewMockClient(id string) *MockClient {
	return &MockClient{id: id}
}

func (m *MockClient) ID() string {
	return m.id
}

func (m *MockClient) Fit(ctx context.Context, ins transport.FitIns) (fl.ClientUpdate, error) {
	args := m.Called(ctx, ins)
	if fn, ok := args.Get(0).(func(context.Context, transport.FitIns) (fl.ClientUpdate, error)); ok {
		return fn(ctx, ins)
	}

	return args.Get(0).(fl.ClientUpdate), args.Error(1)
}
