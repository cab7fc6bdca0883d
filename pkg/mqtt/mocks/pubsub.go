package mocks

import (
	"context"

	"github.com/absmach/fedfraud/pkg/mqtt"
	"github.com/stretchr/testify/mock"
)

// MockPubSub is a mock implementation of the PubSub interface for testing
type MockPubSub struct {
	mock.Mock
}

// Publish publishes a message to the specified topic
func (m *MockPubSub) Publish(ctx context.Context, topic string, payload any) error {
	args := m.Called(ctx, topic, payload)

	return args.Error(0)
}

// Subscribe subscribes to messages on the specified topic
func (m *MockPubSub) Subscribe(ctx context.Context, topic string, handler mqtt.Handler) error {
	args := m.Called(ctx, topic, handler)

	return args.Error(0)
}

func (m *MockPubSub) Unsubscribe(ctx context.Context, topic string) error {
	args := m.Called(ctx, topic)

	return args.Error(0)
}

// Disconnect closes the MQTT connection
func (m *MockPubSub) Disconnect(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
