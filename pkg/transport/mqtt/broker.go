package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/absmach/fedfraud/pkg/fl"
	pkgmqtt "github.com/absmach/fedfraud/pkg/mqtt"
	"github.com/absmach/fedfraud/pkg/transport"
	"github.com/google/uuid"
)

// Broker is the coordinator side of the MQTT transport. It holds one
// subscription for all client updates and routes replies by request id.
type Broker struct {
	pubsub  pkgmqtt.PubSub
	logger  *slog.Logger
	mu      sync.Mutex
	pending map[string]chan fitReply
}

func NewBroker(ctx context.Context, pubsub pkgmqtt.PubSub, logger *slog.Logger) (*Broker, error) {
	b := &Broker{
		pubsub:  pubsub,
		logger:  logger,
		pending: make(map[string]chan fitReply),
	}
	if err := pubsub.Subscribe(ctx, updateFilter, b.handleUpdate); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", updateFilter, err)
	}

	return b, nil
}

// Client returns the remote client with the given id.
func (b *Broker) Client(id string) transport.Client {
	return &remoteClient{id: id, broker: b}
}

func (b *Broker) Close(ctx context.Context) error {
	return b.pubsub.Unsubscribe(ctx, updateFilter)
}

func (b *Broker) handleUpdate(topic string, payload []byte) error {
	clientID, err := clientFromTopic(topic)
	if err != nil {
		return err
	}

	var reply fitReply
	if err := decode(payload, &reply); err != nil {
		return err
	}
	if reply.ClientID == "" {
		reply.ClientID = clientID
	}
	if reply.ClientID != clientID {
		return fmt.Errorf("update on %s claims client %s", topic, reply.ClientID)
	}

	b.mu.Lock()
	ch, ok := b.pending[reply.RequestID]
	delete(b.pending, reply.RequestID)
	b.mu.Unlock()
	if !ok {
		b.logger.Debug("Dropping update without a pending request",
			slog.String("client_id", clientID),
			slog.String("request_id", reply.RequestID),
		)

		return nil
	}
	ch <- reply

	return nil
}

func (b *Broker) fit(ctx context.Context, clientID string, ins transport.FitIns) (fl.ClientUpdate, error) {
	req := fitRequest{
		RequestID:  uuid.NewString(),
		Round:      ins.Round,
		Parameters: ins.Parameters,
		Config:     ins.Config,
	}
	payload, err := encode(req)
	if err != nil {
		return fl.ClientUpdate{}, err
	}

	ch := make(chan fitReply, 1)
	b.mu.Lock()
	b.pending[req.RequestID] = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, req.RequestID)
		b.mu.Unlock()
	}()

	if err := b.pubsub.Publish(ctx, FitTopic(clientID), payload); err != nil {
		return fl.ClientUpdate{}, fmt.Errorf("failed to publish fit request to %s: %w", clientID, err)
	}

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fl.ClientUpdate{}, fmt.Errorf("%w: %s", transport.ErrClientTimeout, clientID)
		}

		return fl.ClientUpdate{}, ctx.Err()
	case reply := <-ch:
		if reply.Error != "" {
			return fl.ClientUpdate{}, fmt.Errorf("%w: %s: %s", transport.ErrClientFailed, clientID, reply.Error)
		}
		if reply.Round != ins.Round {
			return fl.ClientUpdate{}, fmt.Errorf("%w: %s replied for round %d, want %d", transport.ErrClientFailed, clientID, reply.Round, ins.Round)
		}

		return fl.ClientUpdate{
			ClientID:   reply.ClientID,
			Round:      reply.Round,
			Parameters: reply.Parameters,
			NumSamples: reply.NumSamples,
			Metrics:    reply.Metrics,
			ReceivedAt: time.Now(),
		}, nil
	}
}

type remoteClient struct {
	id     string
	broker *Broker
}

func (c *remoteClient) ID() string {
	return c.id
}

func (c *remoteClient) Fit(ctx context.Context, ins transport.FitIns) (fl.ClientUpdate, error) {
	return c.broker.fit(ctx, c.id, ins)
}
