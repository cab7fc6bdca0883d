package mocks

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/absmach/fedfraud/pkg/mqtt"
)

// Broker is an in-memory PubSub that delivers messages synchronously to
// matching subscriptions. It understands the + and # wildcards.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]mqtt.Handler
}

var _ mqtt.PubSub = (*Broker)(nil)

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]mqtt.Handler)}
}

func (b *Broker) Publish(_ context.Context, topic string, msg any) error {
	var data []byte
	switch m := msg.(type) {
	case []byte:
		data = m
	default:
		var err error
		if data, err = json.Marshal(msg); err != nil {
			return err
		}
	}

	b.mu.RLock()
	var handlers []mqtt.Handler
	for filter, h := range b.subs {
		if Match(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		_ = h(topic, data)
	}

	return nil
}

func (b *Broker) Subscribe(_ context.Context, topic string, handler mqtt.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = handler

	return nil
}

func (b *Broker) Unsubscribe(_ context.Context, topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, topic)

	return nil
}

func (b *Broker) Disconnect(context.Context) error {
	return nil
}

// Match reports whether an MQTT topic filter matches topic.
func Match(filter, topic string) bool {
	fs := strings.Split(filter, "/")
	ts := strings.Split(topic, "/")
	for i, f := range fs {
		switch {
		case f == "#":
			return true
		case i >= len(ts):
			return false
		case f != "+" && f != ts[i]:
			return false
		}
	}

	return len(fs) == len(ts)
}

// Subscribed reports whether a subscription with exactly this filter exists.
func (b *Broker) Subscribed(filter string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subs[filter]

	return ok
}
