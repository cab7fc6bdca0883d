package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pkgmqtt "github.com/absmach/fedfraud/pkg/mqtt"
	"github.com/absmach/fedfraud/pkg/transport"
)

// OfflinePayload is published on StatusTopic as the client's last will.
func OfflinePayload(clientID string) string {
	return fmt.Sprintf(`{"status":%q,"client_id":%q}`, offlineStatus, clientID)
}

// Serve answers fit requests addressed to client until ctx is done. Each
// request is trained in its own goroutine; Serve waits for them on exit.
func Serve(ctx context.Context, pubsub pkgmqtt.PubSub, client transport.Client, logger *slog.Logger) error {
	var wg sync.WaitGroup
	topic := FitTopic(client.ID())

	handler := func(_ string, payload []byte) error {
		var req fitRequest
		if err := decode(payload, &req); err != nil {
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			answer(ctx, pubsub, client, req, logger)
		}()

		return nil
	}

	if err := pubsub.Subscribe(ctx, topic, handler); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	logger.Info("Waiting for fit requests", slog.String("topic", topic))

	<-ctx.Done()
	wg.Wait()

	unsubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return pubsub.Unsubscribe(unsubCtx, topic)
}

func answer(ctx context.Context, pubsub pkgmqtt.PubSub, client transport.Client, req fitRequest, logger *slog.Logger) {
	start := time.Now()
	reply := fitReply{
		RequestID: req.RequestID,
		ClientID:  client.ID(),
		Round:     req.Round,
	}

	upd, err := client.Fit(ctx, transport.FitIns{Round: req.Round, Parameters: req.Parameters, Config: req.Config})
	args := []any{
		slog.Int("round", req.Round),
		slog.String("request_id", req.RequestID),
		slog.String("duration", time.Since(start).String()),
	}
	if err != nil {
		reply.Error = err.Error()
		logger.Warn("Local training failed", append(args, slog.Any("error", err))...)
	} else {
		reply.Parameters = upd.Parameters
		reply.NumSamples = upd.NumSamples
		reply.Metrics = upd.Metrics
		logger.Info("Local training completed", append(args, slog.Int("num_samples", upd.NumSamples))...)
	}

	payload, err := encode(reply)
	if err != nil {
		logger.Error("Failed to encode update", slog.Any("error", err))

		return
	}
	if err := pubsub.Publish(ctx, UpdateTopic(client.ID()), payload); err != nil {
		logger.Warn("Failed to publish update", slog.Int("round", req.Round), slog.Any("error", err))
	}
}
