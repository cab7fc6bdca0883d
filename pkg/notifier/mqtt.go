package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/fedfraud/pkg/mqtt"
)

const (
	RoundsCompletedTopic = "fl/rounds/completed"
	BestModelTopic       = "fl/models/best"
)

// BestModelEvent is the parameter-free announcement of a new best model.
type BestModelEvent struct {
	Round     int       `json:"round"`
	PRAUC     float64   `json:"pr_auc"`
	Threshold float64   `json:"threshold"`
	SavedAt   time.Time `json:"saved_at"`
}

type mqttNotifier struct {
	pubsub mqtt.PubSub
}

func NewMQTT(pubsub mqtt.PubSub) Notifier {
	return &mqttNotifier{pubsub: pubsub}
}

func (n *mqttNotifier) RoundCompleted(ctx context.Context, report fl.EvaluationReport) error {
	if err := n.pubsub.Publish(ctx, RoundsCompletedTopic, report.Rounded()); err != nil {
		return fmt.Errorf("failed to publish round %d: %w", report.Round, err)
	}

	return nil
}

func (n *mqttNotifier) NewBest(ctx context.Context, best fl.BestModel) error {
	ev := BestModelEvent{
		Round:     best.Round,
		PRAUC:     fl.Round6(best.PRAUC),
		Threshold: fl.Round6(best.Threshold),
		SavedAt:   best.SavedAt,
	}
	if err := n.pubsub.Publish(ctx, BestModelTopic, ev); err != nil {
		return fmt.Errorf("failed to publish best model of round %d: %w", best.Round, err)
	}

	return nil
}
