package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/fedfraud/pkg/sdk"
)

const DefaultTimeout = 2 * time.Second

type httpNotifier struct {
	sdk     sdk.SDK
	timeout time.Duration
}

// NewHTTP posts metrics and thresholds to the monitoring API. Each call is
// bounded by timeout and never retried.
func NewHTTP(client sdk.SDK, timeout time.Duration) Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &httpNotifier{sdk: client, timeout: timeout}
}

func (n *httpNotifier) RoundCompleted(ctx context.Context, report fl.EvaluationReport) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	r := report.Rounded()
	if err := n.sdk.UpdateMetrics(ctx, sdk.Metrics{
		Round:     r.Round,
		Accuracy:  r.Accuracy,
		Precision: r.Precision,
		Recall:    r.Recall,
		F1:        r.F1,
		PRAUC:     r.PRAUC,
	}); err != nil {
		return fmt.Errorf("failed to post metrics for round %d: %w", r.Round, err)
	}

	return nil
}

func (n *httpNotifier) NewBest(ctx context.Context, best fl.BestModel) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.sdk.UpdateThreshold(ctx, fl.Round6(best.Threshold)); err != nil {
		return fmt.Errorf("failed to post threshold for round %d: %w", best.Round, err)
	}

	return nil
}
