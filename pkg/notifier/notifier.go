// Package notifier forwards round outcomes to external sinks. Delivery is
// best effort: callers log a returned error and carry on.
package notifier

import (
	"context"
	"errors"

	"github.com/absmach/fedfraud/pkg/fl"
)

type Notifier interface {
	// RoundCompleted reports the evaluation of an aggregated round.
	RoundCompleted(ctx context.Context, report fl.EvaluationReport) error
	// NewBest reports that the best-model slot was replaced.
	NewBest(ctx context.Context, best fl.BestModel) error
}

type multi []Notifier

// NewMulti notifies every sink in order and joins their errors.
func NewMulti(ns ...Notifier) Notifier {
	return multi(ns)
}

func (m multi) RoundCompleted(ctx context.Context, report fl.EvaluationReport) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.RoundCompleted(ctx, report))
	}

	return errors.Join(errs...)
}

func (m multi) NewBest(ctx context.Context, best fl.BestModel) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.NewBest(ctx, best))
	}

	return errors.Join(errs...)
}

type noop struct{}

func NewNoop() Notifier {
	return noop{}
}

func (noop) RoundCompleted(context.Context, fl.EvaluationReport) error { return nil }

func (noop) NewBest(context.Context, fl.BestModel) error { return nil }
