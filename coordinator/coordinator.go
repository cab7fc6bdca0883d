// Package coordinator runs federated rounds over the registered clients,
// averages their updates and keeps the best model seen on the held-out set.
package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/absmach/fedfraud/pkg/fl"
)

var ErrAlreadyRunning = errors.New("rounds are already running")

type Service interface {
	// Run blocks until every round has been driven or ctx is cancelled.
	Run(ctx context.Context) ([]fl.RoundResult, error)
	Status(ctx context.Context) (Status, error)
	ListRounds(ctx context.Context) ([]fl.RoundResult, error)
	GetRound(ctx context.Context, round int) (fl.RoundResult, error)
	// BestModel describes the best model without its parameters.
	BestModel(ctx context.Context) (Best, error)
}

type Status struct {
	State     State           `json:"state"`
	Round     int             `json:"round"`
	NumRounds int             `json:"num_rounds"`
	Last      *fl.RoundResult `json:"last,omitempty"`
	Best      *Best           `json:"best,omitempty"`
}

type Best struct {
	Round     int       `json:"round"`
	PRAUC     float64   `json:"pr_auc"`
	Threshold float64   `json:"threshold"`
	SavedAt   time.Time `json:"saved_at"`
}

func bestOf(m fl.BestModel) Best {
	return Best{
		Round:     m.Round,
		PRAUC:     fl.Round6(m.PRAUC),
		Threshold: fl.Round6(m.Threshold),
		SavedAt:   m.SavedAt,
	}
}
