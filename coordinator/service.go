package coordinator

import (
	"context"
	"sync/atomic"

	"github.com/absmach/fedfraud/pkg/errors"
	"github.com/absmach/fedfraud/pkg/fl"
)

type service struct {
	driver    *Driver
	strategy  Strategy
	journal   Journal
	numRounds int
	running   atomic.Bool
}

func NewService(driver *Driver, strategy Strategy, journal Journal, numRounds int) Service {
	return &service{
		driver:    driver,
		strategy:  strategy,
		journal:   journal,
		numRounds: numRounds,
	}
}

func (svc *service) Run(ctx context.Context) ([]fl.RoundResult, error) {
	if !svc.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer svc.running.Store(false)

	return svc.driver.Run(ctx)
}

func (svc *service) Status(_ context.Context) (Status, error) {
	state, round := svc.strategy.State()
	status := Status{
		State:     state,
		Round:     round,
		NumRounds: svc.numRounds,
	}

	rounds, err := svc.journal.ListRounds()
	if err != nil {
		return Status{}, err
	}
	if len(rounds) > 0 {
		last := rounds[len(rounds)-1]
		status.Last = &last
	}
	if m, ok := svc.strategy.Best(); ok {
		b := bestOf(m)
		status.Best = &b
	}

	return status, nil
}

func (svc *service) ListRounds(_ context.Context) ([]fl.RoundResult, error) {
	return svc.journal.ListRounds()
}

func (svc *service) GetRound(_ context.Context, round int) (fl.RoundResult, error) {
	return svc.journal.LoadRound(round)
}

func (svc *service) BestModel(_ context.Context) (Best, error) {
	m, ok := svc.strategy.Best()
	if !ok {
		return Best{}, errors.ErrNotFound
	}

	return bestOf(m), nil
}
