package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/fedfraud/pkg/scheduler"
	"github.com/absmach/fedfraud/pkg/transport"
	"github.com/go-kit/kit/metrics"
	"golang.org/x/sync/errgroup"
)

var errClientMismatch = errors.New("update belongs to another client or round")

type DriverConfig struct {
	NumRounds           int
	MinParticipants     int
	MinAvailable        int
	FractionParticipate float64
	RoundTimeout        time.Duration
	// FitConfig is forwarded to every client in FitIns.Config.
	FitConfig map[string]float64
}

// Driver runs rounds 1..NumRounds strictly one after another.
type Driver struct {
	cfg      DriverConfig
	clients  []transport.Client
	sampler  scheduler.Scheduler
	strategy Strategy
	journal  Journal
	rounds   metrics.Counter
	prauc    metrics.Histogram
	logger   *slog.Logger
}

// NewDriver refuses to start with fewer than MinAvailable registered clients.
func NewDriver(cfg DriverConfig, clients []transport.Client, strategy Strategy, journal Journal, rounds metrics.Counter, prauc metrics.Histogram, logger *slog.Logger) (*Driver, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("%w: no clients registered", ErrStartup)
	}
	if len(clients) < cfg.MinAvailable {
		return nil, fmt.Errorf("%w: %d clients registered, %d required", ErrStartup, len(clients), cfg.MinAvailable)
	}
	sampler, err := scheduler.NewRoundRobin(cfg.FractionParticipate, cfg.MinParticipants)
	if err != nil {
		return nil, fmt.Errorf("%w: fraction_participate %g: %w", ErrStartup, cfg.FractionParticipate, err)
	}
	if cfg.RoundTimeout <= 0 {
		return nil, fmt.Errorf("%w: round_timeout must be positive", ErrStartup)
	}
	seen := make(map[string]bool, len(clients))
	for _, c := range clients {
		if c.ID() == "" || seen[c.ID()] {
			return nil, fmt.Errorf("%w: client ids must be unique and non-empty, got %q", ErrStartup, c.ID())
		}
		seen[c.ID()] = true
	}

	return &Driver{
		cfg:      cfg,
		clients:  clients,
		sampler:  sampler,
		strategy: strategy,
		journal:  journal,
		rounds:   rounds,
		prauc:    prauc,
		logger:   logger,
	}, nil
}

// Run drives every configured round. Cancelling ctx abandons the round in
// flight and stops the strategy; the results gathered so far are returned
// with a nil error.
func (d *Driver) Run(ctx context.Context) ([]fl.RoundResult, error) {
	results := make([]fl.RoundResult, 0, d.cfg.NumRounds)

	for round := 1; round <= d.cfg.NumRounds; round++ {
		if ctx.Err() != nil {
			results = append(results, d.abandon(round))

			return results, nil
		}

		res, err := d.RunRound(ctx, round)
		switch {
		case errors.Is(err, ErrStrategyDone):
			return results, nil
		case errors.Is(err, ErrInvalidTransition):
			return results, err
		case err != nil:
			d.logger.Error("Round failed", slog.Int("round", round), slog.Any("error", err))
		}
		results = append(results, res)

		if res.Status == fl.StatusAbandoned {
			return results, nil
		}
	}
	d.strategy.Finish()

	return results, nil
}

// RunRound broadcasts the global parameters to the sampled clients, waits at
// most RoundTimeout for their updates and hands them to the strategy.
func (d *Driver) RunRound(ctx context.Context, round int) (fl.RoundResult, error) {
	if err := d.strategy.Begin(round); err != nil {
		return fl.RoundResult{}, err
	}

	participants, err := d.sampler.Select(round, d.clients)
	if err != nil {
		return fl.RoundResult{}, err
	}
	d.logger.Info("Round started",
		slog.Int("round", round),
		slog.Int("participants", len(participants)),
		slog.String("timeout", d.cfg.RoundTimeout.String()),
	)

	updates, failures := d.collect(ctx, round, participants)
	if ctx.Err() != nil {
		return d.abandon(round), nil
	}

	res, err := d.strategy.Aggregate(ctx, round, updates, failures)
	d.record(res)

	return res.Summary(), err
}

func (d *Driver) collect(ctx context.Context, round int, participants []transport.Client) ([]fl.ClientUpdate, []string) {
	rctx, cancel := context.WithTimeout(ctx, d.cfg.RoundTimeout)
	defer cancel()

	global := d.strategy.Parameters()
	replies := make([]fl.ClientUpdate, len(participants))
	errs := make([]error, len(participants))
	answered := make([]bool, len(participants))

	// Replies landing after the deadline are dropped; closed guards the
	// slices once collect stops waiting.
	var (
		mu     sync.Mutex
		closed bool
	)

	var g errgroup.Group
	for i, c := range participants {
		g.Go(func() error {
			ins := transport.FitIns{
				Round:      round,
				Parameters: global,
				Config:     maps.Clone(d.cfg.FitConfig),
			}
			update, err := c.Fit(rctx, ins)
			switch {
			case rctx.Err() != nil:
				err = fmt.Errorf("%w: %w", transport.ErrClientTimeout, rctx.Err())
			case err == nil:
				if update.ClientID == "" {
					update.ClientID = c.ID()
				}
				if update.Round == 0 {
					update.Round = round
				}
				if update.ClientID != c.ID() || update.Round != round {
					err = errClientMismatch
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if !closed {
				replies[i], errs[i], answered[i] = update, err, true
			}

			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-rctx.Done():
	}

	mu.Lock()
	closed = true
	for i := range participants {
		if !answered[i] {
			errs[i] = fmt.Errorf("%w: %w", transport.ErrClientTimeout, rctx.Err())
		}
	}
	mu.Unlock()

	updates := make([]fl.ClientUpdate, 0, len(participants))
	var failures []string
	for i, c := range participants {
		if errs[i] != nil {
			d.logger.Warn("Client failed",
				slog.String("client_id", c.ID()),
				slog.Int("round", round),
				slog.Any("error", errs[i]),
			)
			failures = append(failures, c.ID())

			continue
		}
		updates = append(updates, replies[i])
	}

	return updates, failures
}

func (d *Driver) abandon(round int) fl.RoundResult {
	d.strategy.Finish()
	res := fl.RoundResult{
		Round:  round,
		Status: fl.StatusAbandoned,
		Error:  "stopped before the round completed",
	}
	d.logger.Warn("Round abandoned", slog.Int("round", round))
	d.record(res)

	return res
}

func (d *Driver) record(res fl.RoundResult) {
	if res.Round == 0 {
		return
	}
	d.rounds.With("status", string(res.Status)).Add(1)
	if res.Report != nil {
		d.prauc.Observe(res.Report.PRAUC)
	}
	if err := d.journal.SaveRound(res); err != nil {
		d.logger.Warn("Failed to journal round", slog.Int("round", res.Round), slog.Any("error", err))
	}
}
