package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/absmach/fedfraud/pkg/artifact"
	"github.com/absmach/fedfraud/pkg/dataset"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/fedfraud/pkg/model"
	"github.com/absmach/fedfraud/pkg/notifier"
)

// State is the position of the strategy in its round cycle.
type State string

const (
	StateIdle            State = "idle"
	StateAwaitingUpdates State = "awaiting_updates"
	StateAggregating     State = "aggregating"
	StateEvaluating      State = "evaluating"
	StateDone            State = "done"
)

var (
	ErrStartup           = errors.New("coordinator cannot start")
	ErrStrategyDone      = errors.New("all rounds have been run")
	ErrInvalidTransition = errors.New("invalid round transition")

	errDuplicateUpdate = errors.New("duplicate update")
)

// Strategy turns the updates of one round into new global parameters,
// evaluates them and keeps the best model seen so far.
type Strategy interface {
	// Begin opens round for updates. Rounds are numbered from 1 and must
	// be opened in order.
	Begin(round int) error
	// Aggregate closes the open round. A quorum failure yields a result
	// with StatusQuorumFailure and a nil error.
	Aggregate(ctx context.Context, round int, updates []fl.ClientUpdate, failures []string) (fl.RoundResult, error)
	// Parameters returns a copy of the current global parameters.
	Parameters() fl.Parameters
	// Best returns the best model, or false before any round improved on it.
	Best() (fl.BestModel, bool)
	State() (State, int)
	// Finish moves the strategy to its terminal state.
	Finish()
}

type StrategyConfig struct {
	NumRounds       int
	MinParticipants int
	BestModelName   string
}

type strategy struct {
	cfg        StrategyConfig
	aggregator fl.Aggregator
	test       dataset.Dataset
	store      artifact.Store
	notifier   notifier.Notifier
	logger     *slog.Logger

	// mu serializes round transitions; phase and best are readable
	// without it while a round is being evaluated.
	mu        sync.Mutex
	completed int
	global    fl.Parameters

	phase atomic.Pointer[phase]
	best  atomic.Pointer[fl.BestModel]
}

type phase struct {
	state State
	round int
}

// NewStrategy checks that it can evaluate initial against test and fails
// with ErrStartup otherwise.
func NewStrategy(cfg StrategyConfig, initial fl.Parameters, test dataset.Dataset, aggregator fl.Aggregator, store artifact.Store, n notifier.Notifier, logger *slog.Logger) (Strategy, error) {
	if cfg.NumRounds < 1 {
		return nil, fmt.Errorf("%w: num_rounds must be positive, got %d", ErrStartup, cfg.NumRounds)
	}
	if cfg.MinParticipants < 1 {
		return nil, fmt.Errorf("%w: min_participants must be positive, got %d", ErrStartup, cfg.MinParticipants)
	}
	if err := test.Validate(); err != nil {
		return nil, fmt.Errorf("%w: held-out dataset: %w", ErrStartup, err)
	}
	net, err := model.FromParameters(initial)
	if err != nil {
		return nil, fmt.Errorf("%w: initial parameters: %w", ErrStartup, err)
	}
	if _, features := test.Shape(); features != net.Features() {
		return nil, fmt.Errorf("%w: model expects %d features, held-out dataset has %d", ErrStartup, net.Features(), features)
	}
	if n == nil {
		n = notifier.NewNoop()
	}

	s := &strategy{
		cfg:        cfg,
		aggregator: aggregator,
		test:       test,
		store:      store,
		notifier:   n,
		logger:     logger,
		global:     initial.Clone(),
	}
	s.set(StateIdle, 0)

	return s, nil
}

func (s *strategy) set(state State, round int) {
	s.phase.Store(&phase{state: state, round: round})
}

func (s *strategy) Begin(round int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.begin(round)
}

func (s *strategy) begin(round int) error {
	cur := s.phase.Load()
	switch {
	case cur.state == StateDone:
		return ErrStrategyDone
	case cur.state != StateIdle:
		return fmt.Errorf("%w: cannot begin round %d while %s in round %d", ErrInvalidTransition, round, cur.state, cur.round)
	case round != s.completed+1:
		return fmt.Errorf("%w: next round is %d, got %d", ErrInvalidTransition, s.completed+1, round)
	}
	s.set(StateAwaitingUpdates, round)

	return nil
}

func (s *strategy) Aggregate(ctx context.Context, round int, updates []fl.ClientUpdate, failures []string) (fl.RoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase.Load().state == StateIdle {
		if err := s.begin(round); err != nil {
			return fl.RoundResult{}, err
		}
	}
	switch cur := s.phase.Load(); {
	case cur.state == StateDone:
		return fl.RoundResult{}, ErrStrategyDone
	case cur.state != StateAwaitingUpdates || round != cur.round:
		return fl.RoundResult{}, fmt.Errorf("%w: cannot aggregate round %d while %s in round %d", ErrInvalidTransition, round, cur.state, cur.round)
	}
	defer s.close(round)

	accepted, failed := s.admit(round, updates, failures)
	res := fl.RoundResult{
		Round:      round,
		Failures:   failed,
		NumUpdates: len(accepted),
	}

	if len(accepted) < s.cfg.MinParticipants {
		res.Status = fl.StatusQuorumFailure
		res.Error = fmt.Sprintf("%d successful updates, quorum is %d", len(accepted), s.cfg.MinParticipants)

		return res, nil
	}

	s.set(StateAggregating, round)
	params, err := s.aggregator.Aggregate(accepted)
	if err != nil {
		res.Status = fl.StatusFailed
		res.Error = err.Error()

		return res, fmt.Errorf("round %d aggregation: %w", round, err)
	}

	s.set(StateEvaluating, round)
	report, err := s.evaluate(ctx, params)
	if err != nil {
		res.Status = fl.StatusFailed
		res.Error = err.Error()

		return res, fmt.Errorf("round %d evaluation: %w", round, err)
	}
	report.Round = round

	s.global = params
	res.Status = fl.StatusCompleted
	res.Parameters = params
	res.Report = &report

	rounded := report.Rounded()
	s.logger.Info("Round evaluated",
		slog.Int("round", round),
		slog.Int("num_updates", len(accepted)),
		slog.Float64("accuracy", rounded.Accuracy),
		slog.Float64("precision", rounded.Precision),
		slog.Float64("recall", rounded.Recall),
		slog.Float64("f1_score", rounded.F1),
		slog.Float64("pr_auc", rounded.PRAUC),
		slog.Float64("threshold", rounded.Threshold),
	)
	if err := s.notifier.RoundCompleted(ctx, report); err != nil {
		s.logger.Warn("Failed to deliver round metrics", slog.Int("round", round), slog.Any("error", err))
	}

	res.NewBest = s.promote(ctx, round, params, report)

	return res, nil
}

// admit keeps updates that can be averaged with the global parameters.
// Rejected clients are appended to failures.
func (s *strategy) admit(round int, updates []fl.ClientUpdate, failures []string) ([]fl.ClientUpdate, []string) {
	failed := append([]string(nil), failures...)
	seen := make(map[string]bool, len(updates))
	accepted := make([]fl.ClientUpdate, 0, len(updates))

	for _, u := range updates {
		var reason error
		switch {
		case seen[u.ClientID]:
			reason = errDuplicateUpdate
		case u.NumSamples < 1:
			reason = fl.ErrInvalidSampleCount
		case !u.Parameters.SameShape(s.global):
			reason = fl.ErrShapeMismatch
		default:
			reason = u.Parameters.Validate()
		}
		if reason != nil {
			s.logger.Warn("Rejected client update",
				slog.String("client_id", u.ClientID),
				slog.Int("round", round),
				slog.Any("reason", reason),
			)
			failed = append(failed, u.ClientID)

			continue
		}
		seen[u.ClientID] = true
		accepted = append(accepted, u)
	}

	return accepted, failed
}

func (s *strategy) evaluate(ctx context.Context, params fl.Parameters) (fl.EvaluationReport, error) {
	net, err := model.FromParameters(params)
	if err != nil {
		return fl.EvaluationReport{}, err
	}
	probs, err := net.Predict(ctx, s.test.X)
	if err != nil {
		return fl.EvaluationReport{}, err
	}

	threshold := fl.SelectThreshold(probs, s.test.Y)
	report, err := fl.Evaluate(probs, s.test.Y, threshold)
	if err != nil {
		return fl.EvaluationReport{}, err
	}
	report.Threshold = threshold

	return report, nil
}

// promote replaces the best model when report strictly improves PR-AUC.
func (s *strategy) promote(ctx context.Context, round int, params fl.Parameters, report fl.EvaluationReport) bool {
	var bestPRAUC float64
	if cur := s.best.Load(); cur != nil {
		bestPRAUC = cur.PRAUC
	}
	if report.PRAUC <= bestPRAUC {
		return false
	}

	best := &fl.BestModel{
		Round:      round,
		Parameters: params.Clone(),
		PRAUC:      report.PRAUC,
		Threshold:  report.Threshold,
		SavedAt:    time.Now().UTC(),
	}
	if s.store != nil {
		if err := s.store.Save(ctx, s.cfg.BestModelName, *best); err != nil {
			s.logger.Error("Failed to persist best model", slog.Int("round", round), slog.Any("error", err))
		}
	}
	s.best.Store(best)

	s.logger.Info("New best model",
		slog.Int("round", round),
		slog.Float64("pr_auc", fl.Round6(best.PRAUC)),
		slog.Float64("previous_pr_auc", fl.Round6(bestPRAUC)),
		slog.Float64("threshold", fl.Round6(best.Threshold)),
	)
	if err := s.notifier.NewBest(ctx, *best); err != nil {
		s.logger.Warn("Failed to deliver new best threshold", slog.Int("round", round), slog.Any("error", err))
	}

	return true
}

func (s *strategy) close(round int) {
	s.completed = round
	if s.completed >= s.cfg.NumRounds {
		s.set(StateDone, round)

		return
	}
	s.set(StateIdle, round)
}

func (s *strategy) Parameters() fl.Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.global.Clone()
}

func (s *strategy) Best() (fl.BestModel, bool) {
	best := s.best.Load()
	if best == nil {
		return fl.BestModel{}, false
	}

	return *best, true
}

func (s *strategy) State() (State, int) {
	cur := s.phase.Load()

	return cur.state, cur.round
}

func (s *strategy) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set(StateDone, s.phase.Load().round)
}
