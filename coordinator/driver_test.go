package coordinator_test

import (
	"context"
	"testing"
	"time"

	"github.com/absmach/fedfraud/coordinator"
	"github.com/absmach/fedfraud/pkg/artifact"
	"github.com/absmach/fedfraud/pkg/dataset"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/fedfraud/pkg/model"
	"github.com/absmach/fedfraud/pkg/notifier"
	notmocks "github.com/absmach/fedfraud/pkg/notifier/mocks"
	"github.com/absmach/fedfraud/pkg/transport"
	"github.com/absmach/fedfraud/pkg/transport/local"
	"github.com/absmach/fedfraud/pkg/transport/mocks"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func driverConfig(rounds, quorum int) coordinator.DriverConfig {
	return coordinator.DriverConfig{
		NumRounds:           rounds,
		MinParticipants:     quorum,
		MinAvailable:        1,
		FractionParticipate: 1,
		RoundTimeout:        time.Second,
	}
}

func newDriver(t *testing.T, cfg coordinator.DriverConfig, clients []transport.Client, journal coordinator.Journal) (*coordinator.Driver, coordinator.Strategy) {
	t.Helper()

	s, err := coordinator.NewStrategy(
		coordinator.StrategyConfig{NumRounds: cfg.NumRounds, MinParticipants: cfg.MinParticipants},
		model.NewParameters(features, units, 1), testData(), fl.NewFedAvgAggregator(), nil, notifier.NewNoop(), logger,
	)
	require.NoError(t, err)

	d, err := coordinator.NewDriver(cfg, clients, s, journal, discard.NewCounter(), discard.NewHistogram(), logger)
	require.NoError(t, err)

	return d, s
}

// echoClient returns the parameters it was sent.
func echoClient(id string, samples int) *mocks.MockClient {
	c := mocks.NewMockClient(id)
	c.On("Fit", mock.Anything, mock.Anything).Return(func(_ context.Context, ins transport.FitIns) (fl.ClientUpdate, error) {
		return fl.ClientUpdate{
			ClientID:   id,
			Round:      ins.Round,
			Parameters: ins.Parameters.Clone(),
			NumSamples: samples,
		}, nil
	})

	return c
}

func TestNewDriverStartupFailures(t *testing.T) {
	t.Parallel()

	s, err := coordinator.NewStrategy(
		coordinator.StrategyConfig{NumRounds: 1, MinParticipants: 1},
		model.NewParameters(features, units, 1), testData(), fl.NewFedAvgAggregator(), nil, nil, logger,
	)
	require.NoError(t, err)

	cases := []struct {
		name    string
		cfg     coordinator.DriverConfig
		clients []transport.Client
	}{
		{
			name: "no clients",
			cfg:  driverConfig(1, 1),
		},
		{
			name: "fewer than min available",
			cfg: func() coordinator.DriverConfig {
				cfg := driverConfig(1, 1)
				cfg.MinAvailable = 3

				return cfg
			}(),
			clients: []transport.Client{mocks.NewMockClient("a"), mocks.NewMockClient("b")},
		},
		{
			name:    "duplicate ids",
			cfg:     driverConfig(1, 1),
			clients: []transport.Client{mocks.NewMockClient("a"), mocks.NewMockClient("a")},
		},
		{
			name: "fraction out of range",
			cfg: func() coordinator.DriverConfig {
				cfg := driverConfig(1, 1)
				cfg.FractionParticipate = 1.5

				return cfg
			}(),
			clients: []transport.Client{mocks.NewMockClient("a")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := coordinator.NewDriver(tc.cfg, tc.clients, s, coordinator.NewMemoryJournal(), discard.NewCounter(), discard.NewHistogram(), logger)
			assert.ErrorIs(t, err, coordinator.ErrStartup)
		})
	}
}

func TestDriverSamplesByRotation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		fraction float64
		quorum   int
		calls    []int
	}{
		{
			name:     "half of the clients",
			fraction: 0.5,
			quorum:   1,
			calls:    []int{2, 2, 1, 1},
		},
		{
			name:     "quorum above fraction",
			fraction: 0.25,
			quorum:   3,
			calls:    []int{3, 2, 2, 2},
		},
		{
			name:     "everyone",
			fraction: 1,
			quorum:   1,
			calls:    []int{3, 3, 3, 3},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ids := []string{"c0", "c1", "c2", "c3"}
			mcs := make([]*mocks.MockClient, len(ids))
			clients := make([]transport.Client, len(ids))
			for i, id := range ids {
				mcs[i] = echoClient(id, 10)
				clients[i] = mcs[i]
			}

			cfg := driverConfig(3, tc.quorum)
			cfg.FractionParticipate = tc.fraction
			d, _ := newDriver(t, cfg, clients, coordinator.NewMemoryJournal())

			results, err := d.Run(context.Background())
			require.NoError(t, err)
			require.Len(t, results, 3)
			for i, mc := range mcs {
				mc.AssertNumberOfCalls(t, "Fit", tc.calls[i])
			}
		})
	}
}

func TestDriverClientFailures(t *testing.T) {
	t.Parallel()

	slow := mocks.NewMockClient("slow")
	slow.On("Fit", mock.Anything, mock.Anything).Return(func(ctx context.Context, _ transport.FitIns) (fl.ClientUpdate, error) {
		<-ctx.Done()

		return fl.ClientUpdate{}, ctx.Err()
	})
	impostor := mocks.NewMockClient("impostor")
	impostor.On("Fit", mock.Anything, mock.Anything).Return(fl.ClientUpdate{ClientID: "someone-else", NumSamples: 1}, nil)
	broken := mocks.NewMockClient("broken")
	broken.On("Fit", mock.Anything, mock.Anything).Return(fl.ClientUpdate{}, transport.ErrClientFailed)

	clients := []transport.Client{echoClient("ok", 10), slow, impostor, broken}
	cfg := driverConfig(1, 1)
	cfg.RoundTimeout = 50 * time.Millisecond
	journal := coordinator.NewMemoryJournal()
	d, _ := newDriver(t, cfg, clients, journal)

	results, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, fl.StatusCompleted, res.Status)
	assert.Equal(t, 1, res.NumUpdates)
	assert.Equal(t, []string{"slow", "impostor", "broken"}, res.Failures)
	assert.Nil(t, res.Parameters)

	saved, err := journal.LoadRound(1)
	require.NoError(t, err)
	assert.Equal(t, res, saved)
}

func TestDriverLateRepliesAreTimeouts(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	late := mocks.NewMockClient("late")
	late.On("Fit", mock.Anything, mock.Anything).Return(func(_ context.Context, ins transport.FitIns) (fl.ClientUpdate, error) {
		time.Sleep(200 * time.Millisecond)

		return fl.ClientUpdate{ClientID: "late", Round: ins.Round, Parameters: ins.Parameters.Clone(), NumSamples: 5}, nil
	})
	stuck := mocks.NewMockClient("stuck")
	stuck.On("Fit", mock.Anything, mock.Anything).Return(func(_ context.Context, ins transport.FitIns) (fl.ClientUpdate, error) {
		<-release

		return fl.ClientUpdate{ClientID: "stuck", Round: ins.Round, Parameters: ins.Parameters.Clone(), NumSamples: 5}, nil
	})

	cfg := driverConfig(1, 1)
	cfg.RoundTimeout = 50 * time.Millisecond
	d, _ := newDriver(t, cfg, []transport.Client{echoClient("ok", 10), late, stuck}, coordinator.NewMemoryJournal())

	start := time.Now()
	res, err := d.RunRound(context.Background(), 1)
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Less(t, elapsed, 150*time.Millisecond)
	assert.Equal(t, fl.StatusCompleted, res.Status)
	assert.Equal(t, 1, res.NumUpdates)
	assert.Equal(t, []string{"late", "stuck"}, res.Failures)
}

func TestDriverQuorumFailureContinues(t *testing.T) {
	t.Parallel()

	broken := mocks.NewMockClient("broken")
	broken.On("Fit", mock.Anything, mock.Anything).Return(fl.ClientUpdate{}, transport.ErrClientFailed)

	d, s := newDriver(t, driverConfig(2, 2), []transport.Client{echoClient("ok", 10), broken}, coordinator.NewMemoryJournal())
	initial := s.Parameters().Clone()

	results, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for i, res := range results {
		assert.Equal(t, i+1, res.Round)
		assert.Equal(t, fl.StatusQuorumFailure, res.Status)
	}
	assert.Equal(t, initial, s.Parameters())

	state, _ := s.State()
	assert.Equal(t, coordinator.StateDone, state)
}

func TestDriverAbandonsOnCancel(t *testing.T) {
	t.Parallel()

	t.Run("before the first round", func(t *testing.T) {
		t.Parallel()

		d, s := newDriver(t, driverConfig(3, 1), []transport.Client{echoClient("a", 1)}, coordinator.NewMemoryJournal())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results, err := d.Run(ctx)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, fl.StatusAbandoned, results[0].Status)

		state, _ := s.State()
		assert.Equal(t, coordinator.StateDone, state)
	})

	t.Run("during a round", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		c := mocks.NewMockClient("a")
		c.On("Fit", mock.Anything, mock.Anything).Return(func(ctx context.Context, _ transport.FitIns) (fl.ClientUpdate, error) {
			cancel()
			<-ctx.Done()

			return fl.ClientUpdate{}, ctx.Err()
		})

		journal := coordinator.NewMemoryJournal()
		d, s := newDriver(t, driverConfig(3, 1), []transport.Client{c}, journal)

		results, err := d.Run(ctx)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, fl.StatusAbandoned, results[0].Status)

		state, _ := s.State()
		assert.Equal(t, coordinator.StateDone, state)

		rounds, err := journal.ListRounds()
		require.NoError(t, err)
		assert.Len(t, rounds, 1)
	})
}

func TestTwoClientsThreeRounds(t *testing.T) {
	t.Parallel()

	train := model.TrainConfig{Epochs: 1, BatchSize: 32, LearningRate: 0.05, PositiveWeight: 3, Seed: 1}
	clients := []transport.Client{
		local.NewClient("client-1", dataset.Synthetic(80, 4, features, 0.25, 11), train),
		local.NewClient("client-2", dataset.Synthetic(60, 4, features, 0.25, 12), train),
	}

	n := new(notmocks.MockNotifier)
	n.On("RoundCompleted", mock.Anything, mock.Anything).Return(nil)
	n.On("NewBest", mock.Anything, mock.Anything).Return(nil)
	store := artifact.NewFileStore(t.TempDir())

	s, err := coordinator.NewStrategy(
		coordinator.StrategyConfig{NumRounds: 3, MinParticipants: 2, BestModelName: "best_federated_model"},
		model.NewParameters(features, units, 1), testData(), fl.NewFedAvgAggregator(), store, n, logger,
	)
	require.NoError(t, err)

	journal, err := coordinator.NewFileJournal(t.TempDir())
	require.NoError(t, err)

	cfg := driverConfig(3, 2)
	cfg.MinAvailable = 2
	cfg.RoundTimeout = 30 * time.Second
	d, err := coordinator.NewDriver(cfg, clients, s, journal, discard.NewCounter(), discard.NewHistogram(), logger)
	require.NoError(t, err)

	results, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	var best float64
	improvements := 0
	for _, res := range results {
		require.Equal(t, fl.StatusCompleted, res.Status)
		require.NotNil(t, res.Report)
		assert.Equal(t, 2, res.NumUpdates)
		if res.NewBest {
			assert.Greater(t, res.Report.PRAUC, best)
			best = res.Report.PRAUC
			improvements++

			continue
		}
		assert.LessOrEqual(t, res.Report.PRAUC, best)
	}
	assert.GreaterOrEqual(t, improvements, 1)
	n.AssertNumberOfCalls(t, "RoundCompleted", 3)
	n.AssertNumberOfCalls(t, "NewBest", improvements)

	current, ok := s.Best()
	require.True(t, ok)
	assert.Equal(t, best, current.PRAUC)

	saved, err := store.Load(context.Background(), "best_federated_model")
	require.NoError(t, err)
	assert.Equal(t, current.Round, saved.Round)
	assert.Equal(t, current.Threshold, saved.Threshold)

	rounds, err := journal.ListRounds()
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	for i, r := range rounds {
		assert.Equal(t, i+1, r.Round)
	}

	state, _ := s.State()
	assert.Equal(t, coordinator.StateDone, state)
}
