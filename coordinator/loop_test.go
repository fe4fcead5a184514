package coordinator_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/pkg/events"
	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/roundconfig"
	"github.com/absmach/fedround/pkg/storage"
	"github.com/absmach/fedround/pkg/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSessionCompletes(t *testing.T) {
	t.Parallel()

	acc := &countingAccelerator{}
	emitter := &recordingEmitter{}
	store := storage.NewMemoryCheckpointStore()
	loop, err := coordinator.NewLoop(
		coordinator.LoopConfig{Sessions: 1, Rounds: 3},
		newPool(t, 3, 0), newModel, newStrategy(nil), logger,
		coordinator.WithAccelerator(acc),
		coordinator.WithEmitter(emitter),
		coordinator.WithCheckpoints(store),
	)
	require.NoError(t, err)

	report := loop.RunSession(context.Background(), "run", 1)
	assert.Equal(t, coordinator.SessionCompleted, report.Status)
	assert.Equal(t, "run-01", report.SessionID)
	assert.Equal(t, 3, report.CompletedRounds)
	assert.Zero(t, report.SkippedRounds)
	assert.Equal(t, 3, report.FinalVersion)
	// 0 -> 0.5 -> 0.75 -> 0.875, evaluated against target 1.
	assert.InDelta(t, 0.125*0.125, report.FinalLoss, 1e-12)
	assert.Empty(t, report.Error)

	assert.EqualValues(t, 1, acc.acquired.Load())
	assert.EqualValues(t, 1, acc.released.Load())

	versions, err := store.ListModels(context.Background(), report.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, versions)

	cp, err := store.LoadModel(context.Background(), report.SessionID, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.875, cp.State.Parameters[0].Data[0], 1e-12)
	assert.Equal(t, 3, cp.State.Round)

	rounds, err := store.ListRounds(context.Background(), report.SessionID)
	require.NoError(t, err)
	require.Len(t, rounds, 6)
	for i, rec := range rounds {
		assert.Equal(t, i/2+1, rec.Round)
		assert.Equal(t, fl.RoundCompleted, rec.Status)
		assert.Equal(t, 3, rec.Contributors)
	}
	assert.Equal(t, fl.PhaseFit, rounds[0].Phase)
	assert.Equal(t, fl.PhaseEvaluate, rounds[1].Phase)

	assert.Equal(t, 1, emitter.count(events.SessionStarted))
	assert.Equal(t, 6, emitter.count(events.RoundFinished))
	assert.Equal(t, 4, emitter.count(events.ModelApplied))
	assert.Equal(t, 1, emitter.count(events.SessionFinished))
}

func TestRunSessionSkipsInsufficientRounds(t *testing.T) {
	t.Parallel()

	acc := &countingAccelerator{}
	store := storage.NewMemoryCheckpointStore()
	loop, err := coordinator.NewLoop(
		coordinator.LoopConfig{Sessions: 1, Rounds: 3},
		newPool(t, 2, 0), newModel, newStrategy(nil), logger,
		coordinator.WithAccelerator(acc),
		coordinator.WithCheckpoints(store),
	)
	require.NoError(t, err)

	report := loop.RunSession(context.Background(), "run", 1)
	assert.Equal(t, coordinator.SessionCompleted, report.Status)
	assert.Zero(t, report.CompletedRounds)
	assert.Equal(t, 3, report.SkippedRounds)
	assert.Zero(t, report.FinalVersion)
	assert.EqualValues(t, 1, acc.released.Load())

	rounds, err := store.ListRounds(context.Background(), report.SessionID)
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	for _, rec := range rounds {
		assert.Equal(t, fl.PhaseFit, rec.Phase)
		assert.Equal(t, fl.RoundInsufficientParticipants, rec.Status)
		assert.NotEmpty(t, rec.Error)
	}
}

func TestRunSessionAborts(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc        string
		newModel    coordinator.ModelFactory
		newStrategy coordinator.StrategyFactory
		version     int
	}{
		{
			desc:        "model construction fails",
			newModel:    func() (fl.GlobalModelState, error) { return fl.GlobalModelState{}, errBroken },
			newStrategy: newStrategy(nil),
		},
		{
			desc:     "strategy construction fails",
			newModel: newModel,
			newStrategy: func(fl.GlobalModelState) (*strategy.Strategy, error) {
				return nil, errBroken
			},
		},
		{
			desc:     "round configuration is invalid",
			newModel: newModel,
			newStrategy: newStrategy(func(c *strategy.Config) {
				c.OnFitConfig = func(round int) roundconfig.FitConfig {
					cfg := generator.Fit(round)
					if round == 2 {
						cfg.TrainBatchSize = -1
					}

					return cfg
				}
			}),
			version: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			acc := &countingAccelerator{}
			loop, err := coordinator.NewLoop(
				coordinator.LoopConfig{Sessions: 1, Rounds: 3},
				newPool(t, 3, 0), tc.newModel, tc.newStrategy, logger,
				coordinator.WithAccelerator(acc),
			)
			require.NoError(t, err)

			report := loop.RunSession(context.Background(), "run", 1)
			assert.Equal(t, coordinator.SessionAborted, report.Status)
			assert.NotEmpty(t, report.Error)
			assert.Equal(t, tc.version, report.FinalVersion)
			assert.EqualValues(t, 1, acc.acquired.Load())
			assert.EqualValues(t, 1, acc.released.Load(), "accelerator is released on abort")
		})
	}
}

func TestRunSessionAcquireFails(t *testing.T) {
	t.Parallel()

	acc := &countingAccelerator{acquireErr: errBroken}
	loop, err := coordinator.NewLoop(
		coordinator.LoopConfig{Sessions: 1, Rounds: 1},
		newPool(t, 3, 0), newModel, newStrategy(nil), logger,
		coordinator.WithAccelerator(acc),
	)
	require.NoError(t, err)

	report := loop.RunSession(context.Background(), "run", 1)
	assert.Equal(t, coordinator.SessionAborted, report.Status)
	assert.Zero(t, acc.released.Load())
}

func TestRunSessionsAreIndependent(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	flaky := func() (fl.GlobalModelState, error) {
		if calls.Add(1) == 2 {
			return fl.GlobalModelState{}, errBroken
		}

		return newModel()
	}

	acc := &countingAccelerator{}
	emitter := &recordingEmitter{}
	loop, err := coordinator.NewLoop(
		coordinator.LoopConfig{Sessions: 3, Rounds: 2, Pause: time.Millisecond},
		newPool(t, 3, 0), flaky, newStrategy(nil), logger,
		coordinator.WithAccelerator(acc),
		coordinator.WithEmitter(emitter),
	)
	require.NoError(t, err)

	reports, err := loop.Run(context.Background(), "run")
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, coordinator.SessionCompleted, reports[0].Status)
	assert.Equal(t, coordinator.SessionAborted, reports[1].Status)
	assert.Equal(t, coordinator.SessionCompleted, reports[2].Status)
	assert.Equal(t, 2, reports[0].FinalVersion)
	assert.Equal(t, 2, reports[2].FinalVersion, "each session starts from a fresh model")
	assert.Equal(t, "run-03", reports[2].SessionID)

	assert.EqualValues(t, 2, acc.acquired.Load())
	assert.EqualValues(t, 2, acc.released.Load())
	assert.Equal(t, 1, emitter.count(events.RunStarted))
	assert.Equal(t, 1, emitter.count(events.RunFinished))
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	acc := &countingAccelerator{}
	loop, err := coordinator.NewLoop(
		coordinator.LoopConfig{Sessions: 5, Rounds: 100},
		newPool(t, 3, 20*time.Millisecond), newModel, newStrategy(nil), logger,
		coordinator.WithAccelerator(acc),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	reports, err := loop.Run(ctx, "run")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, reports, 1)
	assert.Equal(t, coordinator.SessionCancelled, reports[0].Status)
	assert.Equal(t, acc.acquired.Load(), acc.released.Load())
}

func TestRunSessionWaitsForParticipants(t *testing.T) {
	t.Parallel()

	pool := newPool(t, 2, 0)
	loop, err := coordinator.NewLoop(
		coordinator.LoopConfig{Sessions: 1, Rounds: 1, WaitForParticipants: 5 * time.Second, MinParticipants: 3},
		pool, newModel, newStrategy(nil), logger,
	)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = pool.Add(&constProxy{id: "z", target: 1})
	}()

	report := loop.RunSession(context.Background(), "run", 1)
	assert.Equal(t, 1, report.CompletedRounds)
}

func TestNewLoopValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc string
		cfg  coordinator.LoopConfig
	}{
		{desc: "no sessions", cfg: coordinator.LoopConfig{Sessions: 0, Rounds: 1}},
		{desc: "no rounds", cfg: coordinator.LoopConfig{Sessions: 1, Rounds: 0}},
		{desc: "negative pause", cfg: coordinator.LoopConfig{Sessions: 1, Rounds: 1, Pause: -time.Second}},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			_, err := coordinator.NewLoop(tc.cfg, newPool(t, 1, 0), newModel, newStrategy(nil), logger)
			assert.ErrorIs(t, err, fl.ErrConfiguration)
		})
	}

	_, err := coordinator.NewLoop(coordinator.LoopConfig{Sessions: 1, Rounds: 1}, nil, newModel, newStrategy(nil), logger)
	assert.ErrorIs(t, err, fl.ErrConfiguration)
}
