package coordinator_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/pkg/accelerator"
	"github.com/absmach/fedround/pkg/events"
	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/participant"
	"github.com/absmach/fedround/pkg/roundconfig"
	"github.com/absmach/fedround/pkg/scheduler"
	"github.com/absmach/fedround/pkg/strategy"
	"github.com/stretchr/testify/require"
)

var (
	generator = roundconfig.NewGenerator(roundconfig.DefaultOptions())
	logger    = slog.New(slog.DiscardHandler)
)

// constProxy moves the model one step towards target on every fit.
type constProxy struct {
	id     string
	target float64
	delay  time.Duration
}

func (p *constProxy) ID() string { return p.id }

func (p *constProxy) Fit(ctx context.Context, ins participant.FitIns) (fl.FitResult, error) {
	if err := p.wait(ctx); err != nil {
		return fl.FitResult{}, err
	}
	params := ins.Parameters.Clone()
	for i := range params {
		for j := range params[i].Data {
			params[i].Data[j] = (params[i].Data[j] + p.target) / 2
		}
	}

	return fl.FitResult{ParticipantID: p.id, Parameters: params, NumExamples: 10}, nil
}

func (p *constProxy) Evaluate(ctx context.Context, ins participant.EvaluateIns) (fl.EvaluateResult, error) {
	if err := p.wait(ctx); err != nil {
		return fl.EvaluateResult{}, err
	}
	diff := ins.Parameters[0].Data[0] - p.target

	return fl.EvaluateResult{ParticipantID: p.id, Loss: diff * diff, NumExamples: 10}, nil
}

func (p *constProxy) wait(ctx context.Context) error {
	if p.delay == 0 {
		return nil
	}
	select {
	case <-time.After(p.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newPool(t *testing.T, n int, delay time.Duration) *participant.Pool {
	t.Helper()

	pool := participant.NewPool()
	for i := range n {
		require.NoError(t, pool.Add(&constProxy{id: string(rune('a' + i)), target: 1, delay: delay}))
	}

	return pool
}

func newModel() (fl.GlobalModelState, error) {
	return fl.GlobalModelState{
		Parameters: fl.Zeros([]int{1}),
		Descriptor: fl.Descriptor{Architecture: "linear"},
	}, nil
}

func newStrategy(mutate func(*strategy.Config)) coordinator.StrategyFactory {
	return func(initial fl.GlobalModelState) (*strategy.Strategy, error) {
		cfg := strategy.DefaultConfig(generator)
		cfg.RoundTimeout = time.Second
		if mutate != nil {
			mutate(&cfg)
		}

		return strategy.New(cfg, initial, scheduler.NewSeeded(1), logger)
	}
}

type countingAccelerator struct {
	acquired   atomic.Int32
	released   atomic.Int32
	acquireErr error
}

func (a *countingAccelerator) Acquire(context.Context) (accelerator.Usage, error) {
	if a.acquireErr != nil {
		return accelerator.Usage{}, a.acquireErr
	}
	a.acquired.Add(1)

	return accelerator.Usage{Timestamp: time.Now()}, nil
}

func (a *countingAccelerator) Release(context.Context) (accelerator.Release, error) {
	a.released.Add(1)

	return accelerator.Release{}, nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (e *recordingEmitter) Emit(_ context.Context, ev events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.events = append(e.events, ev)

	return nil
}

func (e *recordingEmitter) count(typ events.Type) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, ev := range e.events {
		if ev.Type == typ {
			n++
		}
	}

	return n
}

var errBroken = errors.New("broken factory")
