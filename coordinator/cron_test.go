package coordinator_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/coordinator/mocks"
	"github.com/absmach/fedround/pkg/cron"
	pkgerrors "github.com/absmach/fedround/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

func TestRunScheduler(t *testing.T) {
	t.Parallel()

	schedule, err := cron.Parse("* * * * *", "")
	require.NoError(t, err)

	start := time.Date(2026, 3, 10, 12, 0, 30, 0, time.UTC)
	clock := &fakeClock{now: start}

	triggered := make(chan struct{}, 10)
	notify := func(mock.Arguments) { triggered <- struct{}{} }

	svc := new(mocks.Service)
	svc.On("StartRun", mock.Anything).Return(coordinator.Run{ID: "r1", Status: coordinator.RunRunning}, nil).Run(notify).Once()
	svc.On("StartRun", mock.Anything).Return(coordinator.Run{}, pkgerrors.ErrRunInProgress).Run(notify)

	rs := coordinator.NewRunScheduler(svc, schedule, logger,
		coordinator.WithCheckInterval(5*time.Millisecond),
		coordinator.WithClock(clock.Now),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- rs.Start(ctx)
	}()

	expectTrigger := func(want bool) {
		t.Helper()
		select {
		case <-triggered:
			assert.True(t, want, "unexpected scheduled run")
		case <-time.After(100 * time.Millisecond):
			assert.False(t, want, "scheduled run did not start")
		}
	}

	expectTrigger(false)

	clock.Set(start.Add(40 * time.Second))
	expectTrigger(true)
	expectTrigger(false)

	clock.Set(start.Add(100 * time.Second))
	expectTrigger(true)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
