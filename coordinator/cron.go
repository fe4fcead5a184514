package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/absmach/fedround/pkg/cron"
	pkgerrors "github.com/absmach/fedround/pkg/errors"
)

const defaultCronCheckInterval = time.Second

// RunScheduler starts a training run every time its cron schedule fires.
// Activations that find a run still in progress are skipped.
type RunScheduler struct {
	svc           Service
	schedule      *cron.Schedule
	logger        *slog.Logger
	checkInterval time.Duration
	now           func() time.Time
}

type RunSchedulerOption func(*RunScheduler)

func WithCheckInterval(d time.Duration) RunSchedulerOption {
	return func(rs *RunScheduler) { rs.checkInterval = d }
}

// WithClock replaces time.Now as the scheduler's time source.
func WithClock(now func() time.Time) RunSchedulerOption {
	return func(rs *RunScheduler) { rs.now = now }
}

func NewRunScheduler(svc Service, schedule *cron.Schedule, logger *slog.Logger, opts ...RunSchedulerOption) *RunScheduler {
	rs := &RunScheduler{
		svc:           svc,
		schedule:      schedule,
		logger:        logger,
		checkInterval: defaultCronCheckInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(rs)
	}

	return rs
}

// Start blocks until ctx is done.
func (rs *RunScheduler) Start(ctx context.Context) error {
	next := rs.schedule.Next(rs.now())

	ticker := time.NewTicker(rs.checkInterval)
	defer ticker.Stop()

	rs.logger.Info("run scheduler started",
		slog.String("schedule", rs.schedule.String()),
		slog.Time("next_run", next))

	for {
		select {
		case <-ctx.Done():
			rs.logger.Info("run scheduler stopping")

			return nil
		case <-ticker.C:
			now := rs.now()
			if now.Before(next) {
				continue
			}
			rs.trigger(ctx)
			next = rs.schedule.Next(now)
			rs.logger.Debug("updated next scheduled run", slog.Time("next_run", next))
		}
	}
}

func (rs *RunScheduler) trigger(ctx context.Context) {
	run, err := rs.svc.StartRun(ctx)
	switch {
	case errors.Is(err, pkgerrors.ErrRunInProgress):
		rs.logger.Warn("skipping scheduled run, previous run still in progress")
	case err != nil:
		rs.logger.Error("failed to start scheduled run", slog.String("error", err.Error()))
	default:
		rs.logger.Info("scheduled run started", slog.String("run_id", run.ID))
	}
}
