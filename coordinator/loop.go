package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/fedround/pkg/accelerator"
	"github.com/absmach/fedround/pkg/events"
	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/participant"
	"github.com/absmach/fedround/pkg/strategy"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
)

const participantPoll = 500 * time.Millisecond

type LoopConfig struct {
	Sessions int
	Rounds   int
	// Pause separates sessions so the accelerator can settle.
	Pause time.Duration
	// WaitForParticipants bounds how long a session waits for
	// MinParticipants to join before its first round. Zero skips the wait.
	WaitForParticipants time.Duration
	MinParticipants     int
}

func (c LoopConfig) Validate() error {
	switch {
	case c.Sessions < 1:
		return fmt.Errorf("%w: sessions must be positive, got %d", fl.ErrConfiguration, c.Sessions)
	case c.Rounds < 1:
		return fmt.Errorf("%w: rounds must be positive, got %d", fl.ErrConfiguration, c.Rounds)
	case c.Pause < 0, c.WaitForParticipants < 0:
		return fmt.Errorf("%w: durations must not be negative", fl.ErrConfiguration)
	}

	return nil
}

// ModelFactory builds the initial global model of a new session.
type ModelFactory func() (fl.GlobalModelState, error)

// StrategyFactory builds the strategy owning a session's global model.
type StrategyFactory func(initial fl.GlobalModelState) (*strategy.Strategy, error)

// RoundMetrics are updated after every round phase.
type RoundMetrics struct {
	Rounds       metrics.Counter
	Duration     metrics.Histogram
	Contributors metrics.Gauge
	Loss         metrics.Gauge
}

type LoopOption func(*Loop)

func WithAccelerator(acc accelerator.Accelerator) LoopOption {
	return func(l *Loop) { l.acc = acc }
}

func WithEmitter(emitter events.Emitter) LoopOption {
	return func(l *Loop) { l.emitter = emitter }
}

func WithCheckpoints(store fl.CheckpointStore) LoopOption {
	return func(l *Loop) { l.store = store }
}

func WithRoundMetrics(m RoundMetrics) LoopOption {
	return func(l *Loop) { l.metrics = m }
}

// Loop runs independent training sessions one after another.
type Loop struct {
	cfg         LoopConfig
	pool        *participant.Pool
	newModel    ModelFactory
	newStrategy StrategyFactory
	acc         accelerator.Accelerator
	emitter     events.Emitter
	store       fl.CheckpointStore
	metrics     RoundMetrics
	logger      *slog.Logger
}

func NewLoop(cfg LoopConfig, pool *participant.Pool, newModel ModelFactory, newStrategy StrategyFactory, logger *slog.Logger, opts ...LoopOption) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pool == nil || newModel == nil || newStrategy == nil {
		return nil, fmt.Errorf("%w: loop needs a pool, a model factory and a strategy factory", fl.ErrConfiguration)
	}

	l := &Loop{
		cfg:         cfg,
		pool:        pool,
		newModel:    newModel,
		newStrategy: newStrategy,
		acc:         accelerator.NewNoop(),
		emitter:     events.NewNoop(),
		metrics: RoundMetrics{
			Rounds:       discard.NewCounter(),
			Duration:     discard.NewHistogram(),
			Contributors: discard.NewGauge(),
			Loss:         discard.NewGauge(),
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}

	return l, nil
}

// Run executes the configured number of sessions. A failing session does
// not stop the loop; only cancellation of ctx does, in which case ctx's error
// is returned with the reports gathered so far.
func (l *Loop) Run(ctx context.Context, runID string) ([]SessionReport, error) {
	l.emit(ctx, events.Event{Type: events.RunStarted, RunID: runID})

	reports := make([]SessionReport, 0, l.cfg.Sessions)
	for i := 1; i <= l.cfg.Sessions; i++ {
		if i > 1 && l.cfg.Pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(l.cfg.Pause):
			}
		}
		if ctx.Err() != nil {
			break
		}
		reports = append(reports, l.RunSession(ctx, runID, i))
	}

	ev := events.Event{Type: events.RunFinished, RunID: runID, Status: string(RunCompleted)}
	if err := ctx.Err(); err != nil {
		ev.Status = string(RunCancelled)
		ev.Error = err.Error()
	}
	l.emit(context.WithoutCancel(ctx), ev)

	return reports, ctx.Err()
}

// RunSession trains a fresh model for the configured number of rounds. The
// accelerator is held for the whole session and released on every path out.
func (l *Loop) RunSession(ctx context.Context, runID string, index int) (report SessionReport) {
	report = SessionReport{
		SessionID: fmt.Sprintf("%s-%02d", runID, index),
		Index:     index,
		Status:    SessionCompleted,
		StartedAt: time.Now(),
	}
	logger := l.logger.With(slog.String("run_id", runID), slog.String("session_id", report.SessionID))
	l.emit(ctx, events.Event{Type: events.SessionStarted, RunID: runID, SessionID: report.SessionID})

	defer func() {
		report.FinishedAt = time.Now()
		l.emit(context.WithoutCancel(ctx), events.Event{
			Type:      events.SessionFinished,
			RunID:     runID,
			SessionID: report.SessionID,
			Status:    string(report.Status),
			Version:   report.FinalVersion,
			Loss:      report.FinalLoss,
			Error:     report.Error,
		})
		logger.Info("session finished",
			slog.String("status", string(report.Status)),
			slog.Int("completed_rounds", report.CompletedRounds),
			slog.Int("skipped_rounds", report.SkippedRounds),
			slog.Int("version", report.FinalVersion),
		)
	}()

	abort := func(err error) SessionReport {
		report.Status = SessionAborted
		if ctx.Err() != nil {
			report.Status = SessionCancelled
		}
		report.Error = err.Error()
		logger.Error("session aborted", slog.Any("error", err))

		return report
	}

	if _, err := l.acc.Acquire(ctx); err != nil {
		return abort(fmt.Errorf("failed to acquire accelerator: %w", err))
	}
	defer func() {
		rel, err := l.acc.Release(context.WithoutCancel(ctx))
		if err != nil {
			logger.Error("failed to release accelerator", slog.Any("error", err))

			return
		}
		logger.Info("accelerator released",
			slog.Uint64("reclaimed_bytes", rel.Reclaimed()),
			slog.String("held", rel.Held.String()),
		)
	}()

	l.waitForParticipants(ctx, logger)

	initial, err := l.newModel()
	if err != nil {
		return abort(fmt.Errorf("failed to build model: %w", err))
	}
	strat, err := l.newStrategy(initial)
	if err != nil {
		return abort(fmt.Errorf("failed to build strategy: %w", err))
	}
	l.checkpoint(ctx, logger, runID, report.SessionID, strat.State())

	for round := 1; round <= l.cfg.Rounds; round++ {
		if ctx.Err() != nil {
			report.Status = SessionCancelled
			report.Error = ctx.Err().Error()

			break
		}

		rr, err := strat.RunRound(ctx, round, l.pool.Snapshot())
		l.record(ctx, logger, runID, report.SessionID, rr.Round, rr.Fit, fl.PhaseFit)
		if rr.Fit.Err == nil {
			l.checkpoint(ctx, logger, runID, report.SessionID, strat.State())
		}
		if rr.Evaluate != nil {
			l.record(ctx, logger, runID, report.SessionID, rr.Round, *rr.Evaluate, fl.PhaseEvaluate)
			if rr.Evaluate.Err == nil {
				report.FinalLoss = rr.Evaluate.Outcome.Loss
			}
		}

		switch {
		case err == nil:
			report.CompletedRounds++
		case ctx.Err() != nil:
			report.Status = SessionCancelled
			report.Error = ctx.Err().Error()
			report.FinalVersion = strat.State().Version

			return report
		case skippable(err):
			report.SkippedRounds++
			logger.Warn("round skipped", slog.Int("round", round), slog.Any("error", err))
		default:
			report.FinalVersion = strat.State().Version

			return abort(fmt.Errorf("round %d: %w", round, err))
		}
	}
	report.FinalVersion = strat.State().Version

	return report
}

// skippable reports whether a round error leaves the session usable.
func skippable(err error) bool {
	return errors.Is(err, fl.ErrInsufficientParticipants) ||
		errors.Is(err, fl.ErrNoContributors) ||
		errors.Is(err, fl.ErrParticipantFailure)
}

func (l *Loop) waitForParticipants(ctx context.Context, logger *slog.Logger) {
	if l.cfg.WaitForParticipants <= 0 || l.cfg.MinParticipants <= 0 {
		return
	}

	wctx, cancel := context.WithTimeout(ctx, l.cfg.WaitForParticipants)
	defer cancel()

	if err := l.pool.WaitFor(wctx, l.cfg.MinParticipants, participantPoll); err != nil {
		logger.Warn("participants did not join in time",
			slog.Int("wanted", l.cfg.MinParticipants),
			slog.Int("available", l.pool.Len()),
			slog.Any("error", err),
		)
	}
}

func (l *Loop) record(ctx context.Context, logger *slog.Logger, runID, sessionID string, round int, pr strategy.PhaseReport, phase fl.Phase) {
	rec := fl.RoundRecord{
		SessionID:    sessionID,
		Round:        round,
		Phase:        phase,
		Status:       pr.Status(),
		Contributors: pr.Outcome.Contributors,
		Invited:      pr.Outcome.Invited,
		Loss:         pr.Outcome.Loss,
		Metrics:      pr.Outcome.Metrics,
		StartedAt:    pr.StartedAt,
		FinishedAt:   pr.FinishedAt,
	}
	if pr.Err != nil {
		rec.Error = pr.Err.Error()
	}

	l.metrics.Rounds.With("phase", string(phase), "status", string(rec.Status)).Add(1)
	l.metrics.Duration.With("phase", string(phase)).Observe(pr.FinishedAt.Sub(pr.StartedAt).Seconds())
	l.metrics.Contributors.With("phase", string(phase)).Set(float64(rec.Contributors))
	if phase == fl.PhaseEvaluate && pr.Err == nil {
		l.metrics.Loss.Set(rec.Loss)
	}

	if l.store != nil {
		if err := l.store.SaveRound(context.WithoutCancel(ctx), rec); err != nil {
			logger.Error("failed to save round record", slog.Int("round", round), slog.String("phase", string(phase)), slog.Any("error", err))
		}
	}
	l.emit(ctx, events.FromRound(runID, rec))
}

func (l *Loop) checkpoint(ctx context.Context, logger *slog.Logger, runID, sessionID string, state fl.GlobalModelState) {
	if l.store != nil {
		cp := fl.Checkpoint{SessionID: sessionID, State: state, CreatedAt: time.Now()}
		if err := l.store.SaveModel(context.WithoutCancel(ctx), cp); err != nil {
			logger.Error("failed to save checkpoint", slog.Int("version", state.Version), slog.Any("error", err))
		}
	}
	l.emit(ctx, events.Event{
		Type:      events.ModelApplied,
		RunID:     runID,
		SessionID: sessionID,
		Round:     state.Round,
		Version:   state.Version,
	})
}

func (l *Loop) emit(ctx context.Context, ev events.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if err := l.emitter.Emit(context.WithoutCancel(ctx), ev); err != nil {
		l.logger.Warn("failed to emit event", slog.String("type", string(ev.Type)), slog.Any("error", err))
	}
}
