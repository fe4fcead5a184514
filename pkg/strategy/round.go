package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/participant"
)

type PhaseReport struct {
	Outcome    fl.RoundOutcome
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Status classifies the phase result for round records.
func (r PhaseReport) Status() fl.RoundStatus {
	switch {
	case r.Err == nil:
		return fl.RoundCompleted
	case errors.Is(r.Err, fl.ErrInsufficientParticipants):
		return fl.RoundInsufficientParticipants
	case errors.Is(r.Err, fl.ErrNoContributors):
		return fl.RoundNoContributors
	default:
		return fl.RoundFailed
	}
}

type RoundReport struct {
	Round    int
	Fit      PhaseReport
	Evaluate *PhaseReport
}

// Fit runs the fit phase of round against pool and applies the aggregate.
func (s *Strategy) Fit(ctx context.Context, round int, pool []participant.Proxy) (fl.RoundOutcome, error) {
	s.roundMu.Lock()
	defer s.roundMu.Unlock()

	return s.runPhase(ctx, round, fl.PhaseFit, pool)
}

// Evaluate runs the evaluate phase of round against pool.
func (s *Strategy) Evaluate(ctx context.Context, round int, pool []participant.Proxy) (fl.RoundOutcome, error) {
	s.roundMu.Lock()
	defer s.roundMu.Unlock()

	return s.runPhase(ctx, round, fl.PhaseEvaluate, pool)
}

// RunRound runs the fit phase and, once its aggregate is applied, the
// evaluate phase. Evaluation is skipped when fit fails or when it is
// disabled. The returned error is that of the first failing phase.
func (s *Strategy) RunRound(ctx context.Context, round int, pool []participant.Proxy) (RoundReport, error) {
	s.roundMu.Lock()
	defer s.roundMu.Unlock()

	report := RoundReport{Round: round}

	report.Fit = s.timedPhase(ctx, round, fl.PhaseFit, pool)
	if report.Fit.Err != nil {
		return report, report.Fit.Err
	}

	if !s.cfg.EvaluateEnabled() {
		return report, nil
	}

	eval := s.timedPhase(ctx, round, fl.PhaseEvaluate, pool)
	report.Evaluate = &eval

	return report, eval.Err
}

func (s *Strategy) timedPhase(ctx context.Context, round int, phase fl.Phase, pool []participant.Proxy) PhaseReport {
	started := time.Now()
	outcome, err := s.runPhase(ctx, round, phase, pool)

	return PhaseReport{
		Outcome:    outcome,
		Err:        err,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
}

func (s *Strategy) runPhase(ctx context.Context, round int, phase fl.Phase, pool []participant.Proxy) (fl.RoundOutcome, error) {
	outcome := fl.RoundOutcome{Round: round, Phase: phase}
	if err := ctx.Err(); err != nil {
		return outcome, err
	}

	fraction, minCount := s.cfg.FractionFit, s.cfg.MinFitClients
	if phase == fl.PhaseEvaluate {
		fraction, minCount = s.cfg.FractionEvaluate, s.cfg.MinEvaluateClients
	}

	if err := s.sm.Transition(Selecting); err != nil {
		return outcome, err
	}

	subset, err := s.SelectParticipants(round, pool, fraction, minCount)
	if err != nil {
		state := InsufficientParticipants
		if errors.Is(err, fl.ErrConfiguration) {
			state = Failed
		}

		return outcome, s.abort(state, round, phase, err)
	}
	outcome.Invited = len(subset)

	payload, err := s.ConfigureRound(round, phase)
	if err != nil {
		return outcome, s.abort(Failed, round, phase, err)
	}

	if err := s.sm.Transition(Dispatching); err != nil {
		return outcome, err
	}
	var sentErr error
	col := s.dispatch(ctx, round, subset, payload, s.cfg.RoundTimeout, func() {
		sentErr = s.sm.Transition(Collecting)
	})
	if sentErr != nil {
		return outcome, sentErr
	}
	outcome.Contributors = col.Contributors()
	outcome.Failures = col.Failures

	switch {
	case col.Contributors() == 0:
		return outcome, s.abort(NoContributors, round, phase,
			fmt.Errorf("%w: all %d selected participants failed", fl.ErrNoContributors, len(subset)))
	case !s.cfg.AcceptFailures && len(col.Failures) > 0:
		return outcome, s.abort(InsufficientParticipants, round, phase,
			fmt.Errorf("%w: %w: %d of %d selected participants failed",
				fl.ErrInsufficientParticipants, fl.ErrParticipantFailure, len(col.Failures), len(subset)))
	}

	if err := s.sm.Transition(Aggregating); err != nil {
		return outcome, err
	}

	switch phase {
	case fl.PhaseFit:
		outcome, err = s.AggregateFit(round, len(subset), col.Fit, col.Failures)
	default:
		outcome, err = s.AggregateEvaluate(round, len(subset), col.Evaluate, col.Failures)
	}
	if err != nil {
		state := Failed
		if errors.Is(err, fl.ErrNoContributors) {
			state = NoContributors
		}

		return outcome, s.abort(state, round, phase, err)
	}

	if err := s.Apply(outcome); err != nil {
		return outcome, s.abort(Failed, round, phase, err)
	}
	if err := s.sm.Finish(Applied); err != nil {
		return outcome, err
	}

	s.logger.Info(fmt.Sprintf("%s round completed", phase),
		slog.Int("round", round),
		slog.Int("invited", outcome.Invited),
		slog.Int("contributors", outcome.Contributors),
		slog.Float64("loss", outcome.Loss),
		slog.Any("metrics", outcome.Metrics),
	)

	return outcome, nil
}

// abort ends the phase in state and returns cause.
func (s *Strategy) abort(state State, round int, phase fl.Phase, cause error) error {
	if err := s.sm.Finish(state); err != nil {
		return errors.Join(cause, err)
	}

	s.logger.Warn(fmt.Sprintf("%s round abandoned", phase),
		slog.Int("round", round),
		slog.String("state", state.String()),
		slog.Any("error", cause),
	)

	return cause
}
