package strategy

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/participant"
	"github.com/absmach/fedround/pkg/roundconfig"
)

// Collection holds what arrived from the participants of one phase, ordered
// by participant ID.
type Collection struct {
	Fit      []fl.FitResult
	Evaluate []fl.EvaluateResult
	Failures []fl.Failure
}

func (c Collection) Contributors() int {
	return len(c.Fit) + len(c.Evaluate)
}

type reply struct {
	idx  int
	id   string
	fit  fl.FitResult
	eval fl.EvaluateResult
	err  error
}

// DispatchAndCollect sends payload to every participant of subset at once
// and gathers the replies that arrive within timeout. Participants that fail
// or miss the deadline are reported as failures and are not retried. It
// returns by the deadline even if a proxy ignores its context.
func (s *Strategy) DispatchAndCollect(ctx context.Context, round int, subset []participant.Proxy, payload roundconfig.Payload, timeout time.Duration) Collection {
	return s.dispatch(ctx, round, subset, payload, timeout, nil)
}

func (s *Strategy) dispatch(ctx context.Context, round int, subset []participant.Proxy, payload roundconfig.Payload, timeout time.Duration, sent func()) Collection {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	params := s.State().Parameters

	// Buffered so that late replies never block their goroutine.
	replies := make(chan reply, len(subset))
	pending := make(map[int]string, len(subset))
	for i, p := range subset {
		pending[i] = p.ID()
		go func() {
			r := call(ctx, p, payload, params.Clone())
			r.idx = i
			replies <- r
		}()
	}
	if sent != nil {
		sent()
	}

	var col Collection
collect:
	for len(pending) > 0 {
		select {
		case r := <-replies:
			if _, ok := pending[r.idx]; !ok {
				continue
			}
			delete(pending, r.idx)
			if r.err != nil {
				col.Failures = append(col.Failures, failureOf(r.id, r.err))
				s.logger.Warn("participant failed",
					slog.Int("round", round),
					slog.String("phase", string(payload.Phase)),
					slog.String("participant_id", r.id),
					slog.Any("error", r.err),
				)

				continue
			}
			switch payload.Phase {
			case fl.PhaseFit:
				col.Fit = append(col.Fit, r.fit)
			case fl.PhaseEvaluate:
				col.Evaluate = append(col.Evaluate, r.eval)
			}
		case <-ctx.Done():
			for _, id := range pending {
				col.Failures = append(col.Failures, failureOf(id, ctx.Err()))
			}
			s.logger.Warn("round collection deadline reached",
				slog.Int("round", round),
				slog.String("phase", string(payload.Phase)),
				slog.Int("missing", len(pending)),
			)

			break collect
		}
	}

	slices.SortFunc(col.Fit, func(a, b fl.FitResult) int { return cmp.Compare(a.ParticipantID, b.ParticipantID) })
	slices.SortFunc(col.Evaluate, func(a, b fl.EvaluateResult) int { return cmp.Compare(a.ParticipantID, b.ParticipantID) })
	slices.SortFunc(col.Failures, func(a, b fl.Failure) int { return cmp.Compare(a.ParticipantID, b.ParticipantID) })

	return col
}

func call(ctx context.Context, p participant.Proxy, payload roundconfig.Payload, params fl.Parameters) reply {
	r := reply{id: p.ID()}
	switch payload.Phase {
	case fl.PhaseFit:
		r.fit, r.err = p.Fit(ctx, participant.FitIns{Parameters: params, Config: payload.Fit})
		r.fit.ParticipantID = r.id
	case fl.PhaseEvaluate:
		r.eval, r.err = p.Evaluate(ctx, participant.EvaluateIns{Parameters: params, Config: payload.Evaluate})
		r.eval.ParticipantID = r.id
	default:
		r.err = fmt.Errorf("%w: unknown phase %q", fl.ErrConfiguration, payload.Phase)
	}

	return r
}

func failureOf(id string, err error) fl.Failure {
	switch {
	case errors.Is(err, fl.ErrParticipantTimeout):
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("%w: %w", fl.ErrParticipantTimeout, err)
	case !errors.Is(err, fl.ErrParticipantFailure):
		err = fmt.Errorf("%w: %w", fl.ErrParticipantFailure, err)
	}

	return fl.Failure{ParticipantID: id, Reason: err.Error(), Err: err}
}
