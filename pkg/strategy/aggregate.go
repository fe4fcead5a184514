package strategy

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/absmach/fedround/pkg/fl"
)

// AggregateFit averages the parameters of results weighted by example count.
// Results whose tensor shapes differ from the global model, or that carry NaN
// or infinite values, are moved to the outcome's failures. The returned
// outcome is valid even when err is set.
func (s *Strategy) AggregateFit(round, invited int, results []fl.FitResult, failures []fl.Failure) (fl.RoundOutcome, error) {
	kept, rejected := s.screen(results)
	outcome := fl.RoundOutcome{
		Round:        round,
		Phase:        fl.PhaseFit,
		Contributors: len(kept),
		Invited:      invited,
		Failures:     mergeFailures(failures, rejected),
	}
	if len(kept) == 0 {
		return outcome, fmt.Errorf("%w: fit round %d", fl.ErrNoContributors, round)
	}

	params, err := fl.AggregateParameters(kept)
	if err != nil {
		return outcome, err
	}
	outcome.Parameters = params

	if s.cfg.FitMetricsAggregation != nil {
		samples := make([]fl.MetricsSample, len(kept))
		for i, r := range kept {
			samples[i] = fl.MetricsSample{NumExamples: r.NumExamples, Metrics: r.Metrics}
		}
		outcome.Metrics = s.cfg.FitMetricsAggregation(samples)
	}

	return outcome, nil
}

// AggregateEvaluate averages the loss and metrics of results weighted by
// example count. Results with a NaN or infinite loss or metric are moved to
// the outcome's failures.
func (s *Strategy) AggregateEvaluate(round, invited int, results []fl.EvaluateResult, failures []fl.Failure) (fl.RoundOutcome, error) {
	results, rejected := screenEvaluate(results)
	outcome := fl.RoundOutcome{
		Round:        round,
		Phase:        fl.PhaseEvaluate,
		Contributors: len(results),
		Invited:      invited,
		Failures:     mergeFailures(failures, rejected),
	}
	if len(results) == 0 {
		return outcome, fmt.Errorf("%w: evaluate round %d", fl.ErrNoContributors, round)
	}

	loss, err := fl.AggregateLoss(results)
	if err != nil {
		return outcome, err
	}
	outcome.Loss = loss

	reduce := s.cfg.EvaluateMetricsAggregation
	if reduce == nil {
		reduce = fl.WeightedAverage
	}
	samples := make([]fl.MetricsSample, len(results))
	for i, r := range results {
		samples[i] = fl.MetricsSample{NumExamples: r.NumExamples, Metrics: r.Metrics}
	}
	outcome.Metrics = reduce(samples)

	return outcome, nil
}

// screen splits results into those matching the reference shape with finite
// values and those that do not. The reference is the global model, or the
// first finite result by participant ID while the global model has no
// parameters yet.
func (s *Strategy) screen(results []fl.FitResult) ([]fl.FitResult, []fl.Failure) {
	if len(results) == 0 {
		return nil, nil
	}

	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b fl.FitResult) int {
		return cmp.Compare(a.ParticipantID, b.ParticipantID)
	})

	ref := s.State().Parameters
	if len(ref) == 0 {
		for _, r := range sorted {
			if r.Parameters.Finite() {
				ref = r.Parameters

				break
			}
		}
	}

	kept := make([]fl.FitResult, 0, len(sorted))
	var rejected []fl.Failure
	for _, r := range sorted {
		switch {
		case !r.Parameters.Finite() || !fl.FiniteMetrics(r.Metrics):
			rejected = append(rejected, rejection(r.ParticipantID, fl.ErrNonFinite))
		case !r.Parameters.SameShape(ref):
			rejected = append(rejected, rejection(r.ParticipantID, fl.ErrShapeMismatch))
		default:
			kept = append(kept, r)
		}
	}

	return kept, rejected
}

func screenEvaluate(results []fl.EvaluateResult) ([]fl.EvaluateResult, []fl.Failure) {
	kept := make([]fl.EvaluateResult, 0, len(results))
	var rejected []fl.Failure
	for _, r := range results {
		if math.IsNaN(r.Loss) || math.IsInf(r.Loss, 0) || !fl.FiniteMetrics(r.Metrics) {
			rejected = append(rejected, rejection(r.ParticipantID, fl.ErrNonFinite))

			continue
		}
		kept = append(kept, r)
	}

	return kept, rejected
}

// rejection reports a result that arrived but cannot be aggregated.
func rejection(id string, cause error) fl.Failure {
	err := fmt.Errorf("%w: %w: participant %s", fl.ErrParticipantFailure, cause, id)

	return fl.Failure{ParticipantID: id, Reason: err.Error(), Err: err}
}

func mergeFailures(a, b []fl.Failure) []fl.Failure {
	if len(a)+len(b) == 0 {
		return nil
	}
	out := slices.Concat(a, b)
	slices.SortStableFunc(out, func(x, y fl.Failure) int {
		return cmp.Compare(x.ParticipantID, y.ParticipantID)
	})

	return out
}
