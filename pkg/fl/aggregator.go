package fl

import (
	"cmp"
	"fmt"
	"slices"
)

// MetricsSample is one participant's contribution to metric aggregation.
type MetricsSample struct {
	NumExamples int
	Metrics     map[string]float64
}

// MetricsAggregationFunc reduces per-participant metrics into round metrics.
type MetricsAggregationFunc func(samples []MetricsSample) map[string]float64

// AggregateParameters computes the example-weighted average of every tensor
// position. When every participant reports zero examples the plain arithmetic
// mean is used instead. Non-finite parameters fail with ErrNonFinite.
func AggregateParameters(results []FitResult) (Parameters, error) {
	if len(results) == 0 {
		return nil, ErrNoContributors
	}

	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b FitResult) int {
		return cmp.Compare(a.ParticipantID, b.ParticipantID)
	})

	ref := sorted[0].Parameters
	for _, r := range sorted {
		if !r.Parameters.SameShape(ref) {
			return nil, fmt.Errorf("%w: participant %s", ErrShapeMismatch, r.ParticipantID)
		}
		if !r.Parameters.Finite() {
			return nil, fmt.Errorf("%w: participant %s", ErrNonFinite, r.ParticipantID)
		}
	}

	weights, total := weightsOf(len(sorted), func(i int) int { return sorted[i].NumExamples })

	aggregated := make(Parameters, len(ref))
	for t := range ref {
		aggregated[t] = Tensor{
			Shape: slices.Clone(ref[t].Shape),
			Data:  make([]float64, len(ref[t].Data)),
		}
	}
	for i, r := range sorted {
		w := weights[i]
		for t := range r.Parameters {
			dst := aggregated[t].Data
			for j, v := range r.Parameters[t].Data {
				dst[j] += w * v
			}
		}
	}
	for t := range aggregated {
		for j := range aggregated[t].Data {
			aggregated[t].Data[j] /= total
		}
	}

	return aggregated, nil
}

// AggregateLoss computes the example-weighted average loss of evaluate results.
// A NaN or infinite loss fails with ErrNonFinite.
func AggregateLoss(results []EvaluateResult) (float64, error) {
	if len(results) == 0 {
		return 0, ErrNoContributors
	}

	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b EvaluateResult) int {
		return cmp.Compare(a.ParticipantID, b.ParticipantID)
	})

	for _, r := range sorted {
		if !isFinite(r.Loss) {
			return 0, fmt.Errorf("%w: participant %s", ErrNonFinite, r.ParticipantID)
		}
	}

	weights, total := weightsOf(len(sorted), func(i int) int { return sorted[i].NumExamples })

	var sum float64
	for i, r := range sorted {
		sum += weights[i] * r.Loss
	}

	return sum / total, nil
}

// WeightedAverage is the default MetricsAggregationFunc. Each metric is
// averaged over the samples that report it, weighted by example count.
func WeightedAverage(samples []MetricsSample) map[string]float64 {
	keys := make([]string, 0)
	seen := make(map[string]struct{})
	for _, s := range samples {
		for k := range s.Metrics {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	out := make(map[string]float64, len(keys))
	for _, k := range keys {
		values := make([]float64, 0, len(samples))
		examples := make([]int, 0, len(samples))
		for _, s := range samples {
			v, ok := s.Metrics[k]
			if !ok {
				continue
			}
			values = append(values, v)
			examples = append(examples, s.NumExamples)
		}

		weights, total := weightsOf(len(values), func(i int) int { return examples[i] })
		var sum float64
		for i, v := range values {
			sum += weights[i] * v
		}
		out[k] = sum / total
	}

	return out
}

// weightsOf returns per-item weights and their sum. Negative example counts
// count as zero; if all weights are zero every item gets weight 1.
func weightsOf(n int, examples func(i int) int) ([]float64, float64) {
	weights := make([]float64, n)
	var total float64
	for i := range n {
		if e := examples(i); e > 0 {
			weights[i] = float64(e)
			total += weights[i]
		}
	}
	if total > 0 {
		return weights, total
	}

	for i := range weights {
		weights[i] = 1
	}

	return weights, float64(n)
}
