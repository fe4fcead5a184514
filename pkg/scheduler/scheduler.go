// Package scheduler picks which participants take part in a round.
package scheduler

import (
	"math"

	"github.com/absmach/fedround/pkg/participant"
)

// Sampler selects n participants of pool for round. pool is expected in a
// stable order (participant.Pool.Snapshot); for the same round, pool and n
// a Sampler always returns the same subset.
type Sampler interface {
	Sample(round int, pool []participant.Proxy, n int) []participant.Proxy
}

// SampleSize is max(minCount, ceil(fraction*poolSize)) clamped to poolSize.
func SampleSize(poolSize int, fraction float64, minCount int) int {
	if poolSize <= 0 {
		return 0
	}
	// Tolerate representation error such as 0.1*30 = 3.0000000000000004.
	size := int(math.Ceil(fraction*float64(poolSize) - 1e-9))
	size = max(size, minCount, 0)

	return min(size, poolSize)
}
