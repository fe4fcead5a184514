package scheduler

import (
	"slices"

	"github.com/absmach/fedround/pkg/participant"
)

type roundRobin struct{}

// NewRoundRobin takes n consecutive participants starting where the previous
// round's selection ended, wrapping around the pool.
func NewRoundRobin() Sampler {
	return &roundRobin{}
}

func (r *roundRobin) Sample(round int, pool []participant.Proxy, n int) []participant.Proxy {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	if n >= len(pool) {
		return slices.Clone(pool)
	}

	start := (max(round-1, 0) * n) % len(pool)
	out := make([]participant.Proxy, n)
	for i := range n {
		out[i] = pool[(start+i)%len(pool)]
	}

	return out
}
