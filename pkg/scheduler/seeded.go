package scheduler

import (
	"math/rand/v2"
	"slices"

	"github.com/absmach/fedround/pkg/participant"
)

type seeded struct {
	seed uint64
}

// NewSeeded shuffles the pool with a generator seeded from seed and the round
// index, then keeps the first n participants.
func NewSeeded(seed uint64) Sampler {
	return &seeded{seed: seed}
}

func (s *seeded) Sample(round int, pool []participant.Proxy, n int) []participant.Proxy {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	if n >= len(pool) {
		return slices.Clone(pool)
	}

	rng := rand.New(rand.NewPCG(s.seed, uint64(round)))
	perm := rng.Perm(len(pool))

	out := make([]participant.Proxy, n)
	for i := range n {
		out[i] = pool[perm[i]]
	}

	return out
}
