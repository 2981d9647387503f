package engine

import (
	"math/rand/v2"
)

// Randomizer shuffles rows and picks rows for new columns.
// It is not safe for concurrent use; Grid serializes access to it.
type Randomizer struct {
	rng *rand.Rand
}

// NewRandomizer returns a reproducible randomizer for seed.
func NewRandomizer(seed uint64) *Randomizer {
	return &Randomizer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeRandomizer returns a randomizer with a non-deterministic seed.
func NewTimeRandomizer() *Randomizer {
	return NewRandomizer(rand.Uint64())
}

// CoinFlip reports true about half of the time.
func (r *Randomizer) CoinFlip() bool {
	return r.rng.Uint64()&1 == 0
}

// Shuffle returns a shuffled copy of in. The input is not modified.
func Shuffle[T any](r *Randomizer, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	r.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
