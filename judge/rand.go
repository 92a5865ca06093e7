package judge

import (
	"math/rand/v2"
	"slices"
)

// Rand is the randomness the ranker needs: secondary sampling and alias choice.
// *rand.Rand satisfies it.
type Rand interface {
	// IntN returns a uniform value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// NewRand returns a PCG generator seeded with seed. A zero seed selects a random seed.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// sampleIndices picks k distinct indices from [0, n) uniformly and returns them in
// ascending order. k >= n returns every index.
func sampleIndices(rnd Rand, n, k int) []int {
	if k >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}

	// partial Fisher-Yates over an index permutation
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := range k {
		j := i + rnd.IntN(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	picked := pool[:k]
	slices.Sort(picked)
	return picked
}
