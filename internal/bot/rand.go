package bot

import (
	"math/rand"
	"time"
)

// NewRand returns a seeded random source. A zero seed uses the clock so
// production games differ; tests and simulations pass a fixed seed for
// reproducible play.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func pick[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.Intn(len(xs))]
}

// sample returns k distinct elements of xs in random order.
func sample[T any](rng *rand.Rand, xs []T, k int) []T {
	out := make([]T, 0, k)
	for _, i := range rng.Perm(len(xs))[:k] {
		out = append(out, xs[i])
	}
	return out
}
