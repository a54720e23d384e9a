package sac

import (
	"math/rand"
)

// NewRandomSampler returns a sampler drawing uniformly from [0, n) using rng.
// Sequences are reproducible for a given rng seed.
func NewRandomSampler(n int, rng *rand.Rand) Sampler {
	if n < 0x8000000 {
		return &randomSampler31{n: int32(n), rng: rng}
	}
	return &randomSampler63{n: int64(n), rng: rng}
}

type randomSampler31 struct {
	n   int32
	rng *rand.Rand
}

func (s *randomSampler31) Sample() int {
	return int(s.rng.Int31n(s.n))
}

type randomSampler63 struct {
	n   int64
	rng *rand.Rand
}

func (s *randomSampler63) Sample() int {
	return int(s.rng.Int63n(s.n))
}
