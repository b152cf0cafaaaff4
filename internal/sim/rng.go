package sim

import (
	"hash/fnv"
	"math/rand"
)

// deterministicSeedValue folds a root seed and a subsystem label into a
// non-zero source seed so separate subsystems draw independent streams.
func deterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

func newDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(deterministicSeedValue(rootSeed, label)))
}

func (e *Engine) subsystemRNG(label string) *rand.Rand {
	seed := defaultSeed
	if e != nil && e.cfg.Seed != "" {
		seed = e.cfg.Seed
	}
	return newDeterministicRNG(seed, label)
}
