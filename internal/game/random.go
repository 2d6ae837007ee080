package game

import (
	"math/rand"
	"sync"
)

// Random is the only source of chance in the engine. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

func NewRandom(seed int64) Random {
	return rand.New(rand.NewSource(seed))
}

type lockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedRandom is NewRandom for an engine shared between goroutines.
func NewLockedRandom(seed int64) Random {
	return &lockedRandom{rng: rand.New(rand.NewSource(seed))}
}

func (r *lockedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// between returns a uniform draw in [min, max].
func between(rng Random, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}

func pickInterference(rng Random) InterferenceType {
	i := int(rng.Float64() * float64(len(interferenceTypes)))
	if i >= len(interferenceTypes) {
		i = len(interferenceTypes) - 1
	}
	return interferenceTypes[i]
}

func shockTarget(rng Random) float64 {
	if rng.Float64() > 0.5 {
		return shockHighTarget
	}
	return shockLowTarget
}
