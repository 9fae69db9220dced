package content

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand is the source of randomness used for every pick in the game.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// LockedRand makes a Rand safe for use from many rooms at once.
type LockedRand struct {
	mu  sync.Mutex
	src Rand
}

// NewLockedRand wraps src; a nil src is seeded from the wall clock.
func NewLockedRand(src Rand) *LockedRand {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &LockedRand{src: src}
}

func (r *LockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.IntN(n)
}

// Shuffle permutes ids in place (Fisher-Yates).
func Shuffle(ids []string, rng Rand) {
	for i := len(ids) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}
