package executor

import (
	"math/rand"
	"sync"
	"time"
)

// FaultPolicy injects artificial latency and failures into the paper
// executor. Pluggable so tests can supply deterministic fault sequences
// instead of inline randomness.
type FaultPolicy interface {
	// Latency returns the artificial delay for the next attempt.
	Latency() time.Duration

	// Fail reports whether the next attempt should fail. Each call is an
	// independent draw.
	Fail() bool
}

// NoFaults never delays and never fails.
type NoFaults struct{}

func (NoFaults) Latency() time.Duration { return 0 }
func (NoFaults) Fail() bool             { return false }

// RandomFaults draws independent failures with a fixed probability and
// uniform latency in [100ms, 500ms), exercising the retry path the way a
// flaky RPC endpoint would.
type RandomFaults struct {
	mu          sync.Mutex
	rng         *rand.Rand
	failureProb float64
}

// NewRandomFaults creates a RandomFaults policy. A zero probability keeps
// the latency injection but never fails.
func NewRandomFaults(failureProb float64, seed int64) *RandomFaults {
	return &RandomFaults{
		rng:         rand.New(rand.NewSource(seed)),
		failureProb: failureProb,
	}
}

func (f *RandomFaults) Latency() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return 100*time.Millisecond + time.Duration(f.rng.Int63n(int64(400*time.Millisecond)))
}

func (f *RandomFaults) Fail() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Float64() < f.failureProb
}
