//go:generate mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks

// Package randsrc provides the uniform random sources consumed by the
// simulators, with explicit seeding for reproducible runs.
package randsrc

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Source produces independent uniform random draws. Implementations are
// infallible once constructed; drawing only advances internal state.
type Source interface {
	// Float64 returns a draw from the continuous uniform distribution on [0,1).
	Float64() float64
	// IntN returns an integer drawn uniformly from [0,n). n must be > 0.
	IntN(n int) int
}

// pcgSource is a seeded PCG stream. It is not safe for concurrent use;
// parallel trial runners must take one stream each (see Partitioned).
type pcgSource struct {
	r *rand.Rand
}

// New creates a reproducible Source seeded with the given value.
// Two Sources created with the same seed produce identical draw sequences.
func New(seed int64) Source {
	return &pcgSource{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

func (s *pcgSource) Float64() float64 { return s.r.Float64() }

func (s *pcgSource) IntN(n int) int { return s.r.IntN(n) }

// NewSeed generates a random seed using crypto/rand. It backs runs that
// should differ from invocation to invocation (the coupon-collector
// experiment does not reseed; see the branching experiment for the
// deterministic counterpart).
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Provider supplies the random stream for each trial of an aggregation run.
type Provider interface {
	// Stream returns the Source for the trial with the given zero-based index.
	Stream(trial int) Source
}

// singleStream reuses one Source for every trial. State advances
// monotonically across trials, matching the reference's single global
// stream; valid only for sequential execution.
type singleStream struct {
	src Source
}

// Single returns a Provider that hands the same Source to every trial.
func Single(src Source) Provider {
	return singleStream{src: src}
}

func (p singleStream) Stream(int) Source { return p.src }

// partitioned derives an independent PCG stream per trial index from one
// base seed. Streams never overlap, so trials can run on parallel workers
// with no shared mutable state and aggregates stay reproducible.
type partitioned struct {
	seed int64
}

// Partitioned returns a Provider with one independent stream per trial.
func Partitioned(seed int64) Provider {
	return partitioned{seed: seed}
}

func (p partitioned) Stream(trial int) Source {
	// Stream index 0 is reserved for New so a partitioned trial never
	// collides with a single-stream run of the same seed.
	return &pcgSource{r: rand.New(rand.NewPCG(uint64(p.seed), uint64(trial)+1))}
}
