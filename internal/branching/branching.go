// Package branching implements a Galton-Watson branching-process simulator:
// starting from a single root individual, each generation's individuals
// independently produce offspring per a fixed distribution, and the
// population either grows or goes extinct.
package branching

import (
	"context"

	apperrors "github.com/styvesb/probsim/internal/errors"
	"github.com/styvesb/probsim/internal/orchestration"
	"github.com/styvesb/probsim/internal/randsrc"
)

// sampleOffspring draws one offspring count by cumulative-distribution
// inversion: it returns the smallest index i with u < cdf[i]. Ties at exact
// boundary values resolve to the lower index because the comparison is
// strict. A draw beyond cdf's last entry (possible only through accumulated
// floating error) falls into the top bucket.
func sampleOffspring(src randsrc.Source, cdf []float64) int {
	u := src.Float64()
	for i, c := range cdf {
		if u < c {
			return i
		}
	}
	return len(cdf) - 1
}

// Trial runs one branching-process trial for the given generation horizon
// and returns the population size per generation. The result always has
// length generations+1 with entry 0 equal to 1 (the root individual). Once
// a generation is empty every later entry is exactly 0: extinction is an
// absorbing state, enforced structurally rather than probabilistically.
func Trial(src randsrc.Source, dist Distribution, generations int) ([]int, error) {
	if err := dist.Validate(); err != nil {
		return nil, err
	}
	if generations < 0 {
		return nil, apperrors.NewParameterError("generations", "must be >= 0, got %d", generations)
	}

	cdf := dist.CDF()
	sizes := make([]int, generations+1)
	sizes[0] = 1
	for g := 1; g <= generations; g++ {
		if sizes[g-1] == 0 {
			// Extinct: the remaining entries stay at their zero value.
			break
		}
		children := 0
		for i := 0; i < sizes[g-1]; i++ {
			children += sampleOffspring(src, cdf)
		}
		sizes[g] = children
	}
	return sizes, nil
}

// SimulateOptions configures a multi-trial branching run.
type SimulateOptions struct {
	// Dist is the offspring distribution shared by all trials.
	Dist Distribution
	// Trials is the number of trials. Must be >= 1.
	Trials int
	// Generations is the generation horizon. Must be >= 0.
	Generations int
	// Workers selects sequential (<= 1) or concurrent trial execution.
	Workers int
	// Streams supplies per-trial random streams.
	Streams randsrc.Provider
	// Progress optionally receives one update per finished trial; the
	// update's Outcome is the trial's final generation size (0 means the
	// process was extinct by the horizon).
	Progress chan<- orchestration.TrialUpdate
}

// Result aggregates a multi-trial branching run.
type Result struct {
	// Mean is the elementwise mean population size per generation, a vector
	// of length Generations+1.
	Mean []float64
	// Extinct is the number of trials whose final generation was empty. It
	// is derived from the aggregated trial outcomes, so it is exact.
	Extinct int
}

// SimulateTrials runs opts.Trials independent branching-process trials and
// returns the elementwise mean population size per generation together with
// the number of trials extinct by the horizon. All parameters are validated
// before the first trial runs.
func SimulateTrials(ctx context.Context, opts SimulateOptions) (Result, error) {
	if err := opts.Dist.Validate(); err != nil {
		return Result{}, err
	}
	if opts.Generations < 0 {
		return Result{}, apperrors.NewParameterError("generations", "must be >= 0, got %d", opts.Generations)
	}

	agg, err := orchestration.RunVectorTrials(ctx, orchestration.Options{
		Trials:   opts.Trials,
		Workers:  opts.Workers,
		Streams:  opts.Streams,
		Progress: opts.Progress,
	}, func(ctx context.Context, src randsrc.Source) ([]int, error) {
		return Trial(src, opts.Dist, opts.Generations)
	})
	if err != nil {
		return Result{}, err
	}

	extinct := 0
	for _, final := range agg.Outcomes {
		if final == 0 {
			extinct++
		}
	}
	return Result{Mean: agg.Mean, Extinct: extinct}, nil
}
