// Package coupon implements the coupon-collector simulator: repeated uniform
// sampling with replacement from n coupon types until every type has been
// seen at least once.
package coupon

import (
	"context"

	apperrors "github.com/styvesb/probsim/internal/errors"
	"github.com/styvesb/probsim/internal/orchestration"
	"github.com/styvesb/probsim/internal/randsrc"
)

// Trial runs one coupon-collector trial and returns the number of draws
// needed to observe all n coupon types. n must be >= 1.
//
// The trial terminates almost surely (geometric tail) but has no hard upper
// bound; callers that need one should use TrialCapped.
func Trial(src randsrc.Source, n int) (int, error) {
	return TrialCapped(src, n, 0)
}

// TrialCapped runs one trial with an explicit draw limit. maxDraws == 0
// means unlimited, reproducing the reference behavior; a positive limit
// turns the open-ended trial into one that fails once the limit is reached.
func TrialCapped(src randsrc.Source, n, maxDraws int) (int, error) {
	if n < 1 {
		return 0, apperrors.NewParameterError("n", "must be >= 1, got %d", n)
	}
	if maxDraws < 0 {
		return 0, apperrors.NewParameterError("maxDraws", "must be >= 0, got %d", maxDraws)
	}

	collected := make(map[int]struct{}, n)
	steps := 0
	for len(collected) < n {
		if maxDraws > 0 && steps >= maxDraws {
			return 0, apperrors.NewParameterError("maxDraws",
				"trial exceeded %d draws with %d of %d coupons collected", maxDraws, len(collected), n)
		}
		collected[src.IntN(n)] = struct{}{}
		steps++
	}
	return steps, nil
}

// TrialSequence runs one trial and returns every drawn coupon in draw order.
// The sequence length is the trial's draw count; it backs the step-by-step
// walkthrough table.
func TrialSequence(src randsrc.Source, n int) ([]int, error) {
	if n < 1 {
		return nil, apperrors.NewParameterError("n", "must be >= 1, got %d", n)
	}

	collected := make(map[int]struct{}, n)
	var sequence []int
	for len(collected) < n {
		c := src.IntN(n)
		sequence = append(sequence, c)
		collected[c] = struct{}{}
	}
	return sequence, nil
}

// Result aggregates a multi-trial coupon-collector run.
type Result struct {
	// AverageSteps is the mean draw count over all trials.
	AverageSteps float64
	// Steps holds every trial's draw count in invocation order (one entry
	// per trial), preserved for histogram rendering.
	Steps []int
}

// SimulateOptions configures a multi-trial run.
type SimulateOptions struct {
	// N is the number of coupon types. Must be >= 1.
	N int
	// Trials is the number of trials. Must be >= 1.
	Trials int
	// Workers selects sequential (<= 1) or concurrent trial execution.
	Workers int
	// MaxDraws caps each trial's draw count; 0 means unlimited.
	MaxDraws int
	// Streams supplies per-trial random streams.
	Streams randsrc.Provider
	// Progress optionally receives one update per finished trial.
	Progress chan<- orchestration.TrialUpdate
}

// Simulate runs opts.Trials coupon-collector trials and returns the mean
// draw count together with the ordered per-trial counts. All parameters are
// validated before the first trial runs.
func Simulate(ctx context.Context, opts SimulateOptions) (Result, error) {
	if opts.N < 1 {
		return Result{}, apperrors.NewParameterError("n", "must be >= 1, got %d", opts.N)
	}

	agg, err := orchestration.RunScalarTrials(ctx, orchestration.Options{
		Trials:   opts.Trials,
		Workers:  opts.Workers,
		Streams:  opts.Streams,
		Progress: opts.Progress,
	}, func(ctx context.Context, src randsrc.Source) (int, error) {
		return TrialCapped(src, opts.N, opts.MaxDraws)
	})
	if err != nil {
		return Result{}, err
	}

	return Result{AverageSteps: agg.Mean, Steps: agg.Outcomes}, nil
}
