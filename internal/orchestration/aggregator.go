package orchestration

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/styvesb/probsim/internal/errors"
	"github.com/styvesb/probsim/internal/randsrc"
)

var tracer = otel.Tracer("probsim/orchestration")

// ScalarTrial runs one trial to completion and returns its scalar outcome
// (e.g. the draw count of a coupon-collector trial).
type ScalarTrial func(ctx context.Context, src randsrc.Source) (int, error)

// VectorTrial runs one trial to completion and returns its outcome vector
// (e.g. the per-generation sizes of a branching-process trial). Every trial
// of a run must return a vector of the same length.
type VectorTrial func(ctx context.Context, src randsrc.Source) ([]int, error)

// TrialUpdate reports the completion of a single trial to an observer.
type TrialUpdate struct {
	// Completed is the number of trials finished so far.
	Completed int
	// Total is the number of trials in the run.
	Total int
	// Outcome is the scalar outcome of the finished trial, or the final
	// vector entry for vector trials.
	Outcome int
}

// Options configures an aggregation run.
type Options struct {
	// Trials is the number of trials to execute. Must be >= 1.
	Trials int
	// Workers is the number of concurrent trial runners. Values <= 1 select
	// the sequential path, which reuses a single random stream exactly like
	// the reference implementation. Values > 1 require a Provider whose
	// streams are independent per trial (randsrc.Partitioned).
	Workers int
	// Streams supplies the random stream for each trial.
	Streams randsrc.Provider
	// Progress, if non-nil, receives a TrialUpdate per finished trial.
	// Sends never block; updates are dropped if the channel is full.
	Progress chan<- TrialUpdate
}

func (o Options) validate() error {
	if o.Trials < 1 {
		return apperrors.NewParameterError("trials", "must be >= 1, got %d", o.Trials)
	}
	if o.Streams == nil {
		return apperrors.NewParameterError("streams", "a random stream provider is required")
	}
	return nil
}

func (o Options) notify(completed, outcome int) {
	if o.Progress == nil {
		return
	}
	select {
	case o.Progress <- TrialUpdate{Completed: completed, Total: o.Trials, Outcome: outcome}:
	default:
	}
}

// ScalarAggregate is the reduction of a scalar-outcome run.
type ScalarAggregate struct {
	// Mean is the arithmetic mean over all trial outcomes.
	Mean float64
	// Outcomes holds every per-trial outcome in invocation order, one entry
	// per trial. Callers own the slice (e.g. for histogram rendering).
	Outcomes []int
}

// VectorAggregate is the reduction of a vector-outcome run.
type VectorAggregate struct {
	// Mean is the elementwise arithmetic mean over all trial vectors.
	Mean []float64
	// Outcomes holds the final vector entry of every trial in invocation
	// order, one entry per trial. Statistics over trial endings (extinction
	// counts) must come from here, not from the best-effort Progress channel.
	Outcomes []int
}

// RunScalarTrials executes opts.Trials scalar trials and reduces their
// outcomes to an arithmetic mean, preserving per-trial outcomes in
// invocation order. Parameter validation happens before any trial runs.
func RunScalarTrials(ctx context.Context, opts Options, run ScalarTrial) (ScalarAggregate, error) {
	if err := opts.validate(); err != nil {
		return ScalarAggregate{}, err
	}

	ctx, span := tracer.Start(ctx, "orchestration.RunScalarTrials")
	defer span.End()
	span.SetAttributes(
		attribute.Int("trials", opts.Trials),
		attribute.Int("workers", opts.Workers),
	)

	outcomes := make([]int, opts.Trials)
	collect := func(ctx context.Context, trial int) error {
		out, err := run(ctx, opts.Streams.Stream(trial))
		if err != nil {
			return err
		}
		outcomes[trial] = out
		return nil
	}
	if err := runTrials(ctx, opts, collect, func(trial int) int { return outcomes[trial] }); err != nil {
		return ScalarAggregate{}, err
	}

	return ScalarAggregate{Mean: MeanOfInts(outcomes), Outcomes: outcomes}, nil
}

// RunVectorTrials executes opts.Trials vector trials and reduces them to one
// elementwise mean vector. All trial vectors must have equal length; a
// mismatch aborts the aggregation with an InvariantError, since it indicates
// a bug in the per-trial simulator rather than bad input.
func RunVectorTrials(ctx context.Context, opts Options, run VectorTrial) (VectorAggregate, error) {
	if err := opts.validate(); err != nil {
		return VectorAggregate{}, err
	}

	ctx, span := tracer.Start(ctx, "orchestration.RunVectorTrials")
	defer span.End()
	span.SetAttributes(
		attribute.Int("trials", opts.Trials),
		attribute.Int("workers", opts.Workers),
	)

	vectors := make([][]int, opts.Trials)
	collect := func(ctx context.Context, trial int) error {
		out, err := run(ctx, opts.Streams.Stream(trial))
		if err != nil {
			return err
		}
		vectors[trial] = out
		return nil
	}
	last := func(trial int) int {
		v := vectors[trial]
		if len(v) == 0 {
			return 0
		}
		return v[len(v)-1]
	}
	if err := runTrials(ctx, opts, collect, last); err != nil {
		return VectorAggregate{}, err
	}

	mean, err := ElementwiseMean(vectors)
	if err != nil {
		return VectorAggregate{}, err
	}
	outcomes := make([]int, opts.Trials)
	for trial := range outcomes {
		outcomes[trial] = last(trial)
	}
	return VectorAggregate{Mean: mean, Outcomes: outcomes}, nil
}

// runTrials drives the trial loop, sequentially for Workers <= 1 and on an
// errgroup otherwise. Results land in index-addressed slots, so invocation
// order is preserved regardless of completion order.
func runTrials(ctx context.Context, opts Options, collect func(context.Context, int) error, outcome func(int) int) error {
	if opts.Workers <= 1 {
		for trial := 0; trial < opts.Trials; trial++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := collect(ctx, trial); err != nil {
				return err
			}
			opts.notify(trial+1, outcome(trial))
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	var done atomic.Int64
	for trial := 0; trial < opts.Trials; trial++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := collect(ctx, trial); err != nil {
				return err
			}
			opts.notify(int(done.Add(1)), outcome(trial))
			return nil
		})
	}
	return g.Wait()
}

// MeanOfInts returns the arithmetic mean of outcomes. It is a pure reduction:
// the same ordered outcomes always produce the same mean. The caller
// guarantees len(outcomes) >= 1.
func MeanOfInts(outcomes []int) float64 {
	var sum int64
	for _, v := range outcomes {
		sum += int64(v)
	}
	return float64(sum) / float64(len(outcomes))
}

// ElementwiseMean returns the elementwise arithmetic mean of equal-length
// vectors. A length mismatch between any vector and the first is an
// InvariantError.
func ElementwiseMean(vectors [][]int) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, apperrors.NewInvariantError("elementwise mean over zero vectors")
	}

	width := len(vectors[0])
	totals := make([]float64, width)
	for i, vec := range vectors {
		if len(vec) != width {
			return nil, apperrors.NewInvariantError(
				"trial %d produced a vector of length %d, want %d", i, len(vec), width)
		}
		for j, v := range vec {
			totals[j] += float64(v)
		}
	}
	for j := range totals {
		totals[j] /= float64(len(vectors))
	}
	return totals, nil
}
