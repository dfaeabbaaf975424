package branching

import (
	"context"
	"math"
	"testing"

	"github.com/golang/mock/gomock"

	apperrors "github.com/styvesb/probsim/internal/errors"
	"github.com/styvesb/probsim/internal/orchestration"
	"github.com/styvesb/probsim/internal/randsrc"
	"github.com/styvesb/probsim/internal/randsrc/mocks"
	"github.com/styvesb/probsim/internal/theory"
)

var subcritical = Distribution{0.5, 0.25, 0.25}

func TestSampleOffspring(t *testing.T) {
	cdf := subcritical.CDF() // [0.5, 0.75, 1.0]

	tests := []struct {
		draw float64
		want int
	}{
		{0.0, 0},
		{0.49, 0},
		{0.5, 1},  // boundary resolves to the strict-inequality winner
		{0.74, 1},
		{0.75, 2}, // boundary again
		{0.999, 2},
	}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	for _, tt := range tests {
		src := mocks.NewMockSource(ctrl)
		src.EXPECT().Float64().Return(tt.draw)
		if got := sampleOffspring(src, cdf); got != tt.want {
			t.Errorf("sampleOffspring(u=%v) = %d, want %d", tt.draw, got, tt.want)
		}
	}
}

func TestSampleOffspring_TopBucketGuard(t *testing.T) {
	// A CDF whose mass falls a hair short of 1 must still map every draw to
	// a valid index.
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := mocks.NewMockSource(ctrl)
	src.EXPECT().Float64().Return(0.9999999999)

	cdf := []float64{0.5, 0.75, 1 - 1e-12}
	if got := sampleOffspring(src, cdf); got != 2 {
		t.Errorf("sampleOffspring above last CDF entry = %d, want top bucket 2", got)
	}
}

func TestTrial_RootGeneration(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		sizes, err := Trial(randsrc.New(seed), subcritical, 6)
		if err != nil {
			t.Fatalf("Trial error: %v", err)
		}
		if sizes[0] != 1 {
			t.Errorf("seed %d: sizes[0] = %d, want 1", seed, sizes[0])
		}
	}
}

func TestTrial_LengthInvariant(t *testing.T) {
	for _, generations := range []int{0, 1, 5, 20} {
		sizes, err := Trial(randsrc.New(5), subcritical, generations)
		if err != nil {
			t.Fatalf("Trial(%d generations) error: %v", generations, err)
		}
		if len(sizes) != generations+1 {
			t.Errorf("len(sizes) = %d, want %d regardless of extinction timing", len(sizes), generations+1)
		}
	}
}

func TestTrial_ExtinctionAbsorbs(t *testing.T) {
	// Certain extinction: every individual produces zero offspring, so
	// generation 1 onward must be exactly zero.
	sizes, err := Trial(randsrc.New(1), Distribution{1, 0, 0}, 8)
	if err != nil {
		t.Fatalf("Trial error: %v", err)
	}

	if sizes[0] != 1 {
		t.Fatalf("sizes[0] = %d, want 1", sizes[0])
	}
	for g := 1; g < len(sizes); g++ {
		if sizes[g] != 0 {
			t.Errorf("sizes[%d] = %d, want 0 after extinction", g, sizes[g])
		}
	}
}

func TestTrial_InvalidParameters(t *testing.T) {
	if _, err := Trial(randsrc.New(1), subcritical, -1); !apperrors.IsParameterError(err) {
		t.Errorf("negative generations: err = %v, want ParameterError", err)
	}
	if _, err := Trial(randsrc.New(1), Distribution{0.4, 0.4}, 3); !apperrors.IsParameterError(err) {
		t.Errorf("invalid distribution: err = %v, want ParameterError", err)
	}
}

func TestSimulateTrials_Convergence(t *testing.T) {
	// With mu = 0.75 the mean vector converges to [1, .75, .5625, ...].
	// 20000 trials keep the sampling error well under the asserted delta.
	result, err := SimulateTrials(context.Background(), SimulateOptions{
		Dist:        subcritical,
		Trials:      20000,
		Generations: 5,
		Streams:     randsrc.Single(randsrc.New(0)),
	})
	if err != nil {
		t.Fatalf("SimulateTrials error: %v", err)
	}

	means := result.Mean
	if len(means) != 6 {
		t.Fatalf("len(means) = %d, want 6", len(means))
	}
	if means[0] != 1 {
		t.Errorf("means[0] = %v, want exactly 1", means[0])
	}
	mu := subcritical.Mean()
	for g := 1; g < len(means); g++ {
		theo := theory.MomentAtGeneration(mu, g)
		if math.Abs(means[g]-theo) > 0.05 {
			t.Errorf("generation %d: empirical %v too far from mu^%d = %v", g, means[g], g, theo)
		}
	}
}

func TestSimulateTrials_CriticalProcess(t *testing.T) {
	// mu = 1: the expected size stays at 1 in every generation.
	critical := Distribution{1.0 / 3, 1.0 / 3, 1.0 / 3}
	result, err := SimulateTrials(context.Background(), SimulateOptions{
		Dist:        critical,
		Trials:      20000,
		Generations: 6,
		Streams:     randsrc.Single(randsrc.New(0)),
	})
	if err != nil {
		t.Fatalf("SimulateTrials error: %v", err)
	}

	for g, m := range result.Mean {
		if math.Abs(m-1) > 0.08 {
			t.Errorf("generation %d: empirical mean %v, want near 1", g, m)
		}
	}
}

func TestSimulateTrials_InvalidParameters(t *testing.T) {
	base := SimulateOptions{
		Dist:        subcritical,
		Trials:      10,
		Generations: 5,
		Streams:     randsrc.Single(randsrc.New(1)),
	}

	t.Run("bad distribution", func(t *testing.T) {
		opts := base
		opts.Dist = Distribution{0.9, 0.9}
		if _, err := SimulateTrials(context.Background(), opts); !apperrors.IsParameterError(err) {
			t.Errorf("err = %v, want ParameterError", err)
		}
	})

	t.Run("zero trials", func(t *testing.T) {
		opts := base
		opts.Trials = 0
		if _, err := SimulateTrials(context.Background(), opts); !apperrors.IsParameterError(err) {
			t.Errorf("err = %v, want ParameterError", err)
		}
	})

	t.Run("negative generations", func(t *testing.T) {
		opts := base
		opts.Generations = -3
		if _, err := SimulateTrials(context.Background(), opts); !apperrors.IsParameterError(err) {
			t.Errorf("err = %v, want ParameterError", err)
		}
	})
}

func TestSimulateTrials_ZeroGenerations(t *testing.T) {
	result, err := SimulateTrials(context.Background(), SimulateOptions{
		Dist:        subcritical,
		Trials:      5,
		Generations: 0,
		Streams:     randsrc.Single(randsrc.New(1)),
	})
	if err != nil {
		t.Fatalf("SimulateTrials error: %v", err)
	}
	if len(result.Mean) != 1 || result.Mean[0] != 1 {
		t.Errorf("mean vector = %v, want [1]", result.Mean)
	}
}

func TestSimulateTrials_ExtinctionCountExact(t *testing.T) {
	// Certain extinction, with a tiny progress channel that nobody drains:
	// progress updates are best-effort and get dropped, but the extinction
	// count comes from the aggregated outcomes and must still cover every
	// trial.
	const trials = 5000
	progress := make(chan orchestration.TrialUpdate, 1)
	result, err := SimulateTrials(context.Background(), SimulateOptions{
		Dist:        Distribution{1, 0, 0},
		Trials:      trials,
		Generations: 4,
		Streams:     randsrc.Single(randsrc.New(3)),
		Progress:    progress,
	})
	if err != nil {
		t.Fatalf("SimulateTrials error: %v", err)
	}
	if result.Extinct != trials {
		t.Errorf("Extinct = %d, want %d with certain extinction", result.Extinct, trials)
	}
}

func TestSimulateTrials_NoExtinctionWithoutZeroOffspring(t *testing.T) {
	// Every individual has exactly one child, so no trial can die out.
	result, err := SimulateTrials(context.Background(), SimulateOptions{
		Dist:        Distribution{0, 1},
		Trials:      200,
		Generations: 6,
		Streams:     randsrc.Single(randsrc.New(3)),
	})
	if err != nil {
		t.Fatalf("SimulateTrials error: %v", err)
	}
	if result.Extinct != 0 {
		t.Errorf("Extinct = %d, want 0", result.Extinct)
	}
}

func TestSimulateTrials_DeterministicWithSeed(t *testing.T) {
	run := func(workers int, provider randsrc.Provider) []float64 {
		result, err := SimulateTrials(context.Background(), SimulateOptions{
			Dist:        subcritical,
			Trials:      500,
			Generations: 8,
			Workers:     workers,
			Streams:     provider,
		})
		if err != nil {
			t.Fatalf("SimulateTrials error: %v", err)
		}
		return result.Mean
	}

	a := run(1, randsrc.Partitioned(7))
	b := run(4, randsrc.Partitioned(7))
	for g := range a {
		if a[g] != b[g] {
			t.Errorf("generation %d: partitioned run depends on worker count: %v vs %v", g, a[g], b[g])
		}
	}
}
