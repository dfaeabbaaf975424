package coupon

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"

	apperrors "github.com/styvesb/probsim/internal/errors"
	"github.com/styvesb/probsim/internal/randsrc"
	"github.com/styvesb/probsim/internal/randsrc/mocks"
)

func TestTrial_InvalidN(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		_, err := Trial(randsrc.New(1), n)
		if !apperrors.IsParameterError(err) {
			t.Errorf("Trial(n=%d) err = %v, want ParameterError", n, err)
		}
	}
}

func TestTrial_SingleCoupon(t *testing.T) {
	// With one coupon type the very first draw completes the set.
	for seed := int64(0); seed < 20; seed++ {
		steps, err := Trial(randsrc.New(seed), 1)
		if err != nil {
			t.Fatalf("Trial(1) error: %v", err)
		}
		if steps != 1 {
			t.Errorf("seed %d: Trial(1) = %d draws, want exactly 1", seed, steps)
		}
	}
}

func TestTrial_AtLeastNDraws(t *testing.T) {
	for _, n := range []int{2, 5, 17, 100} {
		steps, err := Trial(randsrc.New(42), n)
		if err != nil {
			t.Fatalf("Trial(%d) error: %v", n, err)
		}
		if steps < n {
			t.Errorf("Trial(%d) = %d draws; cannot collect %d coupons in fewer than %d draws", n, steps, n, n)
		}
	}
}

func TestTrial_ScriptedDraws(t *testing.T) {
	// Draws 0, 1, 0, 2: coupon 0 repeats at step 3, coupon 2 completes the
	// set at step 4.
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := mocks.NewMockSource(ctrl)
	gomock.InOrder(
		src.EXPECT().IntN(3).Return(0),
		src.EXPECT().IntN(3).Return(1),
		src.EXPECT().IntN(3).Return(0),
		src.EXPECT().IntN(3).Return(2),
	)

	steps, err := Trial(src, 3)
	if err != nil {
		t.Fatalf("Trial error: %v", err)
	}
	if steps != 4 {
		t.Errorf("Trial with draws [0,1,0,2] = %d, want 4", steps)
	}
}

func TestTrialCapped(t *testing.T) {
	t.Run("cap not reached", func(t *testing.T) {
		steps, err := TrialCapped(randsrc.New(7), 3, 100000)
		if err != nil {
			t.Fatalf("TrialCapped error: %v", err)
		}
		if steps < 3 {
			t.Errorf("steps = %d, want >= 3", steps)
		}
	})

	t.Run("cap exceeded", func(t *testing.T) {
		// A cap below n can never be satisfied.
		_, err := TrialCapped(randsrc.New(7), 10, 5)
		if !apperrors.IsParameterError(err) {
			t.Errorf("err = %v, want ParameterError", err)
		}
	})

	t.Run("negative cap", func(t *testing.T) {
		_, err := TrialCapped(randsrc.New(7), 3, -1)
		if !apperrors.IsParameterError(err) {
			t.Errorf("err = %v, want ParameterError", err)
		}
	})
}

func TestTrialSequence(t *testing.T) {
	src := randsrc.New(11)
	sequence, err := TrialSequence(src, 4)
	if err != nil {
		t.Fatalf("TrialSequence error: %v", err)
	}

	seen := make(map[int]bool)
	for _, c := range sequence {
		if c < 0 || c >= 4 {
			t.Errorf("drawn coupon %d outside [0,4)", c)
		}
		seen[c] = true
	}
	if len(seen) != 4 {
		t.Errorf("sequence ended with %d distinct coupons, want 4", len(seen))
	}
	// The final draw must be the first occurrence of its coupon, otherwise
	// the trial would have ended earlier.
	last := sequence[len(sequence)-1]
	for _, c := range sequence[:len(sequence)-1] {
		if c == last {
			t.Errorf("trial continued after all coupons were collected: %v", sequence)
			break
		}
	}
}

func TestSimulate(t *testing.T) {
	res, err := Simulate(context.Background(), SimulateOptions{
		N:       5,
		Trials:  200,
		Streams: randsrc.Single(randsrc.New(3)),
	})
	if err != nil {
		t.Fatalf("Simulate error: %v", err)
	}

	if len(res.Steps) != 200 {
		t.Fatalf("len(Steps) = %d, want 200", len(res.Steps))
	}
	var sum int
	for _, s := range res.Steps {
		if s < 5 {
			t.Errorf("trial finished in %d draws, need at least 5", s)
		}
		sum += s
	}
	if want := float64(sum) / 200; res.AverageSteps != want {
		t.Errorf("AverageSteps = %v, want %v", res.AverageSteps, want)
	}

	// E[draws] for n=5 is 5*H_5 = 11.4166...; with 200 trials the sample
	// mean lands nearby. Bounds are deliberately loose.
	if res.AverageSteps < 8 || res.AverageSteps > 16 {
		t.Errorf("AverageSteps = %v, implausibly far from 11.42", res.AverageSteps)
	}
}

func TestSimulate_InvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		opts SimulateOptions
	}{
		{"n zero", SimulateOptions{N: 0, Trials: 10, Streams: randsrc.Single(randsrc.New(1))}},
		{"n negative", SimulateOptions{N: -2, Trials: 10, Streams: randsrc.Single(randsrc.New(1))}},
		{"trials zero", SimulateOptions{N: 3, Trials: 0, Streams: randsrc.Single(randsrc.New(1))}},
		{"trials negative", SimulateOptions{N: 3, Trials: -1, Streams: randsrc.Single(randsrc.New(1))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(context.Background(), tt.opts)
			if !apperrors.IsParameterError(err) {
				t.Errorf("err = %v, want ParameterError", err)
			}
		})
	}
}

func TestSimulate_ReproducibleWithSeed(t *testing.T) {
	run := func() Result {
		res, err := Simulate(context.Background(), SimulateOptions{
			N:       4,
			Trials:  50,
			Streams: randsrc.Single(randsrc.New(123)),
		})
		if err != nil {
			t.Fatalf("Simulate error: %v", err)
		}
		return res
	}

	a, b := run(), run()
	if a.AverageSteps != b.AverageSteps {
		t.Errorf("same seed produced different means: %v vs %v", a.AverageSteps, b.AverageSteps)
	}
	for i := range a.Steps {
		if a.Steps[i] != b.Steps[i] {
			t.Fatalf("same seed produced different trial %d: %d vs %d", i, a.Steps[i], b.Steps[i])
		}
	}
}
