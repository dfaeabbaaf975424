package branching

import (
	"math"
	"strconv"
	"strings"

	apperrors "github.com/styvesb/probsim/internal/errors"
	"github.com/styvesb/probsim/internal/theory"
)

// SumTolerance is the allowed floating-point deviation of a distribution's
// probability mass from 1.
const SumTolerance = 1e-9

// Distribution is an offspring probability distribution indexed by offspring
// count: Distribution[i] is the probability of producing exactly i children.
// It is immutable once constructed and shared read-only by all trials of a
// run.
type Distribution []float64

// Validate checks that the distribution is non-empty, has no negative
// probabilities, and sums to 1 within SumTolerance.
func (d Distribution) Validate() error {
	if len(d) == 0 {
		return apperrors.NewParameterError("distribution", "must not be empty")
	}

	var sum float64
	for i, p := range d {
		if p < 0 {
			return apperrors.NewParameterError("distribution",
				"probability at index %d is negative: %v", i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > SumTolerance {
		return apperrors.NewParameterError("distribution",
			"probabilities sum to %v, want 1 within %v", sum, SumTolerance)
	}
	return nil
}

// CDF returns the running cumulative sums of the distribution. It is
// computed once per distribution and shared across every individual sampled
// in a run.
func (d Distribution) CDF() []float64 {
	cdf := make([]float64, len(d))
	var sum float64
	for i, p := range d {
		sum += p
		cdf[i] = sum
	}
	return cdf
}

// Mean returns the expected offspring count per individual.
func (d Distribution) Mean() float64 {
	return theory.MeanOffspring(d)
}

// Parse builds a Distribution from a comma-separated list of probabilities,
// e.g. "0.5,0.25,0.25". The result is validated.
func Parse(s string) (Distribution, error) {
	parts := strings.Split(s, ",")
	d := make(Distribution, 0, len(parts))
	for _, part := range parts {
		p, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, apperrors.NewParameterError("distribution",
				"cannot parse probability %q", strings.TrimSpace(part))
		}
		d = append(d, p)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
