// Package theory computes the closed-form expectations the simulators are
// compared against: mean offspring counts and their powers for the branching
// process, harmonic numbers for the coupon collector.
package theory

import "math"

// MeanOffspring returns the expected number of offspring per individual,
// mu = sum(i * p_i), for an offspring distribution indexed by offspring count.
// It is a pure function of the probabilities; validation is the caller's job.
func MeanOffspring(probs []float64) float64 {
	var mu float64
	for k, p := range probs {
		mu += float64(k) * p
	}
	return mu
}

// MomentAtGeneration returns the theoretical expected population size at
// generation g of a Galton-Watson process with mean offspring mu, which is
// mu^g. Generation 0 is always exactly 1.
func MomentAtGeneration(mu float64, g int) float64 {
	return math.Pow(mu, float64(g))
}

// HarmonicNumber returns H_n = sum_{i=1..n} 1/i, or 0 for n < 1.
func HarmonicNumber(n int) float64 {
	var h float64
	for i := 1; i <= n; i++ {
		h += 1 / float64(i)
	}
	return h
}

// ExpectedCouponDraws returns the expected number of draws to collect all n
// coupons, n*H_n (approximately n(ln n + gamma)).
func ExpectedCouponDraws(n int) float64 {
	return float64(n) * HarmonicNumber(n)
}

// PercentError returns 100*|empirical-theoretical|/theoretical. When the
// theoretical value is exactly 0 it returns 0 rather than dividing by zero;
// the absolute error still carries the discrepancy in that case.
func PercentError(empirical, theoretical float64) float64 {
	if theoretical == 0 {
		return 0
	}
	return 100 * math.Abs(empirical-theoretical) / theoretical
}

// Comparison is one row of an empirical-versus-theoretical comparison.
type Comparison struct {
	// Generation is the generation index the row describes.
	Generation int
	// Empirical is the simulated mean population size.
	Empirical float64
	// Theoretical is the predicted mean, mu^generation.
	Theoretical float64
	// AbsError is |Empirical - Theoretical|.
	AbsError float64
	// PercentError is 100*AbsError/Theoretical, 0 when Theoretical is 0.
	PercentError float64
}

// Compare builds one Comparison row per entry of the empirical mean vector,
// predicting mu^g for generation g. Index 0 corresponds to generation 0.
func Compare(empirical []float64, mu float64) []Comparison {
	rows := make([]Comparison, len(empirical))
	for g, emp := range empirical {
		theo := MomentAtGeneration(mu, g)
		rows[g] = Comparison{
			Generation:   g,
			Empirical:    emp,
			Theoretical:  theo,
			AbsError:     math.Abs(emp - theo),
			PercentError: PercentError(emp, theo),
		}
	}
	return rows
}
