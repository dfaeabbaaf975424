package cli

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/styvesb/probsim/internal/config"
	"github.com/styvesb/probsim/internal/theory"
	"github.com/styvesb/probsim/internal/ui"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds for
// durations less than a second, and the default string representation otherwise.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// PrintExecutionConfig displays the current execution configuration to the user.
// It shows the selected experiment, its parameters, and environment details.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	switch cfg.Experiment {
	case config.ExperimentCoupon:
		fmt.Fprintf(out, "Coupon collector: n = %s%d%s, trials = %s%d%s.\n",
			ui.ColorPrimary(), cfg.N, ui.ColorReset(), ui.ColorPrimary(), cfg.Trials, ui.ColorReset())
	case config.ExperimentBranching:
		fmt.Fprintf(out, "Branching process: trials = %s%d%s, generations = %s%d%s.\n",
			ui.ColorPrimary(), cfg.Trials, ui.ColorReset(), ui.ColorPrimary(), cfg.Generations, ui.ColorReset())
	case config.ExperimentGrowth:
		fmt.Fprintf(out, "Coupon growth experiment: n = 2^k for k = 8..20, %s%d%s trials each.\n",
			ui.ColorPrimary(), cfg.Trials, ui.ColorReset())
	case config.ExperimentBench:
		fmt.Fprintf(out, "Benchmark: 100 trials with 10000 coupon types.\n")
	}
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s, timeout %s%s%s.\n",
		ui.ColorInfo(), runtime.NumCPU(), ui.ColorReset(),
		ui.ColorInfo(), runtime.Version(), ui.ColorReset(),
		ui.ColorWarning(), cfg.Timeout, ui.ColorReset())
	if cfg.Workers > 1 {
		fmt.Fprintf(out, "Execution mode: %s%d parallel trial workers%s (partitioned streams).\n",
			ui.ColorSuccess(), cfg.Workers, ui.ColorReset())
	}
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}

// PrintCouponSummary prints the aggregate result of a coupon-collector run
// next to its theoretical expectation n*H_n.
func PrintCouponSummary(n, trials int, averageSteps float64, elapsed time.Duration, out io.Writer) {
	expected := theory.ExpectedCouponDraws(n)
	fmt.Fprintf(out, "\nAverage steps over %d trials: %s%.2f%s\n",
		trials, ui.ColorSuccess(), averageSteps, ui.ColorReset())
	fmt.Fprintf(out, "Theoretical expectation n*H_n: %.2f (off by %.3f%%)\n",
		expected, theory.PercentError(averageSteps, expected))
	fmt.Fprintf(out, "Elapsed: %s\n", FormatExecutionDuration(elapsed))
}

// PrintTrialSteps prints one line per trial, used in verbose mode.
func PrintTrialSteps(steps []int, out io.Writer) {
	for i, s := range steps {
		fmt.Fprintf(out, "Trial %4d: %d steps\n", i+1, s)
	}
}

// PrintDrawWalkthrough neatly prints a table of coupon draws.
func PrintDrawWalkthrough(sequence []int, out io.Writer) {
	fmt.Fprintf(out, "\nStep | Coupon\n")
	fmt.Fprintf(out, "-----+--------\n")
	for i, c := range sequence {
		fmt.Fprintf(out, "%4d | %d\n", i+1, c)
	}
	fmt.Fprintln(out)
}

// PrintGenerationWalkthrough prints one branching trial generation by
// generation, including the running total number of individuals ever born.
func PrintGenerationWalkthrough(sizes []int, out io.Writer) {
	fmt.Fprintf(out, "\nGeneration 0 : started with 1 root\n")
	total := 1
	for g := 1; g < len(sizes); g++ {
		total += sizes[g]
		fmt.Fprintf(out, "Generation %-2d: X_%d = %-4d | total born = %d\n", g, g, sizes[g], total)
		if sizes[g] == 0 {
			fmt.Fprintf(out, "Process went extinct here.\n")
			break
		}
	}
	fmt.Fprintln(out)
}

// PrintComparisonTable prints the empirical mean population size per
// generation against the theoretical mu^n prediction.
func PrintComparisonTable(rows []theory.Comparison, mu float64, trials int, out io.Writer) {
	fmt.Fprintf(out, "\nmu = %.6f   (%d trials, up to generation %d)\n", mu, trials, len(rows)-1)
	fmt.Fprintf(out, "%3s %18s %15s %11s %8s\n", "n", "Empirical E[X_n]", "mu^n", "Abs err", "% err")
	for _, row := range rows {
		fmt.Fprintf(out, "%3d %18.6f %15.6f %11.6f %8.3f\n",
			row.Generation, row.Empirical, row.Theoretical, row.AbsError, row.PercentError)
	}
}

// PrintMeanTable prints a per-generation mean-size table with one column per
// distribution, mirroring the all-distributions view of the reference.
// All vectors must have equal length; the root generation is omitted.
func PrintMeanTable(labels []string, vectors [][]float64, trials int, out io.Writer) {
	fmt.Fprintf(out, "\nAverage number of individuals per generation (%d trials)\n\n", trials)

	const colW = 14
	fmt.Fprintf(out, "%*s", 5, "Gen")
	for _, label := range labels {
		fmt.Fprintf(out, " | %*s", colW, label)
	}
	fmt.Fprintln(out)

	if len(vectors) == 0 || len(vectors[0]) < 2 {
		return
	}
	for g := 1; g < len(vectors[0]); g++ {
		fmt.Fprintf(out, "%*d", 5, g)
		for _, vec := range vectors {
			fmt.Fprintf(out, " | %*.3f", colW, vec[g])
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out)
}

// GrowthRow is one row of the coupon-collector growth experiment.
type GrowthRow struct {
	// K is the exponent, N = 2^K.
	K int
	// N is the number of coupon types.
	N int
	// AverageSteps is the empirical mean draw count.
	AverageSteps float64
	// Expected is the theoretical n*H_n.
	Expected float64
}

// PrintGrowthTable prints the growth experiment results and the avg/n ratios
// that expose the n log n trend.
func PrintGrowthTable(rows []GrowthRow, trialsPerN int, out io.Writer) {
	fmt.Fprintf(out, "\nGrowth experiment (%d trials each)\n", trialsPerN)
	fmt.Fprintf(out, " k |           n |   avg steps |       n*H_n\n")
	fmt.Fprintf(out, "---+-------------+-------------+-------------\n")
	for _, row := range rows {
		fmt.Fprintf(out, "%2d | %11d | %11.2f | %11.2f\n", row.K, row.N, row.AverageSteps, row.Expected)
	}

	fmt.Fprintf(out, "\nRatio avg/n (shows ~log n growth):\n")
	for _, row := range rows {
		fmt.Fprintf(out, "k=%2d, avg/n = %.3f\n", row.K, row.AverageSteps/float64(row.N))
	}
	fmt.Fprintf(out, "\nThe average grows faster than n but much slower than n^2;\n")
	fmt.Fprintf(out, "avg = n*log(n) is consistent with the expectation n*H_n = n(ln n + gamma).\n")
}
