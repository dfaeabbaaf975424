// Package cli provides the interactive session, result presentation, and
// progress display for the probability simulator.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/styvesb/probsim/internal/branching"
	"github.com/styvesb/probsim/internal/config"
	"github.com/styvesb/probsim/internal/coupon"
	"github.com/styvesb/probsim/internal/metrics"
	"github.com/styvesb/probsim/internal/orchestration"
	"github.com/styvesb/probsim/internal/randsrc"
	"github.com/styvesb/probsim/internal/theory"
	"github.com/styvesb/probsim/internal/ui"
)

const (
	// walkthroughCoupons is the coupon count used by the guided walkthrough,
	// small enough that a full draw sequence fits on one screen.
	walkthroughCoupons = 5
	// benchCoupons and benchTrials define the fixed benchmark workload.
	benchCoupons = 10000
	benchTrials  = 100
	// growthMinExp and growthMaxExp bound the n = 2^k growth experiment.
	growthMinExp    = 8
	growthMaxExp    = 20
	growthTrials    = 10
	comparisonTrial = 10000
)

// REPLConfig holds configuration for an interactive session.
type REPLConfig struct {
	// Presets is the offspring-distribution catalog.
	Presets []config.Preset
	// Workers is the number of concurrent trial workers.
	Workers int
	// Timeout is the maximum duration for each experiment run.
	Timeout time.Duration
	// Generations is the horizon for branching experiments.
	Generations int
	// Seed drives branching runs. A fixed seed makes the session as a whole
	// reproducible; within a session the stream advances across menu actions.
	Seed int64
}

// REPL represents an interactive simulation session.
type REPL struct {
	config REPLConfig
	in     io.Reader
	out    io.Writer

	// branchSrc is the session's branching stream. It advances across menu
	// actions, so repeating an action explores fresh trials.
	branchSrc  randsrc.Source
	branchRuns int64
}

// NewREPL creates a new REPL instance.
//
// Parameters:
//   - cfg: Session configuration.
//
// Returns:
//   - *REPL: A new REPL instance.
func NewREPL(cfg REPLConfig) *REPL {
	if len(cfg.Presets) == 0 {
		cfg.Presets = config.DefaultPresets()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.Generations < 1 {
		cfg.Generations = 10
	}
	return &REPL{
		config:    cfg,
		in:        os.Stdin,
		out:       os.Stdout,
		branchSrc: randsrc.New(cfg.Seed),
	}
}

// SetInput sets a custom input reader (useful for testing).
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput sets a custom output writer (useful for testing).
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// Start begins the interactive session. It repeatedly displays the menu,
// reads a choice, and runs the selected experiment until the user quits or
// EOF is reached.
func (r *REPL) Start() {
	r.printBanner()

	reader := bufio.NewReader(r.in)

	for {
		r.printMenu()
		fmt.Fprint(r.out, ui.ColorSuccess()+"sim> "+ui.ColorReset())

		input, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(r.out, "%sRead error: %v%s\n", ui.ColorError(), err, ui.ColorReset())
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !r.processChoice(input, reader) {
			return
		}
	}
}

// printBanner displays the session welcome banner.
func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s╔══════════════════════════════════════════════════════════╗%s\n", ui.ColorInfo(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s║%s     %s🎲 Probability Simulator - Interactive Mode%s           %s║%s\n",
		ui.ColorInfo(), ui.ColorReset(), ui.ColorBold(), ui.ColorReset(), ui.ColorInfo(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s╚══════════════════════════════════════════════════════════╝%s\n", ui.ColorInfo(), ui.ColorReset())
}

// printMenu displays the experiment menu.
func (r *REPL) printMenu() {
	fmt.Fprintf(r.out, "\n%sExperiments:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %s1%s - Coupon collector (choose n and trials)\n", ui.ColorWarning(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %s2%s - Coupon walkthrough (n = %d, every draw shown)\n", ui.ColorWarning(), ui.ColorReset(), walkthroughCoupons)
	fmt.Fprintf(r.out, "  %s3%s - Benchmark (n = %d, %d trials, memory report)\n", ui.ColorWarning(), ui.ColorReset(), benchCoupons, benchTrials)
	fmt.Fprintf(r.out, "  %s4%s - Growth experiment (n = 2^k for k = %d..%d)\n", ui.ColorWarning(), ui.ColorReset(), growthMinExp, growthMaxExp)
	fmt.Fprintf(r.out, "  %s5%s - Branching walkthrough (one trial, generation by generation)\n", ui.ColorWarning(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %s6%s - Branching: empirical E[X_n] vs mu^n\n", ui.ColorWarning(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %s7%s - Branching: all distributions side by side\n", ui.ColorWarning(), ui.ColorReset())
	fmt.Fprintf(r.out, "  %sq%s - Quit\n", ui.ColorWarning(), ui.ColorReset())
}

// processChoice dispatches a menu choice. Returns false if the session
// should end.
func (r *REPL) processChoice(input string, reader *bufio.Reader) bool {
	switch strings.ToLower(input) {
	case "1":
		r.runInteractiveCoupon(reader)
	case "2":
		r.runCouponWalkthrough()
	case "3":
		r.runBenchmark()
	case "4":
		r.runGrowth()
	case "5":
		r.runBranchingWalkthrough(reader)
	case "6":
		r.runComparison(reader)
	case "7":
		r.runAllDistributions()
	case "q", "quit", "exit":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ui.ColorSuccess(), ui.ColorReset())
		return false
	default:
		fmt.Fprintf(r.out, "%sUnknown choice: %s%s\n", ui.ColorError(), input, ui.ColorReset())
	}
	return true
}

// promptInt reads one line and evaluates it as a restricted arithmetic
// expression, so inputs like "2**16" work wherever a number is expected.
func (r *REPL) promptInt(reader *bufio.Reader, label string, fallback int) int {
	fmt.Fprintf(r.out, "%s [%d]: ", label, fallback)

	line, err := reader.ReadString('\n')
	if err != nil {
		return fallback
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}

	value, err := EvalExpr(line)
	if err != nil {
		fmt.Fprintf(r.out, "%s%v, using %d%s\n", ui.ColorError(), err, fallback, ui.ColorReset())
		return fallback
	}
	return value
}

// promptPreset lets the user pick an offspring distribution from the catalog.
func (r *REPL) promptPreset(reader *bufio.Reader) config.Preset {
	fmt.Fprintf(r.out, "\n%sDistributions:%s\n", ui.ColorBold(), ui.ColorReset())
	for i, p := range r.config.Presets {
		fmt.Fprintf(r.out, "  %s%d%s - %s %v\n", ui.ColorWarning(), i+1, ui.ColorReset(), p.Label, p.Probabilities)
	}

	choice := r.promptInt(reader, "Distribution", 1)
	if choice < 1 || choice > len(r.config.Presets) {
		fmt.Fprintf(r.out, "%sOut of range, using %s%s\n", ui.ColorError(), r.config.Presets[0].Label, ui.ColorReset())
		choice = 1
	}
	return r.config.Presets[choice-1]
}

// couponStreams builds the stream provider for a coupon run with a fresh
// cryptographic seed, matching the non-interactive default.
func (r *REPL) couponStreams() (randsrc.Provider, error) {
	seed, err := randsrc.NewSeed()
	if err != nil {
		return nil, err
	}
	if r.config.Workers > 1 {
		return randsrc.Partitioned(seed), nil
	}
	return randsrc.Single(randsrc.New(seed)), nil
}

// runCoupon executes one coupon-collector run with live progress.
func (r *REPL) runCoupon(n, trials, maxDraws int) (coupon.Result, time.Duration, error) {
	streams, err := r.couponStreams()
	if err != nil {
		return coupon.Result{}, 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()

	updates := make(chan orchestration.TrialUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go DisplayProgress(&wg, updates, r.out)

	start := time.Now()
	result, err := coupon.Simulate(ctx, coupon.SimulateOptions{
		N:        n,
		Trials:   trials,
		Workers:  r.config.Workers,
		MaxDraws: maxDraws,
		Streams:  streams,
		Progress: updates,
	})
	elapsed := time.Since(start)
	close(updates)
	wg.Wait()

	return result, elapsed, err
}

// runInteractiveCoupon prompts for n and the trial count, then runs and
// summarizes a coupon-collector simulation.
func (r *REPL) runInteractiveCoupon(reader *bufio.Reader) {
	n := r.promptInt(reader, "Number of coupon types n", 100)
	trials := r.promptInt(reader, "Number of trials", 1000)

	result, elapsed, err := r.runCoupon(n, trials, 0)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorError(), err, ui.ColorReset())
		return
	}

	PrintCouponSummary(n, trials, result.AverageSteps, elapsed, r.out)
	PrintHistogram(result.Steps, r.out)
}

// runCouponWalkthrough runs a single small trial and prints every draw.
func (r *REPL) runCouponWalkthrough() {
	seed, err := randsrc.NewSeed()
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorError(), err, ui.ColorReset())
		return
	}

	fmt.Fprintf(r.out, "\nCollecting %d coupon types, one draw at a time:\n", walkthroughCoupons)
	sequence, err := coupon.TrialSequence(randsrc.New(seed), walkthroughCoupons)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorError(), err, ui.ColorReset())
		return
	}
	PrintDrawWalkthrough(sequence, r.out)
	fmt.Fprintf(r.out, "All %d types collected after %s%d%s draws (expectation: %.2f).\n",
		walkthroughCoupons, ui.ColorSuccess(), len(sequence), ui.ColorReset(),
		theory.ExpectedCouponDraws(walkthroughCoupons))
}

// runBenchmark runs the fixed large workload and reports timing plus a
// memory delta.
func (r *REPL) runBenchmark() {
	fmt.Fprintf(r.out, "\nRunning %d trials with n = %d...\n", benchTrials, benchCoupons)

	collector := metrics.NewMemoryCollector()
	before := collector.Snapshot()

	result, elapsed, err := r.runCoupon(benchCoupons, benchTrials, 0)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorError(), err, ui.ColorReset())
		return
	}

	delta := collector.Snapshot().Since(before)
	PrintCouponSummary(benchCoupons, benchTrials, result.AverageSteps, elapsed, r.out)
	fmt.Fprintf(r.out, "Per trial: %s\n", FormatExecutionDuration(elapsed/time.Duration(benchTrials)))
	fmt.Fprintf(r.out, "Heap in use: %.2f MiB, GC cycles during run: %d\n",
		float64(delta.HeapAlloc)/(1024*1024), delta.NumGC)
}

// runGrowth runs the coupon experiment for n = 2^k and prints the growth
// table with avg/n ratios.
func (r *REPL) runGrowth() {
	fmt.Fprintf(r.out, "\nRunning %d trials for each n = 2^k, k = %d..%d (this can take a while)...\n",
		growthTrials, growthMinExp, growthMaxExp)

	rows := make([]GrowthRow, 0, growthMaxExp-growthMinExp+1)
	for k := growthMinExp; k <= growthMaxExp; k++ {
		n := 1 << k
		result, _, err := r.runCoupon(n, growthTrials, 0)
		if err != nil {
			fmt.Fprintf(r.out, "%sError at k=%d: %v%s\n", ui.ColorError(), k, err, ui.ColorReset())
			return
		}
		rows = append(rows, GrowthRow{
			K:            k,
			N:            n,
			AverageSteps: result.AverageSteps,
			Expected:     theory.ExpectedCouponDraws(n),
		})
	}

	PrintGrowthTable(rows, growthTrials, r.out)
}

// branchingStreams builds the stream provider for the next branching run.
// The sequential path shares the session stream, which keeps advancing, so
// rerunning a menu item samples new trials. The parallel path derives a
// distinct per-run seed instead, since partitioned streams cannot advance
// across runs.
func (r *REPL) branchingStreams() randsrc.Provider {
	r.branchRuns++
	if r.config.Workers > 1 {
		return randsrc.Partitioned(r.config.Seed + r.branchRuns)
	}
	return randsrc.Single(r.branchSrc)
}

// runBranchingWalkthrough runs one trial of the chosen distribution and
// prints it generation by generation.
func (r *REPL) runBranchingWalkthrough(reader *bufio.Reader) {
	preset := r.promptPreset(reader)
	dist := preset.Distribution()
	if err := dist.Validate(); err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorError(), err, ui.ColorReset())
		return
	}

	fmt.Fprintf(r.out, "\nOne trial of %s over %d generations:\n", preset.Label, r.config.Generations)
	sizes, err := branching.Trial(r.branchSrc, dist, r.config.Generations)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorError(), err, ui.ColorReset())
		return
	}
	PrintGenerationWalkthrough(sizes, r.out)
}

// runComparison estimates E[X_n] for the chosen distribution and prints it
// against the theoretical mu^n.
func (r *REPL) runComparison(reader *bufio.Reader) {
	preset := r.promptPreset(reader)
	dist := preset.Distribution()

	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()

	result, err := branching.SimulateTrials(ctx, branching.SimulateOptions{
		Dist:        dist,
		Trials:      comparisonTrial,
		Generations: r.config.Generations,
		Workers:     r.config.Workers,
		Streams:     r.branchingStreams(),
	})
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorError(), err, ui.ColorReset())
		return
	}

	PrintComparisonTable(theory.Compare(result.Mean, dist.Mean()), dist.Mean(), comparisonTrial, r.out)
}

// runAllDistributions prints the per-generation mean table for every preset
// in the catalog side by side.
func (r *REPL) runAllDistributions() {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()

	labels := make([]string, 0, len(r.config.Presets))
	vectors := make([][]float64, 0, len(r.config.Presets))

	for _, preset := range r.config.Presets {
		result, err := branching.SimulateTrials(ctx, branching.SimulateOptions{
			Dist:        preset.Distribution(),
			Trials:      comparisonTrial,
			Generations: r.config.Generations,
			Workers:     r.config.Workers,
			Streams:     r.branchingStreams(),
		})
		if err != nil {
			fmt.Fprintf(r.out, "%sError for %s: %v%s\n", ui.ColorError(), preset.Name, err, ui.ColorReset())
			return
		}
		labels = append(labels, preset.Label)
		vectors = append(vectors, result.Mean)
	}

	PrintMeanTable(labels, vectors, comparisonTrial, r.out)
}
