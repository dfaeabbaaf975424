package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/styvesb/probsim/internal/cli"
	"github.com/styvesb/probsim/internal/coupon"
	apperrors "github.com/styvesb/probsim/internal/errors"
	"github.com/styvesb/probsim/internal/logging"
	"github.com/styvesb/probsim/internal/metrics"
	"github.com/styvesb/probsim/internal/orchestration"
	"github.com/styvesb/probsim/internal/randsrc"
	"github.com/styvesb/probsim/internal/theory"
)

var tracer = otel.Tracer("probsim/app")

// Fixed workloads of the growth and benchmark modes, matching the
// reference implementation's menu entries.
const (
	growthMinExp = 8
	growthMaxExp = 20
	growthTrials = 10
	benchCoupons = 10000
	benchTrials  = 100
)

// couponSeed resolves the seed for a coupon run: the explicit --seed value
// when given, otherwise a fresh cryptographic seed per run.
func (a *Application) couponSeed() (int64, error) {
	if a.Config.SeedSet {
		return a.Config.Seed, nil
	}
	return randsrc.NewSeed()
}

// streamsFor picks the stream layout matching the worker count.
func streamsFor(seed int64, workers int) randsrc.Provider {
	if workers > 1 {
		return randsrc.Partitioned(seed)
	}
	return randsrc.Single(randsrc.New(seed))
}

// simulateCoupon runs one coupon-collector aggregation. When progressOut is
// non-nil a spinner consumes the trial updates; otherwise the run is silent.
func (a *Application) simulateCoupon(ctx context.Context, n, trials int, progressOut io.Writer) (coupon.Result, time.Duration, error) {
	seed, err := a.couponSeed()
	if err != nil {
		return coupon.Result{}, 0, apperrors.WrapError(err, "seeding coupon run")
	}

	opts := coupon.SimulateOptions{
		N:        n,
		Trials:   trials,
		Workers:  a.Config.Workers,
		MaxDraws: a.Config.MaxDraws,
		Streams:  streamsFor(seed, a.Config.Workers),
	}

	var (
		updates chan orchestration.TrialUpdate
		wg      sync.WaitGroup
	)
	if progressOut != nil {
		updates = make(chan orchestration.TrialUpdate, 64)
		opts.Progress = updates
		wg.Add(1)
		go cli.DisplayProgress(&wg, updates, progressOut)
	}

	start := time.Now()
	result, err := coupon.Simulate(ctx, opts)
	elapsed := time.Since(start)
	if updates != nil {
		close(updates)
		wg.Wait()
	}

	return result, elapsed, err
}

// runCoupon executes the one-shot coupon-collector experiment.
func (a *Application) runCoupon(ctx context.Context, out io.Writer) int {
	ctx, cancel := a.lifecycleContext(ctx)
	defer cancel()

	ctx, span := tracer.Start(ctx, "app.runCoupon")
	defer span.End()
	span.SetAttributes(
		attribute.Int("coupon.n", a.Config.N),
		attribute.Int("coupon.trials", a.Config.Trials),
	)

	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
	}

	progressOut := io.Writer(nil)
	if !a.Config.Quiet {
		progressOut = out
	}

	result, elapsed, err := a.simulateCoupon(ctx, a.Config.N, a.Config.Trials, progressOut)
	if err != nil {
		return a.reportRunError(err)
	}

	totalDraws := 0
	for _, s := range result.Steps {
		totalDraws += s
	}
	a.metrics.ObserveCouponRun(a.Config.Trials, totalDraws)
	a.logger.Info("coupon run complete",
		logging.Int("n", a.Config.N),
		logging.Int("trials", a.Config.Trials),
		logging.Float64("average_steps", result.AverageSteps),
		logging.String("elapsed", elapsed.String()))

	if a.Config.Quiet {
		fmt.Fprintf(out, "%.4f\n", result.AverageSteps)
		return apperrors.ExitSuccess
	}

	if a.Config.Verbose {
		cli.PrintTrialSteps(result.Steps, out)
	}
	cli.PrintCouponSummary(a.Config.N, a.Config.Trials, result.AverageSteps, elapsed, out)
	cli.PrintHistogram(result.Steps, out)
	return apperrors.ExitSuccess
}

// runGrowth runs the coupon experiment across n = 2^k and prints the
// growth table.
func (a *Application) runGrowth(ctx context.Context, out io.Writer) int {
	ctx, cancel := a.lifecycleContext(ctx)
	defer cancel()

	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
	}

	rows := make([]cli.GrowthRow, 0, growthMaxExp-growthMinExp+1)
	for k := growthMinExp; k <= growthMaxExp; k++ {
		n := 1 << k
		result, elapsed, err := a.simulateCoupon(ctx, n, growthTrials, nil)
		if err != nil {
			return a.reportRunError(err)
		}
		a.logger.Debug("growth step complete",
			logging.Int("k", k),
			logging.Int("n", n),
			logging.String("elapsed", elapsed.String()))
		rows = append(rows, cli.GrowthRow{
			K:            k,
			N:            n,
			AverageSteps: result.AverageSteps,
			Expected:     theory.ExpectedCouponDraws(n),
		})
	}

	cli.PrintGrowthTable(rows, growthTrials, out)
	return apperrors.ExitSuccess
}

// runBench runs the fixed large workload and reports timing and memory.
func (a *Application) runBench(ctx context.Context, out io.Writer) int {
	ctx, cancel := a.lifecycleContext(ctx)
	defer cancel()

	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
	}

	collector := metrics.NewMemoryCollector()
	before := collector.Snapshot()

	progressOut := io.Writer(nil)
	if !a.Config.Quiet {
		progressOut = out
	}
	result, elapsed, err := a.simulateCoupon(ctx, benchCoupons, benchTrials, progressOut)
	if err != nil {
		return a.reportRunError(err)
	}

	delta := collector.Snapshot().Since(before)
	totalDraws := 0
	for _, s := range result.Steps {
		totalDraws += s
	}
	a.metrics.ObserveCouponRun(benchTrials, totalDraws)

	cli.PrintCouponSummary(benchCoupons, benchTrials, result.AverageSteps, elapsed, out)
	fmt.Fprintf(out, "Per trial: %s\n", cli.FormatExecutionDuration(elapsed/time.Duration(benchTrials)))
	fmt.Fprintf(out, "Heap in use: %.2f MiB, GC cycles during run: %d\n",
		float64(delta.HeapAlloc)/(1024*1024), delta.NumGC)
	return apperrors.ExitSuccess
}
