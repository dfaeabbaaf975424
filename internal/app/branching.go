package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/styvesb/probsim/internal/branching"
	"github.com/styvesb/probsim/internal/cli"
	"github.com/styvesb/probsim/internal/config"
	apperrors "github.com/styvesb/probsim/internal/errors"
	"github.com/styvesb/probsim/internal/logging"
	"github.com/styvesb/probsim/internal/orchestration"
	"github.com/styvesb/probsim/internal/theory"
)

// resolveDistribution picks the offspring distribution for the run: an
// explicit --dist value wins over the named preset.
func (a *Application) resolveDistribution() (branching.Distribution, string, error) {
	if a.Config.Dist != "" {
		dist, err := branching.Parse(a.Config.Dist)
		if err != nil {
			return nil, "", err
		}
		return dist, fmt.Sprintf("custom %v", []float64(dist)), nil
	}

	preset, ok := config.FindPreset(a.Presets, a.Config.Preset)
	if !ok {
		return nil, "", apperrors.NewConfigError("unknown preset %q", a.Config.Preset)
	}
	return preset.Distribution(), preset.Label, nil
}

// runBranching executes the one-shot branching-process experiment and
// prints the empirical-vs-theoretical comparison table.
func (a *Application) runBranching(ctx context.Context, out io.Writer) int {
	ctx, cancel := a.lifecycleContext(ctx)
	defer cancel()

	ctx, span := tracer.Start(ctx, "app.runBranching")
	defer span.End()
	span.SetAttributes(
		attribute.Int("branching.trials", a.Config.Trials),
		attribute.Int("branching.generations", a.Config.Generations),
	)

	dist, label, err := a.resolveDistribution()
	if err != nil {
		return a.reportRunError(err)
	}

	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
	}

	// The update channel only drives the spinner; extinction counts come
	// from the aggregated result, which sees every trial.
	var display chan orchestration.TrialUpdate
	var displayWG sync.WaitGroup
	if !a.Config.Quiet {
		display = make(chan orchestration.TrialUpdate, 64)
		displayWG.Add(1)
		go cli.DisplayProgress(&displayWG, display, out)
	}

	start := time.Now()
	result, err := branching.SimulateTrials(ctx, branching.SimulateOptions{
		Dist:        dist,
		Trials:      a.Config.Trials,
		Generations: a.Config.Generations,
		Workers:     a.Config.Workers,
		Streams:     streamsFor(a.Config.Seed, a.Config.Workers),
		Progress:    display,
	})
	elapsed := time.Since(start)
	if display != nil {
		close(display)
	}
	displayWG.Wait()

	if err != nil {
		return a.reportRunError(err)
	}

	a.metrics.ObserveBranchingRun(a.Config.Trials, result.Extinct)
	a.logger.Info("branching run complete",
		logging.String("distribution", label),
		logging.Int("trials", a.Config.Trials),
		logging.Int("extinct", result.Extinct),
		logging.String("elapsed", elapsed.String()))

	mu := dist.Mean()
	fmt.Fprintf(out, "\nDistribution: %s\n", label)
	cli.PrintComparisonTable(theory.Compare(result.Mean, mu), mu, a.Config.Trials, out)
	fmt.Fprintf(out, "\nExtinct by generation %d: %d/%d trials (%.1f%%)\n",
		a.Config.Generations, result.Extinct, a.Config.Trials,
		100*float64(result.Extinct)/float64(a.Config.Trials))
	return apperrors.ExitSuccess
}
