package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/styvesb/probsim/internal/branching"
	"github.com/styvesb/probsim/internal/config"
	"github.com/styvesb/probsim/internal/coupon"
	"github.com/styvesb/probsim/internal/orchestration"
	"github.com/styvesb/probsim/internal/randsrc"
	"github.com/styvesb/probsim/internal/theory"
)

// programRef is a shared reference to the tea.Program.
// Because bubbletea copies the model on every Update, we need a pointer
// that survives copies so the bridge goroutines can send messages.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send sends a message to the bubbletea program (thread-safe).
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// forwardTrialUpdates drains the progress channel and forwards each update
// as a bubbletea message tagged with the run generation, so stale runs can
// be ignored after a restart.
func forwardTrialUpdates(ref *programRef, updates <-chan orchestration.TrialUpdate, gen uint64) {
	for update := range updates {
		ref.Send(TrialMsg{
			Completed:  update.Completed,
			Total:      update.Total,
			Outcome:    update.Outcome,
			Generation: gen,
		})
	}
}

// startRunCmd returns a tea.Cmd that executes the selected experiment and
// reports its outcome as a RunDoneMsg.
func startRunCmd(ref *programRef, ctx context.Context, cfg config.AppConfig, preset config.Preset, gen uint64) tea.Cmd {
	return func() tea.Msg {
		updates := make(chan orchestration.TrialUpdate, 64)
		go forwardTrialUpdates(ref, updates, gen)

		start := time.Now()
		var (
			lines []string
			err   error
		)
		switch cfg.Experiment {
		case config.ExperimentBranching:
			lines, err = runBranching(ctx, cfg, preset, updates)
		default:
			lines, err = runCoupon(ctx, cfg, updates)
		}
		close(updates)

		return RunDoneMsg{
			Lines:      lines,
			Err:        err,
			Elapsed:    time.Since(start),
			Generation: gen,
		}
	}
}

// runCoupon executes a coupon-collector run and renders its summary lines.
func runCoupon(ctx context.Context, cfg config.AppConfig, updates chan<- orchestration.TrialUpdate) ([]string, error) {
	seed := cfg.Seed
	if !cfg.SeedSet {
		var err error
		seed, err = randsrc.NewSeed()
		if err != nil {
			return nil, err
		}
	}

	result, err := coupon.Simulate(ctx, coupon.SimulateOptions{
		N:        cfg.N,
		Trials:   cfg.Trials,
		Workers:  cfg.Workers,
		MaxDraws: cfg.MaxDraws,
		Streams:  streamsFor(seed, cfg.Workers),
		Progress: updates,
	})
	if err != nil {
		return nil, err
	}

	expected := theory.ExpectedCouponDraws(cfg.N)
	return []string{
		fmt.Sprintf("Average steps over %d trials: %.2f", cfg.Trials, result.AverageSteps),
		fmt.Sprintf("Theoretical n*H_n: %.2f", expected),
		fmt.Sprintf("Deviation: %.3f%%", theory.PercentError(result.AverageSteps, expected)),
	}, nil
}

// runBranching executes a branching run and renders its per-generation
// comparison lines.
func runBranching(ctx context.Context, cfg config.AppConfig, preset config.Preset, updates chan<- orchestration.TrialUpdate) ([]string, error) {
	dist := preset.Distribution()
	result, err := branching.SimulateTrials(ctx, branching.SimulateOptions{
		Dist:        dist,
		Trials:      cfg.Trials,
		Generations: cfg.Generations,
		Workers:     cfg.Workers,
		Streams:     streamsFor(cfg.Seed, cfg.Workers),
		Progress:    updates,
	})
	if err != nil {
		return nil, err
	}

	mu := dist.Mean()
	lines := []string{
		fmt.Sprintf("%s, mu = %.4f, %d trials", preset.Label, mu, cfg.Trials),
		fmt.Sprintf("%3s %14s %12s %8s", "n", "E[X_n]", "mu^n", "% err"),
	}
	for _, row := range theory.Compare(result.Mean, mu) {
		lines = append(lines, fmt.Sprintf("%3d %14.4f %12.4f %8.3f",
			row.Generation, row.Empirical, row.Theoretical, row.PercentError))
	}
	lines = append(lines, fmt.Sprintf("Extinct by generation %d: %d/%d trials",
		cfg.Generations, result.Extinct, cfg.Trials))
	return lines, nil
}

// streamsFor picks the stream layout matching the worker count.
func streamsFor(seed int64, workers int) randsrc.Provider {
	if workers > 1 {
		return randsrc.Partitioned(seed)
	}
	return randsrc.Single(randsrc.New(seed))
}
