// Package app wires configuration, presentation, and the simulators into
// the probsim executable's run modes.
package app

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/styvesb/probsim/internal/cli"
	"github.com/styvesb/probsim/internal/config"
	apperrors "github.com/styvesb/probsim/internal/errors"
	"github.com/styvesb/probsim/internal/logging"
	"github.com/styvesb/probsim/internal/metrics"
	"github.com/styvesb/probsim/internal/tui"
	"github.com/styvesb/probsim/internal/ui"
)

// Application represents the probsim application instance.
type Application struct {
	Config    config.AppConfig
	Presets   []config.Preset
	ErrWriter io.Writer

	logger  logging.Logger
	metrics *metrics.Metrics
}

// New creates a new Application instance by parsing command-line arguments
// and loading the distribution preset catalog.
func New(args []string, errWriter io.Writer) (*Application, error) {
	programName := "probsim"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	presets := config.DefaultPresets()
	if cfg.PresetsFile != "" {
		presets, err = config.LoadPresets(cfg.PresetsFile)
		if err != nil {
			return nil, err
		}
	}

	return &Application{
		Config:    cfg,
		Presets:   presets,
		ErrWriter: errWriter,
		logger:    logging.NewDefaultLogger(),
		metrics:   metrics.NewMetrics(),
	}, nil
}

// Run executes the application based on the configured mode.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	switch {
	case a.Config.Verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case a.Config.Quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	ui.InitTheme(false)

	if a.Config.MetricsAddr != "" {
		stop := a.serveMetrics()
		defer stop()
	}

	if a.Config.REPL {
		return a.runREPL()
	}
	if a.Config.TUI {
		return a.runTUI(ctx)
	}

	switch a.Config.Experiment {
	case config.ExperimentBranching:
		return a.runBranching(ctx, out)
	case config.ExperimentGrowth:
		return a.runGrowth(ctx, out)
	case config.ExperimentBench:
		return a.runBench(ctx, out)
	default:
		return a.runCoupon(ctx, out)
	}
}

// lifecycleContext derives the run context: overall timeout plus SIGINT and
// SIGTERM cancellation.
func (a *Application) lifecycleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return ctx, func() {
		stopSignals()
		cancelTimeout()
	}
}

// runREPL starts the interactive menu session. The session has no overall
// timeout; the configured timeout bounds each experiment run inside it.
func (a *Application) runREPL() int {
	r := cli.NewREPL(cli.REPLConfig{
		Presets:     a.Presets,
		Workers:     a.Config.Workers,
		Timeout:     a.Config.Timeout,
		Generations: a.Config.Generations,
		Seed:        a.Config.Seed,
	})
	r.Start()
	return apperrors.ExitSuccess
}

// runTUI launches the interactive dashboard.
func (a *Application) runTUI(ctx context.Context) int {
	ctx, cancel := a.lifecycleContext(ctx)
	defer cancel()
	return tui.Run(ctx, a.Config, a.Presets, Version)
}

// serveMetrics starts the Prometheus endpoint in the background and returns
// a function that shuts it down.
func (a *Application) serveMetrics() func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())

	srv := &http.Server{
		Addr:              a.Config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.logger.Info("serving metrics", logging.String("addr", a.Config.MetricsAddr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// reportRunError logs a failed run and maps it to an exit code.
func (a *Application) reportRunError(err error) int {
	if apperrors.IsContextError(err) {
		a.logger.Error("run canceled or timed out", err)
	} else {
		a.logger.Error("run failed", err)
	}
	return apperrors.ExitCodeFor(err)
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
