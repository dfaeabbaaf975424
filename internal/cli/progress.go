package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/styvesb/probsim/internal/orchestration"
)

const (
	// ProgressRefreshRate defines the refresh frequency of the progress display.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner is an interface that abstracts the behavior of a terminal spinner.
// This allows the `DisplayProgress` function to be decoupled from a specific
// spinner implementation, facilitating easier testing. It defines the
// essential controls for a spinner: starting, stopping, and updating its
// status message.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	//
	// Parameters:
	//   - suffix: The text string to display.
	UpdateSuffix(suffix string)
}

// realSpinner is a wrapper for the `spinner.Spinner` that implements the
// `Spinner` interface. This adapter allows the `spinner` library to be used
// within the application's CLI framework.
type realSpinner struct {
	s *spinner.Spinner
}

// Start begins the spinner animation.
func (rs *realSpinner) Start() {
	rs.s.Start()
}

// Stop halts the spinner animation.
func (rs *realSpinner) Stop() {
	rs.s.Stop()
}

// UpdateSuffix sets the text that is displayed after the spinner.
//
// Parameters:
//   - suffix: The string to display.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Suffix = suffix
}

var newSpinner = func(options ...spinner.Option) Spinner {
	// Using the same interval as ProgressRefreshRate to synchronize
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// progressBar generates a string representing a textual progress bar.
//
// Parameters:
//   - progress: The normalized progress value (0.0 to 1.0).
//   - length: The total character width of the progress bar.
//
// Returns:
//   - string: A string representation of the progress bar.
func progressBar(progress float64, length int) string {
	if progress > 1.0 {
		progress = 1.0
	}
	if progress < 0.0 {
		progress = 0.0
	}
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// DisplayProgress consumes trial completion updates and renders them as a
// spinner with a progress bar. It must be called in its own goroutine and
// runs until the updates channel is closed.
//
// Parameters:
//   - wg: A WaitGroup to signal when the display loop has finished.
//   - updates: Channel receiving completion updates from the trial runner.
//   - out: The writer for progress output.
func DisplayProgress(wg *sync.WaitGroup, updates <-chan orchestration.TrialUpdate, out io.Writer) {
	defer wg.Done()

	sp := newSpinner(spinner.WithWriter(out))
	sp.Start()
	defer sp.Stop()

	// Updates arrive far more often than a human can read, so the suffix is
	// refreshed at most once per ProgressRefreshRate.
	lastRender := time.Time{}
	for update := range updates {
		now := time.Now()
		if now.Sub(lastRender) < ProgressRefreshRate && update.Completed < update.Total {
			continue
		}
		lastRender = now

		frac := 0.0
		if update.Total > 0 {
			frac = float64(update.Completed) / float64(update.Total)
		}
		sp.UpdateSuffix(fmt.Sprintf(" [%s] %d/%d trials",
			progressBar(frac, ProgressBarWidth), update.Completed, update.Total))
	}
}
