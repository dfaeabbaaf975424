package cli

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/styvesb/probsim/internal/orchestration"
)

// MockSpinner for testing
type MockSpinner struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	suffixes []string
}

func (m *MockSpinner) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
}

func (m *MockSpinner) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *MockSpinner) UpdateSuffix(suffix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suffixes = append(m.suffixes, suffix)
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		progress float64
		length   int
		filled   int
	}{
		{"empty", 0.0, 10, 0},
		{"half", 0.5, 10, 5},
		{"full", 1.0, 10, 10},
		{"over_range", 1.5, 10, 10},
		{"under_range", -0.5, 10, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bar := progressBar(tc.progress, tc.length)
			if got := strings.Count(bar, "█"); got != tc.filled {
				t.Errorf("progressBar(%v, %d) filled %d cells, want %d", tc.progress, tc.length, got, tc.filled)
			}
			if got := len([]rune(bar)); got != tc.length {
				t.Errorf("progressBar(%v, %d) width %d, want %d", tc.progress, tc.length, got, tc.length)
			}
		})
	}
}

func TestRealSpinner(t *testing.T) {
	t.Parallel()
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(io.Discard))
	rs := &realSpinner{s}

	// Just verify these methods don't panic
	rs.Start()
	rs.UpdateSuffix(" test")
	rs.Stop()
}

func TestDisplayProgress(t *testing.T) {
	originalNewSpinner := newSpinner
	defer func() { newSpinner = originalNewSpinner }()

	mockS := &MockSpinner{}
	newSpinner = func(options ...spinner.Option) Spinner {
		return mockS
	}

	var wg sync.WaitGroup
	wg.Add(1)

	updates := make(chan orchestration.TrialUpdate)
	go func() {
		updates <- orchestration.TrialUpdate{Completed: 50, Total: 100, Outcome: 12}
		updates <- orchestration.TrialUpdate{Completed: 100, Total: 100, Outcome: 9}
		close(updates)
	}()

	DisplayProgress(&wg, updates, io.Discard)
	wg.Wait()

	if !mockS.started {
		t.Error("Spinner should have started")
	}
	if !mockS.stopped {
		t.Error("Spinner should have stopped")
	}
	if len(mockS.suffixes) == 0 {
		t.Fatal("Spinner suffix was never updated")
	}
	last := mockS.suffixes[len(mockS.suffixes)-1]
	if !strings.Contains(last, "100/100 trials") {
		t.Errorf("final suffix = %q, want completion count", last)
	}
}

func TestDisplayProgress_ClosedChannel(t *testing.T) {
	originalNewSpinner := newSpinner
	defer func() { newSpinner = originalNewSpinner }()
	newSpinner = func(options ...spinner.Option) Spinner {
		return &MockSpinner{}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	updates := make(chan orchestration.TrialUpdate)
	close(updates)

	DisplayProgress(&wg, updates, io.Discard)
	wg.Wait()
	// Should return immediately, coverage check
}
