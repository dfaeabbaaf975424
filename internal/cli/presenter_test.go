package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/styvesb/probsim/internal/config"
	"github.com/styvesb/probsim/internal/theory"
	"github.com/styvesb/probsim/internal/ui"
)

func TestMain(m *testing.M) {
	// Plain escape-free output keeps the substring assertions simple.
	ui.InitTheme(true)
	m.Run()
}

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"microseconds", 500 * time.Microsecond, "500µs"},
		{"milliseconds", 50 * time.Millisecond, "50ms"},
		{"seconds", 2 * time.Second, "2s"},
		{"sub_microsecond", 900 * time.Nanosecond, "0µs"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatExecutionDuration(tc.duration); got != tc.expected {
				t.Errorf("FormatExecutionDuration(%v) = %q, want %q", tc.duration, got, tc.expected)
			}
		})
	}
}

func TestPrintExecutionConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Experiment = config.ExperimentCoupon
	cfg.N = 42
	cfg.Trials = 7

	var buf bytes.Buffer
	PrintExecutionConfig(cfg, &buf)

	out := buf.String()
	for _, want := range []string{"Coupon collector", "n = 42", "trials = 7", "Execution Configuration"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintExecutionConfig_ParallelMode(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Experiment = config.ExperimentBranching
	cfg.Workers = 8

	var buf bytes.Buffer
	PrintExecutionConfig(cfg, &buf)

	if !strings.Contains(buf.String(), "8 parallel trial workers") {
		t.Errorf("expected parallel mode line, got:\n%s", buf.String())
	}
}

func TestPrintCouponSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintCouponSummary(5, 100, 11.5, 3*time.Millisecond, &buf)

	out := buf.String()
	if !strings.Contains(out, "Average steps over 100 trials: 11.50") {
		t.Errorf("missing average line:\n%s", out)
	}
	// n*H_5 = 5 * 137/60 = 11.4166...
	if !strings.Contains(out, "11.42") {
		t.Errorf("missing theoretical expectation:\n%s", out)
	}
}

func TestPrintDrawWalkthrough(t *testing.T) {
	var buf bytes.Buffer
	PrintDrawWalkthrough([]int{2, 0, 2, 1}, &buf)

	out := buf.String()
	if !strings.Contains(out, "Step | Coupon") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "   4 | 1") {
		t.Errorf("missing final row:\n%s", out)
	}
}

func TestPrintGenerationWalkthrough_Extinction(t *testing.T) {
	var buf bytes.Buffer
	PrintGenerationWalkthrough([]int{1, 2, 0, 0}, &buf)

	out := buf.String()
	if !strings.Contains(out, "X_1 = 2") {
		t.Errorf("missing generation 1 row:\n%s", out)
	}
	if !strings.Contains(out, "extinct") {
		t.Errorf("missing extinction notice:\n%s", out)
	}
	// Absorbed generations after extinction are not printed.
	if strings.Contains(out, "Generation 3") {
		t.Errorf("printed past extinction:\n%s", out)
	}
}

func TestPrintComparisonTable(t *testing.T) {
	rows := theory.Compare([]float64{1, 0.74, 0.57}, 0.75)

	var buf bytes.Buffer
	PrintComparisonTable(rows, 0.75, 1000, &buf)

	out := buf.String()
	if !strings.Contains(out, "mu = 0.750000") {
		t.Errorf("missing mu line:\n%s", out)
	}
	if !strings.Contains(out, "Empirical E[X_n]") {
		t.Errorf("missing header:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got < 5 {
		t.Errorf("expected at least 5 lines, got %d:\n%s", got, out)
	}
}

func TestPrintMeanTable(t *testing.T) {
	labels := []string{"D1", "D2"}
	vectors := [][]float64{
		{1, 0.75, 0.56},
		{1, 1.25, 1.56},
	}

	var buf bytes.Buffer
	PrintMeanTable(labels, vectors, 500, &buf)

	out := buf.String()
	for _, want := range []string{"D1", "D2", "500 trials", "0.750", "1.250"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// The root generation is implicit and omitted from the table body.
	if strings.Contains(out, "    0 |") {
		t.Errorf("generation 0 should not be printed:\n%s", out)
	}
}

func TestPrintGrowthTable(t *testing.T) {
	rows := []GrowthRow{
		{K: 8, N: 256, AverageSteps: 1570.2, Expected: 1567.8},
		{K: 9, N: 512, AverageSteps: 3490.1, Expected: 3490.6},
	}

	var buf bytes.Buffer
	PrintGrowthTable(rows, 10, &buf)

	out := buf.String()
	for _, want := range []string{"Growth experiment (10 trials each)", "256", "k= 8, avg/n =", "k= 9, avg/n ="} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
