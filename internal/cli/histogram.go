package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/styvesb/probsim/internal/ui"
)

const (
	// histogramBins is the default number of value buckets.
	histogramBins = 12
	// histogramBarWidth is the width of the longest bar in characters.
	histogramBarWidth = 40
)

// PrintHistogram renders an ASCII histogram of per-trial draw counts.
// Values are grouped into evenly sized buckets between the observed minimum
// and maximum; the longest bar is scaled to histogramBarWidth characters.
func PrintHistogram(values []int, out io.Writer) {
	if len(values) == 0 {
		return
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	bins := histogramBins
	span := hi - lo + 1
	if span < bins {
		bins = span
	}
	width := (span + bins - 1) / bins

	counts := make([]int, bins)
	for _, v := range values {
		b := (v - lo) / width
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	fmt.Fprintf(out, "\nDistribution of draw counts (%d trials):\n", len(values))
	for b := 0; b < bins; b++ {
		bucketLo := lo + b*width
		bucketHi := bucketLo + width - 1
		if bucketHi > hi {
			bucketHi = hi
		}
		barLen := 0
		if maxCount > 0 {
			barLen = counts[b] * histogramBarWidth / maxCount
		}
		if counts[b] > 0 && barLen == 0 {
			barLen = 1
		}
		fmt.Fprintf(out, "%6d-%-6d | %s%s%s %d\n",
			bucketLo, bucketHi,
			ui.ColorInfo(), strings.Repeat("█", barLen), ui.ColorReset(),
			counts[b])
	}
	fmt.Fprintln(out)
}
