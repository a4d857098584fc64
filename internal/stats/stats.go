// Package stats projects clipped deltas into latency figures.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/bufferbench/internal/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoData is returned when statistics are requested over an empty sequence.
var ErrNoData = errors.New("no data")

// Summary aggregates the durations of a delta sequence, in milliseconds.
type Summary struct {
	Count  int     `json:"count"`
	Max    float64 `json:"max_ms"`
	Min    float64 `json:"min_ms"`
	Mean   float64 `json:"mean_ms"`
	Median float64 `json:"median_ms"`
	StdDev float64 `json:"std_dev_ms"`
	P95    float64 `json:"p95_ms"`
	P99    float64 `json:"p99_ms"`
}

// Durations returns DurationMs for each delta, in order.
func Durations(deltas []window.Delta) []float64 {
	out := make([]float64, len(deltas))
	for i, d := range deltas {
		out[i] = d.DurationMs()
	}
	return out
}

// Midpoints returns Midpoint for each delta, in order.
func Midpoints(deltas []window.Delta) []float64 {
	out := make([]float64, len(deltas))
	for i, d := range deltas {
		out[i] = d.Midpoint()
	}
	return out
}

// Aggregate summarises the durations of deltas. An empty sequence returns
// ErrNoData rather than a zero Summary.
func Aggregate(deltas []window.Delta) (Summary, error) {
	if len(deltas) == 0 {
		return Summary{}, ErrNoData
	}
	return Describe(Durations(deltas))
}

// Describe summarises a set of millisecond values.
func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrNoData
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{
		Count:  len(sorted),
		Max:    floats.Max(sorted),
		Min:    floats.Min(sorted),
		Mean:   stat.Mean(sorted, nil),
		Median: median(sorted),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s, nil
}

// median averages the two middle values of an even-length sorted slice.
func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Histogram buckets values into bins equal-width bins spanning their range.
// It returns the bins+1 bin edges and the count in each bin.
func Histogram(values []float64, bins int) (edges, counts []float64, err error) {
	if len(values) == 0 {
		return nil, nil, ErrNoData
	}
	if bins < 1 {
		return nil, nil, fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges = floats.Span(make([]float64, bins+1), lo, hi)
	// the last bin is half-open, nudge its edge so the maximum lands inside
	edges[bins] = math.Nextafter(hi, math.Inf(1))

	counts = stat.Histogram(nil, edges, sorted, nil)
	return edges, counts, nil
}
