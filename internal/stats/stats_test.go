package stats

import (
	"testing"

	"github.com/banshee-data/bufferbench/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	got, err := Aggregate([]window.Delta{
		{Start: 0, End: 0.01},
		{Start: 0, End: 0.02},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, got.Count)
	assert.InDelta(t, 20.0, got.Max, 1e-9)
	assert.InDelta(t, 10.0, got.Min, 1e-9)
	assert.InDelta(t, 15.0, got.Mean, 1e-9)
	assert.InDelta(t, 15.0, got.Median, 1e-9)
}

func TestAggregate_NoData(t *testing.T) {
	_, err := Aggregate(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Aggregate([]window.Delta{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Summary
	}{
		{
			name:   "single value",
			values: []float64{4},
			want:   Summary{Count: 1, Max: 4, Min: 4, Mean: 4, Median: 4, StdDev: 0, P95: 4, P99: 4},
		},
		{
			name:   "odd count unsorted",
			values: []float64{9, 1, 5},
			want:   Summary{Count: 3, Max: 9, Min: 1, Mean: 5, Median: 5, StdDev: 4, P95: 9, P99: 9},
		},
		{
			name:   "even count",
			values: []float64{1, 2, 3, 4},
			want:   Summary{Count: 4, Max: 4, Min: 1, Mean: 2.5, Median: 2.5, StdDev: 1.2909944487358056, P95: 4, P99: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Describe(tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Count, got.Count)
			assert.InDelta(t, tt.want.Max, got.Max, 1e-9)
			assert.InDelta(t, tt.want.Min, got.Min, 1e-9)
			assert.InDelta(t, tt.want.Mean, got.Mean, 1e-9)
			assert.InDelta(t, tt.want.Median, got.Median, 1e-9)
			assert.InDelta(t, tt.want.StdDev, got.StdDev, 1e-9)
			assert.InDelta(t, tt.want.P95, got.P95, 1e-9)
			assert.InDelta(t, tt.want.P99, got.P99, 1e-9)
		})
	}
}

func TestDescribe_DoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_, err := Describe(values)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestDurationsAndMidpoints(t *testing.T) {
	deltas := []window.Delta{{Start: 20, End: 25}, {Start: 30, End: 30.001}}

	d := Durations(deltas)
	require.Len(t, d, 2)
	assert.InDelta(t, 5000.0, d[0], 1e-9)
	assert.InDelta(t, 1.0, d[1], 1e-6)

	assert.InDeltaSlice(t, []float64{22.5, 30.0005}, Midpoints(deltas), 1e-9)
}

func TestHistogram(t *testing.T) {
	edges, counts, err := Histogram([]float64{1, 2, 2, 3, 4}, 3)
	require.NoError(t, err)

	require.Len(t, edges, 4)
	assert.InDelta(t, 1.0, edges[0], 1e-9)
	assert.InDelta(t, 4.0, edges[3], 1e-9)
	// [1, 2), [2, 3), [3, 4]
	assert.Equal(t, []float64{1, 2, 2}, counts)

	total := 0.0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 5.0, total)
}

func TestHistogram_SingleValue(t *testing.T) {
	edges, counts, err := Histogram([]float64{7, 7, 7}, 2)
	require.NoError(t, err)
	assert.Len(t, edges, 3)
	assert.Equal(t, 3.0, counts[0]+counts[1])
}

func TestHistogram_Errors(t *testing.T) {
	_, _, err := Histogram(nil, 3)
	assert.ErrorIs(t, err, ErrNoData)

	_, _, err = Histogram([]float64{1}, 0)
	assert.Error(t, err)
}
