// Package window converts decoded tick logs into second-based intervals
// clipped to an analysis window.
//
// Both passes assume their input is in ascending order and stop scanning at
// the first interval that starts after the window closes. Anything after that
// point is never examined, so an out-of-order log silently loses its tail.
// Set Options.RequireAscending to turn the assumption into a checked
// precondition.
package window

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/bufferbench/internal/config"
	"github.com/banshee-data/bufferbench/internal/monitoring"
	"github.com/banshee-data/bufferbench/internal/rawlog"
	"github.com/banshee-data/bufferbench/internal/units"
)

// ErrUnordered is returned when RequireAscending is set and the log is not in
// ascending tick order.
var ErrUnordered = errors.New("log is not in ascending order")

// Window is the analysis range [StartAt, StartAt+Duration] in seconds.
type Window struct {
	StartAt  float64 `json:"start_at_secs"`
	Duration float64 `json:"max_duration_secs"`
}

// New returns a validated Window.
func New(startAt, duration float64) (Window, error) {
	if math.IsNaN(startAt) || math.IsInf(startAt, 0) {
		return Window{}, fmt.Errorf("%w: window start %f is not finite", config.ErrInvalidConfiguration, startAt)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		return Window{}, fmt.Errorf("%w: window duration %f must be finite and non-negative", config.ErrInvalidConfiguration, duration)
	}
	return Window{StartAt: startAt, Duration: duration}, nil
}

// End returns the upper bound of the window in seconds.
func (w Window) End() float64 {
	return w.StartAt + w.Duration
}

// Delta is a time interval in seconds that has already been clipped to a
// Window, so StartAt <= Start <= End <= Window.End().
type Delta struct {
	Start float64 `json:"start_secs"`
	End   float64 `json:"end_secs"`
}

// DurationMs returns the length of the interval in milliseconds.
func (d Delta) DurationMs() float64 {
	return (d.End - d.Start) * 1000.0
}

// Midpoint returns the centre of the interval in seconds, used as the
// representative timestamp when plotting.
func (d Delta) Midpoint() float64 {
	return (d.Start + d.End) / 2.0
}

// Options tunes a windowing pass.
type Options struct {
	// RequireAscending rejects logs whose buffer starts or gap marks ever
	// decrease, or whose intervals end before they start, with ErrUnordered.
	RequireAscending bool
}

// Result holds the clipped per-buffer and gap sequences.
type Result struct {
	Window         Window  `json:"window"`
	PerBuffer      []Delta `json:"per_buffer"`
	BetweenBuffers []Delta `json:"between_buffers"`
}

// Apply runs both windowing passes over a decoded log.
func Apply(l *rawlog.Log, w Window, opts Options) (*Result, error) {
	gaps := GapIntervals(l.BetweenBuffers)

	if opts.RequireAscending {
		if err := CheckAscending(l.PerBuffer); err != nil {
			return nil, fmt.Errorf("per-buffer log: %w", err)
		}
		if err := CheckAscending(gaps); err != nil {
			return nil, fmt.Errorf("between-buffers log: %w", err)
		}
	}

	res := &Result{
		Window:         w,
		PerBuffer:      Clip(l.PerBuffer, w),
		BetweenBuffers: Clip(gaps, w),
	}

	monitoring.Verbosef("window [%.4f, %.4f]s: %d/%d buffers, %d/%d gaps",
		w.StartAt, w.End(), len(res.PerBuffer), len(l.PerBuffer), len(res.BetweenBuffers), len(gaps))

	return res, nil
}

// GapIntervals pairs each gap mark with the previous one, using 0 before the
// first mark: marks [a, b, c] become (0, a), (a, b), (b, c).
func GapIntervals(marks []units.Tick) []rawlog.Interval {
	gaps := make([]rawlog.Interval, len(marks))
	var prev units.Tick
	for i, mark := range marks {
		gaps[i] = rawlog.Interval{Start: prev, End: mark}
		prev = mark
	}
	return gaps
}

// Clip converts intervals to seconds and restricts them to w.
//
// Intervals ending before the window are skipped. The scan stops at the first
// interval starting after the window ends. Intervals straddling either bound
// are truncated to it. Intervals that end before they start are dropped so
// every returned Delta keeps Start <= End.
func Clip(intervals []rawlog.Interval, w Window) []Delta {
	end := w.End()
	deltas := make([]Delta, 0, len(intervals))

	for i, iv := range intervals {
		startSecs := iv.Start.Seconds()
		endSecs := iv.End.Seconds()

		if endSecs < w.StartAt {
			continue
		}
		if startSecs > end {
			break
		}
		if endSecs < startSecs {
			monitoring.Verbosef("dropping interval %d: ends at %d before it starts at %d", i, iv.End, iv.Start)
			continue
		}

		deltas = append(deltas, Delta{
			Start: math.Max(startSecs, w.StartAt),
			End:   math.Min(endSecs, end),
		})
	}

	return deltas
}

// CheckAscending returns ErrUnordered if any interval ends before it starts or
// starts before its predecessor.
func CheckAscending(intervals []rawlog.Interval) error {
	for i, iv := range intervals {
		if iv.End < iv.Start {
			return fmt.Errorf("%w: interval %d ends at tick %d before it starts at tick %d", ErrUnordered, i, iv.End, iv.Start)
		}
		if i > 0 && iv.Start < intervals[i-1].Start {
			return fmt.Errorf("%w: interval %d starts at tick %d, before interval %d at tick %d",
				ErrUnordered, i, iv.Start, i-1, intervals[i-1].Start)
		}
	}
	return nil
}
