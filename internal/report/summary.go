package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/bufferbench/internal/stats"
	"github.com/banshee-data/bufferbench/internal/timeutil"
	"github.com/banshee-data/bufferbench/internal/window"
)

// newRunID is replaced in tests.
var newRunID = uuid.NewString

// Metadata identifies one analysis run.
type Metadata struct {
	RunID            string        `json:"run_id"`
	GeneratedAt      time.Time     `json:"generated_at"`
	Input            string        `json:"input"`
	Window           window.Window `json:"window"`
	RequireAscending bool          `json:"require_ascending"`
}

// Report summarises both sequences of a windowed log. A sequence with no
// deltas inside the window has a nil summary.
type Report struct {
	Metadata
	PerBuffer      *stats.Summary `json:"per_buffer"`
	BetweenBuffers *stats.Summary `json:"between_buffers"`
}

// NewReport aggregates res into a Report.
func NewReport(input string, res *window.Result, requireAscending bool, clock timeutil.Clock) (*Report, error) {
	r := &Report{
		Metadata: Metadata{
			RunID:            newRunID(),
			GeneratedAt:      clock.Now().UTC(),
			Input:            input,
			Window:           res.Window,
			RequireAscending: requireAscending,
		},
	}

	var err error
	if r.PerBuffer, err = summarise(res.PerBuffer); err != nil {
		return nil, fmt.Errorf("per-buffer: %w", err)
	}
	if r.BetweenBuffers, err = summarise(res.BetweenBuffers); err != nil {
		return nil, fmt.Errorf("between-buffers: %w", err)
	}
	return r, nil
}

func summarise(deltas []window.Delta) (*stats.Summary, error) {
	s, err := stats.Aggregate(deltas)
	if errors.Is(err, stats.ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// WriteText writes a fixed-width table of both summaries.
func (r *Report) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("run %s\n", r.RunID)
	ew.printf("input %s, window [%.3f, %.3f] s\n\n", r.Input, r.Window.StartAt, r.Window.End())
	ew.printf("%-16s %8s %10s %10s %10s %10s %10s %10s %10s\n",
		"sequence", "count", "max", "min", "mean", "median", "std-dev", "p95", "p99")

	rows := []struct {
		name string
		s    *stats.Summary
	}{
		{"per-buffer", r.PerBuffer},
		{"between-buffers", r.BetweenBuffers},
	}
	for _, row := range rows {
		if row.s == nil {
			ew.printf("%-16s %8d %10s %10s %10s %10s %10s %10s %10s\n", row.name, 0, "-", "-", "-", "-", "-", "-", "-")
			continue
		}
		s := row.s
		ew.printf("%-16s %8d %10.3f %10.3f %10.3f %10.3f %10.3f %10.3f %10.3f\n",
			row.name, s.Count, s.Max, s.Min, s.Mean, s.Median, s.StdDev, s.P95, s.P99)
	}
	ew.printf("\nall times in ms\n")
	return ew.err
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
