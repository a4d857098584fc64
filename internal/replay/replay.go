// Package replay plays a captured frame stream back onto a byte sink, either
// back-to-back at full throughput or one frame at a time with a fixed pause.
//
// The pause is a busy-wait on an injected monotonic clock rather than a
// sleep: scheduler wake-up latency is larger than the gaps being reproduced.
// A replay never finishes on its own. It stops on a write failure or when its
// context is cancelled; cancellation is observed between writes only.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/banshee-data/bufferbench/internal/config"
	"github.com/banshee-data/bufferbench/internal/monitoring"
	"github.com/banshee-data/bufferbench/internal/timeutil"
)

var (
	// ErrNoFramesFound is returned when paced replay is requested for a
	// capture with no frame markers.
	ErrNoFramesFound = errors.New("no frames found in capture")

	// ErrTransportWrite wraps any failed or short write to the sink. It ends
	// the replay; writes are never retried.
	ErrTransportWrite = errors.New("failed to write to transport")
)

// Mode selects how a capture is replayed.
type Mode int

const (
	// NoWait writes the whole capture repeatedly with no pacing.
	NoWait Mode = iota
	// Wait writes one frame at a time and pauses after each.
	Wait
)

func (m Mode) String() string {
	switch m {
	case NoWait:
		return "no-wait"
	case Wait:
		return "wait"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode selector.
func ParseMode(s string) (Mode, error) {
	switch strings.TrimSpace(s) {
	case "no-wait":
		return NoWait, nil
	case "wait":
		return Wait, nil
	default:
		return 0, fmt.Errorf("%w: unknown wait type %q, expected wait or no-wait", config.ErrInvalidConfiguration, s)
	}
}

// Config describes a replay.
type Config struct {
	Mode Mode
	// Delay is the pause after each frame in Wait mode. Zero or negative
	// means no pause.
	Delay time.Duration
	// Marker overrides FrameMarker when set.
	Marker []byte
	// Stride overrides DefaultStride when positive.
	Stride int
	// ProgressEvery logs progress after this many passes over the capture.
	// Zero disables progress logging.
	ProgressEvery int
}

// Stats counts what a replay has written. Writes counts sink writes in
// either mode; Frames counts only the frames written in Wait mode.
type Stats struct {
	Cycles int64
	Writes int64
	Frames int64
	Bytes  int64
}

// Replayer writes a capture to a sink according to a Config.
type Replayer struct {
	cfg    Config
	data   []byte
	frames []Frame
	sink   io.Writer
	clock  timeutil.Clock
	stats  Stats
}

// Option configures a Replayer.
type Option func(*Replayer)

// WithClock sets the clock used for pacing. It defaults to timeutil.RealClock.
func WithClock(c timeutil.Clock) Option {
	return func(r *Replayer) { r.clock = c }
}

// New prepares a replay of data onto sink. In Wait mode the frames are
// located up front and a capture without any returns ErrNoFramesFound.
func New(data []byte, sink io.Writer, cfg Config, opts ...Option) (*Replayer, error) {
	if sink == nil {
		return nil, fmt.Errorf("%w: replay sink is nil", config.ErrInvalidConfiguration)
	}
	if cfg.Mode != NoWait && cfg.Mode != Wait {
		return nil, fmt.Errorf("%w: unknown replay mode %v", config.ErrInvalidConfiguration, cfg.Mode)
	}
	if cfg.Stride < 0 {
		return nil, fmt.Errorf("%w: scan stride must be positive, got %d", config.ErrInvalidConfiguration, cfg.Stride)
	}
	if cfg.Marker == nil {
		cfg.Marker = FrameMarker
	}
	if cfg.Stride == 0 {
		cfg.Stride = DefaultStride
	}

	r := &Replayer{
		cfg:   cfg,
		data:  data,
		sink:  sink,
		clock: timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(r)
	}

	if cfg.Mode == Wait {
		r.frames = FindFrames(data, cfg.Marker, cfg.Stride)
		if len(r.frames) == 0 {
			return nil, fmt.Errorf("%w (%d bytes scanned)", ErrNoFramesFound, len(data))
		}
		if skipped := r.frames[0].Start; skipped > 0 {
			monitoring.Logf("replay: %d bytes before the first frame marker are not replayed", skipped)
		}
		monitoring.Verbosef("replay: %d frames in %d bytes (stride %d)", len(r.frames), len(data), cfg.Stride)
	}

	return r, nil
}

// Frames returns the frames that Wait mode replays.
func (r *Replayer) Frames() []Frame {
	return r.frames
}

// Stats returns the counters accumulated so far.
func (r *Replayer) Stats() Stats {
	return r.stats
}

// Run replays until ctx is cancelled or a write fails. A cancelled context
// returns ctx.Err(); a write failure returns an error wrapping
// ErrTransportWrite.
func (r *Replayer) Run(ctx context.Context) error {
	start := r.clock.Now()
	monitoring.Logf("replay: starting %v replay of %d bytes (delay %v)", r.cfg.Mode, len(r.data), r.cfg.Delay)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		if r.cfg.Mode == Wait {
			err = r.paced(ctx)
		} else {
			err = r.write(r.data)
		}
		if err != nil {
			return err
		}
		r.stats.Cycles++

		if r.cfg.ProgressEvery > 0 && r.stats.Cycles%int64(r.cfg.ProgressEvery) == 0 {
			r.logProgress(r.clock.Since(start))
		}
	}
}

// paced writes every frame once, pausing after each.
func (r *Replayer) paced(ctx context.Context) error {
	for _, f := range r.frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.write(r.data[f.Start:f.End]); err != nil {
			return err
		}
		r.stats.Frames++
		SpinWait(r.clock, r.cfg.Delay)
	}
	return nil
}

func (r *Replayer) write(p []byte) error {
	n, err := r.sink.Write(p)
	r.stats.Bytes += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransportWrite, err)
	}
	if n != len(p) {
		return fmt.Errorf("%w: short write (%d of %d bytes)", ErrTransportWrite, n, len(p))
	}
	r.stats.Writes++
	return nil
}

func (r *Replayer) logProgress(elapsed time.Duration) {
	s := r.stats
	if elapsed <= 0 {
		monitoring.Logf("replay progress: %d cycles, %d writes, %d frames, %d bytes in %v",
			s.Cycles, s.Writes, s.Frames, s.Bytes, elapsed)
		return
	}
	monitoring.Logf("replay progress: %d cycles, %d writes, %d frames, %d bytes in %v (%.0f B/s)",
		s.Cycles, s.Writes, s.Frames, s.Bytes, elapsed, float64(s.Bytes)/elapsed.Seconds())
}

// SpinWait busy-waits until d has elapsed on clock. It returns immediately
// for d <= 0.
func SpinWait(clock timeutil.Clock, d time.Duration) {
	if d <= 0 {
		return
	}
	start := clock.Now()
	for clock.Since(start) < d {
	}
}
