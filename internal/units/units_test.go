package units

import (
	"math"
	"testing"
)

func TestTickToSeconds(t *testing.T) {
	tests := []struct {
		name     string
		tick     Tick
		expected float64
	}{
		{"zero", 0, 0},
		{"one tick", 1, 0.0001},
		{"one second", 10000, 1.0},
		{"fifteen seconds", 150000, 15.0},
		{"max u32", Tick(math.MaxUint32), 429496.7295},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TickToSeconds(tt.tick)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("TickToSeconds(%d) = %f, want %f", tt.tick, got, tt.expected)
			}
			if tt.tick.Seconds() != got {
				t.Errorf("Tick(%d).Seconds() = %f, want %f", tt.tick, tt.tick.Seconds(), got)
			}
		})
	}
}

func TestSecondsToTick(t *testing.T) {
	if got := SecondsToTick(20.0); got != 200000.0 {
		t.Errorf("SecondsToTick(20) = %f, want 200000", got)
	}
	// fractional ticks are kept
	if got := SecondsToTick(0.00005); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("SecondsToTick(0.00005) = %f, want 0.5", got)
	}
}

func TestSecondsRoundTrip(t *testing.T) {
	for _, s := range []float64{0, 0.0001, 0.5, 1, 20, 80, 3600.25, 429496.7295} {
		back := SecondsToTick(s) / TicksPerSecond
		if math.Abs(back-s) > 1e-9 {
			t.Errorf("SecondsToTick(%f)/TicksPerSecond = %f", s, back)
		}
	}

	// whole ticks survive the trip through Tick
	for _, tick := range []Tick{1, 150000, 250000, 800000} {
		if got := Tick(SecondsToTick(tick.Seconds()) + 0.5); got != tick {
			t.Errorf("Tick round trip of %d = %d", tick, got)
		}
	}
}
