// Package units converts between device ticks and seconds.
package units

// TicksPerSecond is the fixed tick rate of the device clock.
const TicksPerSecond = 10000.0

// Tick is a count of device clock ticks since the device started.
// A zero tick never appears as a real timestamp; logs use it as an end marker.
type Tick uint32

// Seconds returns t converted to seconds.
func (t Tick) Seconds() float64 {
	return TickToSeconds(t)
}

// TickToSeconds converts a tick count to seconds.
func TickToSeconds(t Tick) float64 {
	return float64(t) / TicksPerSecond
}

// SecondsToTick converts seconds to a tick count. The result is not rounded
// to a whole tick; it is only used to express configuration in device units.
func SecondsToTick(seconds float64) float64 {
	return seconds * TicksPerSecond
}
