// Package rawlog decodes the binary timing logs written by the device and
// reads and writes the JSON interchange document consumed by the analysis
// stage.
//
// The device writes two logs. The per-buffer log holds one 8-byte record per
// processed buffer: the start and end tick as little-endian u32 values. The
// between-buffers log holds one little-endian u32 tick per buffer marking
// the start of the following gap. Both are terminated by a zero record; the
// device leaves the rest of its log region uninitialised so anything after
// the terminator is ignored.
package rawlog

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/banshee-data/bufferbench/internal/units"
)

// ErrMalformedLog is returned when a log ends, or a record is cut short,
// before the zero terminator is reached.
var ErrMalformedLog = errors.New("malformed log")

const (
	perBufferRecordSize = 8
	betweenRecordSize   = 4
)

// Interval is one buffer's processing span in device ticks.
type Interval struct {
	Start units.Tick
	End   units.Tick
}

// Log is the decoded content of a pair of raw logs.
type Log struct {
	PerBuffer      []Interval   `json:"per_buffer"`
	BetweenBuffers []units.Tick `json:"between_buffers"`
}

// Decode decodes both raw logs. Either failing aborts the whole decode.
func Decode(perBuffer, betweenBuffers []byte) (*Log, error) {
	intervals, err := DecodePerBuffer(perBuffer)
	if err != nil {
		return nil, fmt.Errorf("per-buffer log: %w", err)
	}

	marks, err := DecodeBetweenBuffers(betweenBuffers)
	if err != nil {
		return nil, fmt.Errorf("between-buffers log: %w", err)
	}

	return &Log{PerBuffer: intervals, BetweenBuffers: marks}, nil
}

// DecodePerBuffer reads (start, end) records up to the first record with a
// zero start or end. The terminating record is not returned.
func DecodePerBuffer(data []byte) ([]Interval, error) {
	intervals := make([]Interval, 0, len(data)/perBufferRecordSize)

	for off := 0; ; off += perBufferRecordSize {
		if off+perBufferRecordSize > len(data) {
			return nil, truncated(len(intervals), off, len(data), perBufferRecordSize)
		}

		start := binary.LittleEndian.Uint32(data[off:])
		end := binary.LittleEndian.Uint32(data[off+4:])
		if start == 0 || end == 0 {
			return intervals, nil
		}

		intervals = append(intervals, Interval{Start: units.Tick(start), End: units.Tick(end)})
	}
}

// DecodeBetweenBuffers reads gap start ticks up to the first zero tick. The
// terminator is not returned.
func DecodeBetweenBuffers(data []byte) ([]units.Tick, error) {
	marks := make([]units.Tick, 0, len(data)/betweenRecordSize)

	for off := 0; ; off += betweenRecordSize {
		if off+betweenRecordSize > len(data) {
			return nil, truncated(len(marks), off, len(data), betweenRecordSize)
		}

		tick := binary.LittleEndian.Uint32(data[off:])
		if tick == 0 {
			return marks, nil
		}

		marks = append(marks, units.Tick(tick))
	}
}

func truncated(records, off, size, recordSize int) error {
	if off == size {
		return fmt.Errorf("%w: no terminator after %d records (%d bytes)", ErrMalformedLog, records, size)
	}
	return fmt.Errorf("%w: record %d cut short at byte %d (%d of %d bytes present)",
		ErrMalformedLog, records, off, size-off, recordSize)
}
