// Package testutil provides shared test utilities and fixtures.
//
// The builders here produce raw device timing logs and replay captures in
// their on-disk byte layout so that decoder, CLI and replay tests share one
// definition of the wire format.
package testutil

import "encoding/binary"

// FrameMarker is the four byte sequence that starts every captured frame.
var FrameMarker = []byte{0xFF, 0xFF, 0xFD, 0x00}

// PerBufferLog encodes (start, end) tick pairs as 8-byte little-endian
// records followed by an all-zero terminator record.
func PerBufferLog(pairs ...[2]uint32) []byte {
	buf := make([]byte, 0, (len(pairs)+1)*8)
	for _, p := range pairs {
		buf = binary.LittleEndian.AppendUint32(buf, p[0])
		buf = binary.LittleEndian.AppendUint32(buf, p[1])
	}
	return append(buf, make([]byte, 8)...)
}

// BetweenBuffersLog encodes ticks as 4-byte little-endian records followed
// by a zero terminator.
func BetweenBuffersLog(ticks ...uint32) []byte {
	buf := make([]byte, 0, (len(ticks)+1)*4)
	for _, t := range ticks {
		buf = binary.LittleEndian.AppendUint32(buf, t)
	}
	return append(buf, make([]byte, 4)...)
}

// Capture joins payloads into a replay capture, prefixing each with
// FrameMarker.
func Capture(payloads ...string) []byte {
	var buf []byte
	for _, p := range payloads {
		buf = append(buf, FrameMarker...)
		buf = append(buf, p...)
	}
	return buf
}
