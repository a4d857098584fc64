package replay

import "bytes"

// FrameMarker is the byte sequence that starts every protocol frame in a
// capture.
var FrameMarker = []byte{0xFF, 0xFF, 0xFD, 0x00}

// DefaultStride resumes scanning right after a matched marker. With this
// stride a marker that begins inside the previous marker is never found; the
// protocol is assumed not to produce frames shorter than the marker itself.
const DefaultStride = 4

// Frame is the byte range [Start, End) of one frame in a capture.
type Frame struct {
	Start int
	End   int
}

// Len returns the frame size in bytes.
func (f Frame) Len() int {
	return f.End - f.Start
}

// FindFrames locates every marker in data and returns the frames they start.
// After a match at offset o the scan resumes at o+stride. The last frame runs
// to the end of data. Bytes before the first marker belong to no frame. A
// stride below 1 is treated as 1.
func FindFrames(data, marker []byte, stride int) []Frame {
	if len(marker) == 0 {
		return nil
	}
	if stride < 1 {
		stride = 1
	}

	var starts []int
	for from := 0; from < len(data); {
		i := bytes.Index(data[from:], marker)
		if i < 0 {
			break
		}
		o := from + i
		starts = append(starts, o)
		from = o + stride
	}

	if len(starts) == 0 {
		return nil
	}
	frames := make([]Frame, len(starts))
	for i, start := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		frames[i] = Frame{Start: start, End: end}
	}
	return frames
}
