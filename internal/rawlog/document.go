package rawlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/bufferbench/internal/fsutil"
	"github.com/banshee-data/bufferbench/internal/monitoring"
	"github.com/banshee-data/bufferbench/internal/units"
)

// MarshalJSON encodes an interval as a [start, end] pair.
func (i Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]units.Tick{i.Start, i.End})
}

// UnmarshalJSON decodes a [start, end] pair.
func (i *Interval) UnmarshalJSON(data []byte) error {
	var pair []units.Tick
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("interval must have 2 elements, got %d", len(pair))
	}
	i.Start, i.End = pair[0], pair[1]
	return nil
}

// WriteJSON writes the interchange document, indented for readability.
// Empty sequences are written as [] rather than null.
func (l *Log) WriteJSON(w io.Writer) error {
	out := Log{PerBuffer: l.PerBuffer, BetweenBuffers: l.BetweenBuffers}
	if out.PerBuffer == nil {
		out.PerBuffer = []Interval{}
	}
	if out.BetweenBuffers == nil {
		out.BetweenBuffers = []units.Tick{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(out)
}

// ReadJSON parses an interchange document.
func ReadJSON(r io.Reader) (*Log, error) {
	var l Log
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("failed to parse log document: %w", err)
	}
	if l.PerBuffer == nil {
		l.PerBuffer = []Interval{}
	}
	if l.BetweenBuffers == nil {
		l.BetweenBuffers = []units.Tick{}
	}
	return &l, nil
}

// Load reads an interchange document from path.
func Load(fsys fsutil.FileSystem, path string) (*Log, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	l, err := ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Save writes the interchange document to a new file at path. It refuses to
// overwrite an existing file, and removes what it created if the write fails.
func Save(fsys fsutil.FileSystem, path string, l *Log) error {
	w, err := fsys.CreateNew(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	err = l.WriteJSON(w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := fsys.Remove(path); rerr != nil {
			monitoring.Logf("rawlog: failed to remove partial %s: %v", path, rerr)
		}
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// DecodeFiles reads and decodes a pair of raw log files.
func DecodeFiles(fsys fsutil.FileSystem, perBufferPath, betweenBuffersPath string) (*Log, error) {
	perBuffer, err := fsys.ReadFile(perBufferPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", perBufferPath, err)
	}
	betweenBuffers, err := fsys.ReadFile(betweenBuffersPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", betweenBuffersPath, err)
	}
	return Decode(perBuffer, betweenBuffers)
}
