// Package serialport opens the byte sink a capture is replayed onto: a real
// serial port configured through go.bug.st/serial, or any writable path such
// as a character device, FIFO or regular file.
package serialport

import (
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/banshee-data/bufferbench/internal/fsutil"
	"github.com/banshee-data/bufferbench/internal/monitoring"
)

// Port is the part of a serial port a replay needs.
type Port interface {
	io.Writer
	io.Closer
}

// Opener opens a serial port at path with the given mode.
type Opener func(path string, mode *serial.Mode) (Port, error)

// OpenSerial opens a real serial port.
func OpenSerial(path string, mode *serial.Mode) (Port, error) {
	return serial.Open(path, mode)
}

// Open opens path as a serial port configured from opts.
func Open(path string, opts PortOptions) (Port, error) {
	return open(OpenSerial, path, opts)
}

func open(opener Opener, path string, opts PortOptions) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := opener(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return port, nil
}

// Sink describes where replayed bytes go.
type Sink struct {
	Path string
	// Serial configures the line when set. Without it Path is opened for
	// writing like any other file.
	Serial *PortOptions
}

// Opener used for serial sinks; tests replace it.
var openSerial Opener = OpenSerial

// OpenSink opens s for writing. Writes to the returned sink are unbuffered.
func OpenSink(fsys fsutil.FileSystem, s Sink) (io.WriteCloser, error) {
	if s.Serial != nil {
		opts, err := s.Serial.Normalize()
		if err != nil {
			return nil, err
		}
		port, err := open(openSerial, s.Path, opts)
		if err != nil {
			return nil, err
		}
		monitoring.Logf("replay sink: serial port %s (%s)", s.Path, opts)
		return port, nil
	}

	w, err := fsys.Create(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s for writing: %w", s.Path, err)
	}
	monitoring.Logf("replay sink: %s", s.Path)
	return w, nil
}
