package serialport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/banshee-data/bufferbench/internal/config"
	"github.com/banshee-data/bufferbench/internal/fsutil"
	"github.com/banshee-data/bufferbench/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func stubOpener(t *testing.T, port Port, err error) (*string, **serial.Mode) {
	t.Helper()
	var gotPath string
	var gotMode *serial.Mode
	prev := openSerial
	openSerial = func(path string, mode *serial.Mode) (Port, error) {
		gotPath, gotMode = path, mode
		return port, err
	}
	t.Cleanup(func() { openSerial = prev })
	return &gotPath, &gotMode
}

func TestOpenSink_File(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()

	w, err := OpenSink(fsys, Sink{Path: "/dev/fake"})
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := fsys.ReadFile("/dev/fake")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestOpenSink_Serial(t *testing.T) {
	port := NewTestablePort()
	path, mode := stubOpener(t, port, nil)

	w, err := OpenSink(fsutil.NewMemoryFileSystem(), Sink{Path: "/dev/ttyUSB0", Serial: &PortOptions{BaudRate: 9600}})
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", *path)
	require.NotNil(t, *mode)
	assert.Equal(t, 9600, (*mode).BaudRate)

	_, err = w.Write([]byte{0xFF, 0xFF, 0xFD, 0x00})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.True(t, port.Closed)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFD, 0x00}, port.Written())
}

func TestOpenSink_SerialErrors(t *testing.T) {
	stubOpener(t, nil, errors.New("no such device"))

	_, err := OpenSink(fsutil.NewMemoryFileSystem(), Sink{Path: "/dev/ttyUSB9", Serial: &PortOptions{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dev/ttyUSB9")

	_, err = OpenSink(fsutil.NewMemoryFileSystem(), Sink{Path: "/dev/ttyUSB0", Serial: &PortOptions{Parity: "X"}})
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}

func TestTestablePort(t *testing.T) {
	port := NewTestablePort()
	port.MaxWrite = 2

	n, err := port.Write([]byte("abcd"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	port.WriteError = errors.New("boom")
	_, err = port.Write([]byte("x"))
	assert.EqualError(t, err, "boom")

	// error is one-shot
	_, err = port.Write([]byte("x"))
	assert.NoError(t, err)
	assert.Equal(t, "abx", string(port.Written()))
	assert.Equal(t, 3, port.WriteCalls)

	require.NoError(t, port.Close())
	_, err = port.Write([]byte("y"))
	assert.ErrorIs(t, err, ErrPortClosed)
}
