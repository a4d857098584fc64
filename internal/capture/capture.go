// Package capture loads the byte stream a replay sends. A capture is either
// a raw dump of the bytes seen on the wire or a packet capture (pcap or
// pcapng) whose packet payloads are concatenated in capture order.
package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/banshee-data/bufferbench/internal/fsutil"
	"github.com/banshee-data/bufferbench/internal/monitoring"
)

// Format identifies how a capture file was interpreted.
type Format string

const (
	FormatRaw    Format = "raw"
	FormatPCAP   Format = "pcap"
	FormatPCAPNG Format = "pcapng"
)

// Info describes a loaded capture.
type Info struct {
	Format Format
	// Packets read from a packet capture; zero for raw captures.
	Packets int
	// Skipped counts packets that carried no payload.
	Skipped int
}

// packetReader is satisfied by pcapgo.Reader and pcapgo.NgReader.
type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// Load reads the capture at path.
func Load(fsys fsutil.FileSystem, path string) ([]byte, Info, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("read capture %s: %w", path, err)
	}
	out, info, err := Extract(data)
	if err != nil {
		return nil, info, fmt.Errorf("capture %s: %w", path, err)
	}
	monitoring.Logf("Loaded %s capture %s: %d bytes (%d packets, %d without payload)",
		info.Format, path, len(out), info.Packets, info.Skipped)
	return out, info, nil
}

// Extract returns the replayable bytes of a capture. Data that does not start
// with a pcap or pcapng magic number is returned unchanged.
func Extract(data []byte) ([]byte, Info, error) {
	switch Detect(data) {
	case FormatPCAP:
		r, err := pcapgo.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, Info{Format: FormatPCAP}, err
		}
		return payloads(r, FormatPCAP)
	case FormatPCAPNG:
		r, err := pcapgo.NewNgReader(bytes.NewReader(data), pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, Info{Format: FormatPCAPNG}, err
		}
		return payloads(r, FormatPCAPNG)
	default:
		return data, Info{Format: FormatRaw}, nil
	}
}

// Detect inspects the leading magic number of data.
func Detect(data []byte) Format {
	if len(data) < 4 {
		return FormatRaw
	}
	switch binary.LittleEndian.Uint32(data) {
	case 0xa1b2c3d4, 0xd4c3b2a1, 0xa1b23c4d, 0x4d3cb2a1:
		return FormatPCAP
	case 0x0a0d0d0a:
		return FormatPCAPNG
	}
	return FormatRaw
}

func payloads(r packetReader, format Format) ([]byte, Info, error) {
	info := Info{Format: format}
	var out []byte

	for {
		data, _, err := r.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, info, fmt.Errorf("packet %d: %w", info.Packets+1, err)
		}
		info.Packets++

		packet := gopacket.NewPacket(data, r.LinkType(), gopacket.NoCopy)
		if app := packet.ApplicationLayer(); app != nil {
			out = append(out, app.Payload()...)
			continue
		}
		if packet.NetworkLayer() != nil {
			// e.g. a bare TCP acknowledgement
			info.Skipped++
			continue
		}
		out = append(out, data...)
	}
	return out, info, nil
}
