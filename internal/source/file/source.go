// Package file reads frames from pcap and pcapng capture files.
package file

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/pktgate/internal/core"
)

// Name is the source type name.
const Name = "pcap"

// pcapng section header block type; identical in both byte orders.
const ngSectionHeaderMagic = 0x0A0D0D0A

// Config holds pcap source options.
type Config struct {
	Path string `mapstructure:"path"` // "-" reads stdin
}

type packetReader interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// Source replays a capture file.
type Source struct {
	path   string
	closer io.Closer
	reader packetReader
}

// NewSource opens cfg.Path. Only Ethernet captures are accepted.
func NewSource(cfg Config) (*Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: pcap source requires path", core.ErrConfigInvalid)
	}

	var rc io.ReadCloser
	if cfg.Path == "-" {
		rc = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open pcap file %s: %w", cfg.Path, err)
		}
		rc = f
	}

	s, err := NewReaderSource(cfg.Path, rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return s, nil
}

// NewReaderSource reads a pcap or pcapng stream from r. r is closed by Close
// when it implements io.Closer.
func NewReaderSource(name string, r io.Reader) (*Source, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture header of %s: %w", name, err)
	}

	var pr packetReader
	if binary.LittleEndian.Uint32(magic) == ngSectionHeaderMagic {
		pr, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		pr, err = pcapgo.NewReader(br)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse capture %s: %w", name, err)
	}

	if lt := pr.LinkType(); lt != layers.LinkTypeEthernet {
		return nil, fmt.Errorf("%w: %s has link type %s, want Ethernet", core.ErrUnsupportedSource, name, lt)
	}

	s := &Source{path: name, reader: pr}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

// Name implements source.Source.
func (s *Source) Name() string { return Name }

// ReadPacket returns the next frame or io.EOF.
func (s *Source) ReadPacket(ctx context.Context) (core.RawPacket, error) {
	if err := ctx.Err(); err != nil {
		return core.RawPacket{}, err
	}
	if s.reader == nil {
		return core.RawPacket{}, core.ErrSourceClosed
	}

	data, ci, err := s.reader.ReadPacketData()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return core.RawPacket{}, io.EOF
		}
		return core.RawPacket{}, fmt.Errorf("failed to read packet from %s: %w", s.path, err)
	}

	return core.RawPacket{
		Data:           data,
		Timestamp:      ci.Timestamp,
		CaptureLen:     uint32(ci.CaptureLength),
		OrigLen:        uint32(ci.Length),
		InterfaceIndex: ci.InterfaceIndex,
	}, nil
}

// Close releases the underlying file.
func (s *Source) Close() error {
	s.reader = nil
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}
