// Package pcap writes forwarded frames to a pcap file.
package pcap

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/pktgate/internal/core"
)

// Name is the sink type name.
const Name = "pcap"

// DefaultSnapLen is the snapshot length written to the file header.
const DefaultSnapLen = 65535

// Config holds pcap sink options.
type Config struct {
	Path    string `mapstructure:"path"`
	SnapLen int    `mapstructure:"snap_len"`
}

// Sink appends frames to one capture file. Safe for concurrent use.
type Sink struct {
	mu      sync.Mutex
	buf     *bufio.Writer
	closer  io.Closer
	writer  *pcapgo.Writer
	snapLen int
}

// NewSink creates cfg.Path and writes the Ethernet file header.
func NewSink(cfg Config) (*Sink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: pcap sink requires path", core.ErrConfigInvalid)
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create pcap file %s: %w", cfg.Path, err)
	}
	s, err := NewWriterSink(f, cfg.SnapLen)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// NewWriterSink writes a capture stream to w. w is closed by Close when it
// implements io.Closer.
func NewWriterSink(w io.Writer, snapLen int) (*Sink, error) {
	if snapLen <= 0 {
		snapLen = DefaultSnapLen
	}
	buf := bufio.NewWriter(w)
	pw := pcapgo.NewWriter(buf)
	if err := pw.WriteFileHeader(uint32(snapLen), layers.LinkTypeEthernet); err != nil {
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}

	s := &Sink{buf: buf, writer: pw, snapLen: snapLen}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

// Name implements sink.Sink.
func (s *Sink) Name() string { return Name }

// Forward appends pkt, truncated to the snapshot length.
func (s *Sink) Forward(ctx context.Context, pkt core.RawPacket) error {
	data := pkt.Data
	if len(data) > s.snapLen {
		data = data[:s.snapLen]
	}
	origLen := int(pkt.OrigLen)
	if origLen < len(pkt.Data) {
		origLen = len(pkt.Data)
	}
	ci := gopacket.CaptureInfo{
		Timestamp:      pkt.Timestamp,
		CaptureLength:  len(data),
		Length:         origLen,
		InterfaceIndex: pkt.InterfaceIndex,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return core.ErrSinkClosed
	}
	if err := s.writer.WritePacket(ci, data); err != nil {
		return fmt.Errorf("pcap write: %w", err)
	}
	return nil
}

// Flush pushes buffered records to the underlying writer.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf == nil {
		return nil
	}
	return s.buf.Flush()
}

// Close flushes and closes the file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return nil
	}
	err := s.buf.Flush()
	s.writer = nil
	s.buf = nil
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
