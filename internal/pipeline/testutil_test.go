package pipeline

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/require"

	"firestige.xyz/pktgate/internal/core"
)

// echoFrame builds an Ethernet/IPv4/ICMP echo request.
func echoFrame(t testing.TB, src, dst string, seq uint16) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(buf, opts,
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
			DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
			EthernetType: layers.EthernetTypeIPv4,
		},
		&layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolICMPv4,
			SrcIP:    net.ParseIP(src).To4(),
			DstIP:    net.ParseIP(dst).To4(),
		},
		&layers.ICMPv4{
			TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
			Id:       0x1234,
			Seq:      seq,
		},
	)
	require.NoError(t, err)
	return buf.Bytes()
}

// sliceSource replays a fixed list of frames, optionally failing first.
type sliceSource struct {
	mu     sync.Mutex
	frames [][]byte
	errs   []error
	block  bool
	onEOF  func()
	closed bool
}

func (s *sliceSource) Name() string { return "slice" }

func (s *sliceSource) ReadPacket(ctx context.Context) (core.RawPacket, error) {
	s.mu.Lock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		s.mu.Unlock()
		return core.RawPacket{}, err
	}
	if len(s.frames) > 0 {
		f := s.frames[0]
		s.frames = s.frames[1:]
		s.mu.Unlock()
		return core.RawPacket{Data: f, CaptureLen: uint32(len(f)), OrigLen: uint32(len(f))}, nil
	}
	block, onEOF := s.block, s.onEOF
	s.onEOF = nil
	s.mu.Unlock()

	if onEOF != nil {
		onEOF()
	}

	if block {
		<-ctx.Done()
		return core.RawPacket{}, ctx.Err()
	}
	return core.RawPacket{}, io.EOF
}

func (s *sliceSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// recordingSink keeps a copy of every forwarded frame.
type recordingSink struct {
	mu     sync.Mutex
	name   string
	got    []core.RawPacket
	err    error
	gate   <-chan struct{}
	closed bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Forward(ctx context.Context, pkt core.RawPacket) error {
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pkt.Data = append([]byte(nil), pkt.Data...)
	s.got = append(s.got, pkt)
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}
