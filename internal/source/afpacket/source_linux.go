//go:build linux && cgo

package afpacket

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/gopacket/afpacket"

	"firestige.xyz/pktgate/internal/core"
	"firestige.xyz/pktgate/internal/utils"
)

// Source reads frames from a TPACKET_V3 ring bound to one interface.
type Source struct {
	handle *afpacket.TPacket
	iface  string
}

// NewSource opens the ring and installs fanout and BPF filter when set.
func NewSource(cfg Config) (*Source, error) {
	frameSize, blockSize, numBlocks, err := recomputeSize(cfg.BufferSizeMB, cfg.SnapLen, os.Getpagesize())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}

	opts := []interface{}{
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(time.Duration(cfg.TimeoutMs) * time.Millisecond),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	}
	if cfg.Interface != "" && cfg.Interface != "any" {
		opts = append(opts, afpacket.OptInterface(cfg.Interface))
	}

	tp, err := afpacket.NewTPacket(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open afpacket on %s: %w", cfg.Interface, err)
	}

	if cfg.FanoutID > 0 {
		if err := tp.SetFanout(afpacket.FanoutHashWithDefrag, cfg.FanoutID); err != nil {
			tp.Close()
			return nil, fmt.Errorf("failed to join fanout group %d: %w", cfg.FanoutID, err)
		}
	}

	if cfg.BpfFilter != "" {
		ins, err := utils.CompileBpf(cfg.BpfFilter, frameSize)
		if err != nil {
			tp.Close()
			return nil, err
		}
		if err := tp.SetBPF(ins); err != nil {
			tp.Close()
			return nil, fmt.Errorf("failed to attach BPF filter: %w", err)
		}
	}

	return &Source{handle: tp, iface: cfg.Interface}, nil
}

// Name implements source.Source.
func (s *Source) Name() string { return Name }

// ReadPacket blocks until a frame arrives or ctx is done. Poll timeouts are
// retried so cancellation is observed within one timeout period.
func (s *Source) ReadPacket(ctx context.Context) (core.RawPacket, error) {
	for {
		if err := ctx.Err(); err != nil {
			return core.RawPacket{}, err
		}
		if s.handle == nil {
			return core.RawPacket{}, core.ErrSourceClosed
		}

		data, ci, err := s.handle.ReadPacketData()
		switch {
		case err == nil:
			return core.RawPacket{
				Data:           data,
				Timestamp:      ci.Timestamp,
				CaptureLen:     uint32(ci.CaptureLength),
				OrigLen:        uint32(ci.Length),
				InterfaceIndex: ci.InterfaceIndex,
			}, nil
		case errors.Is(err, afpacket.ErrTimeout), errors.Is(err, afpacket.ErrPoll):
			continue
		default:
			return core.RawPacket{}, fmt.Errorf("afpacket read on %s: %w", s.iface, err)
		}
	}
}

// SocketStats reports kernel-side packet and drop counters.
func (s *Source) SocketStats() (packets, drops uint, err error) {
	if s.handle == nil {
		return 0, 0, core.ErrSourceClosed
	}
	_, v3, err := s.handle.SocketStats()
	if err != nil {
		return 0, 0, err
	}
	return v3.Packets(), v3.Drops(), nil
}

// Close releases the ring.
func (s *Source) Close() error {
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	return nil
}
