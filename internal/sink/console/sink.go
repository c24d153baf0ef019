// Package console logs one line per forwarded frame.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/pktgate/internal/core"
)

// Name is the sink type name.
const Name = "console"

// Config holds console sink options.
type Config struct {
	Dump bool `mapstructure:"dump"` // log the full gopacket layer dump
}

// Sink writes frame summaries through slog.
type Sink struct {
	logger    *slog.Logger
	dump      bool
	forwarded atomic.Uint64
}

// NewSink creates a console sink logging through slog.Default.
func NewSink(cfg Config) (*Sink, error) {
	return NewSinkWithLogger(cfg, slog.Default())
}

// NewSinkWithLogger creates a console sink logging through logger.
func NewSinkWithLogger(cfg Config, logger *slog.Logger) (*Sink, error) {
	return &Sink{
		logger: logger.With("component", "sink."+Name),
		dump:   cfg.Dump,
	}, nil
}

// Name implements sink.Sink.
func (s *Sink) Name() string { return Name }

// Forward logs pkt.
func (s *Sink) Forward(ctx context.Context, pkt core.RawPacket) error {
	p := gopacket.NewPacket(pkt.Data, layers.LayerTypeEthernet, gopacket.Default)

	attrs := []any{
		"queue", pkt.Queue,
		"len", len(pkt.Data),
		"layers", layerNames(p),
	}
	if !pkt.Timestamp.IsZero() {
		attrs = append(attrs, "ts", pkt.Timestamp)
	}
	if s.dump {
		attrs = append(attrs, "dump", p.Dump())
	}

	s.forwarded.Add(1)
	s.logger.InfoContext(ctx, "frame passed", attrs...)
	return nil
}

// Forwarded returns the number of frames logged so far.
func (s *Sink) Forwarded() uint64 { return s.forwarded.Load() }

// Close logs the final count.
func (s *Sink) Close() error {
	s.logger.Info("console sink closed", "total_forwarded", s.forwarded.Load())
	return nil
}

func layerNames(p gopacket.Packet) string {
	names := make([]string, 0, 4)
	for _, l := range p.Layers() {
		names = append(names, l.LayerType().String())
	}
	out := strings.Join(names, "/")
	if el := p.ErrorLayer(); el != nil {
		out += fmt.Sprintf(" (decode error: %v)", el.Error())
	}
	return out
}
