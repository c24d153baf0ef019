// Package sink forwards frames that the engine passed.
package sink

import (
	"context"
	"fmt"

	"firestige.xyz/pktgate/internal/config"
	"firestige.xyz/pktgate/internal/core"
	"firestige.xyz/pktgate/internal/sink/console"
	"firestige.xyz/pktgate/internal/sink/kafka"
	"firestige.xyz/pktgate/internal/sink/pcap"
)

// Sink receives passed frames. Forward may be called concurrently from
// several workers and must not retain pkt.Data after it returns.
type Sink interface {
	Name() string
	Forward(ctx context.Context, pkt core.RawPacket) error
	Close() error
}

// New creates the sink selected by cfg.Type.
func New(cfg config.SinkConfig) (Sink, error) {
	switch cfg.Type {
	case config.SinkConsole:
		var opts console.Config
		if err := config.DecodeOptions(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("sink %s: %w", cfg.Type, err)
		}
		return nonNil(console.NewSink(opts))
	case config.SinkPcap:
		opts := pcap.Config{SnapLen: pcap.DefaultSnapLen}
		if err := config.DecodeOptions(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("sink %s: %w", cfg.Type, err)
		}
		return nonNil(pcap.NewSink(opts))
	case config.SinkKafka:
		opts := kafka.DefaultConfig()
		if err := config.DecodeOptions(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("sink %s: %w", cfg.Type, err)
		}
		return nonNil(kafka.NewSink(opts))
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedSink, cfg.Type)
	}
}

// NewAll creates every configured sink. Sinks already created are closed
// when a later one fails.
func NewAll(cfgs []config.SinkConfig) ([]Sink, error) {
	sinks := make([]Sink, 0, len(cfgs))
	for i, c := range cfgs {
		s, err := New(c)
		if err != nil {
			CloseAll(sinks)
			return nil, fmt.Errorf("sinks[%d]: %w", i, err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// CloseAll closes every sink and returns the first error.
func CloseAll(sinks []Sink) error {
	var first error
	for _, s := range sinks {
		if err := s.Close(); err != nil && first == nil {
			first = fmt.Errorf("close sink %s: %w", s.Name(), err)
		}
	}
	return first
}

// nonNil avoids returning a typed nil pointer inside a non-nil interface.
func nonNil[T Sink](s T, err error) (Sink, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
