// Package source provides frame sources feeding the pipeline.
package source

import (
	"context"
	"fmt"

	"firestige.xyz/pktgate/internal/config"
	"firestige.xyz/pktgate/internal/core"
	"firestige.xyz/pktgate/internal/source/afpacket"
	"firestige.xyz/pktgate/internal/source/file"
)

// Source yields raw Ethernet frames.
//
// ReadPacket returns io.EOF once a finite source is exhausted. The returned
// Data belongs to the caller.
type Source interface {
	Name() string
	ReadPacket(ctx context.Context) (core.RawPacket, error)
	Close() error
}

// New creates the source selected by cfg.Type.
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Type {
	case config.SourcePcap:
		var opts file.Config
		if err := config.DecodeOptions(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Type, err)
		}
		return nonNil(file.NewSource(opts))
	case config.SourceAFPacket:
		opts := afpacket.DefaultConfig()
		if err := config.DecodeOptions(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Type, err)
		}
		return nonNil(afpacket.NewSource(opts))
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedSource, cfg.Type)
	}
}

// nonNil avoids returning a typed nil pointer inside a non-nil interface.
func nonNil[T Source](s T, err error) (Source, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
