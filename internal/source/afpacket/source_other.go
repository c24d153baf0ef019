//go:build !linux || !cgo

package afpacket

import (
	"context"
	"fmt"

	"firestige.xyz/pktgate/internal/core"
)

// Source is unavailable outside Linux or without cgo.
type Source struct{}

// NewSource always fails with core.ErrUnsupportedSource.
func NewSource(cfg Config) (*Source, error) {
	return nil, fmt.Errorf("%w: afpacket requires Linux with cgo", core.ErrUnsupportedSource)
}

func (s *Source) Name() string { return Name }

func (s *Source) ReadPacket(ctx context.Context) (core.RawPacket, error) {
	return core.RawPacket{}, core.ErrUnsupportedSource
}

func (s *Source) SocketStats() (packets, drops uint, err error) {
	return 0, 0, core.ErrUnsupportedSource
}

func (s *Source) Close() error { return nil }
