package pipeline

import (
	"bytes"
	"fmt"
	"sync/atomic"

	"firestige.xyz/pktgate/internal/config"
	"firestige.xyz/pktgate/internal/core"
	"firestige.xyz/pktgate/internal/core/decoder"
)

// Dispatcher determines which worker queue receives a frame.
type Dispatcher interface {
	// Dispatch returns the queue index (0-based) for frame.
	// numQueues is guaranteed to be > 0.
	Dispatch(frame []byte, numQueues int) int

	// Name returns the strategy name for logging/metrics.
	Name() string
}

// FlowHashDispatcher keeps both directions of an address pair on one queue
// by hashing the pair with FNV-1a. Frames without a readable IP header hash
// their MAC addresses instead.
type FlowHashDispatcher struct {
	vlanDepth int
}

// NewFlowHashDispatcher creates a dispatcher that looks through up to
// vlanDepth VLAN tags.
func NewFlowHashDispatcher(vlanDepth int) *FlowHashDispatcher {
	return &FlowHashDispatcher{vlanDepth: vlanDepth}
}

func (d *FlowHashDispatcher) Dispatch(frame []byte, numQueues int) int {
	return int(d.hash(frame) % uint32(numQueues))
}

func (d *FlowHashDispatcher) Name() string { return config.DispatchFlowHash }

func (d *FlowHashDispatcher) hash(frame []byte) uint32 {
	c := decoder.NewCursor(frame)
	eth, proto, err := decoder.ParseEthernet(&c, d.vlanDepth)
	if err != nil {
		return fnv1a(fnvOffset32, frame)
	}

	switch proto {
	case core.EtherTypeIPv4:
		if ip, _, err := decoder.ParseIPv4(&c); err == nil {
			return pairHash(ip[12:16], ip[16:20])
		}
	case core.EtherTypeIPv6:
		if ip, _, err := decoder.ParseIPv6(&c); err == nil {
			return pairHash(ip[8:24], ip[24:40])
		}
	}
	return pairHash(eth[0:6], eth[6:12])
}

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

// pairHash is order-independent in its two arguments.
func pairHash(a, b []byte) uint32 {
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}
	return fnv1a(fnv1a(fnvOffset32, a), b)
}

func fnv1a(h uint32, data []byte) uint32 {
	for _, c := range data {
		h ^= uint32(c)
		h *= fnvPrime32
	}
	return h
}

// RoundRobinDispatcher distributes frames in round-robin order.
// Provides even load distribution but no flow affinity.
type RoundRobinDispatcher struct {
	counter atomic.Uint64
}

func (d *RoundRobinDispatcher) Dispatch(_ []byte, numQueues int) int {
	return int((d.counter.Add(1) - 1) % uint64(numQueues))
}

func (d *RoundRobinDispatcher) Name() string { return config.DispatchRoundRobin }

// NewDispatcher creates a dispatcher by name. An empty name selects
// flow-hash.
func NewDispatcher(name string, vlanDepth int) (Dispatcher, error) {
	switch name {
	case config.DispatchFlowHash, "":
		return NewFlowHashDispatcher(vlanDepth), nil
	case config.DispatchRoundRobin:
		return &RoundRobinDispatcher{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown dispatch strategy %q", core.ErrConfigInvalid, name)
	}
}
