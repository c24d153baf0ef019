// Package decoder parses Ethernet, VLAN, IPv4/IPv6 and ICMP/ICMPv6 headers
// in place and turns each frame into a Disposition.
//
// Every header read is a bounds-checked sub-slice taken through a Cursor.
// Nothing here allocates, mutates the frame, or keeps state between frames.
package decoder

import "firestige.xyz/pktgate/internal/core"

// Decider classifies frames.
type Decider interface {
	Decide(frame []byte) core.Disposition
	Process(frame []byte) core.Disposition
}

var _ Decider = (*Engine)(nil)
