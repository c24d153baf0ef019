// Package core defines core types with zero external dependencies.
package core

import "fmt"

// Disposition is the verdict for one frame.
type Disposition uint8

const (
	// Pass forwards the frame unmodified. It is the zero value so anything
	// left unclassified fails open.
	Pass Disposition = iota
	// Drop discards the frame.
	Drop
)

// NumDispositions is the number of Disposition values, for sizing counter arrays.
const NumDispositions = 2

func (d Disposition) String() string {
	switch d {
	case Pass:
		return "pass"
	case Drop:
		return "drop"
	default:
		return fmt.Sprintf("disposition(%d)", uint8(d))
	}
}

// ParseDisposition converts "pass"/"drop" back to a Disposition.
func ParseDisposition(s string) (Disposition, error) {
	switch s {
	case "pass":
		return Pass, nil
	case "drop":
		return Drop, nil
	default:
		return Pass, fmt.Errorf("unknown disposition %q", s)
	}
}

// ProtocolTag identifies the layer that follows a header, in host byte order.
type ProtocolTag uint16

const (
	EtherTypeIPv4   ProtocolTag = 0x0800
	EtherTypeIPv6   ProtocolTag = 0x86DD
	EtherType8021Q  ProtocolTag = 0x8100 // VLAN
	EtherType8021AD ProtocolTag = 0x88A8 // QinQ service tag

	IPProtoICMP   ProtocolTag = 1
	IPProtoICMPv6 ProtocolTag = 58
)

// IsVLAN reports whether the tag is an 802.1Q or 802.1AD EtherType.
func (p ProtocolTag) IsVLAN() bool {
	return p == EtherType8021Q || p == EtherType8021AD
}

// Stage is the last layer the engine reached for a frame.
type Stage uint8

const (
	StageStart     Stage = iota // Ethernet header missing
	StageEthernet               // L2 parsed, L3 unhandled or truncated
	StageNetwork                // L3 parsed, L4 not ICMP-sized
	StageTransport              // ICMP(v6) header parsed, decided by parity
)

var stageNames = [...]string{"start", "ethernet", "network", "transport"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// Decision is the full outcome of analyzing one frame.
type Decision struct {
	Disposition Disposition
	Stage       Stage
	// L3 is the protocol resolved after Ethernet/VLAN unwrapping.
	L3 ProtocolTag
	// Sequence is the echo sequence number; valid only when Stage is StageTransport.
	Sequence uint16
}
