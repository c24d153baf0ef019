package decoder

import (
	"encoding/binary"
	"net"

	"firestige.xyz/pktgate/internal/core"
)

const (
	// Ethernet constants
	ethernetHeaderLen = 14
	vlanHeaderLen     = 4

	// DefaultVLANDepth is how many stacked VLAN tags are unwrapped by default.
	DefaultVLANDepth = 2
)

// EthernetHeader is a view over a 14-byte Ethernet header.
type EthernetHeader []byte

func (h EthernetHeader) DstMAC() net.HardwareAddr { return net.HardwareAddr(h[0:6]) }
func (h EthernetHeader) SrcMAC() net.HardwareAddr { return net.HardwareAddr(h[6:12]) }

// EtherType returns the outer EtherType, before any VLAN unwrapping.
func (h EthernetHeader) EtherType() core.ProtocolTag {
	return core.ProtocolTag(binary.BigEndian.Uint16(h[12:14]))
}

// VLANHeader is a view over a 4-byte 802.1Q/802.1AD tag: TCI + encapsulated EtherType.
type VLANHeader []byte

func (h VLANHeader) TCI() uint16 { return binary.BigEndian.Uint16(h[0:2]) }

// ID returns the 12-bit VLAN identifier.
func (h VLANHeader) ID() uint16 { return h.TCI() & 0x0FFF }

// Priority returns the 3-bit PCP field.
func (h VLANHeader) Priority() uint8 { return uint8(h.TCI() >> 13) }

func (h VLANHeader) EncapsulatedProto() core.ProtocolTag {
	return core.ProtocolTag(binary.BigEndian.Uint16(h[2:4]))
}

// ParseEthernet reads the Ethernet header at the cursor and unwraps at most
// maxVLANDepth stacked VLAN tags. It returns the resolved successor protocol.
//
// Only a missing base header is an error. A VLAN tag that does not fit ends
// the unwrapping, and tags beyond maxVLANDepth are left unparsed; in both
// cases the last protocol read is returned as-is.
func ParseEthernet(c *Cursor, maxVLANDepth int) (EthernetHeader, core.ProtocolTag, error) {
	b, err := c.Next(ethernetHeaderLen)
	if err != nil {
		return nil, 0, err
	}
	eth := EthernetHeader(b)

	proto := eth.EtherType()
	if !proto.IsVLAN() {
		return eth, proto, nil
	}

	for i := 0; i < maxVLANDepth; i++ {
		tag, err := c.Next(vlanHeaderLen)
		if err != nil {
			break
		}
		proto = VLANHeader(tag).EncapsulatedProto()
		if !proto.IsVLAN() {
			break
		}
	}
	return eth, proto, nil
}
