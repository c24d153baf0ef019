package decoder

import (
	"errors"
	"testing"

	"firestige.xyz/pktgate/internal/core"
)

func TestParseEthernetBasic(t *testing.T) {
	data := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, // Dst MAC
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, // Src MAC
		0x08, 0x00, // EtherType: IPv4
		0x45, 0x00, // Payload (start of IP header)
	}

	c := NewCursor(data)
	eth, proto, err := ParseEthernet(&c, DefaultVLANDepth)
	if err != nil {
		t.Fatalf("ParseEthernet failed: %v", err)
	}

	if eth.DstMAC().String() != "00:11:22:33:44:55" {
		t.Errorf("Expected DstMAC 00:11:22:33:44:55, got %s", eth.DstMAC())
	}
	if eth.SrcMAC().String() != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("Expected SrcMAC aa:bb:cc:dd:ee:ff, got %s", eth.SrcMAC())
	}
	if proto != core.EtherTypeIPv4 {
		t.Errorf("Expected protocol 0x0800, got 0x%04x", uint16(proto))
	}
	if c.Offset() != ethernetHeaderLen {
		t.Errorf("Expected offset %d, got %d", ethernetHeaderLen, c.Offset())
	}
}

func TestParseEthernetWithVLAN(t *testing.T) {
	data := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, // Dst MAC
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, // Src MAC
		0x81, 0x00, // EtherType: VLAN (0x8100)
		0x00, 0x0A, // VLAN TCI: VLAN ID 10
		0x86, 0xDD, // Inner EtherType: IPv6
		0x60, 0x00, // Payload
	}

	c := NewCursor(data)
	eth, proto, err := ParseEthernet(&c, DefaultVLANDepth)
	if err != nil {
		t.Fatalf("ParseEthernet failed: %v", err)
	}

	// Outer EtherType stays visible on the header view
	if eth.EtherType() != core.EtherType8021Q {
		t.Errorf("Expected outer EtherType 0x8100, got 0x%04x", uint16(eth.EtherType()))
	}
	if proto != core.EtherTypeIPv6 {
		t.Errorf("Expected resolved protocol 0x86DD, got 0x%04x", uint16(proto))
	}
	// Cursor must sit on the IPv6 header
	if c.Offset() != ethernetHeaderLen+vlanHeaderLen {
		t.Errorf("Expected offset %d, got %d", ethernetHeaderLen+vlanHeaderLen, c.Offset())
	}
}

func TestParseEthernetWithQinQ(t *testing.T) {
	data := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, // Dst MAC
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, // Src MAC
		0x88, 0xA8, // EtherType: QinQ (0x88A8)
		0x00, 0x14, // Outer VLAN: ID 20
		0x81, 0x00, // EtherType: VLAN (0x8100)
		0x00, 0x0A, // Inner VLAN: ID 10
		0x08, 0x00, // Inner EtherType: IPv4
		0x45, 0x00, // Payload
	}

	c := NewCursor(data)
	_, proto, err := ParseEthernet(&c, DefaultVLANDepth)
	if err != nil {
		t.Fatalf("ParseEthernet failed: %v", err)
	}
	if proto != core.EtherTypeIPv4 {
		t.Errorf("Expected protocol 0x0800, got 0x%04x", uint16(proto))
	}
	if c.Offset() != ethernetHeaderLen+2*vlanHeaderLen {
		t.Errorf("Expected offset %d, got %d", ethernetHeaderLen+2*vlanHeaderLen, c.Offset())
	}
}

func TestParseEthernetThirdTagLeftUnparsed(t *testing.T) {
	data := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, // Dst MAC
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, // Src MAC
		0x81, 0x00, // VLAN
		0x00, 0x01, 0x81, 0x00, // tag 1 -> VLAN
		0x00, 0x02, 0x81, 0x00, // tag 2 -> VLAN
		0x00, 0x03, 0x08, 0x00, // tag 3 -> IPv4
		0x45, 0x00,
	}

	c := NewCursor(data)
	_, proto, err := ParseEthernet(&c, DefaultVLANDepth)
	if err != nil {
		t.Fatalf("ParseEthernet failed: %v", err)
	}
	if proto != core.EtherType8021Q {
		t.Errorf("Expected protocol resolved after two tags (0x8100), got 0x%04x", uint16(proto))
	}
	if c.Offset() != ethernetHeaderLen+2*vlanHeaderLen {
		t.Errorf("Expected offset %d, got %d", ethernetHeaderLen+2*vlanHeaderLen, c.Offset())
	}

	// A deeper limit reaches the IPv4 header.
	c = NewCursor(data)
	_, proto, _ = ParseEthernet(&c, 3)
	if proto != core.EtherTypeIPv4 {
		t.Errorf("Expected protocol 0x0800 with depth 3, got 0x%04x", uint16(proto))
	}
}

func TestParseEthernetTruncatedVLANIsNotAnError(t *testing.T) {
	data := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, // Dst MAC
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, // Src MAC
		0x81, 0x00, // VLAN
		0x00, 0x0A, // half a tag
	}

	c := NewCursor(data)
	_, proto, err := ParseEthernet(&c, DefaultVLANDepth)
	if err != nil {
		t.Fatalf("Expected no error for truncated VLAN tag, got %v", err)
	}
	if proto != core.EtherType8021Q {
		t.Errorf("Expected last read protocol 0x8100, got 0x%04x", uint16(proto))
	}
	if c.Offset() != ethernetHeaderLen {
		t.Errorf("Expected offset %d, got %d", ethernetHeaderLen, c.Offset())
	}
}

func TestParseEthernetZeroDepth(t *testing.T) {
	data := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x81, 0x00,
		0x00, 0x0A, 0x08, 0x00,
	}

	c := NewCursor(data)
	_, proto, err := ParseEthernet(&c, 0)
	if err != nil {
		t.Fatalf("ParseEthernet failed: %v", err)
	}
	if proto != core.EtherType8021Q {
		t.Errorf("Expected VLAN protocol untouched, got 0x%04x", uint16(proto))
	}
}

func TestParseEthernetTooShort(t *testing.T) {
	data := []byte{0x00, 0x11, 0x22} // Too short

	c := NewCursor(data)
	_, _, err := ParseEthernet(&c, DefaultVLANDepth)
	if !errors.Is(err, core.ErrTruncated) {
		t.Errorf("Expected ErrTruncated, got %v", err)
	}
	if c.Offset() != 0 {
		t.Errorf("Expected cursor to stay at 0, got %d", c.Offset())
	}
}

func TestVLANHeaderFields(t *testing.T) {
	tag := VLANHeader{0xA0, 0x0A, 0x08, 0x00} // PCP 5, VID 10
	if tag.ID() != 10 {
		t.Errorf("Expected VLAN ID 10, got %d", tag.ID())
	}
	if tag.Priority() != 5 {
		t.Errorf("Expected priority 5, got %d", tag.Priority())
	}
	if tag.EncapsulatedProto() != core.EtherTypeIPv4 {
		t.Errorf("Expected encapsulated 0x0800, got 0x%04x", uint16(tag.EncapsulatedProto()))
	}
}
