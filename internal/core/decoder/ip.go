package decoder

import (
	"encoding/binary"
	"net/netip"

	"firestige.xyz/pktgate/internal/core"
)

const (
	ipv4HeaderMinLen = 20
	ipv6HeaderLen    = 40
)

// IPv4Header is a view over an IPv4 header including options.
type IPv4Header []byte

func (h IPv4Header) Version() uint8 { return h[0] >> 4 }

// IHL returns the header length field in 32-bit words.
func (h IPv4Header) IHL() uint8 { return h[0] & 0x0F }

// HeaderLen returns the header length in bytes.
func (h IPv4Header) HeaderLen() int             { return int(h.IHL()) * 4 }
func (h IPv4Header) TotalLen() uint16           { return binary.BigEndian.Uint16(h[2:4]) }
func (h IPv4Header) TTL() uint8                 { return h[8] }
func (h IPv4Header) Protocol() core.ProtocolTag { return core.ProtocolTag(h[9]) }
func (h IPv4Header) SrcIP() netip.Addr          { return netip.AddrFrom4([4]byte(h[12:16])) }
func (h IPv4Header) DstIP() netip.Addr          { return netip.AddrFrom4([4]byte(h[16:20])) }

// Options returns the bytes between the fixed header and HeaderLen.
func (h IPv4Header) Options() []byte { return h[ipv4HeaderMinLen:h.HeaderLen()] }

// IPv6Header is a view over the fixed 40-byte IPv6 header.
type IPv6Header []byte

func (h IPv6Header) Version() uint8               { return h[0] >> 4 }
func (h IPv6Header) PayloadLen() uint16           { return binary.BigEndian.Uint16(h[4:6]) }
func (h IPv6Header) NextHeader() core.ProtocolTag { return core.ProtocolTag(h[6]) }
func (h IPv6Header) HopLimit() uint8              { return h[7] }
func (h IPv6Header) SrcIP() netip.Addr            { return netip.AddrFrom16([16]byte(h[8:24])) }
func (h IPv6Header) DstIP() netip.Addr            { return netip.AddrFrom16([16]byte(h[24:40])) }

// ParseIPv6 reads the fixed IPv6 header and returns its next-header field.
// Extension headers are not walked.
func ParseIPv6(c *Cursor) (IPv6Header, core.ProtocolTag, error) {
	b, err := c.Next(ipv6HeaderLen)
	if err != nil {
		return nil, 0, err
	}
	ip6 := IPv6Header(b)
	return ip6, ip6.NextHeader(), nil
}

// ParseIPv4 reads an IPv4 header, options included, and returns its
// protocol field. The only upper bound on IHL is the end of the frame.
func ParseIPv4(c *Cursor) (IPv4Header, core.ProtocolTag, error) {
	b, err := c.Peek(ipv4HeaderMinLen)
	if err != nil {
		return nil, 0, err
	}

	headerLen := IPv4Header(b).HeaderLen()
	if headerLen < ipv4HeaderMinLen {
		// IHL < 5 cannot cover the fixed fields just read.
		return nil, 0, core.ErrTruncated
	}

	b, err = c.Next(headerLen)
	if err != nil {
		return nil, 0, err
	}
	ip4 := IPv4Header(b)
	return ip4, ip4.Protocol(), nil
}
