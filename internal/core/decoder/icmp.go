package decoder

import (
	"encoding/binary"
)

// icmpHeaderLen covers type, code, checksum and the echo id/sequence words.
const icmpHeaderLen = 8

// ICMP and ICMPv6 echo message types.
const (
	ICMPEchoReply     uint8 = 0
	ICMPEchoRequest   uint8 = 8
	ICMPv6EchoRequest uint8 = 128
	ICMPv6EchoReply   uint8 = 129
)

// ICMPHeader is a view over the first 8 bytes of an ICMP message.
type ICMPHeader []byte

func (h ICMPHeader) Type() uint8        { return h[0] }
func (h ICMPHeader) Code() uint8        { return h[1] }
func (h ICMPHeader) Checksum() uint16   { return binary.BigEndian.Uint16(h[2:4]) }
func (h ICMPHeader) Identifier() uint16 { return binary.BigEndian.Uint16(h[4:6]) }
func (h ICMPHeader) Sequence() uint16   { return binary.BigEndian.Uint16(h[6:8]) }

// IsEcho reports whether the message is an echo request or reply.
func (h ICMPHeader) IsEcho() bool {
	return h.Type() == ICMPEchoRequest || h.Type() == ICMPEchoReply
}

// ICMPv6Header is a view over the first 8 bytes of an ICMPv6 message.
type ICMPv6Header []byte

func (h ICMPv6Header) Type() uint8        { return h[0] }
func (h ICMPv6Header) Code() uint8        { return h[1] }
func (h ICMPv6Header) Checksum() uint16   { return binary.BigEndian.Uint16(h[2:4]) }
func (h ICMPv6Header) Identifier() uint16 { return binary.BigEndian.Uint16(h[4:6]) }
func (h ICMPv6Header) Sequence() uint16   { return binary.BigEndian.Uint16(h[6:8]) }

func (h ICMPv6Header) IsEcho() bool {
	return h.Type() == ICMPv6EchoRequest || h.Type() == ICMPv6EchoReply
}

// ParseICMP reads an ICMP header and returns its message type.
func ParseICMP(c *Cursor) (ICMPHeader, uint8, error) {
	b, err := c.Next(icmpHeaderLen)
	if err != nil {
		return nil, 0, err
	}
	h := ICMPHeader(b)
	return h, h.Type(), nil
}

// ParseICMPv6 reads an ICMPv6 header and returns its message type.
func ParseICMPv6(c *Cursor) (ICMPv6Header, uint8, error) {
	b, err := c.Next(icmpHeaderLen)
	if err != nil {
		return nil, 0, err
	}
	h := ICMPv6Header(b)
	return h, h.Type(), nil
}
