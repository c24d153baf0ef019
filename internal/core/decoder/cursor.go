package decoder

import "firestige.xyz/pktgate/internal/core"

// Cursor is the read position within one frame. It never owns the frame
// and never moves past its end.
type Cursor struct {
	frame []byte
	off   int
}

// NewCursor returns a cursor at the start of frame.
func NewCursor(frame []byte) Cursor {
	return Cursor{frame: frame}
}

// Offset returns the index of the next unread byte.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.frame) - c.off }

// Peek returns the next n bytes without advancing.
// The returned slice is capped so it cannot be resliced past the header.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, core.ErrTruncated
	}
	end := c.off + n
	return c.frame[c.off:end:end], nil
}

// Advance moves the cursor forward by n bytes. On failure the cursor is
// left where it was.
func (c *Cursor) Advance(n int) error {
	if n < 0 || n > c.Remaining() {
		return core.ErrTruncated
	}
	c.off += n
	return nil
}

// Next is Peek followed by Advance.
func (c *Cursor) Next(n int) ([]byte, error) {
	b, err := c.Peek(n)
	if err != nil {
		return nil, err
	}
	c.off += n
	return b, nil
}
