package grib2msm

import "github.com/pkg/errors"

// Cursor is a sequential, seekable reader over a fully resident byte buffer.
// It is not safe for concurrent use; each in-progress decode owns one.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the start of b.
func NewCursor(b []byte) *Cursor { return &Cursor{buf: b} }

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the size of the underlying buffer.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// ReadExact returns the next n bytes and advances past them. The returned
// slice aliases the underlying buffer.
func (c *Cursor) ReadExact(n int) ([]byte, error) {
	b, err := c.Peek(n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return b, nil
}

// Peek returns the next n bytes without advancing.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Errorf("negative read length %d", n)
	}
	if n > c.Remaining() {
		return nil, errors.Wrapf(ErrTruncatedInput, "need %d bytes at offset %d, have %d",
			n, c.pos, c.Remaining())
	}
	return c.buf[c.pos : c.pos+n : c.pos+n], nil
}

// Seek moves the position by a signed delta. The position may land anywhere
// in [0, Len()]; anything else fails and leaves the position unchanged.
func (c *Cursor) Seek(delta int) error {
	next := c.pos + delta
	if next < 0 || next > len(c.buf) {
		return errors.Wrapf(ErrTruncatedInput, "seek %+d from offset %d leaves buffer (%d bytes)",
			delta, c.pos, len(c.buf))
	}
	c.pos = next
	return nil
}

// Skip advances past n bytes.
func (c *Cursor) Skip(n int) error {
	if n < 0 {
		return errors.Errorf("negative skip %d", n)
	}
	_, err := c.ReadExact(n)
	return err
}
