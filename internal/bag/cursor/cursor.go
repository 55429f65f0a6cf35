// Package cursor provides a bounds-checked read position over an immutable
// byte buffer. Reads return sub-slices of the buffer; nothing is copied.
package cursor

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// LenSize is the width of every length prefix in the format.
const LenSize = 4

var ErrOutOfBounds = errors.New("cursor: out of bounds")

// Cursor borrows buf and never writes to it. A failed read leaves the
// position where it was.
type Cursor struct {
	buf []byte
	pos int
}

func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Len returns the number of unread bytes.
func (c *Cursor) Len() int {
	return len(c.buf) - c.pos
}

// Pos returns the number of bytes consumed so far.
func (c *Cursor) Pos() int {
	return c.pos
}

// Rest returns the unread bytes without consuming them.
func (c *Cursor) Rest() []byte {
	return c.buf[c.pos:len(c.buf):len(c.buf)]
}

func (c *Cursor) Done() bool {
	return c.pos >= len(c.buf)
}

// Next returns the next n bytes and advances past them.
func (c *Cursor) Next(n int) ([]byte, error) {
	if n < 0 || n > c.Len() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOutOfBounds, n, c.pos, c.Len())
	}
	start := c.pos
	c.pos += n
	return c.buf[start:c.pos:c.pos], nil
}

// NextU32 reads a little-endian uint32.
func (c *Cursor) NextU32() (uint32, error) {
	b, err := c.Next(LenSize)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// NextChunk reads a length-prefixed block. If the body does not fit the
// prefix is not consumed either.
func (c *Cursor) NextChunk() ([]byte, error) {
	start := c.pos
	n, err := c.NextU32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(c.Len()) {
		c.pos = start
		return nil, fmt.Errorf("%w: block of %d bytes at offset %d, have %d", ErrOutOfBounds, n, start+LenSize, c.Len()-LenSize)
	}
	return c.Next(int(n))
}
