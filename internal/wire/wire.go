// Package wire holds the bounds-checked field reader and the matching append
// helpers shared by the chunk and property codecs.
//
// Multi-byte integers are big-endian unless the method name says LE. Strings
// are ISO-8859-1: every byte maps to the rune with the same value.
package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"github.com/hivemq/mosquitto2hivemq/pkg/errdefs"
	"github.com/hivemq/mosquitto2hivemq/pkg/varint"
)

// Cursor reads fields from a fixed slice and never reads past its end.
type Cursor struct {
	buf  []byte
	off  int
	base int // absolute position of buf[0], for error messages
}

// NewCursor returns a cursor over buf. base is the absolute position of buf[0]
// in the file and is only used to report offsets.
func NewCursor(buf []byte, base int) *Cursor {
	return &Cursor{buf: buf, base: base}
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// Rest returns the unread bytes without consuming them.
func (c *Cursor) Rest() []byte {
	return c.buf[c.off:]
}

func (c *Cursor) take(n int, field string) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, errors.Wrapf(errdefs.ErrTruncated,
			"%s: need %d bytes at offset %d, %d left", field, n, c.base+c.off, c.Remaining())
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

// Skip discards n bytes.
func (c *Cursor) Skip(n int, field string) error {
	_, err := c.take(n, field)
	return err
}

// Uint8 reads one byte.
func (c *Cursor) Uint8(field string) (uint8, error) {
	b, err := c.take(1, field)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads a big-endian uint16.
func (c *Cursor) Uint16(field string) (uint16, error) {
	b, err := c.take(2, field)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Uint32 reads a big-endian uint32.
func (c *Cursor) Uint32(field string) (uint32, error) {
	b, err := c.take(4, field)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Uint64LE reads a little-endian uint64.
func (c *Cursor) Uint64LE(field string) (uint64, error) {
	b, err := c.take(8, field)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Int64LE reads a little-endian int64.
func (c *Cursor) Int64LE(field string) (int64, error) {
	v, err := c.Uint64LE(field)
	return int64(v), err
}

// Bytes reads n bytes and returns a copy, or nil when n is 0.
func (c *Cursor) Bytes(n int, field string) ([]byte, error) {
	b, err := c.take(n, field)
	if err != nil || n == 0 {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// String reads n bytes as ISO-8859-1.
func (c *Cursor) String(n int, field string) (string, error) {
	b, err := c.take(n, field)
	if err != nil {
		return "", err
	}
	return DecodeLatin1(b)
}

// VarInt reads a variable byte integer.
func (c *Cursor) VarInt(field string) (uint32, error) {
	v, n, err := varint.Decode(c.buf, c.off)
	if err != nil {
		return 0, errors.Wrapf(err, "%s at offset %d", field, c.base+c.off)
	}
	c.off += n
	return v, nil
}

// DecodeLatin1 maps every byte of b to the rune of the same value.
func DecodeLatin1(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrap(err, "decode latin-1")
	}
	return string(out), nil
}

// EncodeLatin1 is the inverse of DecodeLatin1. Runes above U+00FF fail.
func EncodeLatin1(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "encode %q as latin-1", s)
	}
	return out, nil
}

// AppendUint16 appends a big-endian uint16.
func AppendUint16(dst []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, v)
}

// AppendUint32 appends a big-endian uint32.
func AppendUint32(dst []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, v)
}

// AppendUint64LE appends a little-endian uint64.
func AppendUint64LE(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

// AppendPrefixed appends b preceded by its big-endian uint16 length.
func AppendPrefixed(dst, b []byte) ([]byte, error) {
	if len(b) > 0xffff {
		return dst, errors.Errorf("field of %d bytes exceeds 65535", len(b))
	}
	dst = AppendUint16(dst, uint16(len(b)))
	return append(dst, b...), nil
}

// AppendString appends s as a length-prefixed ISO-8859-1 string.
func AppendString(dst []byte, s string) ([]byte, error) {
	b, err := EncodeLatin1(s)
	if err != nil {
		return dst, err
	}
	return AppendPrefixed(dst, b)
}
