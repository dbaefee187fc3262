// Package varint implements the MQTT variable byte integer: 1 to 4 bytes, seven
// value bits per byte, least significant group first, high bit set on every
// byte except the last.
package varint

import (
	"github.com/pkg/errors"

	"github.com/hivemq/mosquitto2hivemq/pkg/errdefs"
)

const (
	// MaxLen is the maximum encoded length in bytes.
	MaxLen = 4
	// MaxValue is the largest value that fits in MaxLen bytes.
	MaxValue = 1<<(7*MaxLen) - 1 // 268435455
)

// Decode reads a variable byte integer starting at buf[off].
// It returns the value and the number of bytes consumed.
func Decode(buf []byte, off int) (uint32, int, error) {
	if off < 0 || off > len(buf) {
		return 0, 0, errors.Wrapf(errdefs.ErrTruncated, "varint offset %d outside %d bytes", off, len(buf))
	}

	var value uint32
	var shift uint
	for n := 1; n <= MaxLen; n++ {
		if off+n > len(buf) {
			return 0, 0, errors.Wrapf(errdefs.ErrTruncated, "varint at %d needs more than %d bytes", off, len(buf)-off)
		}
		b := buf[off+n-1]
		value |= uint32(b&0x7f) << shift
		shift += 7
		if b&0x80 != 0 {
			continue
		}
		if n > 1 && b == 0 {
			return 0, 0, errors.Wrapf(errdefs.ErrMalformedVarInt, "non-minimal encoding at %d", off)
		}
		return value, n, nil
	}
	return 0, 0, errors.Wrapf(errdefs.ErrMalformedVarInt, "no terminating byte within %d bytes at %d", MaxLen, off)
}

// Size returns the number of bytes Append uses for v.
func Size(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// Append encodes v in its minimal form and appends it to dst.
// Values above MaxValue are rejected.
func Append(dst []byte, v uint32) ([]byte, error) {
	if v > MaxValue {
		return dst, errors.Errorf("varint value %d exceeds %d", v, MaxValue)
	}
	for v >= 0x80 {
		dst = append(dst, byte(v&0x7f)|0x80)
		v >>= 7
	}
	return append(dst, byte(v)), nil
}
