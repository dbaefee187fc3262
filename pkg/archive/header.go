// Package archive stores persistence file snapshots in a zstd compressed
// container: a fixed little-endian header followed by one zstd frame.
package archive

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Magic bytes identifying a snapshot container.
var Magic = [4]byte{0x5a, 0x53, 0x54, 0x44} // "ZSTD"

// FormatVersion is the container layout written by this package.
const FormatVersion = 1

// HeaderSize is the fixed binary size of a container header.
const HeaderSize = 28 // 4 + 4 + 8 + 8 + 4 bytes

// MaxLength bounds the image size a header may declare.
const MaxLength = 1 << 40

// ErrNotSnapshot is returned for data that does not start with a valid
// container header.
var ErrNotSnapshot = errors.New("not a snapshot container")

// Header describes the compressed image that follows it.
type Header struct {
	Magic            [4]byte
	Version          uint32
	Length           uint64 // uncompressed size
	CompressedLength uint64
	Checksum         uint32 // CRC-32 (IEEE) of the uncompressed image
}

// NewHeader creates a header for an image of the given size and checksum.
func NewHeader(length, compressedLength uint64, checksum uint32) *Header {
	return &Header{
		Magic:            Magic,
		Version:          FormatVersion,
		Length:           length,
		CompressedLength: compressedLength,
		Checksum:         checksum,
	}
}

// Size returns the binary size of the header.
func (h *Header) Size() int {
	return HeaderSize
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return errors.Wrapf(ErrNotSnapshot, "magic %x", h.Magic)
	}
	if h.Version != FormatVersion {
		return errors.Wrapf(ErrNotSnapshot, "unsupported version %d", h.Version)
	}
	if h.Length == 0 {
		return errors.Wrap(ErrNotSnapshot, "empty image")
	}
	if h.Length > MaxLength {
		return errors.Wrapf(ErrNotSnapshot, "image of %d bytes exceeds %d", h.Length, uint64(MaxLength))
	}
	if h.CompressedLength == 0 {
		return errors.Wrap(ErrNotSnapshot, "compressed size is zero")
	}
	return nil
}

// MarshalBinary encodes the header to binary format.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header to the given buffer.
// The buffer must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint64(buf[8:16], h.Length)
	binary.LittleEndian.PutUint64(buf[16:24], h.CompressedLength)
	binary.LittleEndian.PutUint32(buf[24:28], h.Checksum)
}

// UnmarshalBinary decodes the header from binary format and validates it.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return errors.Wrapf(ErrNotSnapshot, "header needs %d bytes, got %d", HeaderSize, len(data))
	}
	h.DecodeFrom(data)
	return h.Validate()
}

// DecodeFrom reads the header from the given buffer.
// Does not validate - use UnmarshalBinary for validation.
func (h *Header) DecodeFrom(data []byte) {
	copy(h.Magic[:], data[0:4])
	h.Version = binary.LittleEndian.Uint32(data[4:8])
	h.Length = binary.LittleEndian.Uint64(data[8:16])
	h.CompressedLength = binary.LittleEndian.Uint64(data[16:24])
	h.Checksum = binary.LittleEndian.Uint32(data[24:28])
}

// IsArchive reports whether data starts with the container magic.
func IsArchive(data []byte) bool {
	return len(data) >= len(Magic) && [4]byte(data[:4]) == Magic
}
