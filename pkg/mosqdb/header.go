// Package mosqdb decodes a mosquitto persistence file into an in-memory model.
//
// A file is a fixed header followed by chunks, each a big-endian uint32 kind,
// a big-endian uint32 payload length and the payload. Payload decoding lives in
// package chunk; this package validates the header, walks the chunk records
// and collects the decoded chunks.
package mosqdb

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/hivemq/mosquitto2hivemq/pkg/errdefs"
)

// Magic identifies a mosquitto persistence file.
var Magic = [15]byte{0x00, 0xb5, 0x00, 'm', 'o', 's', 'q', 'u', 'i', 't', 't', 'o', ' ', 'd', 'b'}

// HeaderSize is the fixed binary size of a file header.
const HeaderSize = 23 // 15 + 4 + 4 bytes

// DefaultVersion is the database version written by NewFileHeader.
const DefaultVersion = 6

// FileHeader is the header at the start of a persistence file. CRC and
// Version are carried through as read; the CRC is not verified.
type FileHeader struct {
	Magic   [15]byte
	CRC     uint32
	Version uint32
}

// NewFileHeader returns a header with the mosquitto magic.
func NewFileHeader(version uint32) *FileHeader {
	return &FileHeader{Magic: Magic, Version: version}
}

// Size returns the binary size of the header.
func (h *FileHeader) Size() int {
	return HeaderSize
}

// Validate checks the magic.
func (h *FileHeader) Validate() error {
	if h.Magic != Magic {
		return errors.Wrapf(errdefs.ErrHeaderMismatch, "expected %x, got %x", Magic, h.Magic)
	}
	return nil
}

// MarshalBinary encodes the header to binary format.
func (h *FileHeader) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header to the given buffer.
// The buffer must be at least HeaderSize bytes.
func (h *FileHeader) EncodeTo(buf []byte) {
	copy(buf[0:15], h.Magic[:])
	binary.BigEndian.PutUint32(buf[15:19], h.CRC)
	binary.BigEndian.PutUint32(buf[19:23], h.Version)
}

// UnmarshalBinary decodes and validates the header.
func (h *FileHeader) UnmarshalBinary(data []byte) error {
	if err := h.DecodeFrom(data); err != nil {
		return err
	}
	return h.Validate()
}

// DecodeFrom reads the header from the given buffer.
// Does not validate - use UnmarshalBinary for validation.
func (h *FileHeader) DecodeFrom(data []byte) error {
	if len(data) < HeaderSize {
		return errors.Wrapf(errdefs.ErrTruncated, "file header needs %d bytes, got %d", HeaderSize, len(data))
	}
	copy(h.Magic[:], data[0:15])
	h.CRC = binary.BigEndian.Uint32(data[15:19])
	h.Version = binary.BigEndian.Uint32(data[19:23])
	return nil
}
