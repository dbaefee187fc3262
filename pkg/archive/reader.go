package archive

import (
	"bytes"
	"hash/crc32"
	"io"

	"github.com/DataDog/zstd"
	"github.com/pkg/errors"
)

const (
	// DefaultCompressionLevel is the default compression level for encoding.
	DefaultCompressionLevel = zstd.DefaultCompression
)

// ErrChecksum is returned when a decompressed image does not match the
// checksum recorded in its header.
var ErrChecksum = errors.New("snapshot checksum mismatch")

// Reader decompresses the image of a snapshot container.
type Reader struct {
	header    *Header
	zReader   io.ReadCloser
	headerBuf [HeaderSize]byte
}

// NewReader reads and validates the header, then returns a reader for the
// decompressed image.
func NewReader(r io.Reader) (*Reader, error) {
	reader := &Reader{
		header: &Header{},
	}

	if _, err := io.ReadFull(r, reader.headerBuf[:]); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	if err := reader.header.UnmarshalBinary(reader.headerBuf[:]); err != nil {
		return nil, errors.Wrap(err, "parse header")
	}

	reader.zReader = zstd.NewReader(r)
	return reader, nil
}

// Header returns the container header.
func (r *Reader) Header() *Header {
	return r.header
}

// Read reads decompressed data into p.
func (r *Reader) Read(p []byte) (int, error) {
	return r.zReader.Read(p)
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.zReader.Close()
}

// Length returns the uncompressed image length.
func (r *Reader) Length() int {
	return int(r.header.Length)
}

// CompressedLength returns the compressed image length.
func (r *Reader) CompressedLength() int {
	return int(r.header.CompressedLength)
}

// ReadAll reads and verifies the entire image of a snapshot container.
func ReadAll(r io.Reader) ([]byte, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	// Never preallocate from the declared length.
	data, err := io.ReadAll(io.LimitReader(reader, int64(reader.header.Length)+1))
	if err != nil {
		return nil, errors.Wrap(err, "read content")
	}
	if uint64(len(data)) != reader.header.Length {
		return nil, errors.Wrapf(ErrNotSnapshot, "image is %d bytes, header declares %d", len(data), reader.header.Length)
	}
	if sum := crc32.ChecksumIEEE(data); sum != reader.header.Checksum {
		return nil, errors.Wrapf(ErrChecksum, "expected %08x, got %08x", reader.header.Checksum, sum)
	}
	return data, nil
}

// Unpack returns the image held in the snapshot container data.
func Unpack(data []byte) ([]byte, error) {
	return ReadAll(bytes.NewReader(data))
}
