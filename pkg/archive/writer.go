package archive

import (
	"hash"
	"hash/crc32"
	"io"

	"github.com/DataDog/zstd"
	"github.com/pkg/errors"
)

// Writer compresses an image into a snapshot container.
type Writer struct {
	dst     io.WriteSeeker
	zWriter *zstd.Writer
	crc     hash.Hash32
	header  *Header
	level   int
	written uint64
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompressionLevel sets the compression level for the writer.
func WithCompressionLevel(level int) WriterOption {
	return func(w *Writer) {
		w.level = level
	}
}

// NewWriter writes a placeholder header to dst and returns a writer for the
// image. The header is completed by Close.
func NewWriter(dst io.WriteSeeker, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		dst:    dst,
		level:  DefaultCompressionLevel,
		crc:    crc32.NewIEEE(),
		header: NewHeader(0, 0, 0),
	}

	for _, opt := range opts {
		opt(w)
	}

	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshal header")
	}
	if _, err := dst.Write(headerBytes); err != nil {
		return nil, errors.Wrap(err, "write header")
	}

	w.zWriter = zstd.NewWriterLevel(dst, w.level)
	return w, nil
}

// Write compresses p.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.zWriter.Write(p)
	w.crc.Write(p[:n])
	w.written += uint64(n)
	return n, err
}

// Close flushes the compressor and rewrites the header with the final sizes
// and checksum. An empty image cannot be read back and fails.
func (w *Writer) Close() error {
	if err := w.zWriter.Close(); err != nil {
		return errors.Wrap(err, "close compressor")
	}
	if w.written == 0 {
		return errors.Wrap(ErrNotSnapshot, "empty image")
	}

	pos, err := w.dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(err, "get position")
	}

	w.header.Length = w.written
	w.header.CompressedLength = uint64(pos) - uint64(w.header.Size())
	w.header.Checksum = w.crc.Sum32()

	if _, err := w.dst.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "seek to start")
	}
	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "marshal header")
	}
	if _, err := w.dst.Write(headerBytes); err != nil {
		return errors.Wrap(err, "write header")
	}
	if _, err := w.dst.Seek(pos, io.SeekStart); err != nil {
		return errors.Wrap(err, "seek to end")
	}
	return nil
}

// Header returns the header written so far. It is complete after Close.
func (w *Writer) Header() *Header {
	return w.header
}

// Encode compresses data and writes it as a snapshot container to dst.
func Encode(dst io.WriteSeeker, data []byte, opts ...WriterOption) error {
	w, err := NewWriter(dst, opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "write data")
	}
	return w.Close()
}
