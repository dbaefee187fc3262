package mosqdb

import (
	"bytes"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/hivemq/mosquitto2hivemq/internal/wire"
	"github.com/hivemq/mosquitto2hivemq/pkg/chunk"
)

// Writer writes a persistence file: the header, then one record per chunk.
type Writer struct {
	dst io.Writer
	n   int64
}

// NewWriter writes h to dst and returns a writer for the chunk records.
func NewWriter(dst io.Writer, h *FileHeader) (*Writer, error) {
	headerBytes, err := h.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "marshal header")
	}
	w := &Writer{dst: dst}
	if err := w.write(headerBytes); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	return w, nil
}

// WriteChunk writes c as one record.
func (w *Writer) WriteChunk(c chunk.Chunk) error {
	payload, err := c.MarshalBinary()
	if err != nil {
		return errors.Wrapf(err, "marshal %s chunk", c.Kind())
	}
	return w.WriteRecord(c.Kind(), payload)
}

// WriteRecord writes a record with an arbitrary kind and payload.
func (w *Writer) WriteRecord(kind chunk.Kind, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return errors.Errorf("%s payload of %d bytes exceeds %d", kind, len(payload), uint32(math.MaxUint32))
	}
	buf := make([]byte, 0, RecordHeaderSize+len(payload))
	buf = wire.AppendUint32(buf, uint32(kind))
	buf = wire.AppendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)
	return errors.Wrapf(w.write(buf), "write %s record", kind)
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 {
	return w.n
}

func (w *Writer) write(p []byte) error {
	n, err := w.dst.Write(p)
	w.n += int64(n)
	return err
}

// Encode returns the file image of db. Chunks are written grouped by kind.
func Encode(db *DB) ([]byte, error) {
	var buf bytes.Buffer
	h := db.Header
	if h.Magic == ([15]byte{}) {
		h.Magic = Magic
	}
	w, err := NewWriter(&buf, &h)
	if err != nil {
		return nil, err
	}
	for _, c := range db.Chunks() {
		if err := w.WriteChunk(c); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
