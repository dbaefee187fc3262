package mosqdb

import (
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hivemq/mosquitto2hivemq/internal/wire"
	"github.com/hivemq/mosquitto2hivemq/pkg/chunk"
	"github.com/hivemq/mosquitto2hivemq/pkg/errdefs"
)

// RecordHeaderSize is the size of the kind and length fields before each payload.
const RecordHeaderSize = 8

// Record locates one chunk in the file.
type Record struct {
	Kind   chunk.Kind
	Offset int // position of the kind field
	Length int // payload length
}

// PayloadOffset returns the position of the first payload byte.
func (r Record) PayloadOffset() int {
	return r.Offset + RecordHeaderSize
}

// Size returns the number of bytes the record occupies, header included.
func (r Record) Size() int {
	return RecordHeaderSize + r.Length
}

func (r Record) String() string {
	return fmt.Sprintf("%s@%d+%d", r.Kind, r.Offset, r.Length)
}

// Scan walks the chunk records that follow the file header without decoding
// any payload. Records of unknown kind are returned as well. A record whose
// header or payload extends past the end of data fails with ErrTruncated.
func Scan(data []byte) ([]Record, error) {
	if len(data) < HeaderSize {
		return nil, (&FileHeader{}).DecodeFrom(data)
	}
	c := wire.NewCursor(data[HeaderSize:], HeaderSize)
	var records []Record
	for c.Remaining() > 0 {
		off := HeaderSize + c.Offset()
		kind, err := c.Uint32("chunk type")
		if err != nil {
			return nil, err
		}
		length, err := c.Uint32("chunk length")
		if err != nil {
			return nil, err
		}
		if err := c.Skip(int(length), chunk.Kind(kind).String()+" payload"); err != nil {
			return nil, err
		}
		records = append(records, Record{Kind: chunk.Kind(kind), Offset: off, Length: int(length)})
	}
	return records, nil
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithForce downgrades recoverable errors to warnings.
func WithForce(force bool) Option {
	return func(d *Decoder) {
		d.force = force
	}
}

// WithWorkers decodes payloads on up to n goroutines. n <= 1 decodes
// sequentially.
func WithWorkers(n int) Option {
	return func(d *Decoder) {
		d.workers = n
	}
}

// WithLogger sets the logger for warnings and chunk listings.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Decoder) {
		d.log = log
	}
}

// WithDisplayChunks logs a hex dump of the input and every decoded chunk.
func WithDisplayChunks(display bool) Option {
	return func(d *Decoder) {
		d.display = display
	}
}

// Decoder turns a persistence file image into a DB.
type Decoder struct {
	force   bool
	workers int
	display bool
	log     logrus.FieldLogger
}

// NewDecoder creates a decoder with the given options.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		workers: 1,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes data with a decoder built from opts.
func Decode(data []byte, opts ...Option) (*DB, error) {
	return NewDecoder(opts...).Decode(data)
}

func (d *Decoder) policy() errdefs.Policy {
	return errdefs.Policy{Force: d.force, Log: d.log}
}

// Decode decodes the whole image. On any error that is not tolerated no DB is
// returned.
func (d *Decoder) Decode(data []byte) (*DB, error) {
	policy := d.policy()
	if d.display {
		d.log.Infof("raw image, %d bytes\n%s", len(data), hex.Dump(data))
	}

	db := &DB{}
	if err := db.Header.UnmarshalBinary(data); err != nil {
		if err := policy.Tolerate(err, logrus.Fields{"magic": fmt.Sprintf("%x", db.Header.Magic)}); err != nil {
			return nil, err
		}
	}

	records, err := Scan(data)
	if err != nil {
		return nil, err
	}

	var chunks []chunk.Chunk
	if d.workers > 1 && len(records) > 1 {
		chunks, err = d.decodeParallel(data, records, policy)
	} else {
		chunks, err = d.decodeSequential(data, records, policy)
	}
	if err != nil {
		return nil, err
	}

	for i, c := range chunks {
		if c == nil {
			continue
		}
		if d.display {
			d.log.WithFields(logrus.Fields{
				"kind":   records[i].Kind,
				"offset": records[i].Offset,
				"length": records[i].Length,
			}).Info(c.String())
		}
		db.Add(c)
	}
	return db, nil
}

func (d *Decoder) decodeSequential(data []byte, records []Record, policy errdefs.Policy) ([]chunk.Chunk, error) {
	chunks := make([]chunk.Chunk, len(records))
	for i, r := range records {
		c, err := decodeRecord(data, r, policy)
		if err != nil {
			return nil, err
		}
		chunks[i] = c
	}
	return chunks, nil
}

// decodeParallel decodes every record concurrently. The returned error is the
// one of the first failing record in file order.
func (d *Decoder) decodeParallel(data []byte, records []Record, policy errdefs.Policy) ([]chunk.Chunk, error) {
	chunks := make([]chunk.Chunk, len(records))
	errs := make([]error, len(records))

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, r := range records {
		i, r := i, r
		g.Go(func() error {
			chunks[i], errs[i] = decodeRecord(data, r, policy)
			return errs[i]
		})
	}
	if err := g.Wait(); err != nil {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}
	return chunks, nil
}

// decodeRecord returns a nil chunk for a record skipped under force.
func decodeRecord(data []byte, r Record, policy errdefs.Policy) (chunk.Chunk, error) {
	c, err := chunk.Decode(r.Kind, data, r.PayloadOffset(), r.Length, policy)
	if err != nil {
		if err := policy.Tolerate(err, logrus.Fields{
			"kind":   r.Kind,
			"offset": r.Offset,
			"length": r.Length,
		}); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return c, nil
}
