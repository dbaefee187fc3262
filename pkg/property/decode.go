package property

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hivemq/mosquitto2hivemq/internal/wire"
	"github.com/hivemq/mosquitto2hivemq/pkg/errdefs"
)

// Decode reads the property list packed in buf[start:end].
//
// An empty range yields an empty list. Otherwise the range starts with a
// variable byte integer giving the length of the list, and properties are read
// until exactly that many bytes have been consumed. Nothing past end is read.
//
// An unknown property code or malformed varint, the length prefix included,
// fails the decode unless the policy forces, in which case the rest of the
// list is abandoned and the properties decoded so far are returned.
func Decode(buf []byte, start, end int, policy errdefs.Policy) (List, error) {
	if start < 0 || start > end || end > len(buf) {
		return nil, errors.Wrapf(errdefs.ErrTruncated, "property range [%d,%d) outside %d bytes", start, end, len(buf))
	}
	if start == end {
		return nil, nil
	}

	c := wire.NewCursor(buf[start:end], start)
	length, err := c.VarInt("properties length")
	if err != nil {
		if err := policy.Tolerate(err, logrus.Fields{
			"offset":    start,
			"abandoned": end - start,
		}); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if int(length) > c.Remaining() {
		return nil, errors.Wrapf(errdefs.ErrTruncated,
			"properties length %d exceeds %d remaining bytes at offset %d", length, c.Remaining(), start+c.Offset())
	}

	region := wire.NewCursor(c.Rest()[:length], start+c.Offset())
	var props List
	for region.Remaining() > 0 {
		at := region.Offset()
		p, err := decodeOne(region)
		if err != nil {
			if err := policy.Tolerate(err, logrus.Fields{
				"offset":    start + c.Offset() + at,
				"abandoned": int(length) - at,
			}); err != nil {
				return nil, err
			}
			break
		}
		props = append(props, p)
	}
	return props, nil
}

func decodeOne(c *wire.Cursor) (Property, error) {
	code, err := c.VarInt("property type")
	if err != nil {
		return Property{}, err
	}
	id := Identifier(code)
	shape, ok := ShapeOf(id)
	if !ok {
		return Property{}, errors.Wrapf(errdefs.ErrUnknownPropertyType, "%s", id)
	}

	var v Value
	switch shape {
	case ShapeByte:
		b, err := c.Uint8(id.String())
		if err != nil {
			return Property{}, err
		}
		v = ByteValue(b)
	case ShapeVarInt:
		n, err := c.VarInt(id.String())
		if err != nil {
			return Property{}, err
		}
		v = VarIntValue(n)
	case ShapeString:
		s, err := readString(c, id.String())
		if err != nil {
			return Property{}, err
		}
		v = StringValue(s)
	case ShapeBytes:
		b, err := readBytes(c, id.String())
		if err != nil {
			return Property{}, err
		}
		v = BytesValue(b)
	case ShapePair:
		key, err := readString(c, "user property key")
		if err != nil {
			return Property{}, err
		}
		val, err := readBytes(c, "user property value")
		if err != nil {
			return Property{}, err
		}
		v = KeyValuePair{Key: key, Value: val}
	}
	return Property{ID: id, Value: v}, nil
}

func readString(c *wire.Cursor, field string) (string, error) {
	n, err := c.Uint16(field + " length")
	if err != nil {
		return "", err
	}
	return c.String(int(n), field)
}

func readBytes(c *wire.Cursor, field string) ([]byte, error) {
	n, err := c.Uint16(field + " length")
	if err != nil {
		return nil, err
	}
	return c.Bytes(int(n), field)
}
