package property

import (
	"github.com/pkg/errors"

	"github.com/hivemq/mosquitto2hivemq/internal/wire"
	"github.com/hivemq/mosquitto2hivemq/pkg/varint"
)

// Append encodes l the way Decode expects it: a varint length followed by the
// properties. An empty list still writes the zero length.
func Append(dst []byte, l List) ([]byte, error) {
	var body []byte
	for _, p := range l {
		var err error
		if body, err = appendOne(body, p); err != nil {
			return dst, err
		}
	}
	dst, err := varint.Append(dst, uint32(len(body)))
	if err != nil {
		return dst, errors.Wrap(err, "properties length")
	}
	return append(dst, body...), nil
}

func appendOne(dst []byte, p Property) ([]byte, error) {
	shape, ok := ShapeOf(p.ID)
	if !ok || p.Value == nil || p.Value.Shape() != shape {
		return dst, errors.Errorf("cannot encode %s with value %v", p.ID, p.Value)
	}
	dst, err := varint.Append(dst, uint32(p.ID))
	if err != nil {
		return dst, err
	}

	switch v := p.Value.(type) {
	case ByteValue:
		return append(dst, byte(v)), nil
	case VarIntValue:
		return varint.Append(dst, uint32(v))
	case StringValue:
		return wire.AppendString(dst, string(v))
	case BytesValue:
		return wire.AppendPrefixed(dst, v)
	case KeyValuePair:
		if dst, err = wire.AppendString(dst, v.Key); err != nil {
			return dst, err
		}
		return wire.AppendPrefixed(dst, v.Value)
	}
	return dst, errors.Errorf("unsupported value type %T", p.Value)
}
