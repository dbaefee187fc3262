// Package chunk decodes the six record payloads of a mosquitto persistence file.
//
// Every decoder works on buf[start:start+length] only. The payload layouts mix
// byte orders: database ids and absolute times are little-endian, every other
// integer is big-endian. Strings are stored as a big-endian uint16 length in
// the fixed prefix followed later by ISO-8859-1 bytes.
package chunk

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/hivemq/mosquitto2hivemq/internal/wire"
	"github.com/hivemq/mosquitto2hivemq/pkg/errdefs"
)

// Kind is the chunk type tag. Tags outside 1-6 are kept as their raw value
// and report Known() == false.
type Kind uint32

const (
	KindConfig        Kind = 1
	KindMessageStore  Kind = 2
	KindClientMessage Kind = 3
	KindRetain        Kind = 4
	KindSubscription  Kind = 5
	KindClient        Kind = 6
)

// Kinds lists the known kinds in tag order.
var Kinds = []Kind{KindConfig, KindMessageStore, KindClientMessage, KindRetain, KindSubscription, KindClient}

// Known reports whether k is one of the six chunk kinds.
func (k Kind) Known() bool {
	return k >= KindConfig && k <= KindClient
}

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindMessageStore:
		return "message-store"
	case KindClientMessage:
		return "client-message"
	case KindRetain:
		return "retain"
	case KindSubscription:
		return "subscription"
	case KindClient:
		return "client"
	}
	return fmt.Sprintf("unknown(%d)", uint32(k))
}

// Chunk is a decoded payload.
type Chunk interface {
	Kind() Kind
	// MarshalBinary encodes the payload, without the type and length fields.
	MarshalBinary() ([]byte, error)
	String() string
}

// Decode decodes the payload of a chunk of kind k found at buf[start:start+length].
func Decode(k Kind, buf []byte, start, length int, policy errdefs.Policy) (Chunk, error) {
	if start < 0 || length < 0 || start+length > len(buf) {
		return nil, errors.Wrapf(errdefs.ErrTruncated,
			"%s payload [%d,%d) outside %d bytes", k, start, start+length, len(buf))
	}

	var (
		c   Chunk
		err error
	)
	switch k {
	case KindConfig:
		c, err = decodeConfig(buf, start, length)
	case KindMessageStore:
		c, err = decodeMessageStore(buf, start, length, policy)
	case KindClientMessage:
		c, err = decodeClientMessage(buf, start, length, policy)
	case KindRetain:
		c, err = decodeRetain(buf, start, length)
	case KindSubscription:
		c, err = decodeSubscription(buf, start, length, policy)
	case KindClient:
		c, err = decodeClient(buf, start, length)
	default:
		return nil, errors.Wrapf(errdefs.ErrUnknownChunkType, "%s at offset %d", k, start)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s chunk", k)
	}
	return c, nil
}

func payloadCursor(buf []byte, start, length int) *wire.Cursor {
	return wire.NewCursor(buf[start:start+length], start)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
