package chunk

import (
	"fmt"

	"github.com/hivemq/mosquitto2hivemq/internal/wire"
)

// Retain marks the message store entry with StoreID as retained.
type Retain struct {
	StoreID uint64
}

func (*Retain) Kind() Kind { return KindRetain }

func (r *Retain) MarshalBinary() ([]byte, error) {
	return wire.AppendUint64LE(nil, r.StoreID), nil
}

func (r *Retain) String() string {
	return fmt.Sprintf("Retain{storeId=%d}", r.StoreID)
}

func decodeRetain(buf []byte, start, length int) (*Retain, error) {
	id, err := payloadCursor(buf, start, length).Uint64LE("store id")
	if err != nil {
		return nil, err
	}
	return &Retain{StoreID: id}, nil
}
