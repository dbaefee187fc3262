package chunk

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/hivemq/mosquitto2hivemq/internal/wire"
	"github.com/hivemq/mosquitto2hivemq/pkg/errdefs"
	"github.com/hivemq/mosquitto2hivemq/pkg/property"
)

// Message directions as stored by the broker.
const (
	DirectionIn  uint8 = 0
	DirectionOut uint8 = 1
)

// ClientMessage is an in-flight or queued message of one client. StoreID
// refers to a MessageStore chunk that may be missing from the file.
type ClientMessage struct {
	StoreID         uint64
	MID             uint16
	QoS             uint8
	State           uint8
	RetainDuplicate bool
	Direction       uint8
	ClientID        string
	Properties      property.List
}

func (*ClientMessage) Kind() Kind { return KindClientMessage }

// SubscriptionIdentifiers returns every subscription identifier property in
// order.
func (m *ClientMessage) SubscriptionIdentifiers() []uint32 {
	var ids []uint32
	for _, p := range m.Properties.All(property.SubscriptionIdentifier) {
		if v, ok := p.Value.(property.VarIntValue); ok {
			ids = append(ids, uint32(v))
		}
	}
	return ids
}

// MarshalBinary encodes:
//
//	<store_id:u64 LE><mid:u16><id_len:u16><qos:u8><state:u8>
//	<retain_dup:u8><direction:u8><client_id><properties>
func (m *ClientMessage) MarshalBinary() ([]byte, error) {
	id, err := wire.EncodeLatin1(m.ClientID)
	if err != nil {
		return nil, err
	}
	if len(id) > math.MaxUint16 {
		return nil, errors.Errorf("client id of %d bytes exceeds %d", len(id), math.MaxUint16)
	}
	buf := make([]byte, 0, 16+len(id))
	buf = wire.AppendUint64LE(buf, m.StoreID)
	buf = wire.AppendUint16(buf, m.MID)
	buf = wire.AppendUint16(buf, uint16(len(id)))
	buf = append(buf, m.QoS, m.State, boolByte(m.RetainDuplicate), m.Direction)
	buf = append(buf, id...)
	return property.Append(buf, m.Properties)
}

func (m *ClientMessage) String() string {
	return fmt.Sprintf("ClientMessage{storeId=%d mid=%d qos=%d state=%d retainDup=%t direction=%d clientId=%q properties=%s}",
		m.StoreID, m.MID, m.QoS, m.State, m.RetainDuplicate, m.Direction, m.ClientID, m.Properties)
}

func decodeClientMessage(buf []byte, start, length int, policy errdefs.Policy) (*ClientMessage, error) {
	r := payloadCursor(buf, start, length)
	m := &ClientMessage{}
	var (
		err       error
		idLen     uint16
		retainDup uint8
	)
	if m.StoreID, err = r.Uint64LE("store id"); err != nil {
		return nil, err
	}
	if m.MID, err = r.Uint16("mid"); err != nil {
		return nil, err
	}
	if idLen, err = r.Uint16("client id length"); err != nil {
		return nil, err
	}
	if m.QoS, err = r.Uint8("qos"); err != nil {
		return nil, err
	}
	if m.State, err = r.Uint8("state"); err != nil {
		return nil, err
	}
	if retainDup, err = r.Uint8("retain dup"); err != nil {
		return nil, err
	}
	m.RetainDuplicate = retainDup == 1
	if m.Direction, err = r.Uint8("direction"); err != nil {
		return nil, err
	}
	if m.ClientID, err = r.String(int(idLen), "client id"); err != nil {
		return nil, err
	}

	if m.Properties, err = property.Decode(buf, start+r.Offset(), start+length, policy); err != nil {
		return nil, err
	}
	return m, nil
}
