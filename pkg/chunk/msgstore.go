package chunk

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/hivemq/mosquitto2hivemq/internal/wire"
	"github.com/hivemq/mosquitto2hivemq/pkg/errdefs"
	"github.com/hivemq/mosquitto2hivemq/pkg/property"
)

// msgStoreFixedSize is the fixed prefix of a message store payload.
const msgStoreFixedSize = 8 + 8 + 4 + 2 + 2 + 2 + 2 + 2 + 1 + 1

// MessageStore is a stored message. StoreID is referenced by Retain and
// ClientMessage chunks.
type MessageStore struct {
	StoreID        uint64
	ExpiryTime     int64 // seconds since the epoch, 0 means never
	SourceMID      uint16
	SourceID       string
	SourceUsername string
	SourcePort     uint16
	Topic          string
	QoS            uint8
	Retain         bool
	Payload        []byte
	Properties     property.List
}

func (*MessageStore) Kind() Kind { return KindMessageStore }

// PayloadLength returns the length of the message payload.
func (m *MessageStore) PayloadLength() int {
	return len(m.Payload)
}

// UsernameOrID returns the source client id, or the source username when the
// message carries no client id.
func (m *MessageStore) UsernameOrID() string {
	if m.SourceID != "" {
		return m.SourceID
	}
	return m.SourceUsername
}

// ContentType returns the content type property, if any.
func (m *MessageStore) ContentType() (string, bool) {
	return firstString(m.Properties, property.ContentType)
}

// ResponseTopic returns the response topic property, if any.
func (m *MessageStore) ResponseTopic() (string, bool) {
	return firstString(m.Properties, property.ResponseTopic)
}

// CorrelationData returns the correlation data property, if any.
func (m *MessageStore) CorrelationData() ([]byte, bool) {
	p, ok := m.Properties.First(property.CorrelationData)
	if !ok {
		return nil, false
	}
	v, ok := p.Value.(property.BytesValue)
	return []byte(v), ok
}

// PayloadFormatIndicator returns the payload format indicator, if any.
// 0 means unspecified bytes, 1 means UTF-8.
func (m *MessageStore) PayloadFormatIndicator() (uint8, bool) {
	p, ok := m.Properties.First(property.PayloadFormatIndicator)
	if !ok {
		return 0, false
	}
	v, ok := p.Value.(property.ByteValue)
	return uint8(v), ok
}

// UserProperties returns all user properties in order.
func (m *MessageStore) UserProperties() []property.KeyValuePair {
	var out []property.KeyValuePair
	for _, p := range m.Properties.All(property.UserProperty) {
		if kv, ok := p.Value.(property.KeyValuePair); ok {
			out = append(out, kv)
		}
	}
	return out
}

// MarshalBinary encodes:
//
//	<store_id:u64 LE><expiry_time:i64 LE><payload_len:u32><source_mid:u16>
//	<source_id_len:u16><source_username_len:u16><topic_len:u16><source_port:u16>
//	<qos:u8><retain:u8><source_id><source_username><topic><payload><properties>
func (m *MessageStore) MarshalBinary() ([]byte, error) {
	sourceID, err := wire.EncodeLatin1(m.SourceID)
	if err != nil {
		return nil, err
	}
	username, err := wire.EncodeLatin1(m.SourceUsername)
	if err != nil {
		return nil, err
	}
	topic, err := wire.EncodeLatin1(m.Topic)
	if err != nil {
		return nil, err
	}
	for _, n := range []int{len(sourceID), len(username), len(topic)} {
		if n > math.MaxUint16 {
			return nil, errors.Errorf("string of %d bytes exceeds %d", n, math.MaxUint16)
		}
	}
	if uint64(len(m.Payload)) > math.MaxUint32 {
		return nil, errors.Errorf("payload of %d bytes exceeds %d", len(m.Payload), uint32(math.MaxUint32))
	}

	buf := make([]byte, 0, msgStoreFixedSize+len(sourceID)+len(username)+len(topic)+len(m.Payload))
	buf = wire.AppendUint64LE(buf, m.StoreID)
	buf = wire.AppendUint64LE(buf, uint64(m.ExpiryTime))
	buf = wire.AppendUint32(buf, uint32(len(m.Payload)))
	buf = wire.AppendUint16(buf, m.SourceMID)
	buf = wire.AppendUint16(buf, uint16(len(sourceID)))
	buf = wire.AppendUint16(buf, uint16(len(username)))
	buf = wire.AppendUint16(buf, uint16(len(topic)))
	buf = wire.AppendUint16(buf, m.SourcePort)
	buf = append(buf, m.QoS, boolByte(m.Retain))
	buf = append(buf, sourceID...)
	buf = append(buf, username...)
	buf = append(buf, topic...)
	buf = append(buf, m.Payload...)
	return property.Append(buf, m.Properties)
}

func (m *MessageStore) String() string {
	return fmt.Sprintf("MessageStore{storeId=%d sourcePort=%d sourceMid=%d topic=%q qos=%d retain=%t usernameOrId=%q payloadLength=%d expiryTime=%d payload=%x properties=%s}",
		m.StoreID, m.SourcePort, m.SourceMID, m.Topic, m.QoS, m.Retain, m.UsernameOrID(),
		m.PayloadLength(), m.ExpiryTime, m.Payload, m.Properties)
}

func decodeMessageStore(buf []byte, start, length int, policy errdefs.Policy) (*MessageStore, error) {
	r := payloadCursor(buf, start, length)
	m := &MessageStore{}
	var (
		err                                error
		payloadLen                         uint32
		sourceIDLen, usernameLen, topicLen uint16
		retain                             uint8
	)
	if m.StoreID, err = r.Uint64LE("store id"); err != nil {
		return nil, err
	}
	if m.ExpiryTime, err = r.Int64LE("expiry time"); err != nil {
		return nil, err
	}
	if payloadLen, err = r.Uint32("payload length"); err != nil {
		return nil, err
	}
	if m.SourceMID, err = r.Uint16("source mid"); err != nil {
		return nil, err
	}
	if sourceIDLen, err = r.Uint16("source id length"); err != nil {
		return nil, err
	}
	if usernameLen, err = r.Uint16("source username length"); err != nil {
		return nil, err
	}
	if topicLen, err = r.Uint16("topic length"); err != nil {
		return nil, err
	}
	if m.SourcePort, err = r.Uint16("source port"); err != nil {
		return nil, err
	}
	if m.QoS, err = r.Uint8("qos"); err != nil {
		return nil, err
	}
	if retain, err = r.Uint8("retain"); err != nil {
		return nil, err
	}
	m.Retain = retain == 1

	if m.SourceID, err = r.String(int(sourceIDLen), "source id"); err != nil {
		return nil, err
	}
	if m.SourceUsername, err = r.String(int(usernameLen), "source username"); err != nil {
		return nil, err
	}
	if m.Topic, err = r.String(int(topicLen), "topic"); err != nil {
		return nil, err
	}
	if uint64(payloadLen) > uint64(r.Remaining()) {
		return nil, errors.Wrapf(errdefs.ErrTruncated, "payload of %d bytes, %d left", payloadLen, r.Remaining())
	}
	if m.Payload, err = r.Bytes(int(payloadLen), "payload"); err != nil {
		return nil, err
	}

	if m.Properties, err = property.Decode(buf, start+r.Offset(), start+length, policy); err != nil {
		return nil, err
	}
	return m, nil
}

func firstString(l property.List, id property.Identifier) (string, bool) {
	p, ok := l.First(id)
	if !ok {
		return "", false
	}
	v, ok := p.Value.(property.StringValue)
	return string(v), ok
}
