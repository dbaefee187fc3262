package chunk

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hivemq/mosquitto2hivemq/internal/wire"
	"github.com/hivemq/mosquitto2hivemq/pkg/errdefs"
)

// RetainHandling says whether retained messages are sent when a subscription
// is made.
type RetainHandling uint8

const (
	SendOnSubscribe       RetainHandling = 0
	SendOnNewSubscription RetainHandling = 1
	DoNotSend             RetainHandling = 2
)

func (h RetainHandling) String() string {
	switch h {
	case SendOnSubscribe:
		return "send"
	case SendOnNewSubscription:
		return "send-if-new"
	case DoNotSend:
		return "do-not-send"
	}
	return fmt.Sprintf("invalid(%d)", uint8(h))
}

// Subscription option bits.
const (
	optNoLocal           = 0x04
	optRetainAsPublished = 0x08
	optRetainHandling    = 0x30
	retainHandlingShift  = 4
)

const subscriptionFixedSize = 4 + 2 + 2 + 1 + 1 + 2

// Subscription is a persisted subscription of one client.
type Subscription struct {
	Identifier        uint32
	ClientID          string
	Topic             string
	QoS               uint8
	NoLocal           bool
	RetainAsPublished bool
	RetainHandling    RetainHandling
}

func (*Subscription) Kind() Kind { return KindSubscription }

// Options packs the option flags into the stored options byte.
func (s *Subscription) Options() uint8 {
	var o uint8
	if s.NoLocal {
		o |= optNoLocal
	}
	if s.RetainAsPublished {
		o |= optRetainAsPublished
	}
	return o | (uint8(s.RetainHandling)<<retainHandlingShift)&optRetainHandling
}

// MarshalBinary encodes:
//
//	<identifier:u32><id_len:u16><topic_len:u16><qos:u8><options:u8>
//	<padding:2><client_id><topic>
func (s *Subscription) MarshalBinary() ([]byte, error) {
	id, err := wire.EncodeLatin1(s.ClientID)
	if err != nil {
		return nil, err
	}
	topic, err := wire.EncodeLatin1(s.Topic)
	if err != nil {
		return nil, err
	}
	if len(id) > math.MaxUint16 || len(topic) > math.MaxUint16 {
		return nil, errors.Errorf("client id or topic exceeds %d bytes", math.MaxUint16)
	}
	buf := make([]byte, 0, subscriptionFixedSize+len(id)+len(topic))
	buf = wire.AppendUint32(buf, s.Identifier)
	buf = wire.AppendUint16(buf, uint16(len(id)))
	buf = wire.AppendUint16(buf, uint16(len(topic)))
	buf = append(buf, s.QoS, s.Options(), 0, 0)
	buf = append(buf, id...)
	return append(buf, topic...), nil
}

func (s *Subscription) String() string {
	return fmt.Sprintf("Subscription{identifier=%d qos=%d clientId=%q topic=%q noLocal=%t retainAsPublished=%t retainHandling=%d}",
		s.Identifier, s.QoS, s.ClientID, s.Topic, s.NoLocal, s.RetainAsPublished, s.RetainHandling)
}

func decodeSubscription(buf []byte, start, length int, policy errdefs.Policy) (*Subscription, error) {
	r := payloadCursor(buf, start, length)
	s := &Subscription{}
	var (
		err             error
		idLen, topicLen uint16
		options         uint8
	)
	if s.Identifier, err = r.Uint32("identifier"); err != nil {
		return nil, err
	}
	if idLen, err = r.Uint16("client id length"); err != nil {
		return nil, err
	}
	if topicLen, err = r.Uint16("topic length"); err != nil {
		return nil, err
	}
	if s.QoS, err = r.Uint8("qos"); err != nil {
		return nil, err
	}
	if options, err = r.Uint8("options"); err != nil {
		return nil, err
	}
	if err = r.Skip(2, "padding"); err != nil {
		return nil, err
	}
	if s.ClientID, err = r.String(int(idLen), "client id"); err != nil {
		return nil, err
	}
	if s.Topic, err = r.String(int(topicLen), "topic"); err != nil {
		return nil, err
	}

	s.NoLocal = options&optNoLocal != 0
	s.RetainAsPublished = options&optRetainAsPublished != 0
	s.RetainHandling = RetainHandling((options & optRetainHandling) >> retainHandlingShift)
	if s.RetainHandling > DoNotSend {
		err := errors.Wrapf(errdefs.ErrInvalidRetainHandling, "options byte 0x%02x", options)
		if err := policy.Tolerate(err, logrus.Fields{
			"offset":   start,
			"clientId": s.ClientID,
			"topic":    s.Topic,
		}); err != nil {
			return nil, err
		}
		s.RetainHandling = DoNotSend
	}
	return s, nil
}
