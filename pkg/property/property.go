// Package property models the MQTT5 properties stored inside message store and
// client message chunks, and decodes the length-prefixed list they are packed in.
package property

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Identifier is an MQTT5 property code. Codes outside the MQTT5 table are kept
// as their raw value and report Known() == false.
type Identifier uint32

const (
	PayloadFormatIndicator          Identifier = 1
	MessageExpiryInterval           Identifier = 2
	ContentType                     Identifier = 3
	ResponseTopic                   Identifier = 8
	CorrelationData                 Identifier = 9
	SubscriptionIdentifier          Identifier = 11
	SessionExpiryInterval           Identifier = 17
	AssignedClientIdentifier        Identifier = 18
	ServerKeepAlive                 Identifier = 19
	AuthenticationMethod            Identifier = 21
	AuthenticationData              Identifier = 22
	RequestProblemInformation       Identifier = 23
	WillDelayInterval               Identifier = 24
	RequestResponseInformation      Identifier = 25
	ResponseInformation             Identifier = 26
	ServerReference                 Identifier = 28
	ReasonString                    Identifier = 31
	ReceiveMaximum                  Identifier = 33
	TopicAliasMaximum               Identifier = 34
	TopicAlias                      Identifier = 35
	MaximumQoS                      Identifier = 36
	RetainAvailable                 Identifier = 37
	UserProperty                    Identifier = 38
	MaximumPacketSize               Identifier = 39
	WildcardSubscriptionAvailable   Identifier = 40
	SubscriptionIdentifierAvailable Identifier = 41
	SharedSubscriptionAvailable     Identifier = 42
)

var names = map[Identifier]string{
	PayloadFormatIndicator:          "payload-format-indicator",
	MessageExpiryInterval:           "message-expiry-interval",
	ContentType:                     "content-type",
	ResponseTopic:                   "response-topic",
	CorrelationData:                 "correlation-data",
	SubscriptionIdentifier:          "subscription-identifier",
	SessionExpiryInterval:           "session-expiry-interval",
	AssignedClientIdentifier:        "assigned-client-identifier",
	ServerKeepAlive:                 "server-keep-alive",
	AuthenticationMethod:            "authentication-method",
	AuthenticationData:              "authentication-data",
	RequestProblemInformation:       "request-problem-information",
	WillDelayInterval:               "will-delay-interval",
	RequestResponseInformation:      "request-response-information",
	ResponseInformation:             "response-information",
	ServerReference:                 "server-reference",
	ReasonString:                    "reason-string",
	ReceiveMaximum:                  "receive-maximum",
	TopicAliasMaximum:               "topic-alias-maximum",
	TopicAlias:                      "topic-alias",
	MaximumQoS:                      "maximum-qos",
	RetainAvailable:                 "retain-available",
	UserProperty:                    "user-property",
	MaximumPacketSize:               "maximum-packet-size",
	WildcardSubscriptionAvailable:   "wildcard-subscription-available",
	SubscriptionIdentifierAvailable: "subscription-identifier-available",
	SharedSubscriptionAvailable:     "shared-subscription-available",
}

// Known reports whether id is one of the MQTT5 property codes.
func (id Identifier) Known() bool {
	_, ok := names[id]
	return ok
}

func (id Identifier) String() string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint32(id))
}

// Shape is the on-disk layout of a property value.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeByte
	ShapeVarInt
	ShapeString
	ShapeBytes
	ShapePair
)

// ShapeOf returns the layout of the properties the decoder understands.
// Every other identifier, known to MQTT5 or not, reports false.
func ShapeOf(id Identifier) (Shape, bool) {
	switch id {
	case PayloadFormatIndicator:
		return ShapeByte, true
	case SubscriptionIdentifier:
		return ShapeVarInt, true
	case ContentType, ResponseTopic:
		return ShapeString, true
	case CorrelationData:
		return ShapeBytes, true
	case UserProperty:
		return ShapePair, true
	}
	return ShapeNone, false
}

// Value is one of ByteValue, VarIntValue, StringValue, BytesValue or KeyValuePair.
type Value interface {
	Shape() Shape
	String() string
}

type ByteValue uint8

func (ByteValue) Shape() Shape     { return ShapeByte }
func (v ByteValue) String() string { return fmt.Sprintf("%d", uint8(v)) }

type VarIntValue uint32

func (VarIntValue) Shape() Shape     { return ShapeVarInt }
func (v VarIntValue) String() string { return fmt.Sprintf("%d", uint32(v)) }

type StringValue string

func (StringValue) Shape() Shape     { return ShapeString }
func (v StringValue) String() string { return fmt.Sprintf("%q", string(v)) }

type BytesValue []byte

func (BytesValue) Shape() Shape     { return ShapeBytes }
func (v BytesValue) String() string { return hex.EncodeToString(v) }

// KeyValuePair is a user property. The value is kept as raw bytes.
type KeyValuePair struct {
	Key   string
	Value []byte
}

func (KeyValuePair) Shape() Shape { return ShapePair }
func (v KeyValuePair) String() string {
	return fmt.Sprintf("%q:%q", v.Key, string(v.Value))
}

// Property is a single decoded property.
type Property struct {
	ID    Identifier
	Value Value
}

func (p Property) String() string {
	return p.ID.String() + "=" + p.Value.String()
}

// List is an ordered property list. Duplicate identifiers are allowed.
type List []Property

// First returns the first property with the given identifier.
func (l List) First(id Identifier) (Property, bool) {
	for _, p := range l {
		if p.ID == id {
			return p, true
		}
	}
	return Property{}, false
}

// All returns every property with the given identifier, in order.
func (l List) All(id Identifier) List {
	var out List
	for _, p := range l {
		if p.ID == id {
			out = append(out, p)
		}
	}
	return out
}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, p := range l {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
