package property

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivemq/mosquitto2hivemq/pkg/errdefs"
)

func strict() errdefs.Policy {
	logger, _ := test.NewNullLogger()
	return errdefs.Policy{Log: logger}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		list List
	}{
		{"payload format indicator", List{{ID: PayloadFormatIndicator, Value: ByteValue(1)}}},
		{"subscription identifier", List{{ID: SubscriptionIdentifier, Value: VarIntValue(268435455)}}},
		{"content type", List{{ID: ContentType, Value: StringValue("text/plain")}}},
		{"response topic", List{{ID: ResponseTopic, Value: StringValue("reply/é")}}},
		{"correlation data", List{{ID: CorrelationData, Value: BytesValue{0x00, 0xff, 0x10}}}},
		{"user property", List{{ID: UserProperty, Value: KeyValuePair{Key: "k", Value: []byte("v")}}}},
		{"duplicates keep order", List{
			{ID: UserProperty, Value: KeyValuePair{Key: "a", Value: []byte("1")}},
			{ID: ContentType, Value: StringValue("application/json")},
			{ID: UserProperty, Value: KeyValuePair{Key: "a", Value: []byte("2")}},
			{ID: SubscriptionIdentifier, Value: VarIntValue(7)},
			{ID: SubscriptionIdentifier, Value: VarIntValue(300)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := Append(nil, tt.list)
			require.NoError(t, err)

			got, err := Decode(buf, 0, len(buf), strict())
			require.NoError(t, err)
			assert.Equal(t, tt.list, got)
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	t.Run("empty range", func(t *testing.T) {
		got, err := Decode([]byte{0xff, 0xff}, 1, 1, strict())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("zero length prefix", func(t *testing.T) {
		buf := []byte{0x00, 0x03, 0x00}
		got, err := Decode(buf, 0, len(buf), strict())
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestDecodeStopsAtDeclaredLength(t *testing.T) {
	buf, err := Append(nil, List{{ID: PayloadFormatIndicator, Value: ByteValue(1)}})
	require.NoError(t, err)
	// Trailing bytes inside the range but after the declared list are not parsed.
	buf = append(buf, 0x7f, 0x7f, 0x7f)

	got, err := Decode(buf, 0, len(buf), strict())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDecodeWithOffset(t *testing.T) {
	body, err := Append(nil, List{{ID: ContentType, Value: StringValue("a")}})
	require.NoError(t, err)
	buf := append([]byte{0xde, 0xad}, body...)
	buf = append(buf, 0xbe, 0xef)

	got, err := Decode(buf, 2, 2+len(body), strict())
	require.NoError(t, err)
	assert.Equal(t, List{{ID: ContentType, Value: StringValue("a")}}, got)
}

func TestDecodeTwoBytePrefix(t *testing.T) {
	// A list over 127 bytes needs a two byte length prefix; the last property
	// must still be decoded.
	list := List{
		{ID: CorrelationData, Value: BytesValue(make([]byte, 150))},
		{ID: PayloadFormatIndicator, Value: ByteValue(0)},
	}
	buf, err := Append(nil, list)
	require.NoError(t, err)

	got, err := Decode(buf, 0, len(buf), strict())
	require.NoError(t, err)
	assert.Equal(t, list, got)
}

func TestDecodeErrors(t *testing.T) {
	t.Run("length exceeds range", func(t *testing.T) {
		buf := []byte{0x05, 0x01, 0x01}
		_, err := Decode(buf, 0, len(buf), errdefs.Policy{Force: true})
		assert.True(t, errdefs.IsTruncated(err), "got %v", err)
	})

	t.Run("value past declared length", func(t *testing.T) {
		// Declared length 2 covers the type and string length but not the string.
		buf := []byte{0x03, 0x03, 0x00, 0x04, 'a', 'b', 'c', 'd'}
		_, err := Decode(buf, 0, len(buf), strict())
		assert.True(t, errdefs.IsTruncated(err), "got %v", err)
	})

	t.Run("range outside buffer", func(t *testing.T) {
		_, err := Decode([]byte{0x00}, 0, 2, strict())
		assert.True(t, errdefs.IsTruncated(err))
	})

	t.Run("unknown type", func(t *testing.T) {
		buf := []byte{0x02, 0x63, 0x00}
		_, err := Decode(buf, 0, len(buf), strict())
		assert.True(t, errdefs.IsUnknownPropertyType(err), "got %v", err)
	})

	t.Run("known but unsupported type", func(t *testing.T) {
		buf := []byte{0x05, byte(MessageExpiryInterval), 0x00, 0x00, 0x00, 0x3c}
		_, err := Decode(buf, 0, len(buf), strict())
		assert.True(t, errdefs.IsUnknownPropertyType(err), "got %v", err)
	})

	t.Run("malformed varint type", func(t *testing.T) {
		buf := []byte{0x02, 0x80, 0x00}
		_, err := Decode(buf, 0, len(buf), strict())
		assert.True(t, errdefs.IsMalformedVarInt(err), "got %v", err)
	})
}

func TestDecodeForceAbandonsRest(t *testing.T) {
	logger, hook := test.NewNullLogger()
	policy := errdefs.Policy{Force: true, Log: logger}

	good, err := Append(nil, List{{ID: PayloadFormatIndicator, Value: ByteValue(1)}})
	require.NoError(t, err)
	// good[1:] is the body of a one property list. Follow it with an unknown
	// code and a property that would decode if the decoder resynchronised.
	body := append([]byte{}, good[1:]...)
	body = append(body, 0x63, byte(PayloadFormatIndicator), 0x00)
	buf := append([]byte{byte(len(body))}, body...)

	got, err := Decode(buf, 0, len(buf), policy)
	require.NoError(t, err)
	assert.Equal(t, List{{ID: PayloadFormatIndicator, Value: ByteValue(1)}}, got)

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 3, hook.LastEntry().Data["abandoned"])
}

func TestDecodeMalformedLengthPrefix(t *testing.T) {
	// Two leading bytes stand in for the chunk fields before the list.
	buf := []byte{0xaa, 0xbb, 0xff, 0xff, 0xff, 0xff, byte(ContentType), 0x00}

	t.Run("default", func(t *testing.T) {
		_, err := Decode(buf, 2, len(buf), strict())
		require.Error(t, err)
		assert.True(t, errdefs.IsMalformedVarInt(err), "got %v", err)
	})

	t.Run("force abandons the list", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		got, err := Decode(buf, 2, len(buf), errdefs.Policy{Force: true, Log: logger})
		require.NoError(t, err)
		assert.Empty(t, got)

		require.Len(t, hook.AllEntries(), 1)
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		assert.Equal(t, 2, hook.LastEntry().Data["offset"])
		assert.Equal(t, 6, hook.LastEntry().Data["abandoned"])
	})

	t.Run("truncated prefix stays fatal under force", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		short := []byte{0x80, 0x80}
		_, err := Decode(short, 0, len(short), errdefs.Policy{Force: true, Log: logger})
		require.Error(t, err)
		assert.True(t, errdefs.IsTruncated(err), "got %v", err)
		assert.Empty(t, hook.AllEntries())
	})
}

func TestListAccessors(t *testing.T) {
	l := List{
		{ID: SubscriptionIdentifier, Value: VarIntValue(1)},
		{ID: ContentType, Value: StringValue("text/plain")},
		{ID: SubscriptionIdentifier, Value: VarIntValue(2)},
	}

	p, ok := l.First(ContentType)
	require.True(t, ok)
	assert.Equal(t, StringValue("text/plain"), p.Value)

	_, ok = l.First(ResponseTopic)
	assert.False(t, ok)

	assert.Len(t, l.All(SubscriptionIdentifier), 2)
	assert.Equal(t, `[subscription-identifier=1 content-type="text/plain" subscription-identifier=2]`, l.String())
}

func TestIdentifier(t *testing.T) {
	assert.True(t, SharedSubscriptionAvailable.Known())
	assert.False(t, Identifier(4).Known())
	assert.Equal(t, "unknown(4)", Identifier(4).String())
	assert.Equal(t, "user-property", UserProperty.String())

	_, ok := ShapeOf(MessageExpiryInterval)
	assert.False(t, ok)
}

func TestAppendRejectsMismatchedShape(t *testing.T) {
	_, err := Append(nil, List{{ID: ContentType, Value: ByteValue(1)}})
	assert.Error(t, err)
	_, err = Append(nil, List{{ID: Identifier(99), Value: ByteValue(1)}})
	assert.Error(t, err)
}
