package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivemq/mosquitto2hivemq/pkg/errdefs"
)

func TestCursor(t *testing.T) {
	buf := []byte{
		0x01,       // u8
		0x01, 0x02, // u16 BE
		0x00, 0x00, 0x01, 0x00, // u32 BE
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, // u64 LE
		0x80, 0x01, // varint 128
		'a', 0xe9, // latin-1 "aé"
	}
	c := NewCursor(buf, 100)

	u8, err := c.Uint8("u8")
	require.NoError(t, err)
	assert.Equal(t, uint8(1), u8)

	u16, err := c.Uint16("u16")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	u32, err := c.Uint32("u32")
	require.NoError(t, err)
	assert.Equal(t, uint32(256), u32)

	u64, err := c.Uint64LE("u64")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	v, err := c.VarInt("varint")
	require.NoError(t, err)
	assert.Equal(t, uint32(128), v)

	s, err := c.String(2, "string")
	require.NoError(t, err)
	assert.Equal(t, "aé", s)

	assert.Equal(t, 0, c.Remaining())
	assert.Equal(t, len(buf), c.Offset())
}

func TestCursorTruncation(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02, 0x03}, 0)
	_, err := c.Uint32("u32")
	assert.True(t, errdefs.IsTruncated(err))
	assert.Equal(t, 0, c.Offset(), "failed read must not advance")

	_, err = c.Bytes(-1, "negative")
	assert.True(t, errdefs.IsTruncated(err))

	_, err = c.Uint64LE("u64")
	assert.True(t, errdefs.IsTruncated(err))

	require.NoError(t, c.Skip(3, "all"))
	_, err = c.Uint8("past end")
	assert.True(t, errdefs.IsTruncated(err))
}

func TestBytesAreCopied(t *testing.T) {
	buf := []byte{1, 2, 3}
	c := NewCursor(buf, 0)
	b, err := c.Bytes(3, "b")
	require.NoError(t, err)
	buf[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, b)
}

func TestLatin1(t *testing.T) {
	t.Run("every byte maps to one rune", func(t *testing.T) {
		raw := make([]byte, 256)
		for i := range raw {
			raw[i] = byte(i)
		}
		s, err := DecodeLatin1(raw)
		require.NoError(t, err)
		runes := []rune(s)
		require.Len(t, runes, 256)
		for i, r := range runes {
			assert.Equal(t, rune(i), r)
		}

		back, err := EncodeLatin1(s)
		require.NoError(t, err)
		assert.Equal(t, raw, back)
	})

	t.Run("runes above U+00FF cannot be encoded", func(t *testing.T) {
		_, err := EncodeLatin1("€")
		assert.Error(t, err)
	})
}

func TestAppendString(t *testing.T) {
	b, err := AppendString(nil, "topic/é")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x07, 't', 'o', 'p', 'i', 'c', '/', 0xe9}, b)

	_, err = AppendPrefixed(nil, make([]byte, 0x10000))
	assert.Error(t, err)
}
