package archive

import (
	"bytes"
	"testing"
)

func benchImage(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// BenchmarkHeader benchmarks header operations.
func BenchmarkHeader(b *testing.B) {
	header := NewHeader(1024*1024, 512*1024, 0x01020304)

	b.Run("EncodeTo", func(b *testing.B) {
		buf := make([]byte, HeaderSize)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			header.EncodeTo(buf)
		}
	})

	data, _ := header.MarshalBinary()

	b.Run("Unmarshal", func(b *testing.B) {
		h := &Header{}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := h.UnmarshalBinary(data); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkEncodeDecode benchmarks a full pack and unpack of a 1MB image.
func BenchmarkEncodeDecode(b *testing.B) {
	data := benchImage(1024 * 1024)

	b.Run("Encode", func(b *testing.B) {
		b.SetBytes(int64(len(data)))
		for i := 0; i < b.N; i++ {
			ws := &seekableBuffer{Buffer: &bytes.Buffer{}}
			if err := Encode(ws, data); err != nil {
				b.Fatal(err)
			}
		}
	})

	ws := &seekableBuffer{Buffer: &bytes.Buffer{}}
	if err := Encode(ws, data); err != nil {
		b.Fatal(err)
	}
	encoded := ws.Bytes()

	b.Run("Decode", func(b *testing.B) {
		b.SetBytes(int64(len(data)))
		for i := 0; i < b.N; i++ {
			if _, err := Unpack(encoded); err != nil {
				b.Fatal(err)
			}
		}
	})
}
