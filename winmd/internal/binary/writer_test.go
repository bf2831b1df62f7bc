package binary

import (
	"bytes"
	"testing"
)

func TestLittleEndian(t *testing.T) {
	w := NewWriter()
	w.U16(0x1234)
	w.U32(0xAABBCCDD)
	w.U64(0x1122334455667788)
	want := []byte{
		0x34, 0x12,
		0xDD, 0xCC, 0xBB, 0xAA,
		0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11,
	}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got % X, want % X", w.Bytes(), want)
	}
}

func TestIndexWidth(t *testing.T) {
	w := NewWriter()
	w.Index(7, false)
	w.Index(7, true)
	if w.Len() != 6 {
		t.Errorf("got %d bytes, want 6", w.Len())
	}
}

func TestCompressed(t *testing.T) {
	tests := []struct {
		v    uint32
		want []byte
	}{
		{0x03, []byte{0x03}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x80, 0x80}},
		{0x2E57, []byte{0xAE, 0x57}},
		{0x3FFF, []byte{0xBF, 0xFF}},
		{0x4000, []byte{0xC0, 0x00, 0x40, 0x00}},
		{0x1FFFFFFF, []byte{0xDF, 0xFF, 0xFF, 0xFF}},
	}
	for _, tt := range tests {
		w := NewWriter()
		w.Compressed(tt.v)
		if !bytes.Equal(w.Bytes(), tt.want) {
			t.Errorf("Compressed(%#x) = % X, want % X", tt.v, w.Bytes(), tt.want)
		}
		if got := CompressedLen(tt.v); got != len(tt.want) {
			t.Errorf("CompressedLen(%#x) = %d, want %d", tt.v, got, len(tt.want))
		}
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7F, 0x80, 0x1234, 0x3FFF, 0x4000, 0xFFFFF, 0x1FFFFFFF}
	for _, v := range values {
		w := NewWriter()
		w.Compressed(v)
		got, n := ReadCompressed(w.Bytes())
		if got != v || n != w.Len() {
			t.Errorf("round trip of %#x: got %#x (%d bytes)", v, got, n)
		}
	}
}

func TestReadCompressedUnderflow(t *testing.T) {
	for _, data := range [][]byte{nil, {0x80}, {0xC0, 0x00}} {
		if _, n := ReadCompressed(data); n != 0 {
			t.Errorf("truncated input % X should return 0 consumed, got %d", data, n)
		}
	}
}

func TestAlign(t *testing.T) {
	w := NewWriter()
	w.Byte(1)
	w.Align(4)
	if w.Len() != 4 {
		t.Errorf("got %d, want 4", w.Len())
	}
	w.Align(4)
	if w.Len() != 4 {
		t.Error("aligning an aligned buffer should add nothing")
	}
}
