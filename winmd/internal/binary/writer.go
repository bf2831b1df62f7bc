// Package binary provides buffered writing utilities for ECMA-335
// metadata encoding.
package binary

import (
	"bytes"
	"encoding/binary"
)

// Writer accumulates little-endian metadata bytes.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteString writes raw UTF-8 bytes without a length prefix.
func (w *Writer) WriteString(s string) {
	w.buf.WriteString(s)
}

// U16 writes a little-endian uint16.
func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// U32 writes a little-endian uint32.
func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// U64 writes a little-endian uint64.
func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// Index writes a 2- or 4-byte index depending on wide.
func (w *Writer) Index(v uint32, wide bool) {
	if wide {
		w.U32(v)
	} else {
		w.U16(uint16(v))
	}
}

// Compressed writes v in the ECMA-335 compressed unsigned integer
// format: 1 byte below 0x80, 2 bytes below 0x4000 (big-endian with the
// 0x80 tag), otherwise 4 bytes with the 0xC0 tag.
func (w *Writer) Compressed(v uint32) {
	switch {
	case v < 0x80:
		w.buf.WriteByte(byte(v))
	case v < 0x4000:
		w.buf.WriteByte(byte(v>>8) | 0x80)
		w.buf.WriteByte(byte(v))
	default:
		w.buf.WriteByte(byte(v>>24) | 0xC0)
		w.buf.WriteByte(byte(v >> 16))
		w.buf.WriteByte(byte(v >> 8))
		w.buf.WriteByte(byte(v))
	}
}

// Align pads with zero bytes to the given boundary.
func (w *Writer) Align(boundary int) {
	for w.buf.Len()%boundary != 0 {
		w.buf.WriteByte(0)
	}
}

// CompressedLen returns the encoded size of v, used when laying out
// blob heap entries.
func CompressedLen(v uint32) int {
	switch {
	case v < 0x80:
		return 1
	case v < 0x4000:
		return 2
	default:
		return 4
	}
}

// ReadCompressed decodes an ECMA-335 compressed unsigned integer,
// returning the value and the number of bytes consumed (0 on underflow).
func ReadCompressed(data []byte) (uint32, int) {
	if len(data) == 0 {
		return 0, 0
	}
	b := data[0]
	switch {
	case b&0x80 == 0:
		return uint32(b), 1
	case b&0xC0 == 0x80:
		if len(data) < 2 {
			return 0, 0
		}
		return uint32(b&0x3F)<<8 | uint32(data[1]), 2
	default:
		if len(data) < 4 {
			return 0, 0
		}
		return uint32(b&0x1F)<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]), 4
	}
}
