package netcode

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Writer accumulates a packet body in little-endian wire format.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates a Writer with the given initial capacity hint.
func NewWriter(capacity int) *Writer {
	w := &Writer{}
	w.buf.Grow(capacity)
	return w
}

// Bytes returns the accumulated body.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.buf.Len() }

// PutUint8 writes a single byte.
func (w *Writer) PutUint8(v uint8) { w.buf.WriteByte(v) }

// PutUint16 writes a uint16 (2 bytes, LE).
func (w *Writer) PutUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// PutUint32 writes a uint32 (4 bytes, LE).
func (w *Writer) PutUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// PutInt32 writes an int32 (4 bytes, LE).
func (w *Writer) PutInt32(v int32) { w.PutUint32(uint32(v)) }

// PutUint64 writes a uint64 (8 bytes, LE).
func (w *Writer) PutUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// PutFloat32 writes an f32 (4 bytes, LE, native float layout).
func (w *Writer) PutFloat32(v float32) {
	w.PutUint32(math.Float32bits(v))
}

// PutBool writes a single byte, 1 for true.
func (w *Writer) PutBool(v bool) {
	if v {
		w.PutUint8(1)
	} else {
		w.PutUint8(0)
	}
}

// PutString writes a length-prefixed (uint16) UTF-8 string.
func (w *Writer) PutString(s string) {
	w.PutUint16(uint16(len(s)))
	w.buf.WriteString(s)
}

// PutFixedString writes a NUL-terminated, zero-padded string occupying
// exactly n bytes. s is truncated if it would not fit with its terminator.
func (w *Writer) PutFixedString(s string, n int) {
	b := make([]byte, n)
	maxLen := n - 1
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	copy(b, s)
	w.buf.Write(b)
}

// PutBytes writes raw bytes verbatim (no length prefix).
func (w *Writer) PutBytes(b []byte) { w.buf.Write(b) }
