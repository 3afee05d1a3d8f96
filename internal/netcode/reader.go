package netcode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

// Reader walks a packet body in little-endian wire format.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for sequential reads. data is not copied; callers
// must not mutate it while the Reader is in use.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return ErrTruncated
	}
	return nil
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// Uint16 reads a uint16 (2 bytes, LE).
func (r *Reader) Uint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// Uint32 reads a uint32 (4 bytes, LE).
func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// Int32 reads an int32 (4 bytes, LE).
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// Uint64 reads a uint64 (8 bytes, LE).
func (r *Reader) Uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// Float32 reads an f32 (4 bytes, LE, native float layout).
func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Bool reads a single byte, true if non-zero.
func (r *Reader) Bool() (bool, error) {
	v, err := r.Uint8()
	return v != 0, err
}

// String reads a length-prefixed (uint16) UTF-8 string.
func (r *Reader) String() (string, error) {
	n, err := r.Uint16()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// FixedString reads exactly n bytes and returns the portion before the
// first NUL (or all n bytes if no NUL is present).
func (r *Reader) FixedString(n int) (string, error) {
	if err := r.need(n); err != nil {
		return "", err
	}
	raw := r.data[r.pos : r.pos+n]
	r.pos += n
	if idx := bytes.IndexByte(raw, 0); idx >= 0 {
		raw = raw[:idx]
	}
	return string(raw), nil
}

// Bytes reads n raw bytes. The returned slice aliases the Reader's
// backing array; callers must not retain it past decoding.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.New("netcode: negative length")
	}
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Rest returns every unread byte.
func (r *Reader) Rest() []byte {
	b := r.data[r.pos:]
	r.pos = len(r.data)
	return b
}
