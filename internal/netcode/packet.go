package netcode

import "encoding/binary"

// HeaderSize is the on-wire size of the type+size header: one byte for
// the packet type, four bytes (LE) for the total packet size.
const HeaderSize = 1 + 4

// Frame prepends the type+size header to a (possibly compressed) body and
// returns the complete on-wire packet.
func Frame(t Type, body []byte) []byte {
	total := HeaderSize + len(body)
	out := make([]byte, total)
	out[0] = byte(t)
	binary.LittleEndian.PutUint32(out[1:5], uint32(total))
	copy(out[5:], body)
	return out
}

// Unframe splits a raw datagram into its type and body, validating the
// embedded size field. Per spec.md section 4.1, truncated packets and
// size mismatches are reported as errors for the caller to drop and log.
func Unframe(raw []byte) (Type, []byte, error) {
	if len(raw) < HeaderSize {
		return 0, nil, ErrTruncated
	}
	t := Type(raw[0])
	size := binary.LittleEndian.Uint32(raw[1:5])
	if int(size) != len(raw) {
		return 0, nil, ErrSizeMismatch
	}
	return t, raw[HeaderSize:], nil
}
