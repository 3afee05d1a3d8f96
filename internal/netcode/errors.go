package netcode

import "errors"

// Transport-kind errors. They are always handled by dropping the packet
// and logging; they never propagate to the simulation (spec.md section 7).
var (
	ErrTruncated  = errors.New("netcode: truncated packet")
	ErrBadMagic   = errors.New("netcode: bad compression magic")
	ErrSizeMismatch = errors.New("netcode: header/body size mismatch")
	ErrUnknownType  = errors.New("netcode: unknown packet type")
)
