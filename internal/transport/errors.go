package transport

import "errors"

var (
	// ErrUnknownPeer names the unknown-peer condition. No function in
	// this package currently returns it.
	ErrUnknownPeer = errors.New("transport: unknown peer")

	// ErrEndpointClosed names the closed-endpoint condition. No function
	// in this package currently returns it.
	ErrEndpointClosed = errors.New("transport: endpoint closed")

	// ErrMaxResend names the max-resend condition. It is not returned:
	// a reliable entry that reaches MaxResend is purged and the drop is
	// only logged.
	ErrMaxResend = errors.New("transport: max resend attempts reached")
)
