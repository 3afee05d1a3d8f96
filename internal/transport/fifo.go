package transport

import (
	"log"
	"net"

	"github.com/ironwing/arena-server/internal/netcode"
)

// DefaultInboxCapacity bounds the client endpoint's inbound FIFO
// (spec.md section 4.2: "bounded FIFO (default 1000; overflow =
// drop-newest with a log)").
const DefaultInboxCapacity = 1000

// InboundPacket is one decoded, dedup-admitted packet waiting on a
// client endpoint's FIFO for a main-thread poll to drain.
type InboundPacket struct {
	From *net.UDPAddr
	Kind netcode.Type
	Body []byte
}

// enqueue attempts a non-blocking push; on a full inbox the newest
// packet is dropped and logged, never the oldest.
func (e *Endpoint) enqueue(p InboundPacket) {
	select {
	case e.inbox <- p:
	default:
		log.Printf("transport: inbox full (cap=%d), dropping %s from %s", cap(e.inbox), p.Kind, p.From)
	}
}

// Poll returns the next queued inbound packet, if any, without
// blocking. Intended for a client's main/render loop.
func (e *Endpoint) Poll() (InboundPacket, bool) {
	select {
	case p := <-e.inbox:
		return p, true
	default:
		return InboundPacket{}, false
	}
}
