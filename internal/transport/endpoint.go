// Package transport implements the reliable-ordered UDP channel shared
// by both peer roles: one bound UDP socket, a type-keyed handler
// table, sequence-numbered reliable delivery with retransmission, and
// duplicate suppression. Unifies what the original implementation kept
// as two near-identical endpoint classes (client/server) into a single
// type parametrized by Role (spec.md section 9, REDESIGN FLAGS).
package transport

import (
	"context"
	"encoding/binary"
	"log"
	"net"
	"sync"
	"time"

	"github.com/ironwing/arena-server/internal/netcode"
)

// Role distinguishes the two sides of the channel. The demux table and
// fan-out behavior differ; everything else (framing, reliability,
// dedup) is shared.
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

// seqEnvelopeSize is the width of the transport-assigned sequence
// number prepended to every reliable packet's body before framing.
const seqEnvelopeSize = 4

// HandlerFunc processes a decoded packet body from a peer.
type HandlerFunc func(from *net.UDPAddr, body []byte)

// Endpoint is one bound UDP socket plus the reliability machinery
// layered on top of it, per spec.md section 4.2.
type Endpoint struct {
	role Role
	conn *net.UDPConn

	compressionRatio float64

	mu       sync.RWMutex
	handlers map[netcode.Type]HandlerFunc
	peers    map[string]*reliabilityState // by addr.String()

	// serverAddr pins the remote side for a client-role endpoint.
	serverAddr *net.UDPAddr

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool

	// inbox is only used by RoleClient: the receive loop enqueues here
	// instead of invoking handlers directly, and the owner's main/render
	// loop drains it via Poll (spec.md section 4.2).
	inbox chan InboundPacket
}

// NewEndpoint wraps an already-bound *net.UDPConn. The caller is
// responsible for net.ListenUDP (server) or net.DialUDP (client).
func NewEndpoint(role Role, conn *net.UDPConn) *Endpoint {
	return &Endpoint{
		role:             role,
		conn:             conn,
		compressionRatio: netcode.DefaultCompressionRatio,
		handlers:         make(map[netcode.Type]HandlerFunc),
		peers:            make(map[string]*reliabilityState),
		stopCh:           make(chan struct{}),
		inbox:            make(chan InboundPacket, DefaultInboxCapacity),
	}
}

// PinServer records the server address a client-role endpoint always
// sends to. No-op for a server-role endpoint.
func (e *Endpoint) PinServer(addr *net.UDPAddr) {
	e.serverAddr = addr
}

// Handle registers the handler invoked for decoded bodies of kind t.
func (e *Endpoint) Handle(t netcode.Type, h HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[t] = h
}

// Run starts the receive loop and the background timers (resend
// sweep, dedup eviction) until ctx is canceled or Close is called.
// Grounded on the teacher's gameLoop: ticker-driven select loop over a
// stop channel (internal/game/room.go).
func (e *Endpoint) Run(ctx context.Context) {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	e.wg.Add(3)
	go e.receiveLoop(ctx)
	go e.resendLoop(ctx)
	go e.dedupEvictionLoop(ctx)
}

// Close stops all background goroutines and closes the socket.
func (e *Endpoint) Close() error {
	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
	e.wg.Wait()
	return e.conn.Close()
}

func (e *Endpoint) peerState(addr *net.UDPAddr) *reliabilityState {
	key := addr.String()

	e.mu.RLock()
	rs, ok := e.peers[key]
	e.mu.RUnlock()
	if ok {
		return rs
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if rs, ok := e.peers[key]; ok {
		return rs
	}
	rs = newReliabilityState()
	e.peers[key] = rs
	return rs
}

// DropPeer releases reliability state for a disconnected client.
func (e *Endpoint) DropPeer(addr *net.UDPAddr) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.peers, addr.String())
}

// Send transmits body as an unreliable packet of kind t to addr (or to
// the pinned server, for a client-role endpoint if addr is nil).
func (e *Endpoint) Send(addr *net.UDPAddr, t netcode.Type, body []byte) error {
	return e.send(addr, t, body)
}

// SendReliable transmits body as a reliable packet of kind t, tagging
// it with the peer's next sequence number and tracking it for
// retransmission until acked or dropped.
func (e *Endpoint) SendReliable(addr *net.UDPAddr, t netcode.Type, body []byte) error {
	target := e.resolveAddr(addr)
	rs := e.peerState(target)

	seq := rs.nextSequence()
	envelope := make([]byte, seqEnvelopeSize+len(body))
	binary.LittleEndian.PutUint32(envelope[:seqEnvelopeSize], seq)
	copy(envelope[seqEnvelopeSize:], body)

	compressed := netcode.Compress(envelope, e.compressionRatio)
	framed := netcode.Frame(t, compressed)

	rs.trackReliable(seq, framed)
	_, err := e.conn.WriteToUDP(framed, target)
	return err
}

func (e *Endpoint) send(addr *net.UDPAddr, t netcode.Type, body []byte) error {
	target := e.resolveAddr(addr)
	compressed := netcode.Compress(body, e.compressionRatio)
	framed := netcode.Frame(t, compressed)
	_, err := e.conn.WriteToUDP(framed, target)
	return err
}

func (e *Endpoint) resolveAddr(addr *net.UDPAddr) *net.UDPAddr {
	if addr != nil {
		return addr
	}
	return e.serverAddr
}

func (e *Endpoint) receiveLoop(ctx context.Context) {
	defer e.wg.Done()

	buf := make([]byte, 65536)
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		default:
		}

		e.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, from, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-e.stopCh:
				return
			default:
			}
			continue
		}

		raw := make([]byte, n)
		copy(raw, buf[:n])
		e.handlePacket(from, raw)
	}
}

func (e *Endpoint) handlePacket(from *net.UDPAddr, raw []byte) {
	kind, body, err := netcode.Unframe(raw)
	if err != nil {
		log.Printf("transport: drop malformed packet from %s: %v", from, err)
		return
	}

	if netcode.IsCompressed(body) {
		body, err = netcode.Decompress(body)
		if err != nil {
			log.Printf("transport: drop packet from %s: %v", from, err)
			return
		}
	}

	rs := e.peerState(from)

	if kind == netcode.TypeAck {
		ack, err := netcode.DecodeAck(body)
		if err != nil {
			log.Printf("transport: drop malformed ack from %s: %v", from, err)
			return
		}
		rs.ack(ack.Seq)
		return
	}

	if !kind.Reliable() {
		e.dispatch(kind, from, body)
		return
	}

	if len(body) < seqEnvelopeSize {
		log.Printf("transport: drop truncated reliable packet %s from %s", kind, from)
		return
	}
	seq := binary.LittleEndian.Uint32(body[:seqEnvelopeSize])
	payload := body[seqEnvelopeSize:]

	rs.loss.OnReceived(seq)

	ack := netcode.Ack{Seq: seq}.Encode()
	if err := e.send(from, netcode.TypeAck, ack); err != nil {
		log.Printf("transport: failed to ack seq=%d kind=%s to %s: %v", seq, kind, from, err)
	}

	if !rs.admit(kind, seq) {
		return // duplicate or stale: acked, not redelivered
	}
	e.dispatch(kind, from, payload)
}

func (e *Endpoint) dispatch(kind netcode.Type, from *net.UDPAddr, body []byte) {
	if e.role == RoleClient {
		e.enqueue(InboundPacket{From: from, Kind: kind, Body: body})
		return
	}

	e.mu.RLock()
	h, ok := e.handlers[kind]
	e.mu.RUnlock()
	if !ok {
		log.Printf("transport: no handler registered for %s from %s", kind, from)
		return
	}
	h(from, body)
}

func (e *Endpoint) resendLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(MinResendInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case now := <-ticker.C:
			e.resendDue(now)
		}
	}
}

func (e *Endpoint) resendDue(now time.Time) {
	e.mu.RLock()
	snapshot := make(map[string]*reliabilityState, len(e.peers))
	for k, v := range e.peers {
		snapshot[k] = v
	}
	e.mu.RUnlock()

	for key, rs := range snapshot {
		addr, err := net.ResolveUDPAddr("udp", key)
		if err != nil {
			continue
		}
		resend, dropped := rs.dueForResend(now)
		if dropped > 0 {
			log.Printf("transport: dropped %d unacked packet(s) to %s after %d attempts", dropped, addr, MaxResend)
		}
		for _, framed := range resend {
			if _, err := e.conn.WriteToUDP(framed, addr); err != nil {
				log.Printf("transport: resend to %s failed: %v", addr, err)
			}
		}
	}
}

func (e *Endpoint) dedupEvictionLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(DedupEvictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case now := <-ticker.C:
			e.mu.RLock()
			for _, rs := range e.peers {
				rs.evictStale(now)
			}
			e.mu.RUnlock()
		}
	}
}
