package transport

import (
	"sync"
	"time"

	"github.com/ironwing/arena-server/internal/netcode"
)

// MinResendInterval is the cadence of the retransmission sweep
// (spec.md section 4.2).
const MinResendInterval = 500 * time.Millisecond

// MaxResend is the number of send attempts (the original send plus
// MaxResend-1 retransmissions) after which an unacknowledged reliable
// packet is purged.
const MaxResend = 5

// DedupEvictionInterval bounds the per-(peer,kind) last-processed-seq
// table's memory by periodically dropping stale entries.
const DedupEvictionInterval = 60 * time.Second

// unackedPacket is one entry in a peer's unacknowledged-packet map,
// keyed by outgoing sequence number.
type unackedPacket struct {
	bytes      []byte
	resendCount int
	lastSent   time.Time
}

// reliabilityState is the per-peer bookkeeping spec.md section 4.1
// assigns to a ClientRecord: outgoing sequence counter, unacked map,
// and the highest-seen incoming sequence per message kind.
type reliabilityState struct {
	mu sync.Mutex

	nextSeq uint32
	unacked map[uint32]*unackedPacket

	lastProcessedSeq map[netcode.Type]uint32
	lastSeenAt       map[netcode.Type]time.Time

	loss *LossMonitor
}

func newReliabilityState() *reliabilityState {
	return &reliabilityState{
		unacked:          make(map[uint32]*unackedPacket),
		lastProcessedSeq: make(map[netcode.Type]uint32),
		lastSeenAt:       make(map[netcode.Type]time.Time),
		loss:             NewLossMonitor(),
	}
}

// nextSequence returns the next outgoing sequence number for this peer.
func (s *reliabilityState) nextSequence() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

// trackReliable registers a just-sent reliable packet for retransmission.
func (s *reliabilityState) trackReliable(seq uint32, bytes []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unacked[seq] = &unackedPacket{bytes: bytes, lastSent: time.Now()}
}

// ack removes seq from the unacked map, as if the peer acknowledged it.
func (s *reliabilityState) ack(seq uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.unacked, seq)
}

// dueForResend returns the bytes of every unacked entry whose last-sent
// time is older than MinResendInterval, bumping resendCount and
// last-sent for each, and purging entries that reach MaxResend.
func (s *reliabilityState) dueForResend(now time.Time) (resend [][]byte, dropped int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for seq, p := range s.unacked {
		if now.Sub(p.lastSent) < MinResendInterval {
			continue
		}
		p.resendCount++
		if p.resendCount >= MaxResend {
			delete(s.unacked, seq)
			dropped++
			continue
		}
		p.lastSent = now
		resend = append(resend, p.bytes)
	}
	return resend, dropped
}

// admit applies duplicate suppression for an incoming packet of kind
// with sequence seq: returns true if it should be processed (new),
// false if it is a duplicate/stale that should only be acked.
func (s *reliabilityState) admit(kind netcode.Type, seq uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.lastProcessedSeq[kind]
	s.lastSeenAt[kind] = time.Now()
	if ok && seq <= last {
		return false
	}
	s.lastProcessedSeq[kind] = seq
	return true
}

// evictStale drops per-kind dedup entries untouched for longer than
// DedupEvictionInterval, bounding memory per spec.md section 4.2.
func (s *reliabilityState) evictStale(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for kind, seenAt := range s.lastSeenAt {
		if now.Sub(seenAt) >= DedupEvictionInterval {
			delete(s.lastSeenAt, kind)
			delete(s.lastProcessedSeq, kind)
		}
	}
}

func (s *reliabilityState) lossRatio() float64 {
	return s.loss.LossRatio()
}
