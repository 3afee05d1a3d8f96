package transport

import "sync"

// LossMonitor tracks cumulative counts of received and skipped
// sequence numbers for one peer since creation or the last Reset, and
// exposes their ratio. Nothing in this module reads the ratio. Ported from
// core/network/PacketLossMonitor.hpp in the original implementation.
type LossMonitor struct {
	mu sync.Mutex

	lastSeq      uint32
	hasLastSeq   bool
	received     uint32
	lost         uint32
}

// NewLossMonitor returns a fresh, unseeded monitor.
func NewLossMonitor() *LossMonitor {
	return &LossMonitor{}
}

// OnReceived records the arrival of sequence seq.
func (m *LossMonitor) OnReceived(seq uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasLastSeq {
		m.lastSeq = seq
		m.hasLastSeq = true
		return
	}

	expected := m.lastSeq + 1
	switch {
	case seq > expected:
		m.lost += seq - expected
		m.received++
	case seq == expected:
		m.received++
	}
	m.lastSeq = seq
}

// LossRatio returns lost / (lost + received), or 0 before any samples.
func (m *LossMonitor) LossRatio() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.lost + m.received
	if total == 0 {
		return 0
	}
	return float64(m.lost) / float64(total)
}

// Reset clears all accumulated state.
func (m *LossMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasLastSeq = false
	m.lastSeq = 0
	m.received = 0
	m.lost = 0
}
