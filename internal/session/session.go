// Package session implements the handshake layer spec.md section 6
// names: allocating a player_id for a freshly-seen UDP peer, tracking
// its client record independent of room membership, and sweeping
// peers that have gone silent past CLIENT_TIMEOUT.
package session

import (
	"net"
	"sync"
	"time"

	"github.com/ironwing/arena-server/internal/transport"
)

// ClientTimeout is how long a client may stay silent before the
// session sweep disconnects it, per spec.md section 5.
const ClientTimeout = 45 * time.Second

// Manager tracks every peer that has completed the PlayerInfo
// handshake, independent of whether it has since joined a room.
// Grounded on the teacher's GameServer.connections map
// (cmd/gameserver/main.go), generalized from one WebSocket
// *ClientConnection per socket to one *transport.ClientRecord per UDP
// peer address, since a UDP endpoint is not itself a connection
// object.
type Manager struct {
	mu           sync.RWMutex
	byPlayerID   map[uint32]*transport.ClientRecord
	byAddr       map[string]*transport.ClientRecord
	nextPlayerID uint32
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{
		byPlayerID: make(map[uint32]*transport.ClientRecord),
		byAddr:     make(map[string]*transport.ClientRecord),
	}
}

// Handshake completes a PlayerInfo exchange: returns the existing
// record for addr if one is already tracked (a client re-sending
// PlayerInfo after a name change or reconnect attempt), or allocates a
// fresh player_id and record otherwise.
func (m *Manager) Handshake(addr *net.UDPAddr) (*transport.ClientRecord, bool) {
	key := addr.String()

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.byAddr[key]; ok {
		return rec, false
	}

	id := m.nextPlayerID
	m.nextPlayerID++
	rec := transport.NewClientRecord(id, addr)
	m.byPlayerID[id] = rec
	m.byAddr[key] = rec
	return rec, true
}

// Get looks up a tracked client by player_id.
func (m *Manager) Get(playerID uint32) (*transport.ClientRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byPlayerID[playerID]
	return rec, ok
}

// GetByAddr looks up a tracked client by UDP peer address.
func (m *Manager) GetByAddr(addr *net.UDPAddr) (*transport.ClientRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byAddr[addr.String()]
	return rec, ok
}

// Remove drops a client from tracking, e.g. after a timeout or
// explicit disconnect.
func (m *Manager) Remove(playerID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byPlayerID[playerID]
	if !ok {
		return
	}
	delete(m.byPlayerID, playerID)
	delete(m.byAddr, rec.Addr.String())
}

// SweepTimeouts returns every tracked client whose last heartbeat is
// older than ClientTimeout, without removing them — the caller is
// responsible for the disconnect sequence (entity destroy,
// PlayerDisconnect broadcast, Remove) spec.md section 5 names.
func (m *Manager) SweepTimeouts(now time.Time) []*transport.ClientRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var timedOut []*transport.ClientRecord
	for _, rec := range m.byPlayerID {
		if rec.IdleSince(now) > ClientTimeout {
			timedOut = append(timedOut, rec)
		}
	}
	return timedOut
}

// Count returns the number of tracked clients.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byPlayerID)
}
