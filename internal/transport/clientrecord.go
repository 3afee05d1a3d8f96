package transport

import (
	"net"
	"sync"
	"time"

	"github.com/ironwing/arena-server/internal/ecs"
)

// NoRoom is the sentinel RoomID value for a ClientRecord not currently
// assigned to any room.
const NoRoom = ""

// ClientRecord is the server's bookkeeping for one connected peer,
// per spec.md section 3's data model table.
type ClientRecord struct {
	PlayerID uint32
	Addr     *net.UDPAddr

	mu            sync.Mutex
	connected     bool
	roomID        string
	entity        ecs.Entity
	hasEntity     bool
	lastHeartbeat time.Time

	reliability *reliabilityState
}

// NewClientRecord creates a record for a freshly-handshaked peer.
func NewClientRecord(playerID uint32, addr *net.UDPAddr) *ClientRecord {
	return &ClientRecord{
		PlayerID:      playerID,
		Addr:          addr,
		connected:     true,
		roomID:        NoRoom,
		lastHeartbeat: time.Now(),
		reliability:   newReliabilityState(),
	}
}

// Touch records a heartbeat or any other liveness signal from the peer.
func (c *ClientRecord) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastHeartbeat = time.Now()
}

// IdleSince returns how long it has been since the last liveness signal.
func (c *ClientRecord) IdleSince(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.lastHeartbeat)
}

// SetConnected updates the connection flag.
func (c *ClientRecord) SetConnected(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = v
}

// Connected reports the current connection flag.
func (c *ClientRecord) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SetRoom assigns or clears (NoRoom) the client's current room.
func (c *ClientRecord) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// RoomID returns the client's current room, or NoRoom.
func (c *ClientRecord) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// SetEntity records the entity handle assigned once the client is
// placed in-game.
func (c *ClientRecord) SetEntity(e ecs.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entity = e
	c.hasEntity = true
}

// ClearEntity drops the entity association, e.g. on room leave.
func (c *ClientRecord) ClearEntity() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entity = 0
	c.hasEntity = false
}

// Entity returns the in-game entity handle, if any.
func (c *ClientRecord) Entity() (ecs.Entity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entity, c.hasEntity
}

// LossRatio returns the loss ratio of the record's own reliability
// state. The Endpoint tracks each peer in its own per-address state
// and does not feed this one, so the value stays 0.
func (c *ClientRecord) LossRatio() float64 {
	return c.reliability.lossRatio()
}
